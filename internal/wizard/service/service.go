// Package service orchestrates the wizard steps: each operation loads the
// document, runs the access gate, reconciles reference data with persisted
// selections, validates submitted input, persists mutations, and decides
// where the user goes next.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/notice/store"
	"breachnotice/internal/platform/metrics"
	"breachnotice/internal/refdata"
	dErrors "breachnotice/pkg/domain-errors"
	"breachnotice/pkg/platform/sentinel"
)

// Service holds the collaborators shared by every wizard step.
type Service struct {
	store   store.DocumentStore
	gateway refdata.Gateway
	gate    *access.Gate
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs the wizard service.
func New(documents store.DocumentStore, gateway refdata.Gateway, gate *access.Gate, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   documents,
		gateway: gateway,
		gate:    gate,
		logger:  logger,
		metrics: m,
	}
}

// load fetches the document, translating store sentinels into domain errors.
// A missing document is an actionable problem (the link is stale); anything
// else is treated as a transient store failure.
func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.BreachNotice, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "breach notice not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "document store unavailable")
	}
	return doc, nil
}

// checkAccess runs the access gate, classifying gateway failures. An auth
// failure forces sign-out; anything else from the access check itself is
// unhandled by design and reaches the generic error page.
func (s *Service) checkAccess(ctx context.Context, doc *models.BreachNotice, username string) (access.Decision, error) {
	decision, err := s.gate.Check(ctx, doc, username)
	if err != nil {
		if refdata.IsAuthFailure(err) {
			return access.Decision{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "access check rejected credentials")
		}
		return access.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "access check failed")
	}
	return decision, nil
}

// classifyGateway maps a reference-data failure for the non-degradable paths:
// auth failures force sign-out, 400s go to the detailed error page. Transient
// failures are not mapped here; callers catch them and degrade instead.
func classifyGateway(err error) error {
	switch {
	case refdata.IsAuthFailure(err):
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "reference data rejected credentials")
	case refdata.IsActionable(err):
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "reference data reported a data problem")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "reference data call failed")
	}
}

// NavKind describes where the user goes after a successful save.
type NavKind string

const (
	// NavNext redirects to the canonical next step.
	NavNext NavKind = "next"
	// NavCheckYourReport redirects back to the summary step.
	NavCheckYourReport NavKind = "check-your-report"
	// NavClose emits a close-window response instead of navigating.
	NavClose NavKind = "close"
	// NavCancel skips back to the prior step without saving.
	NavCancel NavKind = "cancel"
)

// Navigation is a step handler's routing decision.
type Navigation struct {
	Kind NavKind
	Step models.Step
}

// Form actions shared by every step template.
const (
	ActionCancel       = "cancel"
	ActionSaveAndClose = "saveProgressAndClose"
	// ReturnToCheckYourReport is the returnTo query value (and matching
	// action) that routes back to the summary step after saving.
	ReturnToCheckYourReport = "check-your-report"
)

func decideNavigation(step models.Step, action, returnTo string) Navigation {
	switch {
	case action == ActionSaveAndClose:
		return Navigation{Kind: NavClose}
	case returnTo == ReturnToCheckYourReport || action == ReturnToCheckYourReport:
		return Navigation{Kind: NavCheckYourReport, Step: models.StepCheckYourReport}
	default:
		return Navigation{Kind: NavNext, Step: step.Next()}
	}
}

// priorStep is the cancel target for each step.
func priorStep(step models.Step) models.Step {
	switch step {
	case models.StepWarningType:
		return models.StepBasicDetails
	case models.StepWarningDetails:
		return models.StepWarningType
	case models.StepNextAppointment:
		return models.StepWarningDetails
	case models.StepCheckYourReport:
		return models.StepNextAppointment
	default:
		return models.StepBasicDetails
	}
}

func (s *Service) noteGatewayFailure(ctx context.Context, op string, err error) {
	s.metrics.IncrementGatewayFailure("transient")
	s.logger.WarnContext(ctx, "reference data unavailable, continuing degraded",
		"op", op,
		"error", err.Error(),
	)
}

// DegradedMessage is the inline banner text shown when reference data is
// unavailable and the step renders with placeholder data.
const DegradedMessage = "Some case information is temporarily unavailable. You can continue and save; reload the page to try again."
