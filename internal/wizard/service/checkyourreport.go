package service

import (
	"context"

	"github.com/google/uuid"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/refdata"
	"breachnotice/internal/wizard/validate"
	dErrors "breachnotice/pkg/domain-errors"
	"breachnotice/pkg/requestcontext"
)

// CheckYourReportView is the summary step: the whole document plus its child
// collections and the list of anything still blocking publication.
type CheckYourReportView struct {
	Document     *models.BreachNotice
	Decision     access.Decision
	Contacts     []*models.Contact
	Requirements []*models.Requirement
	Links        []*models.ContactRequirementLink
	Missing      []string
	Ready        bool
	Errors       validate.Errors
}

// LoadCheckYourReport builds the summary view.
func (s *Service) LoadCheckYourReport(ctx context.Context, id uuid.UUID, username string) (*CheckYourReportView, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, err
	}
	view := &CheckYourReportView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, nil
	}
	if err := s.fillChildren(ctx, view); err != nil {
		return nil, err
	}
	view.Missing = doc.MissingForPublish()
	view.Ready = len(view.Missing) == 0
	return view, nil
}

// Publish marks the notice completed. An incomplete document re-renders the
// summary with the missing items as field errors; nothing is persisted.
func (s *Service) Publish(ctx context.Context, id uuid.UUID, username string) (*CheckYourReportView, *SaveOutcome, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, nil, err
	}
	view := &CheckYourReportView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, &SaveOutcome{}, nil
	}

	if missing := doc.MissingForPublish(); len(missing) > 0 {
		var errs validate.Errors
		for _, m := range missing {
			errs.Add("report", m+" is required before publishing")
		}
		s.metrics.IncrementValidationFailure(string(models.StepCheckYourReport))
		if err := s.fillChildren(ctx, view); err != nil {
			return nil, nil, err
		}
		view.Missing = missing
		view.Errors = errs
		return view, &SaveOutcome{Errors: errs}, nil
	}

	now := requestcontext.Now(ctx)
	if err := doc.Publish(now); err != nil {
		return nil, nil, err
	}
	if err := s.store.Update(ctx, doc); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to publish notice")
	}
	s.metrics.IncrementPublished()
	s.logger.InfoContext(ctx, "breach notice published", "document_id", doc.ID, "crn", doc.CRN)

	return view, &SaveOutcome{Navigation: Navigation{Kind: NavNext}}, nil
}

// ConfirmDeleteView is the state for the confirm-delete step.
type ConfirmDeleteView struct {
	Document *models.BreachNotice
	Decision access.Decision
}

// LoadConfirmDelete builds the confirm-delete view.
func (s *Service) LoadConfirmDelete(ctx context.Context, id uuid.UUID, username string) (*ConfirmDeleteView, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, err
	}
	return &ConfirmDeleteView{Document: doc, Decision: decision}, nil
}

// DeleteNotice soft-deletes the notice. Cancel returns to the summary step
// without touching the document.
func (s *Service) DeleteNotice(ctx context.Context, id uuid.UUID, username, action string) (*ConfirmDeleteView, *SaveOutcome, error) {
	if action == ActionCancel {
		return nil, &SaveOutcome{Navigation: Navigation{Kind: NavCancel, Step: models.StepCheckYourReport}}, nil
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, nil, err
	}
	view := &ConfirmDeleteView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, &SaveOutcome{}, nil
	}

	now := requestcontext.Now(ctx)
	if err := doc.MarkDeleted(now); err != nil {
		return nil, nil, err
	}
	if err := s.store.Update(ctx, doc); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to delete notice")
	}
	s.metrics.IncrementDeleted()
	s.logger.InfoContext(ctx, "breach notice deleted", "document_id", doc.ID, "crn", doc.CRN)

	return view, &SaveOutcome{Navigation: Navigation{Kind: NavNext}}, nil
}

// TerminalView is the state for the report-completed and report-deleted
// pages. These pages render for documents the wizard gate would otherwise
// stop on, so only the case-level restriction applies here.
type TerminalView struct {
	Document   *models.BreachNotice
	Restricted bool
	Message    string
}

// LoadTerminal builds the view for a terminal page. It checks only the
// limited-access restriction, not the document's terminal timestamps.
func (s *Service) LoadTerminal(ctx context.Context, id uuid.UUID, username string) (*TerminalView, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	check, err := s.gateway.GetLimitedAccessCheck(ctx, doc.CRN, username)
	if err != nil {
		if refdata.IsTransient(err) {
			// The terminal pages carry no case data beyond the notice itself;
			// fail open rather than block the confirmation screen.
			s.noteGatewayFailure(ctx, "limited-access", err)
			return &TerminalView{Document: doc}, nil
		}
		return nil, classifyGateway(err)
	}
	if check.Denied() {
		return &TerminalView{Document: doc, Restricted: true, Message: check.Message()}, nil
	}
	return &TerminalView{Document: doc}, nil
}

func (s *Service) fillChildren(ctx context.Context, view *CheckYourReportView) error {
	var err error
	if view.Contacts, err = s.store.ListContacts(ctx, view.Document.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list contacts")
	}
	if view.Requirements, err = s.store.ListRequirements(ctx, view.Document.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list requirements")
	}
	if view.Links, err = s.store.ListLinks(ctx, view.Document.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list requirement links")
	}
	return nil
}
