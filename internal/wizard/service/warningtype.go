package service

import (
	"context"

	"github.com/google/uuid"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/refdata"
	"breachnotice/internal/wizard/reconcile"
	"breachnotice/internal/wizard/validate"
	dErrors "breachnotice/pkg/domain-errors"
	"breachnotice/pkg/requestcontext"
)

// WarningTypeView is the reconciled state for the warning-type step.
type WarningTypeView struct {
	Document        *models.BreachNotice
	Decision        access.Decision
	WarningTypes    []models.RadioButton
	SentenceTypes   []models.RadioButton
	Degraded        bool
	DegradedMessage string
	Errors          validate.Errors
}

// WarningTypeInput is the parsed warning-type form submission.
type WarningTypeInput struct {
	Action               string
	ReturnTo             string
	WarningType          string
	SentenceType         string
	ResponseRequiredDate string
}

// LoadWarningType builds the GET view with both radio groups annotated from
// the persisted selections.
func (s *Service) LoadWarningType(ctx context.Context, id uuid.UUID, username string) (*WarningTypeView, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, err
	}
	view := &WarningTypeView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, nil
	}

	types, err := s.gateway.GetWarningTypes(ctx, doc.CRN, doc.ID)
	if err != nil {
		if refdata.IsTransient(err) {
			s.noteGatewayFailure(ctx, "warning-types", err)
			view.Degraded = true
			view.DegradedMessage = DegradedMessage
			return view, nil
		}
		return nil, classifyGateway(err)
	}

	view.WarningTypes = reconcile.Radios(types.WarningTypes, doc.WarningTypeCode)
	view.SentenceTypes = reconcile.Radios(types.SentenceTypes, doc.SentenceTypeCode)
	return view, nil
}

// SaveWarningType handles the POST. The selected codes are resolved back to
// descriptions from the latest reference data so the stored description never
// drifts from the code.
func (s *Service) SaveWarningType(ctx context.Context, id uuid.UUID, username string, input WarningTypeInput) (*WarningTypeView, *SaveOutcome, error) {
	if input.Action == ActionCancel {
		return nil, &SaveOutcome{Navigation: Navigation{Kind: NavCancel, Step: priorStep(models.StepWarningType)}}, nil
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, nil, err
	}
	view := &WarningTypeView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, &SaveOutcome{}, nil
	}

	types, err := s.gateway.GetWarningTypes(ctx, doc.CRN, doc.ID)
	if err != nil {
		if refdata.IsTransient(err) {
			s.noteGatewayFailure(ctx, "warning-types", err)
			view.Degraded = true
			view.DegradedMessage = DegradedMessage
			return view, &SaveOutcome{}, nil
		}
		return nil, nil, classifyGateway(err)
	}

	now := requestcontext.Now(ctx)
	var errs validate.Errors
	responseDate, dateErrs := validate.Date("responseRequiredByDate", input.ResponseRequiredDate, now)
	errs.Merge(dateErrs)
	if findCode(types.WarningTypes, input.WarningType) == nil {
		errs.Add("warningType", "select a warning type")
	}
	if findCode(types.SentenceTypes, input.SentenceType) == nil {
		errs.Add("sentenceType", "select a sentence type")
	}

	if errs.Has() {
		s.metrics.IncrementValidationFailure(string(models.StepWarningType))
		view.WarningTypes = reconcile.Radios(types.WarningTypes, input.WarningType)
		view.SentenceTypes = reconcile.Radios(types.SentenceTypes, input.SentenceType)
		view.Errors = errs
		return view, &SaveOutcome{Errors: errs}, nil
	}

	warning := findCode(types.WarningTypes, input.WarningType)
	sentence := findCode(types.SentenceTypes, input.SentenceType)
	doc.WarningTypeCode = warning.Code
	doc.WarningTypeDescription = warning.Description
	doc.SentenceTypeCode = sentence.Code
	doc.SentenceTypeDescription = sentence.Description
	doc.ResponseRequiredDate = &responseDate
	doc.MarkStepSaved(models.StepWarningType)

	if err := s.store.Update(ctx, doc); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save warning type")
	}
	s.metrics.IncrementStepSaved(string(models.StepWarningType))

	return view, &SaveOutcome{Navigation: decideNavigation(models.StepWarningType, input.Action, input.ReturnTo)}, nil
}

func findCode(values []refdata.CodedValue, code string) *refdata.CodedValue {
	if code == "" {
		return nil
	}
	for _, v := range values {
		if v.Code == code {
			copied := v
			return &copied
		}
	}
	return nil
}
