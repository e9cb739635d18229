package service

import (
	"context"
	"net/url"

	"github.com/google/uuid"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/refdata"
	"breachnotice/internal/wizard/reconcile"
	"breachnotice/internal/wizard/validate"
	dErrors "breachnotice/pkg/domain-errors"
)

// WarningDetailsView is the reconciled state for the warning-details step:
// every enforceable contact from the latest fetch annotated with the saved
// selections, plus placeholders for contacts the remote system no longer
// reports.
type WarningDetailsView struct {
	Document        *models.BreachNotice
	Decision        access.Decision
	Contacts        []models.CheckItem
	SentenceTypes   []models.RadioButton
	Degraded        bool
	DegradedMessage string
	Errors          validate.Errors
}

// WarningDetailsInput is the parsed warning-details form submission. Form
// carries the raw values so the flat per-contact field families can be
// correlated on their id suffixes.
type WarningDetailsInput struct {
	Action                 string
	ReturnTo               string
	FailuresBeingEnforced  []string
	ConditionBeingEnforced string
	FurtherReasonDetails   string
	Form                   url.Values
}

// LoadWarningDetails builds the GET view.
func (s *Service) LoadWarningDetails(ctx context.Context, id uuid.UUID, username string) (*WarningDetailsView, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, err
	}
	view := &WarningDetailsView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, nil
	}

	details, err := s.gateway.GetWarningDetails(ctx, doc.CRN)
	if err != nil {
		if refdata.IsTransient(err) {
			s.noteGatewayFailure(ctx, "warning-details", err)
			view.Degraded = true
			view.DegradedMessage = DegradedMessage
			return view, nil
		}
		return nil, classifyGateway(err)
	}

	saved, err := s.store.ListContacts(ctx, doc.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list saved contacts")
	}

	view.Contacts = reconcile.MergeContacts(details.Contacts, saved, details.FailureReasons)
	view.SentenceTypes = conditionRadios(details.SentenceTypes, doc.ConditionBeingEnforced)
	return view, nil
}

// SaveWarningDetails handles the POST: it diffs the submitted contact
// selection against the persisted one, applies the create/update/delete
// batches sequentially, drops links that referenced removed contacts, then
// recalculates the derived failure summary and writes the document.
func (s *Service) SaveWarningDetails(ctx context.Context, id uuid.UUID, username string, input WarningDetailsInput) (*WarningDetailsView, *SaveOutcome, error) {
	if input.Action == ActionCancel {
		return nil, &SaveOutcome{Navigation: Navigation{Kind: NavCancel, Step: priorStep(models.StepWarningDetails)}}, nil
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, nil, err
	}
	view := &WarningDetailsView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, &SaveOutcome{}, nil
	}

	details, err := s.gateway.GetWarningDetails(ctx, doc.CRN)
	if err != nil {
		if refdata.IsTransient(err) {
			s.noteGatewayFailure(ctx, "warning-details", err)
			view.Degraded = true
			view.DegradedMessage = DegradedMessage
			return view, &SaveOutcome{}, nil
		}
		return nil, nil, classifyGateway(err)
	}

	saved, err := s.store.ListContacts(ctx, doc.ID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list saved contacts")
	}

	selections, errs := reconcile.CorrelateFailureForm(input.Form)
	submittedIDs, parseErr := reconcile.ParseRemoteIDs(input.FailuresBeingEnforced)
	if parseErr != nil {
		errs.Add("failuresBeingEnforced", "has an invalid contact id")
	}
	errs.Merge(validate.FurtherReasonDetails("furtherReasonDetails", input.FurtherReasonDetails))
	condition := findCode(details.SentenceTypes, input.ConditionBeingEnforced)
	if condition == nil {
		errs.Add("conditionBeingEnforced", "select the condition being enforced")
	}

	savedByRemote := make(map[int64]*models.Contact, len(saved))
	prevIDs := make([]int64, 0, len(saved))
	for _, c := range saved {
		savedByRemote[c.RemoteID] = c
		prevIDs = append(prevIDs, c.RemoteID)
	}
	remoteByID := make(map[int64]refdata.EnforceableContact, len(details.Contacts))
	for _, rc := range details.Contacts {
		remoteByID[rc.ID] = rc
	}
	for _, sid := range submittedIDs {
		if _, persisted := savedByRemote[sid]; persisted {
			continue
		}
		if _, remote := remoteByID[sid]; !remote {
			errs.Add("failuresBeingEnforced", "is not an enforceable contact")
			break
		}
	}

	if errs.Has() {
		s.metrics.IncrementValidationFailure(string(models.StepWarningDetails))
		view.Contacts = reconcile.MergeContacts(details.Contacts, saved, details.FailureReasons)
		view.SentenceTypes = conditionRadios(details.SentenceTypes, doc.ConditionBeingEnforced)
		view.Errors = errs
		return view, &SaveOutcome{Errors: errs}, nil
	}

	selectionByID := make(map[int64]reconcile.FailureSelection, len(selections))
	for _, sel := range selections {
		selectionByID[sel.ContactID] = sel
	}

	diff := reconcile.DiffRemoteIDs(prevIDs, submittedIDs)
	for _, rid := range diff.ToCreate {
		rc := remoteByID[rid]
		contact, err := models.NewContact(doc.ID, rid, rc.TypeDescription)
		if err != nil {
			return nil, nil, err
		}
		contact.ContactDateTime = rc.DateTime
		contact.TypeCode = rc.TypeCode
		contact.OutcomeDescription = rc.OutcomeDescription
		if sel, ok := selectionByID[rid]; ok {
			contact.FailureReason = sel.Reason
			contact.WholeSentence = sel.WholeSentence
		}
		if err := s.store.CreateContact(ctx, contact); err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create contact")
		}
	}
	for _, rid := range diff.ToDelete {
		if err := s.store.DeleteContact(ctx, doc.ID, rid); err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to delete contact")
		}
	}
	if len(diff.ToDelete) > 0 {
		if _, err := s.store.BatchDeleteLinks(ctx, doc.ID, diff.ToDelete); err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to delete requirement links for removed contacts")
		}
	}
	for _, rid := range diff.ToKeep {
		existing := savedByRemote[rid]
		sel, ok := selectionByID[rid]
		if !ok {
			continue
		}
		if existing.FailureReason == sel.Reason && existing.WholeSentence == sel.WholeSentence {
			continue
		}
		existing.FailureReason = sel.Reason
		existing.WholeSentence = sel.WholeSentence
		if err := s.store.UpdateContact(ctx, existing); err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to update contact")
		}
	}

	if err := s.store.RecalculateFailureSummary(ctx, doc.ID); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to recalculate failure summary")
	}

	doc.ConditionBeingEnforced = condition.Description
	doc.FurtherReasonDetails = input.FurtherReasonDetails
	doc.MarkStepSaved(models.StepWarningDetails)
	if err := s.store.Update(ctx, doc); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save warning details")
	}
	s.metrics.IncrementStepSaved(string(models.StepWarningDetails))

	return view, &SaveOutcome{Navigation: decideNavigation(models.StepWarningDetails, input.Action, input.ReturnTo)}, nil
}

// conditionRadios annotates the condition options. The document stores the
// chosen description, so pre-selection matches on description rather than
// code.
func conditionRadios(values []refdata.CodedValue, savedDescription string) []models.RadioButton {
	buttons := make([]models.RadioButton, 0, len(values))
	for _, v := range values {
		buttons = append(buttons, models.RadioButton{
			Code:    v.Code,
			Label:   v.Description,
			Checked: savedDescription != "" && v.Description == savedDescription,
		})
	}
	return buttons
}
