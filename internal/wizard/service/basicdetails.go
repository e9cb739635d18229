package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/refdata"
	"breachnotice/internal/wizard/reconcile"
	"breachnotice/internal/wizard/validate"
	dErrors "breachnotice/pkg/domain-errors"
	"breachnotice/pkg/requestcontext"
)

// BasicDetailsView is the reconciled state for the basic-details step.
type BasicDetailsView struct {
	Document        *models.BreachNotice
	Decision        access.Decision
	TitleAndName    string
	PostalAddresses []models.SelectItem
	ReplyAddresses  []models.SelectItem
	Degraded        bool
	DegradedMessage string
	Errors          validate.Errors
}

// BasicDetailsInput is the parsed basic-details form submission.
type BasicDetailsInput struct {
	Action          string
	ReturnTo        string
	DateOfLetter    string
	OfficeReference string
	PostalAddressID string
	ReplyAddressID  string
}

// SaveOutcome is the result of a POST on any step: either validation errors
// (re-render, nothing persisted) or a navigation decision after persisting.
type SaveOutcome struct {
	Errors     validate.Errors
	Navigation Navigation
}

// LoadBasicDetails builds the GET view. A transient reference-data failure
// yields a degraded but usable view; auth and 400-class failures propagate
// for the handler to classify.
func (s *Service) LoadBasicDetails(ctx context.Context, id uuid.UUID, username string) (*BasicDetailsView, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, err
	}
	view := &BasicDetailsView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, nil
	}

	details, err := s.gateway.GetBasicDetails(ctx, doc.CRN, username)
	if err != nil {
		if refdata.IsTransient(err) {
			s.noteGatewayFailure(ctx, "basic-details", err)
			view.Degraded = true
			view.DegradedMessage = DegradedMessage
			return view, nil
		}
		return nil, classifyGateway(err)
	}

	view.TitleAndName = titleAndName(details)
	view.PostalAddresses = reconcile.AddressOptions(details.Addresses, doc.OffenderAddress)
	view.ReplyAddresses = reconcile.AddressOptions(details.ReplyAddresses, doc.ReplyAddress)
	return view, nil
}

// SaveBasicDetails handles the POST. Cancel skips back without saving; a
// transient reference-data failure re-renders degraded without persisting.
func (s *Service) SaveBasicDetails(ctx context.Context, id uuid.UUID, username string, input BasicDetailsInput) (*BasicDetailsView, *SaveOutcome, error) {
	if input.Action == ActionCancel {
		return nil, &SaveOutcome{Navigation: Navigation{Kind: NavCancel, Step: priorStep(models.StepBasicDetails)}}, nil
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, nil, err
	}
	view := &BasicDetailsView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, &SaveOutcome{}, nil
	}

	details, err := s.gateway.GetBasicDetails(ctx, doc.CRN, username)
	if err != nil {
		if refdata.IsTransient(err) {
			s.noteGatewayFailure(ctx, "basic-details", err)
			view.Degraded = true
			view.DegradedMessage = DegradedMessage
			return view, &SaveOutcome{}, nil
		}
		return nil, nil, classifyGateway(err)
	}

	now := requestcontext.Now(ctx)
	var errs validate.Errors
	letterDate, dateErrs := validate.LetterDate("dateOfLetter", input.DateOfLetter, now)
	errs.Merge(dateErrs)
	errs.Merge(validate.OfficeReference("officeReference", input.OfficeReference))

	if errs.Has() {
		s.metrics.IncrementValidationFailure(string(models.StepBasicDetails))
		view.TitleAndName = titleAndName(details)
		view.PostalAddresses = reconcile.AddressOptions(details.Addresses, doc.OffenderAddress)
		view.ReplyAddresses = reconcile.AddressOptions(details.ReplyAddresses, doc.ReplyAddress)
		view.Errors = errs
		return view, &SaveOutcome{Errors: errs}, nil
	}

	doc.TitleAndFullName = titleAndName(details)
	doc.DateOfLetter = &letterDate
	doc.OfficeReference = strings.TrimSpace(input.OfficeReference)
	if addr := findAddress(details.Addresses, input.PostalAddressID); addr != nil {
		doc.OffenderAddress = addr
	}
	if addr := findAddress(details.ReplyAddresses, input.ReplyAddressID); addr != nil {
		doc.ReplyAddress = addr
	}
	doc.MarkStepSaved(models.StepBasicDetails)

	if err := s.store.Update(ctx, doc); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save basic details")
	}
	s.metrics.IncrementStepSaved(string(models.StepBasicDetails))

	return view, &SaveOutcome{Navigation: decideNavigation(models.StepBasicDetails, input.Action, input.ReturnTo)}, nil
}

func titleAndName(details *refdata.BasicDetails) string {
	return strings.TrimSpace(details.Title + " " + details.Name.FullName())
}

func findAddress(addresses []models.Address, rawID string) *models.Address {
	if rawID == "" {
		return nil
	}
	id, err := reconcile.ParseRemoteID(rawID)
	if err != nil {
		return nil
	}
	for _, a := range addresses {
		if a.RemoteID == id {
			copied := a
			return &copied
		}
	}
	return nil
}
