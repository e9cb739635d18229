package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/wizard/validate"
	dErrors "breachnotice/pkg/domain-errors"
	"breachnotice/pkg/requestcontext"
)

// NextAppointmentView is the state for the next-appointment step. The step
// needs no reference data; it renders only from the document.
type NextAppointmentView struct {
	Document *models.BreachNotice
	Decision access.Decision
	Errors   validate.Errors
}

// NextAppointmentInput is the parsed next-appointment form submission.
type NextAppointmentInput struct {
	Action          string
	ReturnTo        string
	AppointmentType string
	Location        string
	AppointmentDate string
	OfficerName     string
	ContactNumber   string
}

// LoadNextAppointment builds the GET view.
func (s *Service) LoadNextAppointment(ctx context.Context, id uuid.UUID, username string) (*NextAppointmentView, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, err
	}
	return &NextAppointmentView{Document: doc, Decision: decision}, nil
}

// SaveNextAppointment handles the POST.
func (s *Service) SaveNextAppointment(ctx context.Context, id uuid.UUID, username string, input NextAppointmentInput) (*NextAppointmentView, *SaveOutcome, error) {
	if input.Action == ActionCancel {
		return nil, &SaveOutcome{Navigation: Navigation{Kind: NavCancel, Step: priorStep(models.StepNextAppointment)}}, nil
	}

	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	decision, err := s.checkAccess(ctx, doc, username)
	if err != nil {
		return nil, nil, err
	}
	view := &NextAppointmentView{Document: doc, Decision: decision}
	if decision.Stop() {
		return view, &SaveOutcome{}, nil
	}

	now := requestcontext.Now(ctx)
	var errs validate.Errors
	appointmentDate, dateErrs := validate.Date("appointmentDate", input.AppointmentDate, now)
	errs.Merge(dateErrs)
	errs.Merge(validate.ContactNumber("contactNumber", input.ContactNumber))

	if errs.Has() {
		s.metrics.IncrementValidationFailure(string(models.StepNextAppointment))
		view.Errors = errs
		return view, &SaveOutcome{Errors: errs}, nil
	}

	doc.AppointmentType = strings.TrimSpace(input.AppointmentType)
	doc.AppointmentLocation = strings.TrimSpace(input.Location)
	doc.AppointmentDateTime = &appointmentDate
	doc.OfficerName = strings.TrimSpace(input.OfficerName)
	doc.ContactNumber = strings.TrimSpace(input.ContactNumber)
	doc.MarkStepSaved(models.StepNextAppointment)

	if err := s.store.Update(ctx, doc); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save next appointment")
	}
	s.metrics.IncrementStepSaved(string(models.StepNextAppointment))

	return view, &SaveOutcome{Navigation: decideNavigation(models.StepNextAppointment, input.Action, input.ReturnTo)}, nil
}
