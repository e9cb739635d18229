package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "breachnotice/pkg/domain-errors"
)

// Step identifies a wizard page. The order below is the canonical navigation
// order; each step keeps its own saved flag on the document so the navigation
// menu can enable links independently.
type Step string

const (
	StepBasicDetails    Step = "basic-details"
	StepWarningType     Step = "warning-type"
	StepWarningDetails  Step = "warning-details"
	StepNextAppointment Step = "next-appointment"
	StepCheckYourReport Step = "check-your-report"
)

// Next returns the canonical next step in the wizard.
func (s Step) Next() Step {
	switch s {
	case StepBasicDetails:
		return StepWarningType
	case StepWarningType:
		return StepWarningDetails
	case StepWarningDetails:
		return StepNextAppointment
	case StepNextAppointment:
		return StepCheckYourReport
	default:
		return StepCheckYourReport
	}
}

// IsValid checks if the step is one of the wizard pages.
func (s Step) IsValid() bool {
	switch s {
	case StepBasicDetails, StepWarningType, StepWarningDetails, StepNextAppointment, StepCheckYourReport:
		return true
	}
	return false
}

// Address is a postal address selected from the reference data.
type Address struct {
	RemoteID     int64  `json:"remote_id"`
	Status       string `json:"status"`
	BuildingName string `json:"building_name"`
	Number       string `json:"number"`
	Street       string `json:"street"`
	TownCity     string `json:"town_city"`
	District     string `json:"district"`
	County       string `json:"county"`
	Postcode     string `json:"postcode"`
}

// BreachNotice is the aggregate root of the wizard. It is created externally
// with a known id before the wizard is reached, mutated incrementally by each
// step, and written back whole (last write wins). Child collections (contacts,
// requirements, links) are persisted through their own store operations.
type BreachNotice struct {
	ID  uuid.UUID `json:"id"`
	CRN string    `json:"crn"`

	// Basic details.
	TitleAndFullName string     `json:"title_and_full_name"`
	OffenderAddress  *Address   `json:"offender_address,omitempty"`
	ReplyAddress     *Address   `json:"reply_address,omitempty"`
	DateOfLetter     *time.Time `json:"date_of_letter,omitempty"`
	OfficeReference  string     `json:"office_reference"`

	// Warning type.
	WarningTypeCode         string     `json:"warning_type_code"`
	WarningTypeDescription  string     `json:"warning_type_description"`
	SentenceTypeCode        string     `json:"sentence_type_code"`
	SentenceTypeDescription string     `json:"sentence_type_description"`
	ResponseRequiredDate    *time.Time `json:"response_required_date,omitempty"`

	// Warning details.
	ConditionBeingEnforced string `json:"condition_being_enforced"`
	FurtherReasonDetails   string `json:"further_reason_details"`
	// FailureSummary is derived from the contact collection by the store's
	// RecalculateFailureSummary operation; the wizard never sets it directly.
	FailureSummary string `json:"failure_summary"`

	// Next appointment.
	AppointmentType     string     `json:"appointment_type"`
	AppointmentLocation string     `json:"appointment_location"`
	AppointmentDateTime *time.Time `json:"appointment_date_time,omitempty"`
	OfficerName         string     `json:"officer_name"`
	ContactNumber       string     `json:"contact_number"`

	BasicDetailsSaved    bool `json:"basic_details_saved"`
	WarningTypeSaved     bool `json:"warning_type_saved"`
	WarningDetailsSaved  bool `json:"warning_details_saved"`
	NextAppointmentSaved bool `json:"next_appointment_saved"`

	CompletedDate *time.Time `json:"completed_date,omitempty"`
	DeletedDate   *time.Time `json:"deleted_date,omitempty"`
}

// NewBreachNotice creates a draft notice with domain invariant validation.
func NewBreachNotice(id uuid.UUID, crn string) (*BreachNotice, error) {
	if id == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document id cannot be empty")
	}
	if crn == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "crn cannot be empty")
	}
	return &BreachNotice{ID: id, CRN: crn}, nil
}

// IsCompleted reports whether the notice has been published. Once completed
// the document is immutable from the wizard's perspective.
func (n *BreachNotice) IsCompleted() bool {
	return n.CompletedDate != nil
}

// IsDeleted reports whether the notice has been deleted.
func (n *BreachNotice) IsDeleted() bool {
	return n.DeletedDate != nil
}

// StepSaved reports whether the given step has been saved on this document.
func (n *BreachNotice) StepSaved(step Step) bool {
	switch step {
	case StepBasicDetails:
		return n.BasicDetailsSaved
	case StepWarningType:
		return n.WarningTypeSaved
	case StepWarningDetails:
		return n.WarningDetailsSaved
	case StepNextAppointment:
		return n.NextAppointmentSaved
	}
	return false
}

// MarkStepSaved sets the saved flag for a step. Steps are independently
// settable; a later step can be saved before an earlier one via direct URL
// navigation.
func (n *BreachNotice) MarkStepSaved(step Step) {
	switch step {
	case StepBasicDetails:
		n.BasicDetailsSaved = true
	case StepWarningType:
		n.WarningTypeSaved = true
	case StepWarningDetails:
		n.WarningDetailsSaved = true
	case StepNextAppointment:
		n.NextAppointmentSaved = true
	}
}

// MissingForPublish lists the fields still required before the notice can be
// published. Empty means the completeness predicate passes.
func (n *BreachNotice) MissingForPublish() []string {
	var missing []string
	if !n.BasicDetailsSaved {
		missing = append(missing, "basic details")
	}
	if !n.WarningTypeSaved {
		missing = append(missing, "warning type")
	}
	if !n.WarningDetailsSaved {
		missing = append(missing, "warning details")
	}
	if !n.NextAppointmentSaved {
		missing = append(missing, "next appointment")
	}
	if n.TitleAndFullName == "" {
		missing = append(missing, "offender name")
	}
	if n.OffenderAddress == nil {
		missing = append(missing, "postal address")
	}
	if n.DateOfLetter == nil {
		missing = append(missing, "date of letter")
	}
	if n.WarningTypeCode == "" {
		missing = append(missing, "warning type selection")
	}
	if n.SentenceTypeCode == "" {
		missing = append(missing, "sentence type selection")
	}
	if n.ResponseRequiredDate == nil {
		missing = append(missing, "response required date")
	}
	if n.ConditionBeingEnforced == "" {
		missing = append(missing, "condition being enforced")
	}
	if n.AppointmentDateTime == nil {
		missing = append(missing, "next appointment date")
	}
	return missing
}

// ReadyToPublish reports whether the completeness predicate passes.
func (n *BreachNotice) ReadyToPublish() bool {
	return len(n.MissingForPublish()) == 0
}

// Publish marks the notice completed. Fails if already completed, deleted, or
// the completeness predicate does not pass.
func (n *BreachNotice) Publish(now time.Time) error {
	if n.IsCompleted() {
		return dErrors.New(dErrors.CodeInvariantViolation, "notice is already published")
	}
	if n.IsDeleted() {
		return dErrors.New(dErrors.CodeInvariantViolation, "notice has been deleted")
	}
	if missing := n.MissingForPublish(); len(missing) > 0 {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "notice is not ready to publish: missing %v", missing)
	}
	n.CompletedDate = &now
	return nil
}

// MarkDeleted records the deletion timestamp. Deletion is reachable from any
// state via the explicit confirm-delete step.
func (n *BreachNotice) MarkDeleted(now time.Time) error {
	if n.IsDeleted() {
		return dErrors.New(dErrors.CodeInvariantViolation, "notice is already deleted")
	}
	n.DeletedDate = &now
	return nil
}
