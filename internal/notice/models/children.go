package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "breachnotice/pkg/domain-errors"
)

// Child records carry dual identity: RemoteID is the stable id assigned by
// the case-management system; ID is the document-scoped id assigned on first
// persistence. Comparison across the two systems always uses RemoteID.

// Contact is an enforceable failure event cited on the notice, annotated by
// the officer with a failure reason and a whole-sentence flag.
type Contact struct {
	ID                 uuid.UUID `json:"id"`
	DocumentID         uuid.UUID `json:"document_id"`
	RemoteID           int64     `json:"remote_id"`
	ContactDateTime    time.Time `json:"contact_date_time"`
	TypeCode           string    `json:"type_code"`
	TypeDescription    string    `json:"type_description"`
	OutcomeDescription string    `json:"outcome_description"`
	FailureReason      string    `json:"failure_reason"`
	WholeSentence      bool      `json:"whole_sentence"`
}

// NewContact creates a Contact with domain invariant validation.
func NewContact(documentID uuid.UUID, remoteID int64, typeDescription string) (*Contact, error) {
	if documentID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contact document id cannot be empty")
	}
	if remoteID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contact remote id must be positive")
	}
	return &Contact{
		ID:              uuid.New(),
		DocumentID:      documentID,
		RemoteID:        remoteID,
		TypeDescription: typeDescription,
	}, nil
}

// Requirement is a supervision requirement selected as grounds for breach.
type Requirement struct {
	ID                 uuid.UUID `json:"id"`
	DocumentID         uuid.UUID `json:"document_id"`
	RemoteID           int64     `json:"remote_id"`
	TypeCode           string    `json:"type_code"`
	TypeDescription    string    `json:"type_description"`
	SubTypeCode        string    `json:"sub_type_code"`
	SubTypeDescription string    `json:"sub_type_description"`
	RejectionReason    string    `json:"rejection_reason"`
}

// NewRequirement creates a Requirement with domain invariant validation.
func NewRequirement(documentID uuid.UUID, remoteID int64, typeDescription string) (*Requirement, error) {
	if documentID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requirement document id cannot be empty")
	}
	if remoteID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "requirement remote id must be positive")
	}
	return &Requirement{
		ID:              uuid.New(),
		DocumentID:      documentID,
		RemoteID:        remoteID,
		TypeDescription: typeDescription,
	}, nil
}

// ContactRequirementLink associates one failure contact with one requirement.
// Links are reconciled as a batch against the user's latest selection.
type ContactRequirementLink struct {
	ID                  uuid.UUID `json:"id"`
	DocumentID          uuid.UUID `json:"document_id"`
	RemoteContactID     int64     `json:"remote_contact_id"`
	RemoteRequirementID int64     `json:"remote_requirement_id"`
}

// NewContactRequirementLink creates a link with domain invariant validation.
func NewContactRequirementLink(documentID uuid.UUID, remoteContactID, remoteRequirementID int64) (*ContactRequirementLink, error) {
	if documentID == uuid.Nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "link document id cannot be empty")
	}
	if remoteContactID <= 0 || remoteRequirementID <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "link remote ids must be positive")
	}
	return &ContactRequirementLink{
		ID:                  uuid.New(),
		DocumentID:          documentID,
		RemoteContactID:     remoteContactID,
		RemoteRequirementID: remoteRequirementID,
	}, nil
}
