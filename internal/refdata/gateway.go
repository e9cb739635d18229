// Package refdata defines the contract of the case-management reference-data
// gateway and an in-process stub used for dev and tests. The wire-level REST
// client lives outside this service.
package refdata

import (
	"context"
	"time"

	"github.com/google/uuid"

	"breachnotice/internal/notice/models"
)

// BasicDetails is the reference data for the basic-details step.
type BasicDetails struct {
	Title     string
	Name      OffenderName
	Addresses []models.Address
	// ReplyAddresses are the probation office addresses the officer can pick
	// as the reply-to address.
	ReplyAddresses []models.Address
}

// OffenderName is the offender's structured name from the case record.
type OffenderName struct {
	Forename string
	Middle   string
	Surname  string
}

// FullName joins the name parts for display on the notice.
func (n OffenderName) FullName() string {
	full := n.Forename
	if n.Middle != "" {
		full += " " + n.Middle
	}
	return full + " " + n.Surname
}

// WarningTypes is the reference data for the warning-type step.
type WarningTypes struct {
	WarningTypes  []CodedValue
	SentenceTypes []CodedValue
}

// CodedValue is a code/description pair from a reference-data table.
type CodedValue struct {
	Code        string
	Description string
}

// EnforceableContact is a recorded failure event eligible to be cited on the
// notice. ID is the remote id assigned by the case-management system.
type EnforceableContact struct {
	ID                 int64
	DateTime           time.Time
	TypeCode           string
	TypeDescription    string
	OutcomeDescription string
	Notes              string
}

// WarningDetails is the reference data for the warning-details step.
type WarningDetails struct {
	Contacts       []EnforceableContact
	FailureReasons []CodedValue
	// SentenceTypes carries the condition-being-enforced options.
	SentenceTypes []CodedValue
}

// SupervisionRequirement is a requirement on the offender's sentence that can
// be cited as grounds for breach.
type SupervisionRequirement struct {
	ID                 int64
	TypeCode           string
	TypeDescription    string
	SubTypeCode        string
	SubTypeDescription string
}

// Requirements is the reference data for requirement selection.
type Requirements struct {
	Requirements     []SupervisionRequirement
	RejectionReasons []CodedValue
}

// LimitedAccessCheck reports case-level access restrictions for a user.
type LimitedAccessCheck struct {
	UserExcluded       bool
	UserRestricted     bool
	ExclusionMessage   string
	RestrictionMessage string
}

// Denied reports whether the user may not see the case.
func (c LimitedAccessCheck) Denied() bool {
	return c.UserExcluded || c.UserRestricted
}

// Message returns the applicable restriction message.
func (c LimitedAccessCheck) Message() string {
	if c.UserExcluded {
		return c.ExclusionMessage
	}
	if c.UserRestricted {
		return c.RestrictionMessage
	}
	return ""
}

// Gateway fetches read-only lookups from the case-management system, keyed by
// CRN and document id. All calls are awaited sequentially within a request;
// failures are classified by GatewayError.
type Gateway interface {
	GetBasicDetails(ctx context.Context, crn, username string) (*BasicDetails, error)
	GetWarningTypes(ctx context.Context, crn string, documentID uuid.UUID) (*WarningTypes, error)
	GetWarningDetails(ctx context.Context, crn string) (*WarningDetails, error)
	GetRequirements(ctx context.Context, crn string, documentID uuid.UUID) (*Requirements, error)
	GetLimitedAccessCheck(ctx context.Context, crn, username string) (*LimitedAccessCheck, error)
}
