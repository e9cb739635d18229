package refdata

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"breachnotice/internal/notice/models"
)

// StubGateway serves fixture reference data for dev and tests. Failures can
// be injected per operation to exercise the page controllers' error
// classification.
type StubGateway struct {
	mu sync.RWMutex

	BasicDetailsFixture   *BasicDetails
	WarningTypesFixture   *WarningTypes
	WarningDetailsFixture *WarningDetails
	RequirementsFixture   *Requirements
	AccessFixture         *LimitedAccessCheck

	failures map[string]*GatewayError
}

// NewStubGateway constructs a stub preloaded with representative fixtures.
func NewStubGateway() *StubGateway {
	return &StubGateway{
		BasicDetailsFixture: &BasicDetails{
			Title: "Mr",
			Name:  OffenderName{Forename: "Sam", Surname: "Archer"},
			Addresses: []models.Address{
				{RemoteID: 100, Status: "Main", Number: "12", Street: "High Street", TownCity: "Sheffield", Postcode: "S1 2AB"},
				{RemoteID: 101, Status: "Previous", Number: "4", Street: "Mill Lane", TownCity: "Sheffield", Postcode: "S3 9XY"},
			},
			ReplyAddresses: []models.Address{
				{RemoteID: 200, Status: "Office", BuildingName: "Probation House", Street: "Queen Street", TownCity: "Sheffield", Postcode: "S1 4QQ"},
			},
		},
		WarningTypesFixture: &WarningTypes{
			WarningTypes: []CodedValue{
				{Code: "FW", Description: "First Warning"},
				{Code: "SW", Description: "Second Warning"},
				{Code: "BW", Description: "Breach Warning"},
			},
			SentenceTypes: []CodedValue{
				{Code: "CO", Description: "Community Order"},
				{Code: "SSO", Description: "Suspended Sentence Order"},
			},
		},
		WarningDetailsFixture: &WarningDetails{
			Contacts: []EnforceableContact{
				{ID: 1, DateTime: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), TypeCode: "APP", TypeDescription: "Planned Appointment", OutcomeDescription: "Failed to Attend"},
				{ID: 2, DateTime: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), TypeCode: "APP", TypeDescription: "Planned Appointment", OutcomeDescription: "Unacceptable Absence"},
				{ID: 3, DateTime: time.Date(2024, 3, 18, 14, 0, 0, 0, time.UTC), TypeCode: "UPW", TypeDescription: "Unpaid Work", OutcomeDescription: "Failed to Attend"},
			},
			FailureReasons: []CodedValue{
				{Code: "FTC", Description: "Failed to comply"},
				{Code: "FTA", Description: "Failed to attend"},
				{Code: "UB", Description: "Unacceptable behaviour"},
			},
			SentenceTypes: []CodedValue{
				{Code: "CO", Description: "Community Order"},
				{Code: "SSO", Description: "Suspended Sentence Order"},
			},
		},
		RequirementsFixture: &Requirements{
			Requirements: []SupervisionRequirement{
				{ID: 10, TypeCode: "UPW", TypeDescription: "Unpaid Work", SubTypeCode: "REG", SubTypeDescription: "Regular"},
				{ID: 11, TypeCode: "RAR", TypeDescription: "Rehabilitation Activity", SubTypeCode: "DAYS", SubTypeDescription: "Days"},
			},
			RejectionReasons: []CodedValue{
				{Code: "FTC", Description: "Failed to comply"},
				{Code: "FTA", Description: "Failed to attend"},
			},
		},
		AccessFixture: &LimitedAccessCheck{},
		failures:      make(map[string]*GatewayError),
	}
}

// FailWith injects an error for the named operation ("basic-details",
// "warning-types", "warning-details", "requirements", "limited-access").
func (g *StubGateway) FailWith(op string, err *GatewayError) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

// ClearFailures removes all injected failures.
func (g *StubGateway) ClearFailures() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = make(map[string]*GatewayError)
}

func (g *StubGateway) failure(op string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err, ok := g.failures[op]; ok {
		return err
	}
	return nil
}

func (g *StubGateway) GetBasicDetails(_ context.Context, _, _ string) (*BasicDetails, error) {
	if err := g.failure("basic-details"); err != nil {
		return nil, err
	}
	return g.BasicDetailsFixture, nil
}

func (g *StubGateway) GetWarningTypes(_ context.Context, _ string, _ uuid.UUID) (*WarningTypes, error) {
	if err := g.failure("warning-types"); err != nil {
		return nil, err
	}
	return g.WarningTypesFixture, nil
}

func (g *StubGateway) GetWarningDetails(_ context.Context, _ string) (*WarningDetails, error) {
	if err := g.failure("warning-details"); err != nil {
		return nil, err
	}
	return g.WarningDetailsFixture, nil
}

func (g *StubGateway) GetRequirements(_ context.Context, _ string, _ uuid.UUID) (*Requirements, error) {
	if err := g.failure("requirements"); err != nil {
		return nil, err
	}
	return g.RequirementsFixture, nil
}

func (g *StubGateway) GetLimitedAccessCheck(_ context.Context, _, _ string) (*LimitedAccessCheck, error) {
	if err := g.failure("limited-access"); err != nil {
		return nil, err
	}
	return g.AccessFixture, nil
}
