// Package access implements the per-request access gate that runs before any
// wizard step renders.
package access

import (
	"context"
	"log/slog"

	"breachnotice/internal/notice/models"
	"breachnotice/internal/refdata"
)

// Outcome is the gate's verdict for a request.
type Outcome int

const (
	// OutcomeAllow lets the step proceed.
	OutcomeAllow Outcome = iota
	// OutcomeRestricted renders the limited-access view and stops.
	OutcomeRestricted
	// OutcomeCompleted redirects to the report-completed view and stops.
	OutcomeCompleted
	// OutcomeDeleted redirects to the report-deleted view and stops.
	OutcomeDeleted
)

// Decision carries the outcome plus the restriction message when applicable.
type Decision struct {
	Outcome Outcome
	Message string
}

// Stop reports whether the caller must not continue processing the step.
func (d Decision) Stop() bool {
	return d.Outcome != OutcomeAllow
}

// Gate checks case-level access restrictions and document terminal states.
type Gate struct {
	gateway refdata.Gateway
	logger  *slog.Logger
}

// NewGate constructs an access gate.
func NewGate(gateway refdata.Gateway, logger *slog.Logger) *Gate {
	return &Gate{gateway: gateway, logger: logger}
}

// Check queries the limited-access flag for the document's case and the
// document's terminal timestamps. A gateway failure propagates to the caller
// for classification; nothing is rendered here.
func (g *Gate) Check(ctx context.Context, doc *models.BreachNotice, username string) (Decision, error) {
	check, err := g.gateway.GetLimitedAccessCheck(ctx, doc.CRN, username)
	if err != nil {
		return Decision{}, err
	}
	if check.Denied() {
		g.logger.InfoContext(ctx, "access restricted",
			"crn", doc.CRN,
			"username", username,
			"excluded", check.UserExcluded,
			"restricted", check.UserRestricted,
		)
		return Decision{Outcome: OutcomeRestricted, Message: check.Message()}, nil
	}
	if doc.IsCompleted() {
		return Decision{Outcome: OutcomeCompleted}, nil
	}
	if doc.IsDeleted() {
		return Decision{Outcome: OutcomeDeleted}, nil
	}
	return Decision{Outcome: OutcomeAllow}, nil
}
