package store

import (
	"context"

	"github.com/google/uuid"

	"breachnotice/internal/notice/models"
)

// DocumentStore is the contract of the backing document-store service. The
// wizard reads the whole document, mutates it in memory, and writes it back
// whole; concurrent edits are last write wins. Child collections have their
// own operations because the external service scopes them separately.
//
// Error Contract:
// All store methods follow this pattern:
// - Return sentinel.ErrNotFound (wrapped) when the requested entity does not exist
// - Return sentinel.ErrConflict (wrapped) when a child record for the same
//   remote id already exists on the document
// - Return nil for successful operations
// - Return wrapped errors with context for infrastructure failures
type DocumentStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.BreachNotice, error)
	Update(ctx context.Context, doc *models.BreachNotice) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListContacts(ctx context.Context, documentID uuid.UUID) ([]*models.Contact, error)
	CreateContact(ctx context.Context, contact *models.Contact) error
	UpdateContact(ctx context.Context, contact *models.Contact) error
	DeleteContact(ctx context.Context, documentID uuid.UUID, remoteID int64) error

	ListRequirements(ctx context.Context, documentID uuid.UUID) ([]*models.Requirement, error)
	CreateRequirement(ctx context.Context, requirement *models.Requirement) error
	UpdateRequirement(ctx context.Context, requirement *models.Requirement) error
	DeleteRequirement(ctx context.Context, documentID uuid.UUID, remoteID int64) error

	ListLinks(ctx context.Context, documentID uuid.UUID) ([]*models.ContactRequirementLink, error)
	// BatchCreateLinks and BatchDeleteLinks issue sequential writes, not a
	// transaction. They return how many writes were applied before the first
	// failure so callers can surface partial state instead of ignoring it.
	BatchCreateLinks(ctx context.Context, links []*models.ContactRequirementLink) (int, error)
	BatchDeleteLinks(ctx context.Context, documentID uuid.UUID, remoteContactIDs []int64) (int, error)

	// RecalculateFailureSummary recomputes the document's derived failure
	// summary from its current contacts.
	RecalculateFailureSummary(ctx context.Context, documentID uuid.UUID) error
}

// SummarizeFailures derives the document failure summary from its contacts.
// Both store implementations use it so the derived field stays consistent
// across backends.
func SummarizeFailures(contacts []*models.Contact) string {
	if len(contacts) == 0 {
		return ""
	}
	wholeSentence := 0
	for _, c := range contacts {
		if c.WholeSentence {
			wholeSentence++
		}
	}
	switch {
	case wholeSentence == len(contacts):
		return "all failures apply to the whole sentence"
	case wholeSentence > 0:
		return "some failures apply to the whole sentence"
	default:
		return "failures apply to specific requirements"
	}
}
