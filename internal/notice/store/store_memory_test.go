package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachnotice/internal/notice/models"
	"breachnotice/pkg/platform/sentinel"
)

func seedNotice(t *testing.T, s *MemoryStore) *models.BreachNotice {
	t.Helper()
	doc, err := models.NewBreachNotice(uuid.New(), "X123456")
	require.NoError(t, err)
	s.Seed(doc)
	return doc
}

func newContact(t *testing.T, docID uuid.UUID, remoteID int64, wholeSentence bool) *models.Contact {
	t.Helper()
	c, err := models.NewContact(docID, remoteID, "Planned Appointment")
	require.NoError(t, err)
	c.ContactDateTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	c.WholeSentence = wholeSentence
	return c
}

func TestMemoryStoreGetUnknownDocument(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreUpdateRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)
	ctx := context.Background()

	doc.TitleAndFullName = "Mr Sam Archer"
	doc.MarkStepSaved(models.StepBasicDetails)
	require.NoError(t, s.Update(ctx, doc))

	reloaded, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mr Sam Archer", reloaded.TitleAndFullName)
	assert.True(t, reloaded.BasicDetailsSaved)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)
	ctx := context.Background()

	first, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	first.TitleAndFullName = "mutated without Update"

	second, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, second.TitleAndFullName)
}

func TestMemoryStoreContactConflictOnDuplicateRemoteID(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateContact(ctx, newContact(t, doc.ID, 1, false)))
	err := s.CreateContact(ctx, newContact(t, doc.ID, 1, false))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestMemoryStoreContactsSortedByRemoteID(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateContact(ctx, newContact(t, doc.ID, 7, false)))
	require.NoError(t, s.CreateContact(ctx, newContact(t, doc.ID, 2, false)))

	contacts, err := s.ListContacts(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, int64(2), contacts[0].RemoteID)
	assert.Equal(t, int64(7), contacts[1].RemoteID)
}

func TestMemoryStoreDeleteContactUnknown(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)

	err := s.DeleteContact(context.Background(), doc.ID, 99)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreBatchLinksReportApplied(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)
	ctx := context.Background()

	mk := func(contactID, requirementID int64) *models.ContactRequirementLink {
		l, err := models.NewContactRequirementLink(doc.ID, contactID, requirementID)
		require.NoError(t, err)
		return l
	}

	applied, err := s.BatchCreateLinks(ctx, []*models.ContactRequirementLink{
		mk(1, 10), mk(1, 11), mk(2, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, applied)

	// Deleting by contact removes every link that contact owns.
	applied, err = s.BatchDeleteLinks(ctx, doc.ID, []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	links, err := s.ListLinks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(2), links[0].RemoteContactID)
}

func TestMemoryStoreBatchCreateStopsAtFirstFailure(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)
	ctx := context.Background()

	good, err := models.NewContactRequirementLink(doc.ID, 1, 10)
	require.NoError(t, err)
	orphan, err := models.NewContactRequirementLink(uuid.New(), 1, 10)
	require.NoError(t, err)

	applied, err := s.BatchCreateLinks(ctx, []*models.ContactRequirementLink{good, orphan})
	require.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, 1, applied, "writes before the failure stay applied")
}

func TestMemoryStoreRecalculateFailureSummary(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)
	ctx := context.Background()

	require.NoError(t, s.RecalculateFailureSummary(ctx, doc.ID))
	reloaded, err := s.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.FailureSummary)

	require.NoError(t, s.CreateContact(ctx, newContact(t, doc.ID, 1, true)))
	require.NoError(t, s.CreateContact(ctx, newContact(t, doc.ID, 2, false)))
	require.NoError(t, s.RecalculateFailureSummary(ctx, doc.ID))

	reloaded, err = s.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "some failures apply to the whole sentence", reloaded.FailureSummary)
}

func TestSummarizeFailures(t *testing.T) {
	whole := &models.Contact{WholeSentence: true}
	partial := &models.Contact{WholeSentence: false}

	tests := []struct {
		name     string
		contacts []*models.Contact
		want     string
	}{
		{"no contacts", nil, ""},
		{"all whole sentence", []*models.Contact{whole, whole}, "all failures apply to the whole sentence"},
		{"mixed", []*models.Contact{whole, partial}, "some failures apply to the whole sentence"},
		{"none whole sentence", []*models.Contact{partial}, "failures apply to specific requirements"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummarizeFailures(tt.contacts))
		})
	}
}

func TestMemoryStoreDeleteCascades(t *testing.T) {
	s := NewMemoryStore()
	doc := seedNotice(t, s)
	ctx := context.Background()

	require.NoError(t, s.CreateContact(ctx, newContact(t, doc.ID, 1, false)))
	link, err := models.NewContactRequirementLink(doc.ID, 1, 10)
	require.NoError(t, err)
	_, err = s.BatchCreateLinks(ctx, []*models.ContactRequirementLink{link})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, doc.ID))

	_, err = s.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	contacts, err := s.ListContacts(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, contacts)
	links, err := s.ListLinks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}
