package service

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachnotice/internal/notice/models"
	"breachnotice/internal/notice/store"
	dErrors "breachnotice/pkg/domain-errors"
)

// citeContact persists a contact so requirements can be attached to it.
func citeContact(t *testing.T, documents *store.MemoryStore, doc *models.BreachNotice, remoteID int64) {
	t.Helper()
	contact, err := models.NewContact(doc.ID, remoteID, "Planned Appointment")
	require.NoError(t, err)
	require.NoError(t, documents.CreateContact(testContext(), contact))
}

func TestSaveAddRequirementLinksRequirements(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)
	citeContact(t, documents, doc, 1)
	ctx := testContext()

	_, outcome, err := svc.SaveAddRequirement(ctx, doc.ID, testUsername, AddRequirementInput{
		ContactID:      1,
		RequirementIDs: []string{"10", "11"},
		Form: url.Values{
			"rejectionReason_10": {"FTC"},
		},
	})
	require.NoError(t, err)
	require.False(t, outcome.Errors.Has())
	assert.Equal(t, models.StepWarningDetails, outcome.Navigation.Step)

	requirements, err := documents.ListRequirements(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, requirements, 2)
	assert.Equal(t, "Unpaid Work", requirements[0].TypeDescription)
	assert.Equal(t, "FTC", requirements[0].RejectionReason)
	assert.Empty(t, requirements[1].RejectionReason)

	links, err := documents.ListLinks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		assert.Equal(t, int64(1), l.RemoteContactID)
	}
}

func TestSaveAddRequirementReplacesSelectionAndPrunes(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)
	citeContact(t, documents, doc, 1)
	ctx := testContext()

	_, _, err := svc.SaveAddRequirement(ctx, doc.ID, testUsername, AddRequirementInput{
		ContactID:      1,
		RequirementIDs: []string{"10", "11"},
		Form:           url.Values{},
	})
	require.NoError(t, err)

	// Deselect requirement 11; its record is no longer referenced anywhere.
	_, outcome, err := svc.SaveAddRequirement(ctx, doc.ID, testUsername, AddRequirementInput{
		ContactID:      1,
		RequirementIDs: []string{"10"},
		Form:           url.Values{},
	})
	require.NoError(t, err)
	require.False(t, outcome.Errors.Has())

	requirements, err := documents.ListRequirements(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, requirements, 1)
	assert.Equal(t, int64(10), requirements[0].RemoteID)

	links, err := documents.ListLinks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(10), links[0].RemoteRequirementID)
}

func TestSaveAddRequirementKeepsRequirementLinkedElsewhere(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)
	citeContact(t, documents, doc, 1)
	citeContact(t, documents, doc, 2)
	ctx := testContext()

	_, _, err := svc.SaveAddRequirement(ctx, doc.ID, testUsername, AddRequirementInput{
		ContactID:      1,
		RequirementIDs: []string{"10"},
		Form:           url.Values{},
	})
	require.NoError(t, err)
	_, _, err = svc.SaveAddRequirement(ctx, doc.ID, testUsername, AddRequirementInput{
		ContactID:      2,
		RequirementIDs: []string{"10"},
		Form:           url.Values{},
	})
	require.NoError(t, err)

	// Removing it from contact 1 must not prune the shared record.
	_, _, err = svc.SaveAddRequirement(ctx, doc.ID, testUsername, AddRequirementInput{
		ContactID:      1,
		RequirementIDs: nil,
		Form:           url.Values{},
	})
	require.NoError(t, err)

	requirements, err := documents.ListRequirements(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, requirements, 1)

	links, err := documents.ListLinks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, int64(2), links[0].RemoteContactID)
}

func TestLoadAddRequirementMarksLinkedRequirements(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)
	citeContact(t, documents, doc, 1)
	ctx := testContext()

	_, _, err := svc.SaveAddRequirement(ctx, doc.ID, testUsername, AddRequirementInput{
		ContactID:      1,
		RequirementIDs: []string{"11"},
		Form:           url.Values{},
	})
	require.NoError(t, err)

	view, err := svc.LoadAddRequirement(ctx, doc.ID, testUsername, 1)
	require.NoError(t, err)
	require.Len(t, view.Requirements, 2)

	byID := make(map[int64]models.CheckItem)
	for _, item := range view.Requirements {
		byID[item.RemoteID] = item
	}
	assert.False(t, byID[10].Checked)
	assert.True(t, byID[11].Checked)
}

func TestAddRequirementRejectsUncitedContact(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)

	_, err := svc.LoadAddRequirement(testContext(), doc.ID, testUsername, 1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestSaveAddRequirementRejectsUnknownRequirement(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)
	citeContact(t, documents, doc, 1)

	view, outcome, err := svc.SaveAddRequirement(testContext(), doc.ID, testUsername, AddRequirementInput{
		ContactID:      1,
		RequirementIDs: []string{"999"},
		Form:           url.Values{},
	})
	require.NoError(t, err)
	require.True(t, outcome.Errors.Has())
	assert.Equal(t, "is not a requirement on this sentence", view.Errors.For("requirementsBeingEnforced"))
}
