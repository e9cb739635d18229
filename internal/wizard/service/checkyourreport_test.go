package service

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachnotice/internal/access"
	"breachnotice/internal/notice/models"
	"breachnotice/internal/notice/store"
)

// completeDocument walks every step so the completeness predicate passes.
func completeDocument(t *testing.T, svc *Service, documents *store.MemoryStore) *models.BreachNotice {
	t.Helper()
	doc := seedDocument(t, documents)
	ctx := testContext()

	_, outcome, err := svc.SaveBasicDetails(ctx, doc.ID, testUsername, BasicDetailsInput{
		DateOfLetter:    "15/3/2024",
		PostalAddressID: "100",
		ReplyAddressID:  "200",
	})
	require.NoError(t, err)
	require.False(t, outcome.Errors.Has())

	_, outcome, err = svc.SaveWarningType(ctx, doc.ID, testUsername, WarningTypeInput{
		WarningType:          "FW",
		SentenceType:         "CO",
		ResponseRequiredDate: "22/3/2024",
	})
	require.NoError(t, err)
	require.False(t, outcome.Errors.Has())

	_, outcome, err = svc.SaveWarningDetails(ctx, doc.ID, testUsername, WarningDetailsInput{
		FailuresBeingEnforced:  []string{"1"},
		ConditionBeingEnforced: "CO",
		Form: url.Values{
			"wholeSentence-1":                 {"yes"},
			"failureReasonWholeTermContact_1": {"FTC"},
		},
	})
	require.NoError(t, err)
	require.False(t, outcome.Errors.Has())

	_, outcome, err = svc.SaveNextAppointment(ctx, doc.ID, testUsername, NextAppointmentInput{
		AppointmentType: "Planned Office Visit",
		Location:        "Probation House",
		AppointmentDate: "20/3/2024",
		OfficerName:     "J Bloggs",
		ContactNumber:   "0114 000 0000",
	})
	require.NoError(t, err)
	require.False(t, outcome.Errors.Has())

	return doc
}

func TestLoadCheckYourReportListsMissingItems(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)

	view, err := svc.LoadCheckYourReport(testContext(), doc.ID, testUsername)
	require.NoError(t, err)
	assert.False(t, view.Ready)
	assert.Contains(t, view.Missing, "basic details")
	assert.Contains(t, view.Missing, "next appointment")
}

func TestLoadCheckYourReportReadyWhenComplete(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := completeDocument(t, svc, documents)

	view, err := svc.LoadCheckYourReport(testContext(), doc.ID, testUsername)
	require.NoError(t, err)
	assert.True(t, view.Ready)
	assert.Empty(t, view.Missing)
	require.Len(t, view.Contacts, 1)
	assert.Equal(t, int64(1), view.Contacts[0].RemoteID)
}

func TestPublishRejectsIncompleteReport(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)

	view, outcome, err := svc.Publish(testContext(), doc.ID, testUsername)
	require.NoError(t, err)
	require.True(t, outcome.Errors.Has())
	assert.NotEmpty(t, view.Missing)

	reloaded, err := documents.Get(testContext(), doc.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsCompleted())
}

func TestPublishCompletesAndLocksTheNotice(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := completeDocument(t, svc, documents)
	ctx := testContext()

	_, outcome, err := svc.Publish(ctx, doc.ID, testUsername)
	require.NoError(t, err)
	require.False(t, outcome.Errors.Has())

	reloaded, err := documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsCompleted())
	assert.Equal(t, testClock, *reloaded.CompletedDate)

	// The wizard gate now stops every step.
	view, err := svc.LoadBasicDetails(ctx, doc.ID, testUsername)
	require.NoError(t, err)
	assert.Equal(t, access.OutcomeCompleted, view.Decision.Outcome)

	// But the terminal confirmation page still renders.
	terminal, err := svc.LoadTerminal(ctx, doc.ID, testUsername)
	require.NoError(t, err)
	assert.False(t, terminal.Restricted)
	assert.True(t, terminal.Document.IsCompleted())
}

func TestPublishTwiceFails(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := completeDocument(t, svc, documents)
	ctx := testContext()

	_, _, err := svc.Publish(ctx, doc.ID, testUsername)
	require.NoError(t, err)

	_, outcome, err := svc.Publish(ctx, doc.ID, testUsername)
	require.NoError(t, err)
	assert.Equal(t, access.OutcomeCompleted, mustDecision(t, svc, doc).Outcome)
	assert.Equal(t, NavKind(""), outcome.Navigation.Kind)
}

func TestDeleteNoticeSoftDeletes(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)
	ctx := testContext()

	_, outcome, err := svc.DeleteNotice(ctx, doc.ID, testUsername, "")
	require.NoError(t, err)
	require.False(t, outcome.Errors.Has())

	reloaded, err := documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsDeleted())
	assert.Equal(t, testClock, *reloaded.DeletedDate)

	view, err := svc.LoadBasicDetails(ctx, doc.ID, testUsername)
	require.NoError(t, err)
	assert.Equal(t, access.OutcomeDeleted, view.Decision.Outcome)
}

func TestDeleteNoticeCancelReturnsToSummary(t *testing.T) {
	svc, documents, _ := newTestService(t)
	doc := seedDocument(t, documents)

	_, outcome, err := svc.DeleteNotice(testContext(), doc.ID, testUsername, ActionCancel)
	require.NoError(t, err)
	assert.Equal(t, NavCancel, outcome.Navigation.Kind)
	assert.Equal(t, models.StepCheckYourReport, outcome.Navigation.Step)

	reloaded, err := documents.Get(testContext(), doc.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDeleted())
}

func mustDecision(t *testing.T, svc *Service, doc *models.BreachNotice) access.Decision {
	t.Helper()
	view, err := svc.LoadCheckYourReport(testContext(), doc.ID, testUsername)
	require.NoError(t, err)
	return view.Decision
}
