package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepNextFollowsWizardOrder(t *testing.T) {
	assert.Equal(t, StepWarningType, StepBasicDetails.Next())
	assert.Equal(t, StepWarningDetails, StepWarningType.Next())
	assert.Equal(t, StepNextAppointment, StepWarningDetails.Next())
	assert.Equal(t, StepCheckYourReport, StepNextAppointment.Next())
	assert.Equal(t, StepCheckYourReport, StepCheckYourReport.Next())
}

func TestNewBreachNoticeInvariants(t *testing.T) {
	_, err := NewBreachNotice(uuid.Nil, "X123456")
	assert.Error(t, err)

	_, err = NewBreachNotice(uuid.New(), "")
	assert.Error(t, err)

	doc, err := NewBreachNotice(uuid.New(), "X123456")
	require.NoError(t, err)
	assert.False(t, doc.IsCompleted())
	assert.False(t, doc.IsDeleted())
}

func TestMarkStepSavedIsIndependent(t *testing.T) {
	doc, err := NewBreachNotice(uuid.New(), "X123456")
	require.NoError(t, err)

	// Direct URL navigation can save a later step before an earlier one.
	doc.MarkStepSaved(StepNextAppointment)
	assert.True(t, doc.StepSaved(StepNextAppointment))
	assert.False(t, doc.StepSaved(StepBasicDetails))
	assert.False(t, doc.StepSaved(StepWarningType))
}

func completeNotice(t *testing.T) *BreachNotice {
	t.Helper()
	doc, err := NewBreachNotice(uuid.New(), "X123456")
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	doc.TitleAndFullName = "Mr Sam Archer"
	doc.OffenderAddress = &Address{RemoteID: 100, Street: "High Street"}
	doc.DateOfLetter = &now
	doc.WarningTypeCode = "FW"
	doc.SentenceTypeCode = "CO"
	doc.ResponseRequiredDate = &now
	doc.ConditionBeingEnforced = "Community Order"
	doc.AppointmentDateTime = &now
	doc.MarkStepSaved(StepBasicDetails)
	doc.MarkStepSaved(StepWarningType)
	doc.MarkStepSaved(StepWarningDetails)
	doc.MarkStepSaved(StepNextAppointment)
	return doc
}

func TestMissingForPublishShrinksAsFieldsFill(t *testing.T) {
	doc, err := NewBreachNotice(uuid.New(), "X123456")
	require.NoError(t, err)
	assert.False(t, doc.ReadyToPublish())
	initial := len(doc.MissingForPublish())

	doc.MarkStepSaved(StepBasicDetails)
	doc.TitleAndFullName = "Mr Sam Archer"
	assert.Less(t, len(doc.MissingForPublish()), initial)

	complete := completeNotice(t)
	assert.Empty(t, complete.MissingForPublish())
	assert.True(t, complete.ReadyToPublish())
}

func TestPublishRequiresCompleteness(t *testing.T) {
	doc, err := NewBreachNotice(uuid.New(), "X123456")
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	err = doc.Publish(now)
	require.Error(t, err)
	assert.False(t, doc.IsCompleted())
}

func TestPublishIsTerminal(t *testing.T) {
	doc := completeNotice(t)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, doc.Publish(now))
	require.True(t, doc.IsCompleted())
	assert.Equal(t, now, *doc.CompletedDate)

	assert.Error(t, doc.Publish(now.Add(time.Hour)), "publishing twice must fail")
}

func TestPublishAfterDeleteFails(t *testing.T) {
	doc := completeNotice(t)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, doc.MarkDeleted(now))
	assert.Error(t, doc.Publish(now))
}

func TestMarkDeletedTwiceFails(t *testing.T) {
	doc, err := NewBreachNotice(uuid.New(), "X123456")
	require.NoError(t, err)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, doc.MarkDeleted(now))
	assert.Error(t, doc.MarkDeleted(now))
}

func TestChildConstructorsRejectBadIdentity(t *testing.T) {
	docID := uuid.New()

	_, err := NewContact(uuid.Nil, 1, "Planned Appointment")
	assert.Error(t, err)
	_, err = NewContact(docID, 0, "Planned Appointment")
	assert.Error(t, err)

	_, err = NewRequirement(docID, -1, "Unpaid Work")
	assert.Error(t, err)

	_, err = NewContactRequirementLink(docID, 1, 0)
	assert.Error(t, err)

	link, err := NewContactRequirementLink(docID, 1, 10)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, link.ID)
}
