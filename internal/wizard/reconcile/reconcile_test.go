package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachnotice/internal/notice/models"
	"breachnotice/internal/refdata"
)

var failureReasons = []refdata.CodedValue{
	{Code: "FTC", Description: "Failed to comply"},
	{Code: "FTA", Description: "Failed to attend"},
}

func remoteContact(id int64) refdata.EnforceableContact {
	return refdata.EnforceableContact{
		ID:                 id,
		DateTime:           time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		TypeDescription:    "Planned Appointment",
		OutcomeDescription: "Failed to Attend",
	}
}

func savedContact(remoteID int64, reason string) *models.Contact {
	return &models.Contact{
		ID:              uuid.New(),
		DocumentID:      uuid.New(),
		RemoteID:        remoteID,
		ContactDateTime: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		TypeDescription: "Old Appointment",
		FailureReason:   reason,
	}
}

func TestMergeContactsMarksSavedSelections(t *testing.T) {
	remote := []refdata.EnforceableContact{remoteContact(1), remoteContact(2)}
	saved := []*models.Contact{savedContact(2, "FTC")}

	items := MergeContacts(remote, saved, failureReasons)
	require.Len(t, items, 2)

	assert.False(t, items[0].Checked)
	assert.True(t, items[1].Checked)
	assert.False(t, items[1].Placeholder)

	// Saved reason is pre-selected in the nested dropdown; the sentinel is not.
	reasons := items[1].Reasons
	require.Len(t, reasons, 3)
	assert.False(t, reasons[0].Selected, "sentinel must not be selected when a reason is saved")
	assert.True(t, reasons[1].Selected)
	assert.Equal(t, "Failed to comply", reasons[1].Text)
}

func TestMergeContactsSynthesizesPlaceholderForVanishedContact(t *testing.T) {
	// Contact 9 is saved on the document but no longer reported remotely.
	remote := []refdata.EnforceableContact{remoteContact(1)}
	saved := []*models.Contact{savedContact(9, "FTA")}

	items := MergeContacts(remote, saved, failureReasons)
	require.Len(t, items, 2)

	placeholder := items[1]
	assert.Equal(t, int64(9), placeholder.RemoteID)
	assert.True(t, placeholder.Placeholder)
	assert.True(t, placeholder.Checked, "placeholder must remain deselectable")
	assert.Equal(t, "Old Appointment", placeholder.Label)
}

func TestMergeContactsIdempotent(t *testing.T) {
	remote := []refdata.EnforceableContact{remoteContact(1), remoteContact(2), remoteContact(3)}
	saved := []*models.Contact{savedContact(2, "FTC"), savedContact(7, "")}

	first := MergeContacts(remote, saved, failureReasons)
	second := MergeContacts(remote, saved, failureReasons)
	assert.Equal(t, first, second)
}

func TestMergeRequirementsRoundTrip(t *testing.T) {
	remote := []refdata.SupervisionRequirement{
		{ID: 10, TypeDescription: "Unpaid Work", SubTypeDescription: "Regular"},
	}
	saved := []*models.Requirement{{
		ID:              uuid.New(),
		RemoteID:        10,
		TypeDescription: "Unpaid Work",
		RejectionReason: "FTC",
	}}

	items := MergeRequirements(remote, saved, failureReasons)
	require.Len(t, items, 1)
	assert.True(t, items[0].Checked)

	var selected string
	for _, r := range items[0].Reasons {
		if r.Selected {
			selected = r.Text
		}
	}
	assert.Equal(t, "Failed to comply", selected)
}

func TestDiffRemoteIDs(t *testing.T) {
	diff := DiffRemoteIDs([]int64{1, 2, 3}, []int64{2, 3, 4})
	assert.Equal(t, []int64{4}, diff.ToCreate)
	assert.Equal(t, []int64{1}, diff.ToDelete)
	assert.Equal(t, []int64{2, 3}, diff.ToKeep)
}

func TestDiffRemoteIDsEmptySides(t *testing.T) {
	diff := DiffRemoteIDs(nil, []int64{5})
	assert.Equal(t, []int64{5}, diff.ToCreate)
	assert.Empty(t, diff.ToDelete)

	diff = DiffRemoteIDs([]int64{5}, nil)
	assert.Equal(t, []int64{5}, diff.ToDelete)
	assert.Empty(t, diff.ToCreate)
}

func TestReasonChangesOnlyWhenTextDiffers(t *testing.T) {
	kept := []int64{2, 3}
	persisted := map[int64]string{2: "FTC", 3: "FTA"}
	submitted := map[int64]string{2: "FTC", 3: "UB"}

	changes := ReasonChanges(kept, persisted, submitted)
	require.Len(t, changes, 1)
	assert.Equal(t, int64(3), changes[0].RemoteID)
	assert.Equal(t, "UB", changes[0].NewReason)
}

func TestParseRemoteIDsNormalizesMixedInputs(t *testing.T) {
	// Ids arrive as numbers or strings from different call sites; whitespace
	// and duplicates are tolerated, non-numeric values are not.
	ids, err := ParseRemoteIDs([]string{"1", " 2 ", "2", "10"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 10}, ids)

	_, err = ParseRemoteIDs([]string{"1", "abc"})
	assert.Error(t, err)
}
