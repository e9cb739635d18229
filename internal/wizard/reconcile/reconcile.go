// Package reconcile merges reference-data snapshots with the document's
// persisted selections into view state, and diffs submitted selections
// against persisted child records into batch create/update/delete sets.
package reconcile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"breachnotice/internal/notice/models"
	"breachnotice/internal/refdata"
)

// PleaseSelect is the sentinel value of the leading "Please select" option in
// reason dropdowns. A submission that leaves a reason at the sentinel is not
// a concrete choice.
const PleaseSelect = "-1"

// ParseRemoteID normalizes a remote id arriving from a form or query string.
// Different call sites historically sent ids as numbers or strings; parsing
// once here keeps comparisons type-safe.
func ParseRemoteID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid remote id %q: %w", value, err)
	}
	return id, nil
}

// ParseRemoteIDs parses and dedupes a list of submitted remote ids.
func ParseRemoteIDs(values []string) ([]int64, error) {
	seen := make(map[int64]bool, len(values))
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := ParseRemoteID(v)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// ReasonOptions builds the nested reason dropdown with the sentinel first.
// The saved code (if any) determines which option is pre-selected.
func ReasonOptions(reasons []refdata.CodedValue, savedCode string) []models.SelectItem {
	items := make([]models.SelectItem, 0, len(reasons)+1)
	items = append(items, models.SelectItem{
		Value:    PleaseSelect,
		Text:     "Please select",
		Selected: savedCode == "",
	})
	for _, r := range reasons {
		items = append(items, models.SelectItem{
			Value:    r.Code,
			Text:     r.Description,
			Selected: r.Code == savedCode,
		})
	}
	return items
}

// Radios annotates a radio group with the saved code.
func Radios(values []refdata.CodedValue, savedCode string) []models.RadioButton {
	buttons := make([]models.RadioButton, 0, len(values))
	for _, v := range values {
		buttons = append(buttons, models.RadioButton{
			Code:    v.Code,
			Label:   v.Description,
			Checked: v.Code == savedCode,
		})
	}
	return buttons
}

// AddressOptions annotates an address dropdown with the saved selection,
// matched by remote id.
func AddressOptions(addresses []models.Address, selected *models.Address) []models.SelectItem {
	items := make([]models.SelectItem, 0, len(addresses))
	for _, a := range addresses {
		items = append(items, models.SelectItem{
			Value:    strconv.FormatInt(a.RemoteID, 10),
			Text:     FormatAddress(a),
			Selected: selected != nil && selected.RemoteID == a.RemoteID,
		})
	}
	return items
}

// FormatAddress renders an address on one line for dropdowns.
func FormatAddress(a models.Address) string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.BuildingName, a.Number + " " + a.Street, a.District, a.TownCity, a.County, a.Postcode} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// MergeContacts builds the warning-details contact list: every contact from
// the latest fetch, annotated with the persisted selection state, plus a
// synthesized placeholder for every persisted contact the remote system no
// longer reports, so the user can still see and deselect it.
func MergeContacts(remote []refdata.EnforceableContact, saved []*models.Contact, reasons []refdata.CodedValue) []models.CheckItem {
	savedByRemote := make(map[int64]*models.Contact, len(saved))
	for _, c := range saved {
		savedByRemote[c.RemoteID] = c
	}
	remoteIDs := make(map[int64]bool, len(remote))

	items := make([]models.CheckItem, 0, len(remote)+len(saved))
	for _, rc := range remote {
		remoteIDs[rc.ID] = true
		item := models.CheckItem{
			RemoteID: rc.ID,
			Label:    rc.TypeDescription,
			Detail:   rc.DateTime.Format("2/1/2006 15:04") + " " + rc.OutcomeDescription,
		}
		if sc, ok := savedByRemote[rc.ID]; ok {
			item.Checked = true
			item.Reasons = ReasonOptions(reasons, sc.FailureReason)
		} else {
			item.Reasons = ReasonOptions(reasons, "")
		}
		items = append(items, item)
	}

	placeholders := make([]models.CheckItem, 0, len(saved))
	for _, sc := range saved {
		if remoteIDs[sc.RemoteID] {
			continue
		}
		placeholders = append(placeholders, models.CheckItem{
			RemoteID:    sc.RemoteID,
			Label:       sc.TypeDescription,
			Detail:      sc.ContactDateTime.Format("2/1/2006 15:04") + " " + sc.OutcomeDescription,
			Checked:     true,
			Placeholder: true,
			Reasons:     ReasonOptions(reasons, sc.FailureReason),
		})
	}
	sort.Slice(placeholders, func(i, j int) bool { return placeholders[i].RemoteID < placeholders[j].RemoteID })
	return append(items, placeholders...)
}

// MergeRequirements is MergeContacts for supervision requirements.
func MergeRequirements(remote []refdata.SupervisionRequirement, saved []*models.Requirement, reasons []refdata.CodedValue) []models.CheckItem {
	savedByRemote := make(map[int64]*models.Requirement, len(saved))
	for _, r := range saved {
		savedByRemote[r.RemoteID] = r
	}
	remoteIDs := make(map[int64]bool, len(remote))

	items := make([]models.CheckItem, 0, len(remote)+len(saved))
	for _, rr := range remote {
		remoteIDs[rr.ID] = true
		item := models.CheckItem{
			RemoteID: rr.ID,
			Label:    rr.TypeDescription,
			Detail:   rr.SubTypeDescription,
		}
		if sr, ok := savedByRemote[rr.ID]; ok {
			item.Checked = true
			item.Reasons = ReasonOptions(reasons, sr.RejectionReason)
		} else {
			item.Reasons = ReasonOptions(reasons, "")
		}
		items = append(items, item)
	}

	placeholders := make([]models.CheckItem, 0, len(saved))
	for _, sr := range saved {
		if remoteIDs[sr.RemoteID] {
			continue
		}
		placeholders = append(placeholders, models.CheckItem{
			RemoteID:    sr.RemoteID,
			Label:       sr.TypeDescription,
			Detail:      sr.SubTypeDescription,
			Checked:     true,
			Placeholder: true,
			Reasons:     ReasonOptions(reasons, sr.RejectionReason),
		})
	}
	sort.Slice(placeholders, func(i, j int) bool { return placeholders[i].RemoteID < placeholders[j].RemoteID })
	return append(items, placeholders...)
}

// Diff is the outcome of reconciling a submitted selection against the
// persisted one. Records only in the previous set are deleted, records only
// in the submitted set are created, and records in both are checked for a
// changed reason.
type Diff struct {
	ToCreate []int64
	ToDelete []int64
	ToKeep   []int64
}

// DiffRemoteIDs computes the batch sets. Output slices are sorted for
// deterministic batches.
func DiffRemoteIDs(previous, submitted []int64) Diff {
	prevSet := make(map[int64]bool, len(previous))
	for _, id := range previous {
		prevSet[id] = true
	}
	subSet := make(map[int64]bool, len(submitted))
	for _, id := range submitted {
		subSet[id] = true
	}

	var diff Diff
	for id := range subSet {
		if prevSet[id] {
			diff.ToKeep = append(diff.ToKeep, id)
		} else {
			diff.ToCreate = append(diff.ToCreate, id)
		}
	}
	for id := range prevSet {
		if !subSet[id] {
			diff.ToDelete = append(diff.ToDelete, id)
		}
	}
	sortIDs(diff.ToCreate)
	sortIDs(diff.ToDelete)
	sortIDs(diff.ToKeep)
	return diff
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// ReasonChange is an in-place update scheduled because a kept record's reason
// text changed.
type ReasonChange struct {
	RemoteID  int64
	NewReason string
}

// ReasonChanges returns the kept records whose submitted reason differs from
// the persisted one. Unchanged records appear in no batch.
func ReasonChanges(kept []int64, persisted map[int64]string, submitted map[int64]string) []ReasonChange {
	var changes []ReasonChange
	for _, id := range kept {
		newReason, ok := submitted[id]
		if !ok {
			continue
		}
		if persisted[id] != newReason {
			changes = append(changes, ReasonChange{RemoteID: id, NewReason: newReason})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].RemoteID < changes[j].RemoteID })
	return changes
}
