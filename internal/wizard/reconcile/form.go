package reconcile

import (
	"net/url"
	"sort"
	"strings"

	"breachnotice/internal/wizard/validate"
)

// The warning-details template submits two flat field families keyed by the
// remote contact id embedded in the field name:
//
//	wholeSentence-<id>                    = yes|no
//	failureReasonWholeTermContact_<id>    = reason code
//
// The names are an external compatibility contract with the form markup;
// correlation happens purely on the trailing id token.
const (
	wholeSentencePrefix = "wholeSentence-"
	failureReasonPrefix = "failureReasonWholeTermContact_"
)

// FailureSelection is the correlated annotation for one contact.
type FailureSelection struct {
	ContactID     int64
	WholeSentence bool
	Reason        string
}

// CorrelateFailureForm joins the two field families on the contact-id suffix.
// A contact flagged whole-sentence without a concrete reason (no matching
// reason field, or the reason left at the "Please select" sentinel) is a
// validation error.
func CorrelateFailureForm(form url.Values) ([]FailureSelection, validate.Errors) {
	var errs validate.Errors

	reasons := make(map[int64]string)
	for name, values := range form {
		suffix, ok := strings.CutPrefix(name, failureReasonPrefix)
		if !ok || len(values) == 0 {
			continue
		}
		id, err := ParseRemoteID(suffix)
		if err != nil {
			errs.Add(name, "has an invalid contact id")
			continue
		}
		reasons[id] = values[0]
	}

	var selections []FailureSelection
	for name, values := range form {
		suffix, ok := strings.CutPrefix(name, wholeSentencePrefix)
		if !ok || len(values) == 0 {
			continue
		}
		id, err := ParseRemoteID(suffix)
		if err != nil {
			errs.Add(name, "has an invalid contact id")
			continue
		}
		sel := FailureSelection{
			ContactID:     id,
			WholeSentence: strings.EqualFold(values[0], "yes"),
		}
		reason, found := reasons[id]
		if sel.WholeSentence && (!found || reason == PleaseSelect || reason == "") {
			errs.Add(name, "select a valid failure reason")
		}
		if found && reason != PleaseSelect {
			sel.Reason = reason
		}
		selections = append(selections, sel)
	}

	sort.Slice(selections, func(i, j int) bool { return selections[i].ContactID < selections[j].ContactID })
	return selections, errs
}
