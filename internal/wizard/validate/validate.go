// Package validate holds the wizard's field validation rules. Date rules
// short-circuit per field: a format failure masks the range checks. Text
// rules are independent, so one submission can carry several errors across
// different fields.
package validate

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

// DateLayout is the d/M/yyyy format users type into date fields.
const DateLayout = "2/1/2006"

// FieldError annotates one form field with a message for the error summary.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects field errors for one submission.
type Errors []FieldError

// Add appends a field error.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Merge appends all errors from another list.
func (e *Errors) Merge(other Errors) {
	*e = append(*e, other...)
}

// Has reports whether any error was recorded.
func (e Errors) Has() bool {
	return len(e) > 0
}

// For returns the first message recorded for a field, or "".
func (e Errors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// ParseDate parses a d/M/yyyy value.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date validates a required date field: parseable, and not before today.
// An unparseable value yields only the format error; range checks are
// skipped. Returns the parsed date when there are no errors.
func Date(field, value string, now time.Time) (time.Time, Errors) {
	var errs Errors
	parsed, err := ParseDate(value)
	if err != nil {
		errs.Add(field, "must be a real date in d/M/yyyy format")
		return time.Time{}, errs
	}
	if dateOnly(parsed).Before(dateOnly(now)) {
		errs.Add(field, "cannot be before today")
	}
	return parsed, errs
}

// LetterDate validates the basic-details letter date: the shared Date rules
// plus a cap of seven days into the future.
func LetterDate(field, value string, now time.Time) (time.Time, Errors) {
	parsed, errs := Date(field, value, now)
	if errs.Has() {
		return parsed, errs
	}
	if dateOnly(parsed).After(dateOnly(now).AddDate(0, 0, 7)) {
		errs.Add(field, "is a week in the future")
	}
	return parsed, errs
}

// OfficeReference validates the optional office reference: at most 30
// characters after trimming.
func OfficeReference(field, value string) Errors {
	var errs Errors
	if !govalidator.StringLength(strings.TrimSpace(value), "0", "30") {
		errs.Add(field, "must be 30 characters or fewer")
	}
	return errs
}

// FurtherReasonDetails validates the free-text reason: at most 4000
// characters.
func FurtherReasonDetails(field, value string) Errors {
	var errs Errors
	if !govalidator.StringLength(value, "0", "4000") {
		errs.Add(field, "must be 4000 characters or fewer")
	}
	return errs
}

// ContactNumber validates the officer contact phone number: at most 35
// characters, numerals and spaces only. Both rules are evaluated; they do not
// mask each other.
func ContactNumber(field, value string) Errors {
	var errs Errors
	if !govalidator.StringLength(value, "0", "35") {
		errs.Add(field, "must be 35 characters or fewer")
	}
	if value != "" && !govalidator.Matches(value, `^[0-9 ]+$`) {
		errs.Add(field, "must contain only numbers and spaces")
	}
	return errs
}
