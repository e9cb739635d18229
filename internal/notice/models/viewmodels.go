package models

// View models are derived per request from reference data plus document
// state. They only annotate selected/checked flags for rendering and are
// never persisted.

// SelectItem is one option in a dropdown.
type SelectItem struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// RadioButton is one option in a radio group.
type RadioButton struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	Checked bool   `json:"checked"`
}

// CheckItem is one checkbox row for a contact or requirement, with its nested
// failure-reason dropdown. Placeholder is true when the item no longer appears
// in the latest reference data and was synthesized from the stored record so
// the user can still deselect it.
type CheckItem struct {
	RemoteID    int64        `json:"remote_id"`
	Label       string       `json:"label"`
	Detail      string       `json:"detail"`
	Checked     bool         `json:"checked"`
	Placeholder bool         `json:"placeholder"`
	Reasons     []SelectItem `json:"reasons"`
}
