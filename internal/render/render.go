// Package render writes page responses. Templates and styling are owned by a
// separate frontend layer, so pages are emitted as a named view plus its data;
// the Recorder implementation lets handler tests assert on exactly what would
// be rendered.
package render

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Renderer writes a named page with its view data, or an error page.
type Renderer interface {
	Page(w http.ResponseWriter, status int, page string, data any)
	ErrorPage(w http.ResponseWriter, status int, page string, message string)
}

// Page names shared between the handler and its tests.
const (
	PageLimitedAccess = "limited-access"
	PageDetailedError = "detailed-error"
	PageGenericError  = "error"
	PageCloseWindow   = "close-window"
)

type payload struct {
	Page  string `json:"page"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// JSONRenderer serializes pages as JSON envelopes.
type JSONRenderer struct {
	logger *slog.Logger
}

// NewJSON constructs a JSONRenderer.
func NewJSON(logger *slog.Logger) *JSONRenderer {
	return &JSONRenderer{logger: logger}
}

func (r *JSONRenderer) Page(w http.ResponseWriter, status int, page string, data any) {
	r.write(w, status, payload{Page: page, Data: data})
}

func (r *JSONRenderer) ErrorPage(w http.ResponseWriter, status int, page string, message string) {
	r.write(w, status, payload{Page: page, Error: message})
}

func (r *JSONRenderer) write(w http.ResponseWriter, status int, p payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		r.logger.Error("failed to encode page", "page", p.Page, "error", err.Error())
	}
}

// Recorder captures rendered pages for handler tests.
type Recorder struct {
	Status  int
	PageRaw string
	Data    any
	Message string
}

func (r *Recorder) Page(w http.ResponseWriter, status int, page string, data any) {
	r.Status = status
	r.PageRaw = page
	r.Data = data
	w.WriteHeader(status)
}

func (r *Recorder) ErrorPage(w http.ResponseWriter, status int, page string, message string) {
	r.Status = status
	r.PageRaw = page
	r.Message = message
	w.WriteHeader(status)
}
