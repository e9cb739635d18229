package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and gateways return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: document or child record does not exist in the store
// - ErrConflict: a record for the same remote id already exists
// - ErrInvalidState: document in the wrong state for the requested operation
// - ErrUnavailable: backing store or gateway temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
