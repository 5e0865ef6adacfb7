package types

import "errors"

var (
	// ErrPositionNotFound is returned when a referenced position does not
	// exist or is already closed.
	ErrPositionNotFound = errors.New("position not found or already closed")

	// ErrStore wraps persistence failures so callers can distinguish them
	// from broker-side errors. Writes behind ErrStore are rolled back in
	// full; there are no partial writes.
	ErrStore = errors.New("store error")
)
