package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a scan arrives while another is in flight.
	// The new scan is dropped, not queued.
	ErrBusy = errors.New("a scan is already being processed")

	// ErrUnrecognizedFormat is returned for payloads matching no known prefix.
	ErrUnrecognizedFormat = errors.New("unrecognized QR code format")

	// ErrAborted is returned to a scan whose attempt was cancelled while it
	// was suspended in extraction.
	ErrAborted = errors.New("scan attempt abandoned")
)

// ValidationError reports a normalized receipt that fails the storage
// invariants, typically because extraction came back with empty fields.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("invalid receipt: %v", e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError reports a failed handoff to the storage boundary. The scan
// must be redone in full; already-extracted data is not retried.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %v", e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
