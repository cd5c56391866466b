package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"expendita/internal/receipt"
	"expendita/internal/suf"
)

// State tracks one scan attempt through the pipeline.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateDecoding
	StateExtracting
	StateNormalizing
	StatePersisting
	// StateDone is the success exit; the machine passes through it and
	// re-arms at StateIdle without user action.
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateDecoding:
		return "decoding"
	case StateExtracting:
		return "extracting"
	case StateNormalizing:
		return "normalizing"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store is the slice of the storage boundary the ingestor hands finished
// receipts to.
type Store interface {
	CreateReceipt(r *receipt.Receipt) (uint64, error)
}

// Extractor fetches and parses a remote verification page. The only network
// I/O in the pipeline happens behind this interface.
type Extractor interface {
	Extract(ctx context.Context, url string) (*suf.ExtractedFields, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Ingestor drives one scan at a time through detection, decoding or
// extraction, normalization and persistence. A second scan while an attempt
// is in flight is dropped with ErrBusy; a failed attempt blocks further scans
// until it is explicitly acknowledged.
type Ingestor struct {
	store     Store
	extractor Extractor
	clock     TimeSource

	mu     sync.Mutex
	state  State
	reason error
	// gen identifies the attempt in flight. Cancel bumps it so a result
	// arriving after the extraction suspension point is recognized as stale
	// and dropped instead of being persisted.
	gen uint64
}

// NewIngestor creates an Ingestor with the system clock
func NewIngestor(store Store, extractor Extractor) *Ingestor {
	return NewIngestorWithClock(store, extractor, systemClock{})
}

// NewIngestorWithClock creates an Ingestor with a custom clock for testing
func NewIngestorWithClock(store Store, extractor Extractor, clock TimeSource) *Ingestor {
	return &Ingestor{store: store, extractor: extractor, clock: clock}
}

// State reports the current attempt state.
func (ing *Ingestor) State() State {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	return ing.state
}

// FailureReason returns the error that put the ingestor in StateFailed, or
// nil.
func (ing *Ingestor) FailureReason() error {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	return ing.reason
}

// Acknowledge clears a failed attempt. It is the only way out of StateFailed,
// so a stale scan is never silently re-processed.
func (ing *Ingestor) Acknowledge() {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	if ing.state == StateFailed {
		ing.state = StateIdle
		ing.reason = nil
	}
}

// Cancel abandons the attempt in flight, re-arming scanning immediately. If
// the attempt is suspended in extraction, its late result is dropped.
func (ing *Ingestor) Cancel() {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	switch ing.state {
	case StateIdle, StateFailed:
	default:
		ing.gen++
		ing.state = StateIdle
		ing.reason = nil
	}
}

// Scan runs one raw payload through the full pipeline and returns the stored
// receipt. Every failure is classified: ErrUnrecognizedFormat, the
// extractor's load/parse errors, ValidationError or StorageError.
func (ing *Ingestor) Scan(ctx context.Context, raw string) (*receipt.Receipt, error) {
	ing.mu.Lock()
	if ing.state != StateIdle {
		ing.mu.Unlock()
		return nil, ErrBusy
	}
	ing.gen++
	gen := ing.gen
	ing.state = StateDetecting
	ing.mu.Unlock()

	format := DetectFormat(raw)
	slog.Info("Detected scan format", "format", format.String())

	switch format {
	case FormatDirectPayment:
		if !ing.advance(gen, StateDecoding) {
			return nil, ErrAborted
		}
		fields := DecodeDirect(raw, ing.clock.Now())
		return ing.complete(gen, format, fields, raw, "")

	case FormatRemoteVerification:
		if !ing.advance(gen, StateExtracting) {
			return nil, ErrAborted
		}
		extracted, err := ing.extractor.Extract(ctx, raw)
		// The extract call is the pipeline's only suspension point; the
		// attempt may have been cancelled while it was away.
		if !ing.advance(gen, StateExtracting) {
			return nil, ErrAborted
		}
		if err != nil {
			return nil, ing.fail(gen, err)
		}
		return ing.complete(gen, format, fieldsFromExtraction(extracted), raw, raw)

	default:
		return nil, ing.fail(gen, ErrUnrecognizedFormat)
	}
}

func (ing *Ingestor) complete(gen uint64, format Format, fields Fields, raw, url string) (*receipt.Receipt, error) {
	if !ing.advance(gen, StateNormalizing) {
		return nil, ErrAborted
	}
	rec := Normalize(format, fields, raw, url)
	if err := rec.Validate(); err != nil {
		return nil, ing.fail(gen, &ValidationError{Err: err})
	}

	if !ing.advance(gen, StatePersisting) {
		return nil, ErrAborted
	}
	if _, err := ing.store.CreateReceipt(rec); err != nil {
		return nil, ing.fail(gen, &StorageError{Err: err})
	}

	// Done: a finished attempt re-arms scanning immediately; only failures
	// wait for an acknowledgement.
	ing.mu.Lock()
	if ing.gen == gen {
		ing.state = StateIdle
	}
	ing.mu.Unlock()

	slog.Info("Stored scanned receipt", "id", rec.ID, "merchant", rec.MerchantName)
	return rec, nil
}

// advance moves the attempt to the next state, or reports false when the
// attempt was cancelled in the meantime.
func (ing *Ingestor) advance(gen uint64, next State) bool {
	ing.mu.Lock()
	defer ing.mu.Unlock()
	if ing.gen != gen {
		return false
	}
	ing.state = next
	return true
}

func (ing *Ingestor) fail(gen uint64, err error) error {
	ing.mu.Lock()
	if ing.gen == gen {
		ing.state = StateFailed
		ing.reason = err
	}
	ing.mu.Unlock()
	slog.Warn("Scan attempt failed", "error", err)
	return err
}
