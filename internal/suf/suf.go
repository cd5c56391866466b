// Package suf extracts receipt data from SUF verification pages, the
// government service every RemoteVerification QR code points at. The pages
// render their data client-side and the layout drifts, so extraction is best
// effort: pattern misses leave fields empty instead of failing the attempt.
package suf

import (
	"context"
	"fmt"
	"time"
)

// Host is the verification service all remote scans point at.
const Host = "https://suf.purs.gov.rs"

// ExtractedFields is the partial harvest from one verification page. Any
// field may be zero-valued when its pattern fails to match. The value is
// transient; it lives only between extraction and normalization.
type ExtractedFields struct {
	MerchantName string
	TotalCents   int64
	Timestamp    time.Time
	Items        []Item
}

// Item is one row of the specification table.
type Item struct {
	Name       string
	Quantity   float64
	TotalCents int64
}

// Page is the rendered content a PageFetcher hands to the parser.
type Page struct {
	Text      string // full rendered text of the page
	ItemsHTML string // outer HTML of the specification table, empty if absent
}

// PageFetcher loads a verification page and returns its rendered content.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// LoadError reports that the page could not be loaded at all.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("loading %s: %v", e.URL, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// ParseError reports unexpected content on a page that did load. The
// underlying message is preserved verbatim for the user-facing outcome.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("extracting receipt data: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Extractor scrapes receipt fields out of verification pages. All outbound
// network I/O in the ingestion pipeline happens behind this type; it never
// retries — retry policy belongs to the caller.
type Extractor struct {
	fetcher  PageFetcher
	patterns *Patterns
}

// NewExtractor creates an Extractor. A nil patterns falls back to the
// defaults.
func NewExtractor(fetcher PageFetcher, patterns *Patterns) *Extractor {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Extractor{fetcher: fetcher, patterns: patterns}
}

// Extract fetches the page at url and harvests merchant, total, timestamp
// and line items. Fields whose patterns fail stay zero-valued; only a failed
// page load (*LoadError) or malformed item markup (*ParseError) produce an
// error.
func (e *Extractor) Extract(ctx context.Context, url string) (*ExtractedFields, error) {
	page, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &LoadError{URL: url, Err: err}
	}

	fields := &ExtractedFields{
		MerchantName: e.patterns.merchant(page.Text),
		TotalCents:   e.patterns.total(page.Text),
		Timestamp:    e.patterns.timestamp(page.Text),
	}

	if page.ItemsHTML != "" {
		items, err := e.patterns.items(page.ItemsHTML)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		fields.Items = items
	}
	return fields, nil
}
