// Package ingest drives a raw QR scan through detection, decoding or remote
// extraction, normalization and persistence, one attempt at a time.
package ingest

import "strings"

// Format identifies which payload family a raw scan belongs to. It is
// produced once by DetectFormat; downstream code dispatches on the tag and
// never re-inspects the raw string.
type Format int

const (
	FormatUnrecognized Format = iota
	FormatDirectPayment      // self-contained NBS IPS payment payload
	FormatRemoteVerification // URL of a SUF verification page
)

// Known payload prefixes, checked in order; first match wins. Adding a format
// means adding a row here and a case to the ingestor's dispatch.
var formatPrefixes = []struct {
	prefix string
	format Format
}{
	{"K:PR|", FormatDirectPayment},
	{"https://suf.purs.gov.rs", FormatRemoteVerification},
}

// DetectFormat classifies a raw scan by literal prefix. Anything unmatched is
// FormatUnrecognized.
func DetectFormat(raw string) Format {
	for _, p := range formatPrefixes {
		if strings.HasPrefix(raw, p.prefix) {
			return p.format
		}
	}
	return FormatUnrecognized
}

func (f Format) String() string {
	switch f {
	case FormatDirectPayment:
		return "direct-payment"
	case FormatRemoteVerification:
		return "remote-verification"
	default:
		return "unrecognized"
	}
}
