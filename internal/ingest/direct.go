package ingest

import (
	"regexp"
	"strings"
	"time"

	"expendita/internal/receipt"
	"expendita/internal/serbian"
)

// NBS IPS field keys. The payload carries more keys (reference numbers,
// payment descriptions); only these two map onto a receipt.
const (
	merchantKey = "N"
	amountKey   = "I"
)

// unknownMerchant is used when the payload carries no name field.
const unknownMerchant = "Unknown"

// The amount field is the currency code glued to a Serbian-formatted number,
// e.g. "RSD4142,74".
var directAmountPattern = regexp.MustCompile(`^RSD([0-9.,]+)`)

// Fields is the source-independent result of decoding or extracting one scan,
// handed to Normalize.
type Fields struct {
	MerchantName string
	TotalCents   int64
	Timestamp    time.Time
	Items        []receipt.LineItem
}

// DecodeDirect parses an NBS IPS payment payload: "|"-separated KEY:VALUE
// pairs where only the first colon splits, so values may contain colons.
// Decoding is best effort and never fails: a missing name falls back to a
// sentinel, an unparsable amount to zero, and unknown keys are ignored for
// forward compatibility. The format carries no timestamp, so the moment of
// decoding is used.
func DecodeDirect(raw string, now time.Time) Fields {
	pairs := strings.Split(raw, "|")
	fields := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, ":")
		fields[key] = value
	}

	merchant := fields[merchantKey]
	if merchant == "" {
		merchant = unknownMerchant
	}

	var cents int64
	if m := directAmountPattern.FindStringSubmatch(fields[amountKey]); m != nil {
		if v, err := serbian.ParseNumber(m[1]); err == nil {
			cents = serbian.Cents(v)
		}
	}

	return Fields{
		MerchantName: merchant,
		TotalCents:   cents,
		Timestamp:    now,
	}
}
