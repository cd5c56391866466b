package ingest

import (
	"expendita/internal/receipt"
	"expendita/internal/suf"
)

// Normalize converts decoded or extracted fields into the canonical receipt.
// It is pure and does no validation itself; the ingestor routes invalid
// results to the validation failure path and the storage boundary enforces
// the invariants again on insert.
func Normalize(format Format, fields Fields, raw, url string) *receipt.Receipt {
	r := &receipt.Receipt{
		MerchantName: fields.MerchantName,
		TotalCents:   fields.TotalCents,
		Timestamp:    fields.Timestamp,
		RawData:      raw,
		Items:        fields.Items,
	}
	if format == FormatRemoteVerification {
		r.VerificationURL = url
	}
	return r
}

// fieldsFromExtraction adapts a verification-page harvest to the common
// field set.
func fieldsFromExtraction(extracted *suf.ExtractedFields) Fields {
	var items []receipt.LineItem
	for _, item := range extracted.Items {
		items = append(items, receipt.LineItem{
			Name:       item.Name,
			Quantity:   item.Quantity,
			TotalCents: item.TotalCents,
		})
	}
	return Fields{
		MerchantName: extracted.MerchantName,
		TotalCents:   extracted.TotalCents,
		Timestamp:    extracted.Timestamp,
		Items:        items,
	}
}
