package receipt

import (
	"errors"
	"strings"
	"time"
)

// RawDataManual is the raw-payload sentinel for receipts entered by hand
// instead of scanned from a QR code.
const RawDataManual = "manual-entry"

// Receipt is the canonical record stored for every ingested receipt,
// regardless of source.
type Receipt struct {
	ID              uint64     `json:"id"`
	MerchantName    string     `json:"merchant_name"`
	TotalCents      int64      `json:"total_cents"` // Amount in para
	Timestamp       time.Time  `json:"timestamp"`
	VerificationURL string     `json:"verification_url,omitempty"` // Set only for remotely verified receipts
	RawData         string     `json:"raw_data"`
	Filename        string     `json:"filename,omitempty"` // Uploaded artifact, if the scan came from a file
	ContentType     string     `json:"content_type,omitempty"`
	Items           []LineItem `json:"items,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// LineItem is one purchased article on a receipt. It is owned by its receipt
// and deleted with it.
type LineItem struct {
	ID         uint64  `json:"id"`
	ReceiptID  uint64  `json:"receipt_id"`
	Name       string  `json:"name"` // Raw, may embed product codes or unit annotations
	Quantity   float64 `json:"quantity"`
	TotalCents int64   `json:"total_cents"`
}

// Validate enforces the storage invariants: a named merchant, a positive
// total, a real timestamp and non-negative line items.
func (r *Receipt) Validate() error {
	if strings.TrimSpace(r.MerchantName) == "" {
		return errors.New("merchant name is required")
	}
	if r.TotalCents <= 0 {
		return errors.New("total must be greater than 0")
	}
	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return errors.New("line item name is required")
		}
		if item.Quantity < 0 || item.TotalCents < 0 {
			return errors.New("line item amounts must not be negative")
		}
	}
	return nil
}
