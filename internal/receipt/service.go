package receipt

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"expendita/internal/serbian"
)

// Edit carries the editable receipt fields as the user typed them: the total
// in Serbian display format, the timestamp split into date and clock parts.
type Edit struct {
	MerchantName *string `json:"merchant_name"`
	Total        *string `json:"total"` // e.g. "1.234,56"
	Date         *string `json:"date"`  // DD.MM.YYYY
	Time         *string `json:"time"`  // HH:MM
}

// Service handles receipt operations on behalf of the HTTP surface.
type Service struct {
	db      DB
	storage Storage
}

// NewService creates a new Service
func NewService(db DB, storage Storage) *Service {
	return &Service{db: db, storage: storage}
}

// CreateManual stores a manually entered receipt. The raw payload is set to
// the manual-entry sentinel so the source stays distinguishable from scans.
func (s *Service) CreateManual(merchant, total, date, clock string) (*Receipt, error) {
	v, err := serbian.ParseNumber(total)
	if err != nil {
		return nil, fmt.Errorf("parsing total: %w", err)
	}
	ts, err := serbian.ParseDateParts(date, clock)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		MerchantName: strings.TrimSpace(merchant),
		TotalCents:   serbian.Cents(v),
		Timestamp:    ts,
		RawData:      RawDataManual,
	}
	if _, err := s.db.CreateReceipt(receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}
	return receipt, nil
}

// UpdateReceipt applies an edit, converting the typed fields back to the
// canonical representation. The storage boundary re-validates the result.
func (s *Service) UpdateReceipt(id uint64, edit Edit) (*Receipt, error) {
	var update Update

	if edit.MerchantName != nil {
		name := strings.TrimSpace(*edit.MerchantName)
		update.MerchantName = &name
	}
	if edit.Total != nil {
		v, err := serbian.ParseNumber(*edit.Total)
		if err != nil {
			return nil, fmt.Errorf("parsing total: %w", err)
		}
		cents := serbian.Cents(v)
		update.TotalCents = &cents
	}
	if edit.Date != nil || edit.Time != nil {
		// The edit form always submits the date and clock together.
		if edit.Date == nil || edit.Time == nil {
			return nil, errors.New("date and time must be edited together")
		}
		ts, err := serbian.ParseDateParts(*edit.Date, *edit.Time)
		if err != nil {
			return nil, err
		}
		update.Timestamp = &ts
	}

	receipt, err := s.db.UpdateReceipt(id, update)
	if err != nil {
		return nil, fmt.Errorf("updating receipt: %w", err)
	}
	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id uint64) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, newest first
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt, its line items and its uploaded artifact
func (s *Service) DeleteReceipt(id uint64) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if receipt.Filename != "" {
		if err := s.storage.Delete(receipt.Filename); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
		}
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// DeleteAllReceipts clears the database and any uploaded artifacts
func (s *Service) DeleteAllReceipts() error {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return fmt.Errorf("listing receipts for deletion: %w", err)
	}
	for _, r := range receipts {
		if r.Filename == "" {
			continue
		}
		if err := s.storage.Delete(r.Filename); err != nil {
			slog.Warn("Failed to delete file", "filename", r.Filename, "error", err)
		}
	}

	if err := s.db.DeleteAllReceipts(); err != nil {
		return fmt.Errorf("deleting receipts: %w", err)
	}
	return nil
}

// AttachFile stores the uploaded artifact a scan was decoded from and links
// it to the receipt.
func (s *Service) AttachFile(id uint64, filename string, data []byte, contentType string) (*Receipt, error) {
	cleanFilename := sanitizeFilename(filename)
	savedPath, err := s.storage.Save(fmt.Sprintf("%d_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	receipt, err := s.db.UpdateReceipt(id, Update{
		Filename:    &savedPath,
		ContentType: &contentType,
	})
	if err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("linking file to receipt: %w", err)
	}
	return receipt, nil
}

// GetReceiptFile retrieves the uploaded artifact for a receipt
func (s *Service) GetReceiptFile(id uint64) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}
	if receipt.Filename == "" {
		return nil, "", fmt.Errorf("receipt %d has no file", id)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}
	return data, receipt.ContentType, nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length; phone cameras produce long, messy names.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}
