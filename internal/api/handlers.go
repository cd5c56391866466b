package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"expendita/internal/ingest"
	"expendita/internal/receipt"
	"expendita/internal/suf"
)

// maxUploadSize bounds uploaded receipt photos; high-resolution phone photos
// run large.
const maxUploadSize = int64(50 << 20) // 50MB

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{"error": message})
}

// scanStatus maps a pipeline error to an HTTP status. Busy and aborted are
// conflicts, bad payloads and empty extractions are the client's problem, an
// unreachable or unreadable verification page is the upstream's.
func scanStatus(err error) int {
	var validationErr *ingest.ValidationError
	var loadErr *suf.LoadError
	var parseErr *suf.ParseError
	switch {
	case errors.Is(err, ingest.ErrBusy), errors.Is(err, ingest.ErrAborted):
		return http.StatusConflict
	case errors.Is(err, ingest.ErrUnrecognizedFormat), errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &loadErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleScan runs a raw QR payload through the ingestion pipeline
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Raw string `json:"raw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Raw == "" {
		writeError(w, http.StatusBadRequest, "raw payload is required")
		return
	}

	rec, err := s.ingestor.Scan(r.Context(), req.Raw)
	if err != nil {
		slog.Error("Scan failed", "error", err)
		writeError(w, scanStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleUploadScan decodes the QR code out of an uploaded photo or PDF, runs
// the payload through the pipeline and attaches the artifact to the stored
// receipt.
func (s *Server) handleUploadScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			msg = "File is too large. Maximum size is 50MB."
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusBadRequest, "File is too large. Maximum size is 50MB.")
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file")
		return
	}

	contentType := contentTypeFor(header.Header.Get("Content-Type"), header.Filename)

	raw, err := s.reader.ReadQR(data, contentType)
	if err != nil {
		slog.Error("QR decode failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	rec, err := s.ingestor.Scan(r.Context(), raw)
	if err != nil {
		slog.Error("Scan failed", "filename", header.Filename, "error", err)
		writeError(w, scanStatus(err), err.Error())
		return
	}

	attached, err := s.service.AttachFile(rec.ID, header.Filename, data, contentType)
	if err != nil {
		// The receipt is stored; losing the artifact is not worth failing
		// the whole scan over.
		slog.Warn("Failed to attach file to receipt", "id", rec.ID, "error", err)
		writeJSON(w, http.StatusCreated, rec)
		return
	}
	writeJSON(w, http.StatusCreated, attached)
}

// handleScanState reports the pipeline state and the failure reason, if any
func (s *Server) handleScanState(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		State   string `json:"state"`
		Failure string `json:"failure,omitempty"`
	}{State: s.ingestor.State().String()}
	if reason := s.ingestor.FailureReason(); reason != nil {
		resp.Failure = reason.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAcknowledgeScan clears a failed scan attempt
func (s *Server) handleAcknowledgeScan(w http.ResponseWriter, r *http.Request) {
	s.ingestor.Acknowledge()
	w.WriteHeader(http.StatusNoContent)
}

// handleCancelScan abandons the scan attempt in flight
func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	s.ingestor.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// handleListReceipts returns a list of all receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.service.ListReceipts()
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// handleCreateReceipt stores a manually entered receipt
func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MerchantName string `json:"merchant_name"`
		Total        string `json:"total"`
		Date         string `json:"date"`
		Time         string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := s.service.CreateManual(req.MerchantName, req.Total, req.Date, req.Time)
	if err != nil {
		slog.Error("Error creating receipt", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := receiptID(w, r)
	if !ok {
		return
	}
	rec, err := s.service.GetReceipt(id)
	if err != nil {
		corsError(w, "Receipt not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleUpdateReceipt applies an edit to a receipt
func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := receiptID(w, r)
	if !ok {
		return
	}

	var edit receipt.Edit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := s.service.UpdateReceipt(id, edit)
	if err != nil {
		slog.Error("Error updating receipt", "id", id, "error", err)
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleGetReceiptFile returns the uploaded artifact for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	id, ok := receiptID(w, r)
	if !ok {
		return
	}
	data, contentType, err := s.service.GetReceiptFile(id)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteReceipt deletes a receipt
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := receiptID(w, r)
	if !ok {
		return
	}
	if err := s.service.DeleteReceipt(id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			corsError(w, "Receipt not found", http.StatusNotFound)
			return
		}
		corsError(w, "Error deleting receipt", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteAllReceipts clears the database
func (s *Server) handleDeleteAllReceipts(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAllReceipts(); err != nil {
		slog.Error("Error deleting receipts", "error", err)
		corsError(w, "Error deleting receipts", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func receiptID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		corsError(w, "Invalid receipt ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// contentTypeFor falls back to the file extension when the upload carries no
// usable content type.
func contentTypeFor(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
