// Package handlers implements the HTTP endpoints: statement upload, report
// export, transaction listing and health.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/finatracker/finatracker/internal/api/middleware"
	"github.com/finatracker/finatracker/internal/extract"
	"github.com/finatracker/finatracker/internal/filestore"
	"github.com/finatracker/finatracker/internal/model"
	"github.com/finatracker/finatracker/internal/report"
)

// maxUploadBytes bounds statement uploads and report export bodies.
const maxUploadBytes = 50 << 20

// Extractor is the slice of the extraction orchestrator the upload handler
// depends on.
type Extractor interface {
	ExtractFile(ctx context.Context, path, originalName, mimeType string) (extract.Result, error)
}

// TransactionStore persists extracted transactions for a user.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, userID string, txs []model.Transaction) (int, error)
	ListTransactions(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error)
}

// UploadHandler handles POST /upload.
type UploadHandler struct {
	extractor Extractor
	files     *filestore.Store
	store     TransactionStore // may be nil when persistence is not configured
	log       zerolog.Logger
}

// NewUploadHandler creates the upload handler. store may be nil; extracted
// transactions are then only returned to the caller, never persisted.
func NewUploadHandler(extractor Extractor, files *filestore.Store, store TransactionStore, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		extractor: extractor,
		files:     files,
		store:     store,
		log:       log,
	}
}

// Upload accepts a multipart statement upload, runs the extraction pipeline
// and returns the normalized transactions. The three outcomes are distinct:
// success with data, success with an empty list plus an advisory message, and
// a classified failure.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeExtractError(w, &extract.ValidationError{Reason: "No file uploaded"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeExtractError(w, &extract.ValidationError{Reason: "No file uploaded"})
		return
	}
	defer file.Close()

	path, err := h.files.Save(header.Filename, file)
	if err != nil {
		h.log.Error().Err(err).Str("file", header.Filename).Msg("Failed to store upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}

	result, err := h.extractor.ExtractFile(ctx, path, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.log.Error().Err(err).Str("file", header.Filename).Msg("Extraction failed")
		writeExtractError(w, err)
		return
	}

	if userID := r.FormValue("user_id"); userID != "" && h.store != nil && len(result.Transactions) > 0 {
		saved, err := h.store.SaveTransactions(ctx, userID, result.Transactions)
		if err != nil {
			// The extraction itself succeeded; report it and let the
			// client retry persistence.
			h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to persist transactions")
		} else {
			h.log.Info().Str("user_id", userID).Int("saved", saved).Msg("Transactions persisted")
		}
	}

	resp := map[string]interface{}{
		"success":      true,
		"transactions": result.Transactions,
	}
	if result.Advisory != "" {
		resp["message"] = result.Advisory
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// TransactionsHandler handles GET /api/transactions.
type TransactionsHandler struct {
	store TransactionStore
	log   zerolog.Logger
}

// NewTransactionsHandler creates the transactions handler.
func NewTransactionsHandler(store TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// List returns a user's stored transactions, defaulting to the trailing year.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.store == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return
	}

	query := r.URL.Query()
	userID := query.Get("user_id")
	if userID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	start := time.Now().AddDate(-1, 0, 0)
	end := time.Now()
	var err error

	if v := query.Get("start_date"); v != "" {
		if start, err = time.Parse("2006-01-02", v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return
		}
	}
	if v := query.Get("end_date"); v != "" {
		if end, err = time.Parse("2006-01-02", v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return
		}
	}

	transactions, err := h.store.ListTransactions(ctx, userID, start, end)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	if transactions == nil {
		transactions = []model.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// ReportsHandler handles POST /api/reports/export.
type ReportsHandler struct {
	log zerolog.Logger
}

// NewReportsHandler creates the reports handler.
func NewReportsHandler(log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{log: log}
}

// Export renders the posted transactions into a PDF report and streams it as
// an attachment.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transactions []model.Transaction `json:"transactions"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No transaction data provided for export.")
		return
	}

	// Render into memory first so a mid-render failure can still produce a
	// JSON error instead of a truncated PDF.
	var buf bytes.Buffer
	if err := report.Build(&buf, req.Transactions); err != nil {
		h.log.Error().Err(err).Msg("PDF generation failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate PDF report.")
		return
	}

	filename := fmt.Sprintf("Finatracker_Report_%s.pdf", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Warn().Err(err).Msg("Failed to stream PDF report")
	}
}

// writeExtractError maps an extraction error onto its HTTP status and
// user-facing message.
func writeExtractError(w http.ResponseWriter, err error) {
	middleware.WriteError(w, extract.HTTPStatus(err), extract.UserMessage(err))
}

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
