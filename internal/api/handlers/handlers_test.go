package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finatracker/finatracker/internal/extract"
	"github.com/finatracker/finatracker/internal/filestore"
	"github.com/finatracker/finatracker/internal/model"
)

type fakeExtractor struct {
	result  extract.Result
	err     error
	gotName string
	gotMIME string
	called  bool
}

func (f *fakeExtractor) ExtractFile(_ context.Context, _, originalName, mimeType string) (extract.Result, error) {
	f.called = true
	f.gotName = originalName
	f.gotMIME = mimeType
	return f.result, f.err
}

func newUploadRequest(t *testing.T, fieldName, fileName, contents string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := writer.CreateFormFile(fieldName, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(contents))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newTestUploadHandler(t *testing.T, ex *fakeExtractor) *UploadHandler {
	t.Helper()
	files, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	return NewUploadHandler(ex, files, nil, zerolog.Nop())
}

func TestUploadNoFile(t *testing.T) {
	h := newTestUploadHandler(t, &fakeExtractor{})

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "file", "", "", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No file uploaded", resp["error"])
}

func TestUploadWrongFieldName(t *testing.T) {
	h := newTestUploadHandler(t, &fakeExtractor{})

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "document", "statement.csv", "Date,Amount\n", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadSuccess(t *testing.T) {
	ex := &fakeExtractor{
		result: extract.Result{Transactions: []model.Transaction{
			{Date: "2024-03-01", Description: "Salary", Amount: 2500, Category: "Income"},
		}},
	}
	h := newTestUploadHandler(t, ex)

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "file", "statement.csv", "Date,Amount\n2024-03-01,2500\n", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "statement.csv", ex.gotName)

	var resp struct {
		Success      bool                `json:"success"`
		Message      string              `json:"message"`
		Transactions []model.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Message)
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "Salary", resp.Transactions[0].Description)
}

func TestUploadZeroResultIncludesAdvisory(t *testing.T) {
	ex := &fakeExtractor{
		result: extract.Result{
			Transactions: []model.Transaction{},
			Advisory:     "File processed, but zero transactions were extracted.",
		},
	}
	h := newTestUploadHandler(t, ex)

	rec := httptest.NewRecorder()
	h.Upload(rec, newUploadRequest(t, "file", "empty.csv", "Date,Amount\n", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success      bool                `json:"success"`
		Message      string              `json:"message"`
		Transactions []model.Transaction `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "File processed, but zero transactions were extracted.", resp.Message)
	assert.Empty(t, resp.Transactions)
}

func TestUploadMapsExtractionErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"data error", &extract.DataError{Model: "m", Reason: "the response was not a JSON array"}, http.StatusUnprocessableEntity},
		{"availability error", &extract.AvailabilityError{LastErr: "timeout"}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestUploadHandler(t, &fakeExtractor{err: tt.err})

			rec := httptest.NewRecorder()
			h.Upload(rec, newUploadRequest(t, "file", "scan.pdf", "pdfbytes", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.NotContains(t, resp["error"], "gemini")
		})
	}
}

func TestExportEmptyTransactions(t *testing.T) {
	h := NewReportsHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/reports/export", strings.NewReader(`{"transactions": []}`))
	rec := httptest.NewRecorder()
	h.Export(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No transaction data provided for export.", resp["error"])
}

func TestExportInvalidBody(t *testing.T) {
	h := NewReportsHandler(zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/reports/export", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Export(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportProducesPDFAttachment(t *testing.T) {
	h := NewReportsHandler(zerolog.Nop())

	body := `{"transactions": [
		{"date": "2024-03-01", "description": "Salary", "amount": 2500, "category": "Income"},
		{"date": "2024-03-02", "description": "Groceries", "amount": -85.5, "category": "Food"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports/export", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Export(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Finatracker_Report_")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestListWithoutStore(t *testing.T) {
	h := NewTransactionsHandler(nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?user_id=u1", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListRequiresUserID(t *testing.T) {
	h := NewTransactionsHandler(&fakeStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListInvalidDates(t *testing.T) {
	h := NewTransactionsHandler(&fakeStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?user_id=u1&start_date=March", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReturnsEmptyArrayNotNull(t *testing.T) {
	h := NewTransactionsHandler(&fakeStore{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?user_id=u1", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

type fakeStore struct {
	txs []model.Transaction
}

func (f *fakeStore) SaveTransactions(_ context.Context, _ string, txs []model.Transaction) (int, error) {
	f.txs = append(f.txs, txs...)
	return len(txs), nil
}

func (f *fakeStore) ListTransactions(context.Context, string, time.Time, time.Time) ([]model.Transaction, error) {
	return f.txs, nil
}
