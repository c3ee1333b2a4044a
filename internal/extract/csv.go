package extract

import (
	"bytes"
	"encoding/csv"
	"strings"
	"time"

	"github.com/finatracker/finatracker/internal/model"
)

// CSVExtractor maps arbitrary bank-export CSV columns onto transactions by
// keyword-matching the header row. It never fails: a file it cannot make
// sense of simply yields zero transactions, which tells the orchestrator to
// fall back to the AI parser.
type CSVExtractor struct {
	now func() time.Time
}

// NewCSVExtractor creates a CSV extractor using the wall clock for date
// fallbacks.
func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{now: time.Now}
}

// Extract parses raw CSV text into transactions.
//
// Each header is classified by case-insensitive substring match: "date",
// "description"/"detail", "money in"/"credit"/"deposit" (positive amount),
// "money out"/"debit"/"withdrawal" (negated amount) and "category". Rows
// without a split in/out column fall back to a plain "amount" column. When
// several headers match the same keyword the last one wins; the original
// sample exports depend on that tie-break.
//
// A row survives only if its amount is nonzero and its date field was
// non-empty. A present but unparseable date falls back to the processing
// date.
func (e *CSVExtractor) Extract(raw []byte) []model.Transaction {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	plainAmountCol := plainAmountColumn(headers)

	var out []model.Transaction
	for _, row := range records[1:] {
		tx := model.Transaction{Category: "Uncategorized"}
		splitAmount := false

		for i, header := range headers {
			var value string
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			switch {
			case strings.Contains(header, "date"):
				if value == "" {
					continue
				}
				if iso := NormalizeDate(value); iso != "" {
					tx.Date = iso
				} else {
					tx.Date = e.now().Format(isoDate)
				}
			case strings.Contains(header, "description"), strings.Contains(header, "detail"):
				tx.Description = value
			case strings.Contains(header, "money in"), strings.Contains(header, "credit"), strings.Contains(header, "deposit"):
				if amt := ParseAmount(value); amt > 0 {
					tx.Amount = amt
				}
				splitAmount = true
			case strings.Contains(header, "money out"), strings.Contains(header, "debit"), strings.Contains(header, "withdrawal"):
				if amt := ParseAmount(value); amt > 0 {
					tx.Amount = -amt
				}
				splitAmount = true
			case strings.Contains(header, "category"):
				if value != "" {
					tx.Category = value
				}
			}
		}

		if !splitAmount && plainAmountCol >= 0 && plainAmountCol < len(row) {
			tx.Amount = ParseAmount(strings.TrimSpace(row[plainAmountCol]))
		}

		if tx.Amount != 0 && tx.Date != "" {
			out = append(out, tx)
		}
	}
	return out
}

// plainAmountColumn finds a single signed-amount column: a header containing
// "amount" but neither "in" nor "out".
func plainAmountColumn(headers []string) int {
	for i, h := range headers {
		if strings.Contains(h, "amount") && !strings.Contains(h, "in") && !strings.Contains(h, "out") {
			return i
		}
	}
	return -1
}
