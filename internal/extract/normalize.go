// Package extract implements the statement-to-transaction pipeline: a CSV
// column classifier, a document text extractor, an AI-assisted parser and the
// orchestrator that routes an uploaded file through them.
package extract

import (
	"strconv"
	"strings"
	"time"
)

// isoDate is the canonical date layout every extractor converges to.
const isoDate = "2006-01-02"

// dateLayouts are tried in order when normalizing a raw date string. ISO
// comes first so that normalizing an already-normalized date is a no-op.
var dateLayouts = []string{
	isoDate,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseAmount converts a currency-formatted string into a float. Every rune
// that is not a digit, sign or decimal point is stripped before parsing.
// Unparseable input yields 0; callers must treat 0 as the sentinel for "no
// amount" rather than a real value.
func ParseAmount(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '+' {
			return r
		}
		return -1
	}, raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizeDate projects a raw date string onto YYYY-MM-DD. Failure yields
// the empty string; the caller decides whether to substitute a fallback date
// or drop the record.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate)
		}
	}
	return ""
}
