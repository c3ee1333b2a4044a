// Package model holds the domain types shared by the extractors, the API
// layer and the persistence layer.
package model

import "fmt"

// Transaction is one normalized financial event. Every extractor converges to
// this four-field shape so downstream consumers never care where a row came
// from. The amount sign is an invariant: positive means income/credit,
// negative means expense/debit.
type Transaction struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
}

// Key returns the identity used when de-duplicating transactions at the
// consuming layer.
func (t Transaction) Key() string {
	return fmt.Sprintf("%s|%s|%.2f", t.Date, t.Description, t.Amount)
}

// Dedupe removes transactions that share the same date, description and
// amount, keeping the first occurrence and preserving input order.
func Dedupe(txs []Transaction) []Transaction {
	if len(txs) == 0 {
		return txs
	}
	seen := make(map[string]struct{}, len(txs))
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		key := tx.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tx)
	}
	return out
}
