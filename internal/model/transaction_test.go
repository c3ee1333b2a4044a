package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tx := Transaction{Date: "2024-03-01", Description: "Salary", Amount: 2500}
	assert.Equal(t, "2024-03-01|Salary|2500.00", tx.Key())

	// Amounts that only differ past two decimals collapse to the same key.
	a := Transaction{Date: "2024-03-01", Description: "Fee", Amount: -1.999}
	b := Transaction{Date: "2024-03-01", Description: "Fee", Amount: -2.001}
	assert.Equal(t, a.Key(), b.Key())
}

func TestDedupe(t *testing.T) {
	txs := []Transaction{
		{Date: "2024-03-01", Description: "Salary", Amount: 2500, Category: "Income"},
		{Date: "2024-03-01", Description: "Salary", Amount: 2500, Category: "Other"},
		{Date: "2024-03-02", Description: "Groceries", Amount: -85.50, Category: "Food"},
		{Date: "2024-03-01", Description: "Salary", Amount: 2500, Category: "Income"},
	}

	got := Dedupe(txs)

	require.Len(t, got, 2)
	// First occurrence wins and input order is preserved.
	assert.Equal(t, "Income", got[0].Category)
	assert.Equal(t, "Groceries", got[1].Description)
}

func TestDedupeEmpty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
	assert.Empty(t, Dedupe([]Transaction{}))
}
