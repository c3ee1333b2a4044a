// Package repository provides the thin Postgres data-access layer consuming
// extracted transactions. Persistence is a collaborator of the extraction
// pipeline, not part of it; the pipeline never depends on this package.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/finatracker/finatracker/internal/model"
)

// Repository provides database operations.
type Repository struct {
	db *sql.DB
}

// New opens a Postgres connection pool for the given connection string.
func New(connStr string) (*Repository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveTransactions inserts a batch of transactions for a user, de-duplicating
// on (date, description, amount) before and during insert. Returns the number
// of rows actually written.
func (r *Repository) SaveTransactions(ctx context.Context, userID string, txs []model.Transaction) (int, error) {
	txs = model.Dedupe(txs)
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (user_id, date, description, amount, category, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, date, description, amount) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range txs {
		res, err := stmt.ExecContext(ctx, userID, tx.Date, tx.Description, tx.Amount, tx.Category)
		if err != nil {
			return 0, fmt.Errorf("insert transaction: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transactions: %w", err)
	}
	return inserted, nil
}

// ListTransactions returns a user's transactions within the date range,
// newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID string, start, end time.Time) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), description, amount, category
		FROM transactions
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		if err := rows.Scan(&tx.Date, &tx.Description, &tx.Amount, &tx.Category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}
