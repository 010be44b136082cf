package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// SequenceRepo allocates invoice numbers. Numbers are monotonic per
// calendar year and formatted as INV-<year>-<n>, zero-padded to four
// digits.
type SequenceRepo struct{ DB *sql.DB }

func NewSequenceRepo(db *sql.DB) *SequenceRepo { return &SequenceRepo{DB: db} }

// NextInvoiceNumber reserves and returns the next number for the given
// year. The increment is a blind UPDATE, never a read-then-write: under
// repeatable-read isolation a snapshot SELECT before the write can hand
// two transactions the same value, while the UPDATE serializes on the
// row lock and each transaction reads back the value it wrote.
func (r *SequenceRepo) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE invoice_sequences SET next_number = next_number + 1 WHERE year=?", year)
	if err != nil {
		return "", err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if affected == 0 {
		// first allocation for this year; a concurrent first allocation
		// loses the insert on the primary key and falls back to the
		// increment against the winner's row
		_, err := tx.ExecContext(ctx,
			"INSERT INTO invoice_sequences (year, next_number) VALUES (?,2)", year)
		switch {
		case err == nil:
		case isDuplicate(err):
			if _, err := tx.ExecContext(ctx,
				"UPDATE invoice_sequences SET next_number = next_number + 1 WHERE year=?", year); err != nil {
				return "", err
			}
		default:
			return "", err
		}
	}

	var next int64
	if err := tx.QueryRowContext(ctx,
		"SELECT next_number FROM invoice_sequences WHERE year=?", year).Scan(&next); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%04d", year, next-1), nil
}
