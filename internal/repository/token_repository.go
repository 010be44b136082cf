package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists and validates refresh tokens.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Issue stores a new refresh token for a user. It revokes every prior
// token for that user and inserts the new row inside one transaction, so
// at most one active refresh token per user exists at any commit point.
// Two concurrent logins race; the last transaction to commit holds the
// sole active token.
func (r *TokenRepo) Issue(ctx context.Context, userID int64, token string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at, revoked, created_at) VALUES (?,?,?,0,?)",
		userID, token, exp, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// Validate returns the owning userID if a non-revoked, non-expired token
// exists. Any other state is reported as sql.ErrNoRows so callers cannot
// distinguish unknown, revoked and expired tokens.
func (r *TokenRepo) Validate(ctx context.Context, token string) (int64, error) {
	var (
		userID    int64
		expiresAt time.Time
		revoked   bool
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked FROM refresh_tokens WHERE token=? LIMIT 1",
		token).Scan(&userID, &expiresAt, &revoked)
	if err != nil {
		return 0, err
	}
	if revoked {
		return 0, sql.ErrNoRows
	}
	if !time.Now().UTC().Before(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// Revoke marks a token as revoked. Idempotent: revoking an unknown or
// already-revoked token is not an error.
func (r *TokenRepo) Revoke(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE token=? AND revoked=0", token)
	return err
}

// RevokeAllForUser revokes all of a user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID)
	return err
}
