package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbit-studio/orbit-api/internal/database"
	"github.com/orbit-studio/orbit-api/internal/model"
)

// newTestDB opens an in-memory SQLite database with the application
// schema. A single connection keeps the memory database alive for the
// whole test.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.InitSchema(db, "sqlite"))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserCreateAndLookup(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	id, err := users.Create(ctx, "Admin@Orbit.COM", "Orbit Admin", "admin123", model.RoleAdmin, 4)
	require.NoError(t, err)
	require.NotZero(t, id)

	// lookup is case-insensitive because emails are stored lowercased
	u, err := users.GetByEmail(ctx, "ADMIN@orbit.com")
	require.NoError(t, err)
	assert.Equal(t, "admin@orbit.com", u.Email)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = users.Create(ctx, "admin@orbit.com", "Dup", "x", model.RoleEmployee, 4)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = users.GetByEmail(ctx, "nobody@orbit.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserDeleteGuardsSelf(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	ctx := context.Background()

	a, err := users.Create(ctx, "a@orbit.com", "A", "pw", model.RoleAdmin, 4)
	require.NoError(t, err)
	b, err := users.Create(ctx, "b@orbit.com", "B", "pw", model.RoleEmployee, 4)
	require.NoError(t, err)

	assert.ErrorIs(t, users.Delete(ctx, a, a), ErrSelfDelete)
	assert.NoError(t, users.Delete(ctx, b, a))
	assert.ErrorIs(t, users.Delete(ctx, b, a), sql.ErrNoRows)
}

func TestTokenIssueRevokesPriorActives(t *testing.T) {
	db := newTestDB(t)
	tokens := NewTokenRepo(db)
	ctx := context.Background()
	exp := time.Now().UTC().Add(7 * 24 * time.Hour)

	require.NoError(t, tokens.Issue(ctx, 1, "first-token", exp))
	uid, err := tokens.Validate(ctx, "first-token")
	require.NoError(t, err)
	assert.Equal(t, int64(1), uid)

	// a second login supersedes the first session
	require.NoError(t, tokens.Issue(ctx, 1, "second-token", exp))
	_, err = tokens.Validate(ctx, "first-token")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	uid, err = tokens.Validate(ctx, "second-token")
	require.NoError(t, err)
	assert.Equal(t, int64(1), uid)

	// other users' tokens are untouched
	require.NoError(t, tokens.Issue(ctx, 2, "other-user", exp))
	_, err = tokens.Validate(ctx, "second-token")
	assert.NoError(t, err)
}

func TestTokenValidateRejectsExpiredAndUnknown(t *testing.T) {
	db := newTestDB(t)
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	require.NoError(t, tokens.Issue(ctx, 1, "stale", time.Now().UTC().Add(-time.Minute)))
	_, err := tokens.Validate(ctx, "stale")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = tokens.Validate(ctx, "never-issued")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTokenRevokeIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	tokens := NewTokenRepo(db)
	ctx := context.Background()

	require.NoError(t, tokens.Issue(ctx, 1, "tok", time.Now().UTC().Add(time.Hour)))
	require.NoError(t, tokens.Revoke(ctx, "tok"))
	_, err := tokens.Validate(ctx, "tok")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// revoking again, or revoking a token that never existed, is not an error
	assert.NoError(t, tokens.Revoke(ctx, "tok"))
	assert.NoError(t, tokens.Revoke(ctx, "never-issued"))
}

func TestAuditRecordAppends(t *testing.T) {
	db := newTestDB(t)
	audits := NewAuditRepo(db)
	ctx := context.Background()

	uid := int64(1)
	require.NoError(t, audits.Record(ctx, model.AuditEvent{
		EventType: model.EventLoginSuccess,
		UserID:    &uid,
		Email:     "admin@orbit.com",
		IPAddress: "10.0.0.1",
		Success:   true,
	}))
	require.NoError(t, audits.Record(ctx, model.AuditEvent{
		EventType: model.EventLoginFailure,
		Email:     "admin@orbit.com",
		IPAddress: "10.0.0.1",
		Details:   "wrong password",
	}))

	n, err := audits.CountByType(ctx, model.EventLoginSuccess)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = audits.CountByType(ctx, model.EventLoginFailure)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInvoiceSequenceMonotonicPerYear(t *testing.T) {
	db := newTestDB(t)
	seq := NewSequenceRepo(db)
	ctx := context.Background()

	n1, err := seq.NextInvoiceNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", n1)

	n2, err := seq.NextInvoiceNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0002", n2)

	// each year has its own counter
	n3, err := seq.NextInvoiceNumber(ctx, 2027)
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-0001", n3)
}

func TestInvoiceSequenceConcurrentAllocationsAreUnique(t *testing.T) {
	db := newTestDB(t)
	seq := NewSequenceRepo(db)

	const n = 20
	numbers := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			numbers[i], errs[i] = seq.NextInvoiceNumber(context.Background(), 2026)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.False(t, seen[numbers[i]], "number %s handed out twice", numbers[i])
		seen[numbers[i]] = true
	}
	assert.True(t, seen["INV-2026-0001"])
	assert.True(t, seen[fmt.Sprintf("INV-2026-%04d", n)], "no gaps in the allocated range")
}
