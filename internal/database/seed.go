package database

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/orbit-studio/orbit-api/internal/auth"
	"github.com/orbit-studio/orbit-api/internal/config"
	"github.com/orbit-studio/orbit-api/internal/model"
)

// SeedAdmin inserts the bootstrap admin account when the users table is
// empty. Existing installations are left untouched.
func SeedAdmin(ctx context.Context, db *sql.DB, cfg config.Config) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := auth.HashPassword(cfg.SeedPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(cfg.SeedEmail))
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, role, created_at) VALUES (?,?,?,?,?)",
		email, cfg.SeedName, hash, string(model.RoleAdmin), time.Now().UTC())
	if err != nil {
		return err
	}
	log.Printf("seeded admin account %s", email)
	return nil
}
