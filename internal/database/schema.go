package database

import "database/sql"

// Schema DDL per driver. The statements are idempotent so InitSchema can
// run on every start.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'employee',
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMP NOT NULL,
		revoked INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		user_id INTEGER,
		email TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		success INTEGER NOT NULL DEFAULT 0,
		details TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS invoice_sequences (
		year INTEGER PRIMARY KEY,
		next_number INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id);`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'employee',
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		user_id BIGINT NOT NULL,
		token VARCHAR(128) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		INDEX idx_refresh_tokens_user (user_id)
	);`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		event_type VARCHAR(32) NOT NULL,
		user_id BIGINT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		user_agent VARCHAR(512) NOT NULL DEFAULT '',
		success TINYINT(1) NOT NULL DEFAULT 0,
		details TEXT,
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS invoice_sequences (
		year INT PRIMARY KEY,
		next_number BIGINT NOT NULL
	);`,
}

// InitSchema creates the application tables when they do not exist yet.
func InitSchema(db *sql.DB, driver string) error {
	stmts := sqliteSchema
	if driver == "mysql" {
		stmts = mysqlSchema
	}
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}
