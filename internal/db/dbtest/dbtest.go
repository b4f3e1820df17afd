// Package dbtest opens throwaway sqlite databases for package tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"stakehouse/internal/db"
)

// New returns a migrated database in a per-test temp dir, closed on cleanup.
func New(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// Seed creates an account with the given balance.
func Seed(t *testing.T, conn *sql.DB, uid, balance int64) {
	t.Helper()

	_, err := conn.Exec(
		`INSERT INTO users(uid, balance) VALUES (?, ?)
		ON CONFLICT(uid) DO UPDATE SET balance = excluded.balance`,
		uid, balance)
	if err != nil {
		t.Fatalf("seed user %d: %v", uid, err)
	}
}
