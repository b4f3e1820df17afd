package db

import "database/sql"

// Migrate creates all tables. All monetary columns are integer minor units
// (cents); sqlite REAL never holds a balance.
func Migrate(conn *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			uid INTEGER PRIMARY KEY,
			balance INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 0,
			total_bets INTEGER NOT NULL DEFAULT 0,
			total_wins INTEGER NOT NULL DEFAULT 0,
			total_losses INTEGER NOT NULL DEFAULT 0,
			total_deposits INTEGER NOT NULL DEFAULT 0,
			total_withdrawals INTEGER NOT NULL DEFAULT 0
		);`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			uid INTEGER NOT NULL REFERENCES users(uid),
			delta INTEGER NOT NULL,
			kind TEXT NOT NULL,
			wager_id TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_uid ON transactions(uid);`,

		`CREATE TABLE IF NOT EXISTS wagers (
			id TEXT PRIMARY KEY,
			uid INTEGER NOT NULL REFERENCES users(uid),
			game TEXT NOT NULL,
			stake INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'PLACED',
			resolution TEXT,
			payout INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			resolved_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_wagers_uid ON wagers(uid);`,

		`CREATE TABLE IF NOT EXISTS withdraw_requests (
			id TEXT PRIMARY KEY,
			uid INTEGER NOT NULL REFERENCES users(uid),
			amount INTEGER NOT NULL,
			fee INTEGER NOT NULL,
			asset TEXT NOT NULL,
			address TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			provider_ref TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_withdraw_status ON withdraw_requests(status);`,

		`CREATE TABLE IF NOT EXISTS payments (
			payment_id TEXT PRIMARY KEY,
			uid INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS transfers (
			id TEXT PRIMARY KEY,
			from_uid INTEGER NOT NULL,
			to_uid INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS audit_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			uid INTEGER NOT NULL,
			action TEXT NOT NULL,
			ref TEXT NOT NULL,
			detail TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}

	for _, s := range stmts {
		if _, err := conn.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
