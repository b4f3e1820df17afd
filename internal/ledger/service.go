package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"stakehouse/internal/db"
	"stakehouse/internal/monitoring"
)

const maxAttempts = 10

// Service owns all Account and Transaction mutation. Every balance change is
// an optimistic CAS on (balance, version) committed together with its
// transaction row; unrelated accounts never contend.
type Service struct {
	conn *sql.DB
}

func New(conn *sql.DB) *Service {
	return &Service{conn: conn}
}

// Ensure creates the account row if it does not exist yet.
func (s *Service) Ensure(ctx context.Context, uid int64) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO users(uid) VALUES (?)`, uid)
	return err
}

// Debit removes amount from the account. Fails with ErrInsufficientFunds,
// writing nothing, when the balance does not cover it.
func (s *Service) Debit(ctx context.Context, uid, amount int64, kind Kind, wagerID string) (string, error) {
	return s.retry(ctx, func(tx *sql.Tx) (string, error) {
		return s.DebitTx(tx, uid, amount, kind, wagerID)
	})
}

// Credit adds amount to the account.
func (s *Service) Credit(ctx context.Context, uid, amount int64, kind Kind, wagerID string) (string, error) {
	return s.retry(ctx, func(tx *sql.Tx) (string, error) {
		return s.CreditTx(tx, uid, amount, kind, wagerID)
	})
}

// DebitTx is the single-attempt, tx-scoped form used by callers that compose
// a balance move with their own row updates. Returns ErrVersionConflict when
// another writer got to the account first; the caller retries its whole tx.
func (s *Service) DebitTx(tx *sql.Tx, uid, amount int64, kind Kind, wagerID string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("debit amount %d: must be positive", amount)
	}
	return s.apply(tx, uid, -amount, kind, wagerID)
}

// CreditTx is the tx-scoped form of Credit.
func (s *Service) CreditTx(tx *sql.Tx, uid, amount int64, kind Kind, wagerID string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("credit amount %d: must be positive", amount)
	}
	return s.apply(tx, uid, amount, kind, wagerID)
}

// NoteLossTx bumps the loss counter for a settled losing wager. No money
// moves; the stake was already debited at placement.
func (s *Service) NoteLossTx(tx *sql.Tx, uid, stake int64) error {
	_, err := tx.Exec(
		`UPDATE users SET total_losses = total_losses + ? WHERE uid = ?`,
		stake, uid)
	return err
}

func (s *Service) apply(tx *sql.Tx, uid, delta int64, kind Kind, wagerID string) (string, error) {
	var balance, version int64
	err := tx.QueryRow(
		`SELECT balance, version FROM users WHERE uid = ?`, uid).
		Scan(&balance, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrAccountNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load account %d: %w", uid, err)
	}

	if balance+delta < 0 {
		return "", ErrInsufficientFunds
	}

	res, err := tx.Exec(
		`UPDATE users SET balance = balance + ?, version = version + 1,
			total_bets = total_bets + ?,
			total_wins = total_wins + ?,
			total_deposits = total_deposits + ?,
			total_withdrawals = total_withdrawals + ?
		WHERE uid = ? AND version = ?`,
		delta,
		statBump(kind, KindStake, delta),
		statBump(kind, KindPayout, delta),
		statBump(kind, KindDeposit, delta),
		statBump(kind, KindWithdrawal, delta),
		uid, version)
	if err != nil {
		return "", fmt.Errorf("update account %d: %w", uid, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if affected == 0 {
		monitoring.LedgerRetries.Inc()
		return "", ErrVersionConflict
	}

	txnID := uuid.New().String()
	var wager any
	if wagerID != "" {
		wager = wagerID
	}
	_, err = tx.Exec(
		`INSERT INTO transactions(id, uid, delta, kind, wager_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		txnID, uid, delta, string(kind), wager, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("append transaction: %w", err)
	}
	return txnID, nil
}

// statBump returns the absolute delta when kind matches the stat's kind.
func statBump(kind, want Kind, delta int64) int64 {
	if kind != want {
		return 0
	}
	if delta < 0 {
		return -delta
	}
	return delta
}

// retry wraps a single CAS attempt in a fresh tx, backing off on version
// conflicts. ErrInsufficientFunds is terminal and comes back untouched.
func (s *Service) retry(ctx context.Context, attempt func(tx *sql.Tx) (string, error)) (string, error) {
	var txnID string
	err := s.InTx(ctx, func(tx *sql.Tx) error {
		var err error
		txnID, err = attempt(tx)
		return err
	})
	if err != nil {
		return "", err
	}
	return txnID, nil
}

// InTx runs fn in a transaction, retrying the whole transaction when a
// DebitTx/CreditTx inside it loses the account version CAS. Services that
// compose a balance move with their own row updates go through here so the
// pair commits atomically.
func (s *Service) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	for i := 0; i < maxAttempts; i++ {
		err := db.WithTx(ctx, s.conn, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1+rand.Intn(2<<i)) * time.Millisecond):
		}
	}
	return fmt.Errorf("account contended for %d attempts", maxAttempts)
}

// Balance reads the current balance without locking.
func (s *Service) Balance(ctx context.Context, uid int64) (int64, error) {
	var balance int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE uid = ?`, uid).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	return balance, err
}

// Account reads the full stats snapshot.
func (s *Service) Account(ctx context.Context, uid int64) (*Account, error) {
	a := &Account{}
	err := s.conn.QueryRowContext(ctx,
		`SELECT uid, balance, version, total_bets, total_wins, total_losses,
			total_deposits, total_withdrawals
		FROM users WHERE uid = ?`, uid).
		Scan(&a.UID, &a.Balance, &a.Version, &a.TotalBets, &a.TotalWins,
			&a.TotalLosses, &a.TotalDeposits, &a.TotalWithdrawals)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// SumDeltas totals the transaction log for one account. The ledger invariant
// is balance == SumDeltas at all times.
func (s *Service) SumDeltas(ctx context.Context, uid int64) (int64, error) {
	var sum sql.NullInt64
	err := s.conn.QueryRowContext(ctx,
		`SELECT SUM(delta) FROM transactions WHERE uid = ?`, uid).Scan(&sum)
	if err != nil {
		return 0, err
	}
	return sum.Int64, nil
}
