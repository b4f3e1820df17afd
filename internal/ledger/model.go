package ledger

import "errors"

type Kind string

const (
	KindStake      Kind = "stake"
	KindPayout     Kind = "payout"
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindAdjustment Kind = "adjustment"
	KindTransfer   Kind = "transfer"
)

var (
	// ErrInsufficientFunds is user-facing and never retried: the caller
	// decides whether to resubmit with a smaller amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrAccountNotFound = errors.New("account not found")

	// ErrVersionConflict means another writer won the account's version CAS.
	// Tx-scoped callers retry their whole enclosing transaction on it.
	ErrVersionConflict = errors.New("account version conflict")
)

// Account is a balance snapshot. Balance is integer minor units.
type Account struct {
	UID              int64 `json:"uid"`
	Balance          int64 `json:"balance"`
	Version          int64 `json:"-"`
	TotalBets        int64 `json:"total_bets"`
	TotalWins        int64 `json:"total_wins"`
	TotalLosses      int64 `json:"total_losses"`
	TotalDeposits    int64 `json:"total_deposits"`
	TotalWithdrawals int64 `json:"total_withdrawals"`
}

// Transaction rows are append-only; nothing updates or deletes them.
type Transaction struct {
	ID        string `json:"id"`
	UID       int64  `json:"uid"`
	Delta     int64  `json:"delta"`
	Kind      Kind   `json:"kind"`
	WagerID   string `json:"wager_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
}
