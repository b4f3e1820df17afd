package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stakehouse/internal/event"
	"stakehouse/internal/ledger"
	"stakehouse/internal/logger"
)

var (
	ErrBadOrderID = errors.New("malformed order id")

	// ErrIgnored: valid notification that credits nothing (unconfirmed
	// status, duplicate payment id). The webhook still answers 200.
	ErrIgnored = errors.New("notification ignored")
)

// Notification is the provider's IPN payload, trimmed to what the core uses.
type Notification struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	OrderID       string      `json:"order_id"`
	PriceAmount   json.Number `json:"price_amount"`
}

// Service credits confirmed deposits. Exactly once per payment_id: the
// payments table's primary key is the idempotency guard, inserted in the
// same transaction as the credit.
type Service struct {
	conn   *sql.DB
	ledger *ledger.Service
	bus    *event.Bus
	secret string
}

func New(conn *sql.DB, lgr *ledger.Service, bus *event.Bus, secret string) *Service {
	return &Service{conn: conn, ledger: lgr, bus: bus, secret: secret}
}

// HandleIPN verifies and applies one notification payload.
func (s *Service) HandleIPN(ctx context.Context, payload []byte, signature string) error {
	if err := VerifySignature(payload, s.secret, signature); err != nil {
		return err
	}

	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}

	if n.PaymentStatus != "confirmed" && n.PaymentStatus != "finished" {
		return ErrIgnored
	}

	uid, err := uidFromOrder(n.OrderID)
	if err != nil {
		return err
	}

	amount, err := minorUnits(n.PriceAmount)
	if err != nil || amount <= 0 {
		return fmt.Errorf("bad price_amount %q", n.PriceAmount)
	}

	if err := s.ledger.Ensure(ctx, uid); err != nil {
		return err
	}

	err = s.ledger.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT OR IGNORE INTO payments(payment_id, uid, amount, status, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			n.PaymentID.String(), uid, amount, n.PaymentStatus, time.Now().UnixMilli())
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// Replayed notification; already credited once.
			return ErrIgnored
		}

		_, err = s.ledger.CreditTx(tx, uid, amount, ledger.KindDeposit, "")
		return err
	})
	if errors.Is(err, ErrIgnored) {
		logger.Log.Info("duplicate ipn ignored",
			zap.String("payment_id", n.PaymentID.String()))
		return ErrIgnored
	}
	if err != nil {
		return err
	}

	logger.Log.Info("deposit credited",
		zap.String("payment_id", n.PaymentID.String()),
		zap.Int64("uid", uid),
		zap.Int64("amount", amount))

	s.bus.Publish(event.EventDepositConfirmed, event.DepositConfirmed{
		PaymentID: n.PaymentID.String(), UID: uid, Amount: amount,
	})
	return nil
}

// uidFromOrder parses the "deposit_<uid>_<ts>" order ids the deposit flow
// hands to the provider.
func uidFromOrder(orderID string) (int64, error) {
	parts := strings.Split(orderID, "_")
	if len(parts) < 3 || parts[0] != "deposit" {
		return 0, ErrBadOrderID
	}
	uid, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrBadOrderID
	}
	return uid, nil
}

// minorUnits converts the provider's fiat amount to cents, rounding down.
func minorUnits(n json.Number) (int64, error) {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).IntPart(), nil
}
