// Package transfer moves balance between two user accounts in one atomic
// step. Both ledger legs share a transfer id, so either side's transaction
// row leads back to the pairing.
package transfer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stakehouse/internal/event"
	"stakehouse/internal/ledger"
	"stakehouse/internal/logger"
)

var (
	ErrSameAccount = errors.New("cannot transfer to self")
	ErrBadAmount   = errors.New("transfer amount must be positive")
)

type Transfer struct {
	ID        string `json:"id"`
	FromUID   int64  `json:"from_uid"`
	ToUID     int64  `json:"to_uid"`
	Amount    int64  `json:"amount"`
	CreatedAt int64  `json:"created_at"`
}

type Service struct {
	conn   *sql.DB
	ledger *ledger.Service
	bus    *event.Bus
}

func New(conn *sql.DB, lgr *ledger.Service, bus *event.Bus) *Service {
	return &Service{conn: conn, ledger: lgr, bus: bus}
}

// Send debits the sender and credits the recipient in one transaction. The
// recipient must already have an account; transfers never create one.
func (s *Service) Send(ctx context.Context, fromUID, toUID, amount int64) (*Transfer, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}
	if fromUID == toUID {
		return nil, ErrSameAccount
	}
	if _, err := s.ledger.Account(ctx, toUID); err != nil {
		return nil, err
	}

	t := &Transfer{
		ID:        uuid.New().String(),
		FromUID:   fromUID,
		ToUID:     toUID,
		Amount:    amount,
		CreatedAt: time.Now().UnixMilli(),
	}

	err := s.ledger.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.ledger.DebitTx(tx, fromUID, amount, ledger.KindTransfer, t.ID); err != nil {
			return err
		}
		if _, err := s.ledger.CreditTx(tx, toUID, amount, ledger.KindTransfer, t.ID); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO transfers(id, from_uid, to_uid, amount, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			t.ID, t.FromUID, t.ToUID, t.Amount, t.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("transfer sent",
		zap.String("transfer_id", t.ID),
		zap.Int64("from", fromUID),
		zap.Int64("to", toUID),
		zap.Int64("amount", amount))

	s.bus.Publish(event.EventTransferSent, event.TransferSent{
		TransferID: t.ID, FromUID: fromUID, ToUID: toUID, Amount: amount,
	})
	return t, nil
}
