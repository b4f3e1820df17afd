package audit

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"stakehouse/internal/event"
	"stakehouse/internal/logger"
)

// Service appends an audit row per money-moving event. Best effort: a failed
// audit write is logged, never bubbled into the settlement path.
type Service struct {
	conn *sql.DB
}

func New(conn *sql.DB) *Service {
	return &Service{conn: conn}
}

func (s *Service) Log(uid int64, action, ref, detail string) {
	_, err := s.conn.Exec(
		`INSERT INTO audit_logs(uid, action, ref, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uid, action, ref, detail, time.Now().UnixMilli())
	if err != nil {
		logger.Log.Error("audit write failed",
			zap.String("action", action), zap.String("ref", ref), zap.Error(err))
	}
}

// Subscribe wires the audit trail onto the bus.
func Subscribe(bus *event.Bus, s *Service) {
	bus.Subscribe(event.EventWagerSettled, func(payload any) {
		e := payload.(event.WagerSettled)
		s.Log(e.UID, "wager_settled", e.WagerID, e.Game+":"+e.Resolution)
	})

	bus.Subscribe(event.EventDepositConfirmed, func(payload any) {
		e := payload.(event.DepositConfirmed)
		s.Log(e.UID, "deposit", e.PaymentID, "")
	})

	bus.Subscribe(event.EventWithdrawRequested, func(payload any) {
		e := payload.(event.WithdrawEvent)
		s.Log(e.UID, "withdraw_requested", e.WithdrawID, e.Status)
	})

	bus.Subscribe(event.EventWithdrawRejected, func(payload any) {
		e := payload.(event.WithdrawEvent)
		s.Log(e.UID, "withdraw_rejected", e.WithdrawID, e.Status)
	})

	bus.Subscribe(event.EventWithdrawConfirmed, func(payload any) {
		e := payload.(event.WithdrawEvent)
		s.Log(e.UID, "withdraw_confirmed", e.WithdrawID, e.Status)
	})

	bus.Subscribe(event.EventTransferSent, func(payload any) {
		e := payload.(event.TransferSent)
		s.Log(e.FromUID, "transfer_sent", e.TransferID, "")
	})
}
