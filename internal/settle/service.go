package settle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stakehouse/internal/event"
	"stakehouse/internal/ledger"
	"stakehouse/internal/logger"
	"stakehouse/internal/monitoring"
)

// Service implements the debit-stake / resolve-outcome / credit-payout
// contract shared by every game. It never touches a balance directly; all
// money moves go through the ledger inside one transaction with the wager's
// own row change.
type Service struct {
	conn   *sql.DB
	ledger *ledger.Service
	bus    *event.Bus
	limits Limits
}

func New(conn *sql.DB, lgr *ledger.Service, bus *event.Bus, limits Limits) *Service {
	return &Service{conn: conn, ledger: lgr, bus: bus, limits: limits}
}

// Place debits the stake and records the wager as PLACED, both in one
// transaction. A failed debit fails the whole placement; nothing is written.
func (s *Service) Place(ctx context.Context, uid int64, game Game, stake int64) (*Wager, error) {
	if !ValidGame(game) {
		return nil, fmt.Errorf("%w: unknown game %q", ErrInvalidWager, game)
	}
	if err := s.limits.Validate(stake); err != nil {
		return nil, err
	}

	w := &Wager{
		ID:        uuid.New().String(),
		UID:       uid,
		Game:      game,
		Stake:     stake,
		Status:    StatusPlaced,
		CreatedAt: time.Now().UnixMilli(),
	}

	err := s.ledger.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.ledger.DebitTx(tx, uid, stake, ledger.KindStake, w.ID); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO wagers(id, uid, game, stake, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			w.ID, w.UID, string(w.Game), w.Stake, string(w.Status), w.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.WagersPlaced.WithLabelValues(string(game)).Inc()
	s.bus.Publish(event.EventWagerPlaced, event.WagerPlaced{
		WagerID: w.ID, UID: uid, Game: string(game), Stake: stake,
	})
	return w, nil
}

// Resolve settles a wager exactly once. The PLACED -> RESOLVED transition is
// a conditional UPDATE; losing it means someone already settled this wager,
// and the previously recorded payout is returned instead of crediting again.
// That CAS, not any lock, is what makes Resolve idempotent under retries and
// duplicate callbacks.
func (s *Service) Resolve(ctx context.Context, wagerID string, out Outcome) (int64, error) {
	w, err := s.Wager(ctx, wagerID)
	if err != nil {
		return 0, err
	}

	payout := payoutFor(w.Game, w.Stake, out)

	err = s.ledger.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE wagers
			SET status = ?, resolution = ?, payout = ?, resolved_at = ?
			WHERE id = ? AND status = ?`,
			string(StatusResolved), string(out.Resolution), payout,
			time.Now().UnixMilli(), wagerID, string(StatusPlaced))
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrDuplicateSettlement
		}

		if payout > 0 {
			kind := ledger.KindPayout
			if _, err := s.ledger.CreditTx(tx, w.UID, payout, kind, wagerID); err != nil {
				return err
			}
		} else if out.Resolution == ResolutionLoss {
			if err := s.ledger.NoteLossTx(tx, w.UID, w.Stake); err != nil {
				return err
			}
		}
		return nil
	})

	if errors.Is(err, ErrDuplicateSettlement) {
		prior, lookupErr := s.Wager(ctx, wagerID)
		if lookupErr != nil {
			return 0, lookupErr
		}
		logger.Log.Warn("duplicate settlement absorbed",
			zap.String("wager_id", wagerID),
			zap.Int64("payout", prior.Payout))
		return prior.Payout, nil
	}
	if err != nil {
		logger.Log.Error("settlement failed",
			zap.String("wager_id", wagerID), zap.Error(err))
		return 0, err
	}

	if payout > 0 {
		monitoring.PayoutsMinor.Add(float64(payout))
	}
	s.bus.Publish(event.EventWagerSettled, event.WagerSettled{
		WagerID:    wagerID,
		UID:        w.UID,
		Game:       string(w.Game),
		Stake:      w.Stake,
		Resolution: string(out.Resolution),
		Payout:     payout,
	})
	return payout, nil
}

// Wager loads one wager row.
func (s *Service) Wager(ctx context.Context, wagerID string) (*Wager, error) {
	w := &Wager{}
	var resolution sql.NullString
	var resolvedAt sql.NullInt64
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, uid, game, stake, status, resolution, payout, created_at, resolved_at
		FROM wagers WHERE id = ?`, wagerID).
		Scan(&w.ID, &w.UID, (*string)(&w.Game), &w.Stake, (*string)(&w.Status),
			&resolution, &w.Payout, &w.CreatedAt, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWagerNotFound
	}
	if err != nil {
		return nil, err
	}
	w.Resolution = Resolution(resolution.String)
	w.ResolvedAt = resolvedAt.Int64
	return w, nil
}

// PayoutTransactions counts payout credits linked to a wager. Used by the
// invariant checks; there is never more than one.
func (s *Service) PayoutTransactions(ctx context.Context, wagerID string) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE wager_id = ? AND kind = ?`,
		wagerID, string(ledger.KindPayout)).Scan(&n)
	return n, err
}
