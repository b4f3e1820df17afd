package withdraw

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

// Service is the outbound-funds state machine. Funds are reserved (debited)
// before anything leaves the building; the only way money comes back is the
// explicit, adjustment-tagged compensating credit on rejection.
type Service struct {
	conn     *sql.DB
	ledger   *ledger.Service
	bus      *event.Bus
	provider Provider
	limits   Limits
}

func New(conn *sql.DB, lgr *ledger.Service, bus *event.Bus, provider Provider, limits Limits) *Service {
	return &Service{conn: conn, ledger: lgr, bus: bus, provider: provider, limits: limits}
}

// RequestWithdraw reserves amount+fee on the ledger and files the request.
// Routing is immediate: under the auto-approval limit the request skips
// review, otherwise an operator has to look at it.
func (s *Service) RequestWithdraw(ctx context.Context, uid, amount int64, asset, address string) (*Request, error) {
	if amount < s.limits.Min || amount > s.limits.Max {
		return nil, ErrAmountOutOfRange
	}
	a, ok := AssetFor(asset)
	if !ok {
		return nil, ErrUnsupportedAsset
	}
	if !a.ValidAddress(address) {
		return nil, ErrAddressInvalid
	}
	if a.Quote(amount).LessThan(a.MinAmount) {
		return nil, ErrBelowAssetMin
	}

	fee := s.limits.FeeFor(amount)
	status := StatusManualReview
	if amount < s.limits.AutoApproveLimit {
		status = StatusAutoApproved
	}

	now := time.Now().UnixMilli()
	req := &Request{
		ID:        uuid.New().String(),
		UID:       uid,
		Amount:    amount,
		Fee:       fee,
		Asset:     asset,
		Address:   address,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.ledger.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.ledger.DebitTx(tx, uid, amount+fee, ledger.KindWithdrawal, ""); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO withdraw_requests(id, uid, amount, fee, asset, address, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			req.ID, req.UID, req.Amount, req.Fee, req.Asset, req.Address,
			string(req.Status), req.CreatedAt, req.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(event.EventWithdrawRequested, event.WithdrawEvent{
		WithdrawID: req.ID, UID: uid, Amount: amount, Fee: fee, Status: string(status),
	})
	return req, nil
}

// Approve moves a request out of manual review into the dispatch queue.
func (s *Service) Approve(ctx context.Context, id string) error {
	return s.transition(ctx, id, StatusManualReview, StatusAutoApproved)
}

// Reject refuses a request and issues the compensating credit for the full
// reserved amount+fee, tagged kind=adjustment so the refund is traceable as
// the one credit with no matching wager.
func (s *Service) Reject(ctx context.Context, id string) error {
	req, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.ledger.InTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE withdraw_requests SET status = ?, updated_at = ?
			WHERE id = ? AND status IN (?, ?, ?)`,
			string(StatusRejected), time.Now().UnixMilli(), id,
			string(StatusPending), string(StatusAutoApproved), string(StatusManualReview))
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotReviewable
		}

		_, err = s.ledger.CreditTx(tx, req.UID, req.Amount+req.Fee, ledger.KindAdjustment, "")
		return err
	})
	if err != nil {
		return err
	}

	monitoring.Withdrawals.WithLabelValues(string(StatusRejected)).Inc()
	s.bus.Publish(event.EventWithdrawRejected, event.WithdrawEvent{
		WithdrawID: req.ID, UID: req.UID, Amount: req.Amount, Fee: req.Fee,
		Status: string(StatusRejected),
	})
	return nil
}

// Dispatch submits one approved request to the provider. Provider failure on
// the write is final for this request: it rejects and refunds rather than
// risking a second payout on retry.
func (s *Service) Dispatch(ctx context.Context, req *Request) error {
	a, _ := AssetFor(req.Asset)

	ref, err := s.provider.CreatePayout(ctx, req.Asset, req.Address, a.Quote(req.Amount))
	if err != nil {
		logger.Log.Error("provider payout failed",
			zap.String("withdraw_id", req.ID), zap.Error(err))
		return s.Reject(ctx, req.ID)
	}

	_, err = s.conn.ExecContext(ctx,
		`UPDATE withdraw_requests SET provider_ref = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		ref, time.Now().UnixMilli(), req.ID, string(StatusAutoApproved))
	return err
}

// Settle polls the provider for a submitted request and applies the terminal
// transition when the provider reports one.
func (s *Service) Settle(ctx context.Context, req *Request) error {
	state, err := s.provider.PayoutStatus(ctx, req.ProviderRef)
	if err != nil {
		// Status reads are safe to retry on the next poll.
		return err
	}

	switch state {
	case PayoutFinished:
		if err := s.transition(ctx, req.ID, StatusAutoApproved, StatusConfirmed); err != nil {
			return err
		}
		monitoring.Withdrawals.WithLabelValues(string(StatusConfirmed)).Inc()
		s.bus.Publish(event.EventWithdrawConfirmed, event.WithdrawEvent{
			WithdrawID: req.ID, UID: req.UID, Amount: req.Amount, Fee: req.Fee,
			Status: string(StatusConfirmed),
		})
		return nil
	case PayoutFailed:
		return s.Reject(ctx, req.ID)
	default:
		return nil
	}
}

func (s *Service) transition(ctx context.Context, id string, from, to Status) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE withdraw_requests SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), time.Now().UnixMilli(), id, string(from))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotReviewable
	}
	return nil
}

// Get loads one request.
func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	return s.scanOne(s.conn.QueryRowContext(ctx,
		`SELECT id, uid, amount, fee, asset, address, status, provider_ref, created_at, updated_at
		FROM withdraw_requests WHERE id = ?`, id))
}

// InStatus lists requests in a given status, oldest first.
func (s *Service) InStatus(ctx context.Context, status Status) ([]*Request, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, uid, amount, fee, asset, address, status, provider_ref, created_at, updated_at
		FROM withdraw_requests WHERE status = ? ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func (s *Service) scanOne(row scanner) (*Request, error) {
	req := &Request{}
	var ref sql.NullString
	err := row.Scan(&req.ID, &req.UID, &req.Amount, &req.Fee, &req.Asset,
		&req.Address, (*string)(&req.Status), &ref, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan withdraw request: %w", err)
	}
	req.ProviderRef = ref.String
	return req, nil
}
