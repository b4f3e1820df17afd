package withdraw

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stakehouse/internal/logger"
)

// Poller drives approved requests to a terminal state: submit the ones not
// yet sent to the provider, then poll the ones in flight. Both steps are
// idempotent against the request's status CAS.
type Poller struct {
	service *Service
	every   time.Duration
}

func NewPoller(s *Service) *Poller {
	return &Poller{service: s, every: 5 * time.Second}
}

func (p *Poller) Start(ctx context.Context) {
	t := time.NewTicker(p.every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	reqs, err := p.service.InStatus(ctx, StatusAutoApproved)
	if err != nil {
		logger.Log.Error("withdraw sweep failed", zap.Error(err))
		return
	}

	for _, req := range reqs {
		if req.ProviderRef == "" {
			err = p.service.Dispatch(ctx, req)
		} else {
			err = p.service.Settle(ctx, req)
		}
		if err != nil {
			logger.Log.Warn("withdraw progress failed",
				zap.String("withdraw_id", req.ID), zap.Error(err))
		}
	}
}
