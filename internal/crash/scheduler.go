package crash

import (
	"context"
	"time"
)

// Scheduler auto-starts lobbies that have been open past the timeout. It is
// the only writer besides the manual start route, and both funnel into the
// same LOBBY->RUNNING transition, so a manual start racing the timer is
// harmless.
type Scheduler struct {
	engine *Engine
	every  time.Duration
}

func NewScheduler(e *Engine) *Scheduler {
	return &Scheduler{engine: e, every: time.Second}
}

func (s *Scheduler) Start(ctx context.Context) {
	t := time.NewTicker(s.every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.engine.Shutdown()
			return
		case <-t.C:
			s.engine.StartDueLobbies()
		}
	}
}
