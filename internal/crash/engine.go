package crash

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stakehouse/internal/event"
	"stakehouse/internal/logger"
	"stakehouse/internal/monitoring"
	"stakehouse/internal/settle"
)

// baseTick matches the production pacing: ~100ms per tick, stretching as the
// multiplier climbs, with per-tick growth that tapers off.
const baseTick = 100 * time.Millisecond

func tickAfter(m float64) time.Duration {
	return baseTick + time.Duration(m/50*float64(time.Second))
}

func growth(m float64) float64 {
	g := 0.2 - m/50
	if g < 0.05 {
		g = 0.05
	}
	return g
}

// Engine owns every active crash round. Rounds live in the arena from
// creation until their terminal state, when settlement removes them; nothing
// outside the engine holds a round past that point.
//
// Drivers outlive any request, so they run under the engine's own lifetime
// context, never a caller's. Shutdown cancels it and every driver settles
// its riders on the way out.
type Engine struct {
	settle       *settle.Service
	bus          *event.Bus
	sample       Sampler
	lobbyTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	rounds map[uuid.UUID]*Round
}

func NewEngine(s *settle.Service, bus *event.Bus, sample Sampler, lobbyTimeout time.Duration) *Engine {
	if sample == nil {
		sample = HouseEdgeSampler(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		settle:       s,
		bus:          bus,
		sample:       sample,
		lobbyTimeout: lobbyTimeout,
		ctx:          ctx,
		cancel:       cancel,
		rounds:       make(map[uuid.UUID]*Round),
	}
}

// Shutdown stops every driver. Each running round is forced to CRASHED and
// its riders settle as losses.
func (e *Engine) Shutdown() {
	e.cancel()
}

// OpenRound creates a round in LOBBY. The seed-hash commitment is published
// immediately so the crash point can be audited after the fact.
func (e *Engine) OpenRound() *Round {
	seed := uuid.New().String()
	sum := sha256.Sum256([]byte(seed))
	r := newRound(hex.EncodeToString(sum[:]))

	e.mu.Lock()
	e.rounds[r.ID] = r
	e.mu.Unlock()

	logger.Log.Info("crash round opened", zap.String("round_id", r.ID.String()))
	return r
}

// Round looks a live round up in the arena.
func (e *Engine) Round(id uuid.UUID) (*Round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rounds[id]
	if !ok {
		return nil, ErrRoundNotFound
	}
	return r, nil
}

// PlaceBet debits the stake through the settlement engine and registers the
// wager with the round. If the lobby closes between the debit and the
// registration, the wager is settled as a push (stake returned) — an
// explicit, recorded refund, never a silent one.
func (e *Engine) PlaceBet(ctx context.Context, roundID uuid.UUID, uid, stake int64) (*settle.Wager, error) {
	r, err := e.Round(roundID)
	if err != nil {
		return nil, err
	}
	if r.State() != StateLobby {
		return nil, ErrRoundNotActive
	}

	w, err := e.settle.Place(ctx, uid, settle.GameCrash, stake)
	if err != nil {
		return nil, err
	}

	if err := r.join(w.ID, uid, stake); err != nil {
		if _, rerr := e.settle.Resolve(ctx, w.ID, settle.Push()); rerr != nil {
			logger.Log.Error("refund after late join failed",
				zap.String("wager_id", w.ID), zap.Error(rerr))
		}
		return nil, err
	}
	return w, nil
}

// StartRound closes the lobby: the crash point is sampled and frozen, and
// the round's driver goroutine begins ticking.
func (e *Engine) StartRound(roundID uuid.UUID) error {
	r, err := e.Round(roundID)
	if err != nil {
		return err
	}

	point := e.sample()
	if !r.start(point) {
		return ErrRoundNotActive
	}

	logger.Log.Info("crash round running", zap.String("round_id", r.ID.String()))
	go e.drive(r)
	return nil
}

// CashOut records the caller's multiplier if it beats the crash. The payout
// itself is credited when the round settles.
func (e *Engine) CashOut(roundID uuid.UUID, wagerID string) (float64, error) {
	r, err := e.Round(roundID)
	if err != nil {
		// Already settled and gone from the arena: too late.
		return 0, ErrRoundNotActive
	}

	m, err := r.cashOut(wagerID)
	if err != nil {
		return 0, err
	}
	monitoring.CrashCashouts.Inc()
	return m, nil
}

// drive is the round's single background task. It alone advances the
// multiplier and it alone may end the round. A panic anywhere in the loop
// forces the round to CRASHED so no wager is left unresolved.
func (e *Engine) drive(r *Round) {
	defer func() {
		if p := recover(); p != nil {
			logger.Log.Error("crash driver panicked",
				zap.String("round_id", r.ID.String()), zap.Any("panic", p))
			e.finish(r, "driver_failure")
		}
	}()

	for {
		m := r.Current()

		select {
		case <-e.ctx.Done():
			e.finish(r, "shutdown")
			return
		case <-time.After(tickAfter(m)):
		}

		next := m + growth(m)
		if next >= r.crashPoint {
			// Crossing tick: crash without ever exposing a multiplier at or
			// past the crash point.
			e.finish(r, "crashed")
			return
		}
		r.setCurrent(next)

		if r.allCashedOut() {
			e.finish(r, "all_cashed_out")
			return
		}
	}
}

// finish performs the terminal transition and settles every participant
// exactly once: cashed-out wagers win stake x locked multiplier, the rest
// lose. Settlement idempotence is the settle layer's CAS, so even a repeated
// finish cannot double-pay.
func (e *Engine) finish(r *Round, cause string) {
	if !r.crash() {
		return
	}

	e.mu.Lock()
	delete(e.rounds, r.ID)
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cashed := 0
	for _, p := range r.snapshot() {
		out := settle.Loss()
		if p.cashedOut.Load() {
			out = settle.Win(p.multiplier())
			cashed++
		}
		if _, err := e.settle.Resolve(ctx, p.wagerID, out); err != nil {
			logger.Log.Error("crash settlement failed",
				zap.String("round_id", r.ID.String()),
				zap.String("wager_id", p.wagerID),
				zap.Error(err))
		}
	}

	monitoring.CrashRounds.WithLabelValues(cause).Inc()
	logger.Log.Info("crash round finished",
		zap.String("round_id", r.ID.String()),
		zap.String("cause", cause),
		zap.Float64("crash_point", r.crashPoint),
		zap.Int("cashed_out", cashed))

	e.bus.Publish(event.EventRoundCrashed, event.RoundCrashed{
		RoundID:      r.ID.String(),
		CrashPoint:   r.crashPoint,
		Participants: len(r.snapshot()),
		CashedOut:    cashed,
	})
}

// StartDueLobbies starts every lobby older than the configured timeout.
// Called by the scheduler job.
func (e *Engine) StartDueLobbies() {
	e.mu.Lock()
	due := make([]*Round, 0)
	for _, r := range e.rounds {
		if r.State() == StateLobby && time.Since(r.CreatedAt) >= e.lobbyTimeout {
			due = append(due, r)
		}
	}
	e.mu.Unlock()

	for _, r := range due {
		if err := e.StartRound(r.ID); err != nil {
			logger.Log.Warn("lobby auto-start failed",
				zap.String("round_id", r.ID.String()), zap.Error(err))
		}
	}
}
