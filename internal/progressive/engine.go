package progressive

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"stakehouse/internal/settle"
)

// Instance is one live mines or tower board. Reveal and cash-out on the same
// instance are serialized by mu; instances never share state, so there is no
// cross-instance contention.
type Instance struct {
	mu sync.Mutex

	WagerID string      `json:"wager_id"`
	UID     int64       `json:"uid"`
	Game    settle.Game `json:"game"`
	Stake   int64       `json:"stake"`

	// mines
	mines    map[int]bool
	revealed map[int]bool

	// tower
	preset towerPreset
	level  int
	traps  []int

	Multiplier float64 `json:"multiplier"`
	done       bool

	// busted latches once a mine or trap is hit, before the settlement is
	// attempted. A board whose loss failed to settle can only re-drive that
	// loss; it can never be cashed out as a win.
	busted bool
}

// RevealResult reports one reveal step.
type RevealResult struct {
	Hit        bool    `json:"hit"`
	Multiplier float64 `json:"multiplier"`
	Payout     int64   `json:"payout"`
	Finished   bool    `json:"finished"`
}

// Engine holds the arena of live boards, keyed by wager id. Boards enter at
// placement and leave at settlement; a finished board is never reachable.
type Engine struct {
	settle *settle.Service

	mu        sync.Mutex
	instances map[string]*Instance
	rng       *rand.Rand
}

func NewEngine(s *settle.Service) *Engine {
	return &Engine{
		settle:    s,
		instances: make(map[string]*Instance),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// StartMines debits the stake and lays out a 5x5 board.
func (e *Engine) StartMines(ctx context.Context, uid, stake int64, mineCount int) (*Instance, error) {
	if mineCount < minesMin || mineCount > minesMax {
		return nil, ErrBadMineCount
	}

	w, err := e.settle.Place(ctx, uid, settle.GameMines, stake)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		WagerID:    w.ID,
		UID:        uid,
		Game:       settle.GameMines,
		Stake:      stake,
		mines:      make(map[int]bool, mineCount),
		revealed:   make(map[int]bool),
		Multiplier: 1.0,
	}
	for len(inst.mines) < mineCount {
		inst.mines[e.intn(minesGridSize)] = true
	}

	e.put(inst)
	return inst, nil
}

// StartTower debits the stake and builds the trap column per level.
func (e *Engine) StartTower(ctx context.Context, uid, stake int64, difficulty string) (*Instance, error) {
	preset, ok := towerPresets[difficulty]
	if !ok {
		return nil, ErrBadDifficulty
	}

	w, err := e.settle.Place(ctx, uid, settle.GameTower, stake)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		WagerID:    w.ID,
		UID:        uid,
		Game:       settle.GameTower,
		Stake:      stake,
		preset:     preset,
		traps:      make([]int, towerLevels),
		Multiplier: 1.0,
	}
	for i := range inst.traps {
		inst.traps[i] = e.intn(preset.columns)
	}

	e.put(inst)
	return inst, nil
}

// Reveal opens one tile (mines) or one column on the current level (tower).
// Hitting a mine or trap settles the wager as a loss on the spot.
func (e *Engine) Reveal(ctx context.Context, wagerID string, choice int) (*RevealResult, error) {
	inst, err := e.instance(wagerID)
	if err != nil {
		return nil, err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.done {
		return nil, ErrGameOver
	}
	if inst.busted {
		return e.bust(ctx, inst)
	}

	switch inst.Game {
	case settle.GameMines:
		return e.revealMine(ctx, inst, choice)
	default:
		return e.climbTower(ctx, inst, choice)
	}
}

func (e *Engine) revealMine(ctx context.Context, inst *Instance, tile int) (*RevealResult, error) {
	if tile < 0 || tile >= minesGridSize {
		return nil, ErrBadTile
	}
	if inst.revealed[tile] {
		return nil, ErrTileRevealed
	}

	if inst.mines[tile] {
		return e.bust(ctx, inst)
	}

	safeBefore := minesGridSize - len(inst.mines) - len(inst.revealed)
	inst.revealed[tile] = true
	safeAfter := safeBefore - 1

	if safeAfter == 0 {
		// Board cleared; nothing left to survive, lock at the current odds.
		return e.lock(ctx, inst)
	}

	inst.Multiplier *= float64(safeBefore) / float64(safeAfter)
	return &RevealResult{Multiplier: inst.Multiplier}, nil
}

func (e *Engine) climbTower(ctx context.Context, inst *Instance, column int) (*RevealResult, error) {
	if column < 0 || column >= inst.preset.columns {
		return nil, ErrBadTile
	}

	if inst.traps[inst.level] == column {
		return e.bust(ctx, inst)
	}

	inst.Multiplier *= inst.preset.factor
	inst.level++

	if inst.level == towerLevels {
		return e.lock(ctx, inst)
	}
	return &RevealResult{Multiplier: inst.Multiplier}, nil
}

// CashOut locks the running multiplier and settles the win.
func (e *Engine) CashOut(ctx context.Context, wagerID string) (*RevealResult, error) {
	inst, err := e.instance(wagerID)
	if err != nil {
		return nil, err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.done {
		return nil, ErrGameOver
	}
	if inst.busted {
		return e.bust(ctx, inst)
	}
	return e.lock(ctx, inst)
}

// bust settles a loss. Caller holds inst.mu. The board is discarded only
// after the settlement commits; on failure it stays in the arena so a retry
// can re-drive the resolution (idempotent under the wager's status CAS).
func (e *Engine) bust(ctx context.Context, inst *Instance) (*RevealResult, error) {
	inst.busted = true

	if _, err := e.settle.Resolve(ctx, inst.WagerID, settle.Loss()); err != nil {
		return nil, fmt.Errorf("settle loss: %w", err)
	}

	inst.done = true
	e.remove(inst.WagerID)
	return &RevealResult{Hit: true, Finished: true}, nil
}

// lock settles a win at the running multiplier. Caller holds inst.mu. Same
// settle-then-discard ordering as bust.
func (e *Engine) lock(ctx context.Context, inst *Instance) (*RevealResult, error) {
	payout, err := e.settle.Resolve(ctx, inst.WagerID, settle.Win(inst.Multiplier))
	if err != nil {
		return nil, fmt.Errorf("settle win: %w", err)
	}

	inst.done = true
	e.remove(inst.WagerID)
	return &RevealResult{
		Multiplier: inst.Multiplier,
		Payout:     payout,
		Finished:   true,
	}, nil
}

func (e *Engine) put(inst *Instance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.instances[inst.WagerID] = inst
}

func (e *Engine) remove(wagerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.instances, wagerID)
}

func (e *Engine) instance(wagerID string) (*Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inst, ok := e.instances[wagerID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return inst, nil
}
