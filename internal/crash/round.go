package crash

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type State int32

const (
	StateLobby State = iota
	StateRunning
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "LOBBY"
	case StateRunning:
		return "RUNNING"
	case StateCrashed:
		return "CRASHED"
	}
	return "UNKNOWN"
}

var (
	ErrRoundNotFound = errors.New("round not found")

	// ErrRoundNotActive: the round is not in the state the call needs
	// (joining a running round, cashing out of a crashed one).
	ErrRoundNotActive = errors.New("round not active")

	// ErrStaleCashout: someone else already cashed this wager out.
	ErrStaleCashout = errors.New("cashout already recorded")

	ErrNotInRound = errors.New("wager not in round")
)

// participant is one wager riding a round. cashedOut flips false->true at
// most once; lockedAt holds the multiplier bits recorded by whoever won
// that flip.
type participant struct {
	wagerID   string
	uid       int64
	stake     int64
	cashedOut atomic.Bool
	lockedAt  atomic.Uint64
}

func (p *participant) multiplier() float64 {
	return math.Float64frombits(p.lockedAt.Load())
}

// Round owns one crash round's lifecycle. The state field moves LOBBY ->
// RUNNING -> CRASHED only, and only under mu's write lock; a cash-out holds
// the read lock for its whole commit, so the crash transition and any
// in-flight cash-out are mutually exclusive. Whichever commits first defines
// the participant's outcome; there is no reconciliation afterwards.
//
// The participant map is written only in LOBBY (joins take the write lock)
// and is read-only once RUNNING, so cash-outs may touch it lock-free apart
// from each participant's own atomic flag.
type Round struct {
	ID        uuid.UUID `json:"id"`
	SeedHash  string    `json:"seed_hash"`
	CreatedAt time.Time `json:"created_at"`

	mu           sync.RWMutex
	state        State
	crashPoint   float64 // frozen before RUNNING, never recomputed
	startedAt    time.Time
	participants map[string]*participant

	current atomic.Uint64 // multiplier bits, driver-owned
}

func newRound(seedHash string) *Round {
	r := &Round{
		ID:           uuid.New(),
		SeedHash:     seedHash,
		CreatedAt:    time.Now(),
		state:        StateLobby,
		participants: make(map[string]*participant),
	}
	r.current.Store(math.Float64bits(1.0))
	return r
}

func (r *Round) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Current is the driver-advanced multiplier. Always strictly below the
// crash point: the driver crashes the round instead of storing a crossing
// value.
func (r *Round) Current() float64 {
	return math.Float64frombits(r.current.Load())
}

func (r *Round) setCurrent(m float64) {
	r.current.Store(math.Float64bits(m))
}

// join registers a wager. Only possible while the lobby is open.
func (r *Round) join(wagerID string, uid, stake int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateLobby {
		return ErrRoundNotActive
	}
	r.participants[wagerID] = &participant{
		wagerID: wagerID,
		uid:     uid,
		stake:   stake,
	}
	return nil
}

// start freezes the crash point and moves LOBBY -> RUNNING. Returns false
// if the round already left the lobby.
func (r *Round) start(crashPoint float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateLobby {
		return false
	}
	r.crashPoint = crashPoint
	r.state = StateRunning
	r.startedAt = time.Now()
	return true
}

// crash moves RUNNING -> CRASHED. Taking the write lock here is what ends
// the race: every cash-out that committed under the read lock before this
// point stands, everything after fails the state check.
func (r *Round) crash() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRunning {
		return false
	}
	r.state = StateCrashed
	return true
}

// cashOut honors the request iff the round is RUNNING and this wager's flag
// is still down, as one atomic step. The multiplier recorded is the driver's
// value at this instant.
func (r *Round) cashOut(wagerID string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[wagerID]
	if !ok {
		return 0, ErrNotInRound
	}
	if r.state != StateRunning {
		return 0, ErrRoundNotActive
	}
	if !p.cashedOut.CompareAndSwap(false, true) {
		return 0, ErrStaleCashout
	}

	m := r.Current()
	p.lockedAt.Store(math.Float64bits(m))
	return m, nil
}

func (r *Round) allCashedOut() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.participants) == 0 {
		return false
	}
	for _, p := range r.participants {
		if !p.cashedOut.Load() {
			return false
		}
	}
	return true
}

// snapshot returns the participants for settlement, safe to range over once
// the round is CRASHED.
func (r *Round) snapshot() []*participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, p)
	}
	return out
}
