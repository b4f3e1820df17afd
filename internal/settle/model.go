package settle

import "errors"

type Status string

const (
	StatusPlaced   Status = "PLACED"
	StatusResolved Status = "RESOLVED"
)

type Resolution string

const (
	ResolutionWin  Resolution = "win"
	ResolutionLoss Resolution = "loss"
	ResolutionPush Resolution = "push"
)

var (
	ErrInvalidWager  = errors.New("invalid wager")
	ErrWagerNotFound = errors.New("wager not found")

	// ErrDuplicateSettlement is an internal guard. Resolve never returns it
	// to callers: a lost status CAS resolves to the prior payout instead.
	ErrDuplicateSettlement = errors.New("wager already settled")
)

type Wager struct {
	ID         string     `json:"id"`
	UID        int64      `json:"uid"`
	Game       Game       `json:"game"`
	Stake      int64      `json:"stake"`
	Status     Status     `json:"status"`
	Resolution Resolution `json:"resolution,omitempty"`
	Payout     int64      `json:"payout"`
	CreatedAt  int64      `json:"created_at"`
	ResolvedAt int64      `json:"resolved_at,omitempty"`
}

// Outcome is what a game reports back for one wager. Multiplier is only
// meaningful for multiplier-driven games (crash, mines, tower); fixed-odds
// games leave it zero and take their multiplier from the payout table.
type Outcome struct {
	Resolution Resolution
	Multiplier float64
}

func Win(multiplier float64) Outcome { return Outcome{ResolutionWin, multiplier} }
func Loss() Outcome                  { return Outcome{Resolution: ResolutionLoss} }
func Push() Outcome                  { return Outcome{Resolution: ResolutionPush} }
