package settle

import (
	"context"
	"fmt"
	"sync"
)

// InstantResult is the synchronous outcome of a fixed-odds game.
type InstantResult struct {
	Wager          *Wager  `json:"wager"`
	Rolled         string  `json:"rolled"`
	Payout         int64   `json:"payout"`
	Hash           string  `json:"hash"`
	Nonce          uint64  `json:"nonce"`
	ServerSeedHash string  `json:"server_seed_hash"`
	Roll           float64 `json:"-"`
}

// InstantPlayer resolves fixed-odds games in one call: debit, draw, settle.
type InstantPlayer struct {
	settle *Service
	seeds  *SeedManager

	mu     sync.Mutex
	nonces map[int64]uint64
}

func NewInstantPlayer(s *Service, seeds *SeedManager) *InstantPlayer {
	return &InstantPlayer{
		settle: s,
		seeds:  seeds,
		nonces: make(map[int64]uint64),
	}
}

func (p *InstantPlayer) nextNonce(uid int64) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.nonces[uid]
	p.nonces[uid] = n + 1
	return n
}

// Play places the wager and settles it against a provably-fair roll. The
// wager is settled win or lose; a draw that cannot be interpreted (bad
// guess) fails before any money moves.
func (p *InstantPlayer) Play(ctx context.Context, uid int64, game Game, stake int64, guess, clientSeed string) (*InstantResult, error) {
	if _, ok := fixedMultipliers[game]; !ok {
		return nil, fmt.Errorf("%w: %q is not an instant game", ErrInvalidWager, game)
	}
	if err := validGuess(game, guess); err != nil {
		return nil, err
	}

	w, err := p.settle.Place(ctx, uid, game, stake)
	if err != nil {
		return nil, err
	}

	seed, seedHash := p.seeds.Current()
	nonce := p.nextNonce(uid)
	roll, hash := Roll(seed, clientSeed, nonce)

	rolled, won := interpret(game, guess, roll)

	out := Loss()
	if won {
		out = Win(0)
	}
	payout, err := p.settle.Resolve(ctx, w.ID, out)
	if err != nil {
		return nil, err
	}

	return &InstantResult{
		Wager:          w,
		Rolled:         rolled,
		Payout:         payout,
		Hash:           hash,
		Nonce:          nonce,
		ServerSeedHash: seedHash,
		Roll:           roll,
	}, nil
}

func validGuess(game Game, guess string) error {
	switch game {
	case GameCoinflip:
		if guess == "heads" || guess == "tails" {
			return nil
		}
	case GameDice:
		if len(guess) == 1 && guess[0] >= '1' && guess[0] <= '6' {
			return nil
		}
	case GameRoulette:
		if guess == "red" || guess == "black" {
			return nil
		}
	}
	return fmt.Errorf("%w: bad guess %q for %s", ErrInvalidWager, guess, game)
}

// interpret maps a roll in [0,100) onto the game's outcome space.
func interpret(game Game, guess string, roll float64) (rolled string, won bool) {
	switch game {
	case GameCoinflip:
		rolled = "tails"
		if roll < 50 {
			rolled = "heads"
		}
		return rolled, rolled == guess

	case GameDice:
		face := 1 + int(roll/(100.0/6))
		if face > 6 {
			face = 6
		}
		rolled = string(rune('0' + face))
		return rolled, rolled == guess

	case GameRoulette:
		// One zero pocket out of 37 keeps the even-money edge.
		if roll < 100.0/37 {
			return "zero", false
		}
		rolled = "black"
		if roll < 100.0/37+18*100.0/37 {
			rolled = "red"
		}
		return rolled, rolled == guess
	}
	return "", false
}
