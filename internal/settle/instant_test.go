package settle_test

import (
	"errors"
	"testing"

	"stakehouse/internal/settle"
)

func TestInstantPlay_BalanceAlwaysConsistent(t *testing.T) {
	t.Parallel()
	f, ctx := newEngine(t)

	f.fund(t, ctx, 11, 100_000)
	player := settle.NewInstantPlayer(f.svc, settle.NewSeedManager())

	balance := int64(100_000)
	for i := 0; i < 20; i++ {
		res, err := player.Play(ctx, 11, settle.GameCoinflip, 500, "heads", "seed")
		if err != nil {
			t.Fatal(err)
		}

		if res.Payout != 0 && res.Payout != 1000 {
			t.Fatalf("coinflip payout %d, want 0 or 1000", res.Payout)
		}
		balance += res.Payout - 500

		got, err := f.lgr.Balance(ctx, 11)
		if err != nil {
			t.Fatal(err)
		}
		if got != balance {
			t.Fatalf("round %d: balance %d, want %d", i, got, balance)
		}

		w, err := f.svc.Wager(ctx, res.Wager.ID)
		if err != nil {
			t.Fatal(err)
		}
		if w.Status != settle.StatusResolved {
			t.Fatalf("wager left %s", w.Status)
		}
	}
}

func TestInstantPlay_RejectsNonInstantGameAndBadGuess(t *testing.T) {
	t.Parallel()
	f, ctx := newEngine(t)

	f.fund(t, ctx, 12, 1000)
	player := settle.NewInstantPlayer(f.svc, settle.NewSeedManager())

	if _, err := player.Play(ctx, 12, settle.GameCrash, 100, "", ""); !errors.Is(err, settle.ErrInvalidWager) {
		t.Fatalf("crash via instant player: want ErrInvalidWager, got %v", err)
	}
	if _, err := player.Play(ctx, 12, settle.GameCoinflip, 100, "edge", ""); !errors.Is(err, settle.ErrInvalidWager) {
		t.Fatalf("bad guess: want ErrInvalidWager, got %v", err)
	}

	// Neither attempt may have moved money.
	if balance, _ := f.lgr.Balance(ctx, 12); balance != 1000 {
		t.Fatalf("balance %d, want 1000", balance)
	}
}
