package progressive

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"stakehouse/internal/db/dbtest"
	"stakehouse/internal/event"
	"stakehouse/internal/ledger"
	"stakehouse/internal/settle"
)

type boardFixture struct {
	eng  *Engine
	svc  *settle.Service
	lgr  *ledger.Service
	conn *sql.DB
}

func newBoardFixture(t *testing.T) (boardFixture, context.Context) {
	t.Helper()

	conn := dbtest.New(t)
	lgr := ledger.New(conn)
	svc := settle.New(conn, lgr, event.NewBus(), settle.Limits{MinStake: 1, MaxStake: 1_000_000})
	return boardFixture{eng: NewEngine(svc), svc: svc, lgr: lgr, conn: conn}, context.Background()
}

func (f boardFixture) fund(t *testing.T, ctx context.Context, uid, amount int64) {
	t.Helper()
	if err := f.lgr.Ensure(ctx, uid); err != nil {
		t.Fatal(err)
	}
	if _, err := f.lgr.Credit(ctx, uid, amount, ledger.KindDeposit, ""); err != nil {
		t.Fatal(err)
	}
}

// plantMines replaces the random layout with a fixed one.
func plantMines(inst *Instance, tiles ...int) {
	inst.mines = make(map[int]bool, len(tiles))
	for _, tile := range tiles {
		inst.mines[tile] = true
	}
}

func TestStartMines_RejectsBadMineCount(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	for _, count := range []int{0, -1, 25, 100} {
		if _, err := f.eng.StartMines(ctx, 1, 100, count); !errors.Is(err, ErrBadMineCount) {
			t.Fatalf("mine count %d: want ErrBadMineCount, got %v", count, err)
		}
	}
	if balance, _ := f.lgr.Balance(ctx, 1); balance != 1000 {
		t.Fatalf("rejected start moved money, balance %d", balance)
	}
}

func TestMines_SafeRevealOdds(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	inst, err := f.eng.StartMines(ctx, 1, 200, 5)
	if err != nil {
		t.Fatal(err)
	}
	plantMines(inst, 0, 1, 2, 3, 4)

	// 20 safe tiles before the reveal, 19 after.
	res, err := f.eng.Reveal(ctx, inst.WagerID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if want := 20.0 / 19.0; res.Multiplier != want {
		t.Fatalf("multiplier %v, want %v", res.Multiplier, want)
	}
	if res.Hit || res.Finished {
		t.Fatalf("safe reveal reported %+v", res)
	}

	if _, err := f.eng.Reveal(ctx, inst.WagerID, 10); !errors.Is(err, ErrTileRevealed) {
		t.Fatalf("repeat tile: want ErrTileRevealed, got %v", err)
	}
	if _, err := f.eng.Reveal(ctx, inst.WagerID, 25); !errors.Is(err, ErrBadTile) {
		t.Fatalf("tile 25: want ErrBadTile, got %v", err)
	}
}

func TestMines_BustSettlesLoss(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	inst, err := f.eng.StartMines(ctx, 1, 200, 3)
	if err != nil {
		t.Fatal(err)
	}
	plantMines(inst, 7, 8, 9)

	res, err := f.eng.Reveal(ctx, inst.WagerID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Hit || !res.Finished {
		t.Fatalf("mine hit reported %+v", res)
	}

	w, err := f.svc.Wager(ctx, inst.WagerID)
	if err != nil {
		t.Fatal(err)
	}
	if w.Resolution != settle.ResolutionLoss || w.Payout != 0 {
		t.Fatalf("wager %s payout %d, want loss 0", w.Resolution, w.Payout)
	}
	if balance, _ := f.lgr.Balance(ctx, 1); balance != 800 {
		t.Fatalf("balance %d, want 800", balance)
	}

	// Finished boards leave the arena.
	if _, err := f.eng.Reveal(ctx, inst.WagerID, 11); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("reveal on dead board: want ErrGameNotFound, got %v", err)
	}
	if _, err := f.eng.CashOut(ctx, inst.WagerID); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("cashout on dead board: want ErrGameNotFound, got %v", err)
	}
}

func TestMines_CashOutPaysRunningMultiplier(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	inst, err := f.eng.StartMines(ctx, 1, 200, 5)
	if err != nil {
		t.Fatal(err)
	}
	plantMines(inst, 0, 1, 2, 3, 4)

	if _, err := f.eng.Reveal(ctx, inst.WagerID, 10); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Reveal(ctx, inst.WagerID, 11); err != nil {
		t.Fatal(err)
	}

	res, err := f.eng.CashOut(ctx, inst.WagerID)
	if err != nil {
		t.Fatal(err)
	}
	want := settle.MultiplierPayout(200, 20.0/19.0*(19.0/18.0))
	if !res.Finished || res.Payout != want {
		t.Fatalf("cashout %+v, want payout %d", res, want)
	}
	if balance, _ := f.lgr.Balance(ctx, 1); balance != 800+want {
		t.Fatalf("balance %d, want %d", balance, 800+want)
	}
}

func TestMines_ClearingBoardLocks(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	inst, err := f.eng.StartMines(ctx, 1, 200, 24)
	if err != nil {
		t.Fatal(err)
	}
	mines := make([]int, 0, 24)
	for tile := 1; tile < minesGridSize; tile++ {
		mines = append(mines, tile)
	}
	plantMines(inst, mines...)

	// The single safe tile finishes the board at the odds already locked.
	res, err := f.eng.Reveal(ctx, inst.WagerID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Finished || res.Payout != 200 {
		t.Fatalf("cleared board %+v, want payout 200", res)
	}
}

// A board whose settlement fails must stay in the arena so the resolution
// can be re-driven; a discarded board would strand the wager PLACED forever.
func TestMines_FailedSettlementKeepsBoard(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	inst, err := f.eng.StartMines(ctx, 1, 200, 3)
	if err != nil {
		t.Fatal(err)
	}
	plantMines(inst, 7, 8, 9)

	if _, err := f.eng.Reveal(ctx, inst.WagerID, 10); err != nil {
		t.Fatal(err)
	}

	// Take the store down; cash-out cannot settle.
	f.conn.Close()
	if _, err := f.eng.CashOut(ctx, inst.WagerID); err == nil {
		t.Fatal("cashout with the store down must fail")
	}

	got, err := f.eng.CashOut(ctx, inst.WagerID)
	if errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrGameOver) {
		t.Fatalf("board discarded before settlement: %v", err)
	}
	if err == nil {
		t.Fatalf("settlement succeeded against a closed store: %+v", got)
	}
}

// A mine hit whose loss failed to settle may only re-drive that loss. The
// board must never convert into a win afterwards.
func TestMines_FailedBustNeverCashesOutAsWin(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	inst, err := f.eng.StartMines(ctx, 1, 200, 3)
	if err != nil {
		t.Fatal(err)
	}
	plantMines(inst, 7, 8, 9)

	f.conn.Close()
	if _, err := f.eng.Reveal(ctx, inst.WagerID, 7); err == nil {
		t.Fatal("bust with the store down must fail")
	}

	res, err := f.eng.CashOut(ctx, inst.WagerID)
	if err == nil {
		t.Fatalf("cashout after a mine hit must not win: %+v", res)
	}
	if errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrGameOver) {
		t.Fatalf("board discarded before settlement: %v", err)
	}
}

func TestTower_ClimbToTop(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	inst, err := f.eng.StartTower(ctx, 1, 100, "hard")
	if err != nil {
		t.Fatal(err)
	}
	for i := range inst.traps {
		inst.traps[i] = 0
	}

	var last *RevealResult
	for level := 0; level < towerLevels; level++ {
		last, err = f.eng.Reveal(ctx, inst.WagerID, 1)
		if err != nil {
			t.Fatalf("level %d: %v", level, err)
		}
	}

	// Hard doubles per level, eight levels.
	want := settle.MultiplierPayout(100, 256.0)
	if !last.Finished || last.Payout != want {
		t.Fatalf("top of tower %+v, want payout %d", last, want)
	}
	if balance, _ := f.lgr.Balance(ctx, 1); balance != 900+want {
		t.Fatalf("balance %d, want %d", balance, 900+want)
	}
}

func TestTower_TrapBusts(t *testing.T) {
	t.Parallel()
	f, ctx := newBoardFixture(t)
	f.fund(t, ctx, 1, 1000)

	if _, err := f.eng.StartTower(ctx, 1, 100, "vertical"); !errors.Is(err, ErrBadDifficulty) {
		t.Fatalf("bad difficulty: want ErrBadDifficulty, got %v", err)
	}

	inst, err := f.eng.StartTower(ctx, 1, 100, "easy")
	if err != nil {
		t.Fatal(err)
	}
	inst.traps[0] = 2

	if _, err := f.eng.Reveal(ctx, inst.WagerID, 4); !errors.Is(err, ErrBadTile) {
		t.Fatalf("column 4 on easy: want ErrBadTile, got %v", err)
	}

	res, err := f.eng.Reveal(ctx, inst.WagerID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Hit || !res.Finished {
		t.Fatalf("trap reported %+v", res)
	}

	w, err := f.svc.Wager(ctx, inst.WagerID)
	if err != nil {
		t.Fatal(err)
	}
	if w.Resolution != settle.ResolutionLoss {
		t.Fatalf("resolution %s, want loss", w.Resolution)
	}
}
