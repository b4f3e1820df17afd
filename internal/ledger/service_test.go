package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stakehouse/internal/db/dbtest"
	"stakehouse/internal/ledger"
)

func newService(t *testing.T) (*ledger.Service, context.Context) {
	t.Helper()
	return ledger.New(dbtest.New(t)), context.Background()
}

func fund(t *testing.T, svc *ledger.Service, ctx context.Context, uid, amount int64) {
	t.Helper()
	if err := svc.Ensure(ctx, uid); err != nil {
		t.Fatalf("ensure account: %v", err)
	}
	if _, err := svc.Credit(ctx, uid, amount, ledger.KindDeposit, ""); err != nil {
		t.Fatalf("fund account: %v", err)
	}
}

func TestDebit_InsufficientFunds(t *testing.T) {
	t.Parallel()
	svc, ctx := newService(t)

	// $30 balance, $50 debit.
	fund(t, svc, ctx, 1, 3000)

	_, err := svc.Debit(ctx, 1, 5000, ledger.KindStake, "w1")
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	balance, err := svc.Balance(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 3000 {
		t.Fatalf("balance changed on failed debit: %d", balance)
	}

	// No transaction row may exist for the failed debit.
	sum, err := svc.SumDeltas(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sum != 3000 {
		t.Fatalf("transaction log shows %d, want 3000 (deposit only)", sum)
	}
}

func TestDebit_UnknownAccount(t *testing.T) {
	t.Parallel()
	svc, ctx := newService(t)

	_, err := svc.Debit(ctx, 404, 100, ledger.KindStake, "")
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

func TestBalanceEqualsSumOfDeltas(t *testing.T) {
	t.Parallel()
	svc, ctx := newService(t)

	fund(t, svc, ctx, 7, 10_000)

	steps := []struct {
		debit  bool
		amount int64
		kind   ledger.Kind
	}{
		{true, 2_500, ledger.KindStake},
		{false, 5_000, ledger.KindPayout},
		{true, 1_000, ledger.KindWithdrawal},
		{false, 1_000, ledger.KindAdjustment},
		{true, 4_000, ledger.KindStake},
	}
	for i, s := range steps {
		var err error
		if s.debit {
			_, err = svc.Debit(ctx, 7, s.amount, s.kind, "")
		} else {
			_, err = svc.Credit(ctx, 7, s.amount, s.kind, "")
		}
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	balance, _ := svc.Balance(ctx, 7)
	sum, _ := svc.SumDeltas(ctx, 7)
	if balance != sum {
		t.Fatalf("balance %d != sum of deltas %d", balance, sum)
	}
	if balance != 8_500 {
		t.Fatalf("balance %d, want 8500", balance)
	}
}

func TestConcurrentMoves_NoLostUpdates(t *testing.T) {
	t.Parallel()
	svc, ctx := newService(t)

	fund(t, svc, ctx, 9, 100_000)

	const workers = 8
	const each = 10

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < each; j++ {
				if i%2 == 0 {
					svc.Credit(ctx, 9, 50, ledger.KindPayout, "")
				} else {
					svc.Debit(ctx, 9, 50, ledger.KindStake, "")
				}
			}
		}(i)
	}
	wg.Wait()

	balance, err := svc.Balance(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := svc.SumDeltas(ctx, 9)
	if err != nil {
		t.Fatal(err)
	}
	if balance != sum {
		t.Fatalf("balance %d != sum of deltas %d after concurrent moves", balance, sum)
	}
	// Equal credit and debit counts cancel out.
	if balance != 100_000 {
		t.Fatalf("balance %d, want 100000", balance)
	}
}

func TestAccountStats(t *testing.T) {
	t.Parallel()
	svc, ctx := newService(t)

	fund(t, svc, ctx, 3, 10_000)
	if _, err := svc.Debit(ctx, 3, 2_000, ledger.KindStake, "w1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Credit(ctx, 3, 4_000, ledger.KindPayout, "w1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Debit(ctx, 3, 1_000, ledger.KindWithdrawal, ""); err != nil {
		t.Fatal(err)
	}

	a, err := svc.Account(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if a.TotalDeposits != 10_000 || a.TotalBets != 2_000 ||
		a.TotalWins != 4_000 || a.TotalWithdrawals != 1_000 {
		t.Fatalf("stats off: %+v", a)
	}
	if a.Balance != 11_000 {
		t.Fatalf("balance %d, want 11000", a.Balance)
	}
}
