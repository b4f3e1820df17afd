package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"stakehouse/internal/crash"
	"stakehouse/internal/db/dbtest"
	"stakehouse/internal/event"
	"stakehouse/internal/ledger"
	"stakehouse/internal/progressive"
	"stakehouse/internal/settle"
	"stakehouse/internal/withdraw"
)

const callbackUID int64 = 7

type callbackFixture struct {
	app  *fiber.App
	conn *sql.DB
	lgr  *ledger.Service
	eng  *crash.Engine
}

func newCallbackFixture(t *testing.T) *callbackFixture {
	t.Helper()

	conn := dbtest.New(t)
	lgr := ledger.New(conn)
	svc := settle.New(conn, lgr, event.NewBus(), settle.Limits{MinStake: 1, MaxStake: 1_000_000})
	player := settle.NewInstantPlayer(svc, settle.NewSeedManager())
	eng := crash.NewEngine(svc, event.NewBus(), nil, time.Hour)
	boards := progressive.NewEngine(svc)
	withdrawals := withdraw.New(conn, lgr, event.NewBus(), nil, withdraw.Limits{
		Min: 1000, Max: 100_000, AutoApproveLimit: 5000,
		FeePercent: 15, FeeMin: 100, FeeMax: 500,
	})

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("uid", callbackUID)
		return c.Next()
	})
	registerCallback(app, player, eng, boards, withdrawals)

	return &callbackFixture{app: app, conn: conn, lgr: lgr, eng: eng}
}

func (f *callbackFixture) fund(t *testing.T, uid, amount int64) {
	t.Helper()
	ctx := context.Background()
	if err := f.lgr.Ensure(ctx, uid); err != nil {
		t.Fatal(err)
	}
	if amount > 0 {
		if _, err := f.lgr.Credit(ctx, uid, amount, ledger.KindDeposit, ""); err != nil {
			t.Fatal(err)
		}
	}
}

func (f *callbackFixture) post(t *testing.T, token string) (int, map[string]any) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"token": token, "client_seed": "seed"})
	req := httptest.NewRequest(http.MethodPost, "/callback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST /callback %q: %v", token, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestCallback_RejectsUnknownToken(t *testing.T) {
	t.Parallel()
	f := newCallbackFixture(t)

	for _, token := range []string{"blackjack_deal_100", "crash_cashout_w1", ""} {
		if code, _ := f.post(t, token); code != http.StatusBadRequest {
			t.Errorf("token %q: got %d, want 400", token, code)
		}
	}
}

func TestCallback_InstantBet(t *testing.T) {
	t.Parallel()
	f := newCallbackFixture(t)
	f.fund(t, callbackUID, 1000)

	code, out := f.post(t, "coinflip_bet_100_heads")
	if code != http.StatusOK {
		t.Fatalf("got %d (%v), want 200", code, out)
	}
	if out["rolled"] == "" || out["wager"] == nil {
		t.Fatalf("incomplete result: %v", out)
	}
}

func TestCallback_CrashJoinAndCashout(t *testing.T) {
	t.Parallel()
	f := newCallbackFixture(t)
	f.fund(t, callbackUID, 1000)

	r := f.eng.OpenRound()

	code, out := f.post(t, fmt.Sprintf("crash_join_%s_200", r.ID))
	if code != http.StatusOK {
		t.Fatalf("join: got %d (%v), want 200", code, out)
	}
	wagerID, _ := out["id"].(string)
	if wagerID == "" {
		t.Fatalf("join returned no wager id: %v", out)
	}

	// The lobby has not launched, so a cashout is premature.
	code, _ = f.post(t, fmt.Sprintf("crash_cashout_%s_%s", r.ID, wagerID))
	if code != http.StatusConflict {
		t.Fatalf("pre-launch cashout: got %d, want 409", code)
	}

	// A malformed round id never reaches the engine.
	code, _ = f.post(t, fmt.Sprintf("crash_cashout_notauuid_%s", wagerID))
	if code != http.StatusBadRequest {
		t.Fatalf("bad round id: got %d, want 400", code)
	}
}

func TestCallback_BoardCashoutUnknownWager(t *testing.T) {
	t.Parallel()
	f := newCallbackFixture(t)

	if code, _ := f.post(t, "mines_cashout_nope"); code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", code)
	}
}

func TestCallback_WithdrawConfirmState(t *testing.T) {
	t.Parallel()
	f := newCallbackFixture(t)
	f.fund(t, callbackUID, 0)
	f.fund(t, 99, 0)

	insert := func(id string, uid int64) {
		t.Helper()
		_, err := f.conn.Exec(
			`INSERT INTO withdraw_requests(id, uid, amount, fee, asset, address, status, created_at, updated_at)
			VALUES (?, ?, 2000, 300, 'btc', 'addr', 'MANUAL_REVIEW', 0, 0)`, id, uid)
		if err != nil {
			t.Fatal(err)
		}
	}
	insert("wr-mine", callbackUID)
	insert("wr-theirs", 99)

	code, out := f.post(t, "withdraw_confirm_wr-mine")
	if code != http.StatusOK {
		t.Fatalf("own request: got %d (%v), want 200", code, out)
	}
	if out["status"] != string(withdraw.StatusManualReview) {
		t.Fatalf("got status %v, want %s", out["status"], withdraw.StatusManualReview)
	}

	// Someone else's request looks nonexistent, it never leaks.
	if code, _ := f.post(t, "withdraw_confirm_wr-theirs"); code != http.StatusNotFound {
		t.Fatalf("foreign request: got %d, want 404", code)
	}
}
