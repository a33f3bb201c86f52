package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"predex/internal/models"
)

// faultRepo wraps the stub to inject storage failures at chosen points
// of a matching pass.
type faultRepo struct {
	*stubRepo
	scanErr           error // returned by ListOpenOrdersForMatchTx when set
	failTradeInsertAt int   // 1-based insert call that fails; 0 disables
	tradeInserts      int
}

var errStorage = errors.New("storage unavailable")

func (r *faultRepo) ListOpenOrdersForMatchTx(ctx context.Context, tx *gorm.DB, marketID uint64, side models.OrderSide) ([]models.Order, error) {
	if r.scanErr != nil {
		return nil, r.scanErr
	}
	return r.stubRepo.ListOpenOrdersForMatchTx(ctx, tx, marketID, side)
}

func (r *faultRepo) InsertTradeTx(ctx context.Context, tx *gorm.DB, item *models.Trade) error {
	r.tradeInserts++
	if r.failTradeInsertAt > 0 && r.tradeInserts == r.failTradeInsertAt {
		return errStorage
	}
	return r.stubRepo.InsertTradeTx(ctx, tx, item)
}

// Intake and matching commit independently: a matching pass that fails
// after intake committed is swallowed, and the accepted order stays
// open with its reservation intact until a later pass picks it up.
func TestSubmit_FailedMatchingPassKeepsAcceptedOrder(t *testing.T) {
	stub := newStubRepo()
	fr := &faultRepo{stubRepo: stub}
	env := newTestEnvWith(stub, fr)
	marketID := env.activeMarket(t)
	a := env.fundedUser(t, "alice", 100)
	b := env.fundedUser(t, "bob", 100)
	ctx := context.Background()

	if _, _, err := env.orders.Submit(ctx, b, marketID, models.SideSell, price("0.60"), 10); err != nil {
		t.Fatalf("submit sell: %v", err)
	}

	fr.scanErr = errStorage
	order, trades, err := env.orders.Submit(ctx, a, marketID, models.SideBuy, price("0.70"), 10)
	if err != nil {
		t.Fatalf("submit must not surface matching failure: %v", err)
	}
	if trades != 0 {
		t.Fatalf("trades=%d want=0", trades)
	}
	if order.Status != models.OrderPending {
		t.Fatalf("status=%s want PENDING", order.Status)
	}
	w := env.wallet(t, a)
	wantDecimal(t, w.Available, "93", "buyer available")
	wantDecimal(t, w.Locked, "7", "buyer locked")

	// Once storage recovers, the resting cross executes unchanged.
	fr.scanErr = nil
	n, err := env.matcher.MatchMarket(ctx, marketID)
	if err != nil {
		t.Fatalf("retry match: %v", err)
	}
	if n != 1 {
		t.Fatalf("trades=%d want=1", n)
	}
	wantDecimal(t, env.wallet(t, a).Locked, "0", "buyer locked after retry")
	wantDecimal(t, env.wallet(t, b).Locked, "0", "seller locked after retry")
}

// A failure mid-pass rolls back every trade of the invocation: wallets,
// fills and the trade log all return to their pre-pass state.
func TestMatchMarket_MidPassFailureRollsBackWholePass(t *testing.T) {
	stub := newStubRepo()
	fr := &faultRepo{stubRepo: stub, failTradeInsertAt: 2}
	env := newTestEnvWith(stub, fr)
	marketID := env.activeMarket(t)
	a := env.fundedUser(t, "alice", 100)
	b := env.fundedUser(t, "bob", 100)
	ctx := context.Background()

	// Seed a book whose pass produces two trades, without triggering
	// matching during intake.
	for _, o := range []struct {
		user uint64
		side models.OrderSide
		p    string
		qty  int64
	}{
		{a, models.SideBuy, "0.70", 5},
		{a, models.SideBuy, "0.65", 5},
		{b, models.SideSell, "0.60", 10},
	} {
		if err := env.wallets.LockTx(ctx, nil, o.user, models.LockAmountFor(o.side, price(o.p), o.qty)); err != nil {
			t.Fatalf("lock: %v", err)
		}
		if err := env.repo.CreateOrderTx(ctx, nil, &models.Order{
			UserID: o.user, MarketID: marketID, Side: o.side,
			Price: price(o.p), Quantity: o.qty, Status: models.OrderPending,
		}); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	_, err := env.matcher.MatchMarket(ctx, marketID)
	if !errors.Is(err, errStorage) {
		t.Fatalf("err=%v want injected storage error", err)
	}

	// The first trade of the pass must not survive the failure of the
	// second.
	executed, _ := env.repo.ListTradesByMarket(ctx, marketID, listAll())
	if len(executed) != 0 {
		t.Fatalf("trades=%d want=0 after rollback", len(executed))
	}
	open, _ := env.repo.ListOpenOrdersByMarketTx(ctx, nil, marketID)
	if len(open) != 3 {
		t.Fatalf("open orders=%d want=3", len(open))
	}
	for _, o := range open {
		if o.Status != models.OrderPending || o.Filled != 0 {
			t.Fatalf("order %d status=%s filled=%d want untouched PENDING", o.ID, o.Status, o.Filled)
		}
	}
	wa := env.wallet(t, a)
	wantDecimal(t, wa.Available, "93.25", "buyer available")
	wantDecimal(t, wa.Locked, "6.75", "buyer locked")
	wb := env.wallet(t, b)
	wantDecimal(t, wb.Available, "96", "seller available")
	wantDecimal(t, wb.Locked, "4", "seller locked")

	// The book is still intact, so a clean retry executes both trades.
	fr.failTradeInsertAt = 0
	n, err := env.matcher.MatchMarket(ctx, marketID)
	if err != nil {
		t.Fatalf("retry match: %v", err)
	}
	if n != 2 {
		t.Fatalf("trades=%d want=2", n)
	}
}

// staleStatusRepo reports the market as ACTIVE on the unlocked fast
// path, simulating a suspension that commits between the pre-check and
// the market lock.
type staleStatusRepo struct {
	*stubRepo
}

func (r *staleStatusRepo) GetMarketByID(ctx context.Context, id uint64) (*models.Market, error) {
	m, err := r.stubRepo.GetMarketByID(ctx, id)
	if m != nil {
		m.Status = models.MarketActive
	}
	return m, err
}

func TestMatchMarket_RevalidatesStatusUnderLock(t *testing.T) {
	stub := newStubRepo()
	env := newTestEnvWith(stub, &staleStatusRepo{stubRepo: stub})
	marketID := env.activeMarket(t)
	a := env.fundedUser(t, "alice", 100)
	b := env.fundedUser(t, "bob", 100)
	ctx := context.Background()

	for _, o := range []struct {
		user uint64
		side models.OrderSide
		p    string
	}{
		{a, models.SideBuy, "0.70"},
		{b, models.SideSell, "0.60"},
	} {
		if err := env.wallets.LockTx(ctx, nil, o.user, models.LockAmountFor(o.side, price(o.p), 10)); err != nil {
			t.Fatalf("lock: %v", err)
		}
		if err := env.repo.CreateOrderTx(ctx, nil, &models.Order{
			UserID: o.user, MarketID: marketID, Side: o.side,
			Price: price(o.p), Quantity: 10, Status: models.OrderPending,
		}); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	if err := env.markets.Suspend(ctx, marketID); err != nil {
		t.Fatalf("suspend: %v", err)
	}

	_, err := env.matcher.MatchMarket(ctx, marketID)
	if !errors.Is(err, ErrInvalidMarketState) {
		t.Fatalf("err=%v want ErrInvalidMarketState", err)
	}
	executed, _ := env.repo.ListTradesByMarket(ctx, marketID, listAll())
	if len(executed) != 0 {
		t.Fatalf("trades=%d want=0 on suspended book", len(executed))
	}
	wantDecimal(t, env.wallet(t, a).Locked, "7", "buyer locked")
	wantDecimal(t, env.wallet(t, b).Locked, "4", "seller locked")
}
