package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"predex/internal/models"
	"predex/internal/repository"
)

func listAll() repository.ListParams {
	return repository.ListParams{Limit: 100}
}

func listOrdersAll() repository.ListOrdersParams {
	return repository.ListOrdersParams{Limit: 100}
}

// testEnv wires every service against one shared in-memory stubRepo,
// the same way main wires them against the real store.
type testEnv struct {
	repo       *stubRepo
	wallets    *WalletService
	users      *UserService
	markets    *MarketService
	matcher    *MatchingService
	orders     *OrderService
	settlement *SettlementService
	positions  *PositionService
}

func newTestEnv() *testEnv {
	stub := newStubRepo()
	return newTestEnvWith(stub, stub)
}

// newTestEnvWith wires the services against repo while keeping direct
// access to the underlying stub for assertions; repo may wrap the stub
// to inject failures.
func newTestEnvWith(stub *stubRepo, repo repository.Repository) *testEnv {
	log := zap.NewNop()
	locks := NewMarketLocks()
	wallets := &WalletService{Repo: repo, Logger: log}
	matcher := &MatchingService{Repo: repo, Wallets: wallets, Locks: locks, Logger: log}
	return &testEnv{
		repo:       stub,
		wallets:    wallets,
		users:      &UserService{Repo: repo, Wallets: wallets, Logger: log},
		markets:    &MarketService{Repo: repo, Logger: log},
		matcher:    matcher,
		orders:     &OrderService{Repo: repo, Wallets: wallets, Matcher: matcher, Locks: locks, Logger: log},
		settlement: &SettlementService{Repo: repo, Wallets: wallets, Locks: locks, Logger: log},
		positions:  &PositionService{Repo: repo},
	}
}

// fundedUser provisions a user with a wallet holding balance.
func (e *testEnv) fundedUser(t *testing.T, username string, balance int64) uint64 {
	t.Helper()
	user, err := e.users.Create(context.Background(), username)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if balance > 0 {
		if _, err := e.wallets.Deposit(context.Background(), user.ID, decimal.NewFromInt(balance)); err != nil {
			t.Fatalf("deposit: %v", err)
		}
	}
	return user.ID
}

// activeMarket creates an event and one ACTIVE market under it.
func (e *testEnv) activeMarket(t *testing.T) uint64 {
	t.Helper()
	event, err := e.markets.CreateEvent(context.Background(), &models.Event{Title: "test event"})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	market, err := e.markets.Create(context.Background(), event.ID, "will it happen?", nil)
	if err != nil {
		t.Fatalf("create market: %v", err)
	}
	return market.ID
}

func (e *testEnv) wallet(t *testing.T, userID uint64) *models.Wallet {
	t.Helper()
	w, err := e.wallets.Get(context.Background(), userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return w
}

func (e *testEnv) position(t *testing.T, userID, marketID uint64) *models.Position {
	t.Helper()
	p, err := e.positions.Get(context.Background(), userID, marketID)
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	return p
}

func wantDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if got.Cmp(decimal.RequireFromString(want)) != 0 {
		t.Fatalf("%s=%s want=%s", label, got.String(), want)
	}
}
