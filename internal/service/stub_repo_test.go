package service

import (
	"context"
	"maps"
	"sort"

	"gorm.io/gorm"

	"predex/internal/models"
	"predex/internal/repository"
)

// stubRepo is a test-only in-memory implementation of
// repository.Repository with real wallet, order, position, and
// transaction state so the matching and settlement paths can be
// exercised end to end without a database. IDs autoincrement per
// aggregate, matching the FIFO tie-break the real store relies on.
type stubRepo struct {
	users        map[uint64]models.User
	wallets      map[uint64]models.Wallet // keyed by user ID
	events       map[uint64]models.Event
	markets      map[uint64]models.Market
	orders       map[uint64]models.Order
	positions    map[[2]uint64]models.Position // keyed by {user, market}
	transactions []models.Transaction
	trades       []models.Trade

	nextUserID   uint64
	nextWalletID uint64
	nextEventID  uint64
	nextMarketID uint64
	nextOrderID  uint64
	nextPosID    uint64
	nextTxnID    uint64
	nextTradeID  uint64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:     map[uint64]models.User{},
		wallets:   map[uint64]models.Wallet{},
		events:    map[uint64]models.Event{},
		markets:   map[uint64]models.Market{},
		orders:    map[uint64]models.Order{},
		positions: map[[2]uint64]models.Position{},
	}
}

// InTx mirrors a real transaction boundary: an error from fn restores
// every aggregate to its pre-call state, as a rollback would.
func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	snap := s.clone()
	if err := fn(nil); err != nil {
		*s = *snap
		return err
	}
	return nil
}

func (s *stubRepo) clone() *stubRepo {
	cp := *s
	cp.users = maps.Clone(s.users)
	cp.wallets = maps.Clone(s.wallets)
	cp.events = maps.Clone(s.events)
	cp.markets = maps.Clone(s.markets)
	cp.orders = maps.Clone(s.orders)
	cp.positions = maps.Clone(s.positions)
	cp.transactions = append([]models.Transaction(nil), s.transactions...)
	cp.trades = append([]models.Trade(nil), s.trades...)
	return &cp
}

// users

func (s *stubRepo) CreateUserTx(ctx context.Context, tx *gorm.DB, item *models.User) error {
	s.nextUserID++
	item.ID = s.nextUserID
	s.users[item.ID] = *item
	return nil
}

func (s *stubRepo) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *stubRepo) ListUsers(ctx context.Context, params repository.ListParams) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// wallets

func (s *stubRepo) CreateWalletTx(ctx context.Context, tx *gorm.DB, item *models.Wallet) error {
	s.nextWalletID++
	item.ID = s.nextWalletID
	s.wallets[item.UserID] = *item
	return nil
}

func (s *stubRepo) GetWalletByUserID(ctx context.Context, userID uint64) (*models.Wallet, error) {
	if w, ok := s.wallets[userID]; ok {
		return &w, nil
	}
	return nil, nil
}

func (s *stubRepo) GetWalletForUpdateTx(ctx context.Context, tx *gorm.DB, userID uint64) (*models.Wallet, error) {
	return s.GetWalletByUserID(ctx, userID)
}

func (s *stubRepo) UpdateWalletBalancesTx(ctx context.Context, tx *gorm.DB, item *models.Wallet) error {
	s.wallets[item.UserID] = *item
	return nil
}

// events

func (s *stubRepo) CreateEvent(ctx context.Context, item *models.Event) error {
	s.nextEventID++
	item.ID = s.nextEventID
	s.events[item.ID] = *item
	return nil
}

func (s *stubRepo) GetEventByID(ctx context.Context, id uint64) (*models.Event, error) {
	if e, ok := s.events[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *stubRepo) ListEvents(ctx context.Context, params repository.ListParams) ([]models.Event, error) {
	out := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// markets

func (s *stubRepo) CreateMarket(ctx context.Context, item *models.Market) error {
	s.nextMarketID++
	item.ID = s.nextMarketID
	s.markets[item.ID] = *item
	return nil
}

func (s *stubRepo) GetMarketByID(ctx context.Context, id uint64) (*models.Market, error) {
	if m, ok := s.markets[id]; ok {
		return &m, nil
	}
	return nil, nil
}

func (s *stubRepo) GetMarketForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Market, error) {
	return s.GetMarketByID(ctx, id)
}

func (s *stubRepo) ListMarkets(ctx context.Context, params repository.ListMarketsParams) ([]models.Market, error) {
	out := make([]models.Market, 0, len(s.markets))
	for _, m := range s.markets {
		if params.EventID != nil && m.EventID != *params.EventID {
			continue
		}
		if params.Status != nil && m.Status != *params.Status {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) UpdateMarketStatusTx(ctx context.Context, tx *gorm.DB, id uint64, status models.MarketStatus) error {
	m := s.markets[id]
	m.Status = status
	s.markets[id] = m
	return nil
}

func (s *stubRepo) SettleMarketTx(ctx context.Context, tx *gorm.DB, item *models.Market) error {
	s.markets[item.ID] = *item
	return nil
}

// orders

func (s *stubRepo) CreateOrderTx(ctx context.Context, tx *gorm.DB, item *models.Order) error {
	s.nextOrderID++
	item.ID = s.nextOrderID
	s.orders[item.ID] = *item
	return nil
}

func (s *stubRepo) GetOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	if o, ok := s.orders[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (s *stubRepo) GetOrderForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Order, error) {
	return s.GetOrderByID(ctx, id)
}

func (s *stubRepo) ListOpenOrdersForMatchTx(ctx context.Context, tx *gorm.DB, marketID uint64, side models.OrderSide) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.MarketID == marketID && o.Side == side && o.Status.Open() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		cmp := out[i].Price.Cmp(out[j].Price)
		if cmp != 0 {
			if side == models.SideBuy {
				return cmp > 0
			}
			return cmp < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *stubRepo) ListOpenOrdersByMarketTx(ctx context.Context, tx *gorm.DB, marketID uint64) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.MarketID == marketID && o.Status.Open() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) ListOrders(ctx context.Context, params repository.ListOrdersParams) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if params.UserID != nil && o.UserID != *params.UserID {
			continue
		}
		if params.MarketID != nil && o.MarketID != *params.MarketID {
			continue
		}
		if params.Status != nil && o.Status != *params.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) UpdateOrderFillTx(ctx context.Context, tx *gorm.DB, id uint64, filled int64, status models.OrderStatus) error {
	o := s.orders[id]
	o.Filled = filled
	o.Status = status
	s.orders[id] = o
	return nil
}

// positions

func (s *stubRepo) GetPosition(ctx context.Context, userID, marketID uint64) (*models.Position, error) {
	if p, ok := s.positions[[2]uint64{userID, marketID}]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *stubRepo) AddPositionSharesTx(ctx context.Context, tx *gorm.DB, userID, marketID uint64, side models.OrderSide, qty int64) error {
	key := [2]uint64{userID, marketID}
	p, ok := s.positions[key]
	if !ok {
		s.nextPosID++
		p = models.Position{ID: s.nextPosID, UserID: userID, MarketID: marketID}
	}
	if side == models.SideBuy {
		p.YesShares += qty
	} else {
		p.NoShares += qty
	}
	s.positions[key] = p
	return nil
}

func (s *stubRepo) ListPositionsByMarketTx(ctx context.Context, tx *gorm.DB, marketID uint64) ([]models.Position, error) {
	var out []models.Position
	for _, p := range s.positions {
		if p.MarketID == marketID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) ListPositionsByUser(ctx context.Context, userID uint64) ([]models.Position, error) {
	var out []models.Position
	for _, p := range s.positions {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// transactions

func (s *stubRepo) InsertTransactionTx(ctx context.Context, tx *gorm.DB, item *models.Transaction) error {
	s.nextTxnID++
	item.ID = s.nextTxnID
	s.transactions = append(s.transactions, *item)
	return nil
}

func (s *stubRepo) ListTransactionsByUser(ctx context.Context, userID uint64, params repository.ListParams) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// trades

func (s *stubRepo) InsertTradeTx(ctx context.Context, tx *gorm.DB, item *models.Trade) error {
	s.nextTradeID++
	item.ID = s.nextTradeID
	s.trades = append(s.trades, *item)
	return nil
}

func (s *stubRepo) ListTradesByMarket(ctx context.Context, marketID uint64, params repository.ListParams) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range s.trades {
		if t.MarketID == marketID {
			out = append(out, t)
		}
	}
	return out, nil
}
