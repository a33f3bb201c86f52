package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"predex/internal/models"
	"predex/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// conn resolves the connection for a Tx-suffixed method: the enclosing
// transaction when one is supplied, the base connection otherwise.
func (s *Store) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// --- users -------------------------------------------------------------

func (s *Store) CreateUserTx(ctx context.Context, tx *gorm.DB, item *models.User) error {
	return s.conn(ctx, tx).Create(item).Error
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	var item models.User
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListUsers(ctx context.Context, params repository.ListParams) ([]models.User, error) {
	var items []models.User
	err := s.db.WithContext(ctx).
		Order("id asc").
		Limit(normalizeLimit(params.Limit, 200)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

// --- wallets -----------------------------------------------------------

func (s *Store) CreateWalletTx(ctx context.Context, tx *gorm.DB, item *models.Wallet) error {
	return s.conn(ctx, tx).Create(item).Error
}

func (s *Store) GetWalletByUserID(ctx context.Context, userID uint64) (*models.Wallet, error) {
	var item models.Wallet
	err := s.db.WithContext(ctx).First(&item, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetWalletForUpdateTx takes a row lock so concurrent lock/consume/
// unlock/credit calls for the same user serialize at the database.
func (s *Store) GetWalletForUpdateTx(ctx context.Context, tx *gorm.DB, userID uint64) (*models.Wallet, error) {
	var item models.Wallet
	err := s.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateWalletBalancesTx(ctx context.Context, tx *gorm.DB, item *models.Wallet) error {
	return s.conn(ctx, tx).
		Model(&models.Wallet{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"available": item.Available,
			"locked":    item.Locked,
		}).Error
}

// --- events ------------------------------------------------------------

func (s *Store) CreateEvent(ctx context.Context, item *models.Event) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetEventByID(ctx context.Context, id uint64) (*models.Event, error) {
	var item models.Event
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListEvents(ctx context.Context, params repository.ListParams) ([]models.Event, error) {
	var items []models.Event
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(normalizeLimit(params.Limit, 200)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

// --- markets -----------------------------------------------------------

func (s *Store) CreateMarket(ctx context.Context, item *models.Market) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetMarketByID(ctx context.Context, id uint64) (*models.Market, error) {
	var item models.Market
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetMarketForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Market, error) {
	var item models.Market
	err := s.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMarkets(ctx context.Context, params repository.ListMarketsParams) ([]models.Market, error) {
	query := s.db.WithContext(ctx).Model(&models.Market{})
	if params.EventID != nil {
		query = query.Where("event_id = ?", *params.EventID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	var items []models.Market
	err := query.
		Order("created_at desc").
		Limit(normalizeLimit(params.Limit, 200)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

func (s *Store) UpdateMarketStatusTx(ctx context.Context, tx *gorm.DB, id uint64, status models.MarketStatus) error {
	return s.conn(ctx, tx).
		Model(&models.Market{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (s *Store) SettleMarketTx(ctx context.Context, tx *gorm.DB, item *models.Market) error {
	return s.conn(ctx, tx).
		Model(&models.Market{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"status":          item.Status,
			"winning_outcome": item.WinningOutcome,
			"settled_at":      item.SettledAt,
		}).Error
}

// --- orders ------------------------------------------------------------

func (s *Store) CreateOrderTx(ctx context.Context, tx *gorm.DB, item *models.Order) error {
	return s.conn(ctx, tx).Create(item).Error
}

func (s *Store) GetOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	var item models.Order
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetOrderForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Order, error) {
	var item models.Order
	err := s.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListOpenOrdersForMatchTx(ctx context.Context, tx *gorm.DB, marketID uint64, side models.OrderSide) ([]models.Order, error) {
	order := "price asc, id asc"
	if side == models.SideBuy {
		order = "price desc, id asc"
	}
	var items []models.Order
	err := s.conn(ctx, tx).
		Where("market_id = ? AND side = ?", marketID, side).
		Where("status IN ?", []models.OrderStatus{models.OrderPending, models.OrderPartiallyFilled}).
		Order(order).
		Find(&items).Error
	return items, err
}

func (s *Store) ListOpenOrdersByMarketTx(ctx context.Context, tx *gorm.DB, marketID uint64) ([]models.Order, error) {
	var items []models.Order
	err := s.conn(ctx, tx).
		Where("market_id = ?", marketID).
		Where("status IN ?", []models.OrderStatus{models.OrderPending, models.OrderPartiallyFilled}).
		Order("id asc").
		Find(&items).Error
	return items, err
}

func (s *Store) ListOrders(ctx context.Context, params repository.ListOrdersParams) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.MarketID != nil {
		query = query.Where("market_id = ?", *params.MarketID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	var items []models.Order
	err := query.
		Order("id desc").
		Limit(normalizeLimit(params.Limit, 200)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

func (s *Store) UpdateOrderFillTx(ctx context.Context, tx *gorm.DB, id uint64, filled int64, status models.OrderStatus) error {
	return s.conn(ctx, tx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"filled": filled,
			"status": status,
		}).Error
}

// --- positions ---------------------------------------------------------

func (s *Store) GetPosition(ctx context.Context, userID, marketID uint64) (*models.Position, error) {
	var item models.Position
	err := s.db.WithContext(ctx).
		First(&item, "user_id = ? AND market_id = ?", userID, marketID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) AddPositionSharesTx(ctx context.Context, tx *gorm.DB, userID, marketID uint64, side models.OrderSide, qty int64) error {
	column := "no_shares"
	item := models.Position{UserID: userID, MarketID: marketID, NoShares: qty}
	if side == models.SideBuy {
		column = "yes_shares"
		item = models.Position{UserID: userID, MarketID: marketID, YesShares: qty}
	}
	return s.conn(ctx, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "market_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			column: gorm.Expr(column+" + ?", qty),
		}),
	}).Create(&item).Error
}

func (s *Store) ListPositionsByMarketTx(ctx context.Context, tx *gorm.DB, marketID uint64) ([]models.Position, error) {
	var items []models.Position
	err := s.conn(ctx, tx).
		Where("market_id = ?", marketID).
		Order("id asc").
		Find(&items).Error
	return items, err
}

func (s *Store) ListPositionsByUser(ctx context.Context, userID uint64) ([]models.Position, error) {
	var items []models.Position
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error
	return items, err
}

// --- transactions ------------------------------------------------------

func (s *Store) InsertTransactionTx(ctx context.Context, tx *gorm.DB, item *models.Transaction) error {
	return s.conn(ctx, tx).Create(item).Error
}

func (s *Store) ListTransactionsByUser(ctx context.Context, userID uint64, params repository.ListParams) ([]models.Transaction, error) {
	var items []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(normalizeLimit(params.Limit, 200)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

// --- trades ------------------------------------------------------------

func (s *Store) InsertTradeTx(ctx context.Context, tx *gorm.DB, item *models.Trade) error {
	return s.conn(ctx, tx).Create(item).Error
}

func (s *Store) ListTradesByMarket(ctx context.Context, marketID uint64, params repository.ListParams) ([]models.Trade, error) {
	var items []models.Trade
	err := s.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("id desc").
		Limit(normalizeLimit(params.Limit, 200)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	return items, err
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
