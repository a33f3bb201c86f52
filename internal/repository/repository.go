package repository

import (
	"context"

	"gorm.io/gorm"

	"predex/internal/models"
)

// ListOrdersParams filters the persisted order rows. The book itself is
// never held in memory; matching queries the rows it needs per pass.
type ListOrdersParams struct {
	Limit    int
	Offset   int
	UserID   *uint64
	MarketID *uint64
	Status   *models.OrderStatus
}

type ListMarketsParams struct {
	Limit   int
	Offset  int
	EventID *uint64
	Status  *models.MarketStatus
}

type ListParams struct {
	Limit  int
	Offset int
}

// Repository is the persistence boundary for every aggregate the engine
// touches. Methods with a Tx suffix take part in the caller's unit of
// work; passing a nil tx falls back to the base connection.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// users
	CreateUserTx(ctx context.Context, tx *gorm.DB, item *models.User) error
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
	ListUsers(ctx context.Context, params ListParams) ([]models.User, error)

	// wallets
	CreateWalletTx(ctx context.Context, tx *gorm.DB, item *models.Wallet) error
	GetWalletByUserID(ctx context.Context, userID uint64) (*models.Wallet, error)
	GetWalletForUpdateTx(ctx context.Context, tx *gorm.DB, userID uint64) (*models.Wallet, error)
	UpdateWalletBalancesTx(ctx context.Context, tx *gorm.DB, item *models.Wallet) error

	// events
	CreateEvent(ctx context.Context, item *models.Event) error
	GetEventByID(ctx context.Context, id uint64) (*models.Event, error)
	ListEvents(ctx context.Context, params ListParams) ([]models.Event, error)

	// markets
	CreateMarket(ctx context.Context, item *models.Market) error
	GetMarketByID(ctx context.Context, id uint64) (*models.Market, error)
	GetMarketForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Market, error)
	ListMarkets(ctx context.Context, params ListMarketsParams) ([]models.Market, error)
	UpdateMarketStatusTx(ctx context.Context, tx *gorm.DB, id uint64, status models.MarketStatus) error
	SettleMarketTx(ctx context.Context, tx *gorm.DB, item *models.Market) error

	// orders
	CreateOrderTx(ctx context.Context, tx *gorm.DB, item *models.Order) error
	GetOrderByID(ctx context.Context, id uint64) (*models.Order, error)
	GetOrderForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Order, error)
	// ListOpenOrdersForMatchTx returns PENDING/PARTIALLY_FILLED orders
	// for one side of a market's book in price-time priority: BUY sorted
	// price desc then id asc, SELL price asc then id asc.
	ListOpenOrdersForMatchTx(ctx context.Context, tx *gorm.DB, marketID uint64, side models.OrderSide) ([]models.Order, error)
	ListOpenOrdersByMarketTx(ctx context.Context, tx *gorm.DB, marketID uint64) ([]models.Order, error)
	ListOrders(ctx context.Context, params ListOrdersParams) ([]models.Order, error)
	UpdateOrderFillTx(ctx context.Context, tx *gorm.DB, id uint64, filled int64, status models.OrderStatus) error

	// positions
	GetPosition(ctx context.Context, userID, marketID uint64) (*models.Position, error)
	AddPositionSharesTx(ctx context.Context, tx *gorm.DB, userID, marketID uint64, side models.OrderSide, qty int64) error
	ListPositionsByMarketTx(ctx context.Context, tx *gorm.DB, marketID uint64) ([]models.Position, error)
	ListPositionsByUser(ctx context.Context, userID uint64) ([]models.Position, error)

	// transactions (append-only)
	InsertTransactionTx(ctx context.Context, tx *gorm.DB, item *models.Transaction) error
	ListTransactionsByUser(ctx context.Context, userID uint64, params ListParams) ([]models.Transaction, error)

	// trades (append-only)
	InsertTradeTx(ctx context.Context, tx *gorm.DB, item *models.Trade) error
	ListTradesByMarket(ctx context.Context, marketID uint64, params ListParams) ([]models.Trade, error)
}
