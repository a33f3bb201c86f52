package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"predex/internal/models"
	"predex/internal/repository"
)

type MarketService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *MarketService) CreateEvent(ctx context.Context, item *models.Event) (*models.Event, error) {
	item.Title = strings.TrimSpace(item.Title)
	if err := s.Repo.CreateEvent(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MarketService) ListEvents(ctx context.Context, params repository.ListParams) ([]models.Event, error) {
	return s.Repo.ListEvents(ctx, params)
}

func (s *MarketService) Create(ctx context.Context, eventID uint64, question string, metadata datatypes.JSON) (*models.Market, error) {
	event, err := s.Repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	market := &models.Market{
		EventID:  eventID,
		Question: strings.TrimSpace(question),
		Status:   models.MarketActive,
		Metadata: metadata,
	}
	if err := s.Repo.CreateMarket(ctx, market); err != nil {
		return nil, err
	}
	s.Logger.Info("market created",
		zap.Uint64("market_id", market.ID),
		zap.Uint64("event_id", eventID),
	)
	return market, nil
}

func (s *MarketService) Get(ctx context.Context, id uint64) (*models.Market, error) {
	market, err := s.Repo.GetMarketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if market == nil {
		return nil, ErrMarketNotFound
	}
	return market, nil
}

func (s *MarketService) List(ctx context.Context, params repository.ListMarketsParams) ([]models.Market, error) {
	return s.Repo.ListMarkets(ctx, params)
}

// Suspend halts intake and matching; settlement stays possible.
func (s *MarketService) Suspend(ctx context.Context, id uint64) error {
	return s.transition(ctx, id, models.MarketActive, models.MarketSuspended)
}

func (s *MarketService) Resume(ctx context.Context, id uint64) error {
	return s.transition(ctx, id, models.MarketSuspended, models.MarketActive)
}

func (s *MarketService) transition(ctx context.Context, id uint64, from, to models.MarketStatus) error {
	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		market, err := s.Repo.GetMarketForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if market == nil {
			return ErrMarketNotFound
		}
		if market.Status == models.MarketSettled {
			return ErrAlreadySettled
		}
		if market.Status != from {
			return ErrInvalidMarketState
		}
		return s.Repo.UpdateMarketStatusTx(ctx, tx, id, to)
	})
}

// BookLevel is one aggregated price level of the order book snapshot.
type BookLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

type BookSnapshot struct {
	MarketID uint64      `json:"market_id"`
	Bids     []BookLevel `json:"bids"`
	Asks     []BookLevel `json:"asks"`
}

// Book aggregates the open orders of a market into price levels, bids
// best-first (price desc) and asks best-first (price asc).
func (s *MarketService) Book(ctx context.Context, marketID uint64) (*BookSnapshot, error) {
	if _, err := s.Get(ctx, marketID); err != nil {
		return nil, err
	}
	bids, err := s.Repo.ListOpenOrdersForMatchTx(ctx, nil, marketID, models.SideBuy)
	if err != nil {
		return nil, err
	}
	asks, err := s.Repo.ListOpenOrdersForMatchTx(ctx, nil, marketID, models.SideSell)
	if err != nil {
		return nil, err
	}
	return &BookSnapshot{
		MarketID: marketID,
		Bids:     aggregateLevels(bids),
		Asks:     aggregateLevels(asks),
	}, nil
}

func aggregateLevels(orders []models.Order) []BookLevel {
	levels := []BookLevel{}
	for _, o := range orders {
		if n := len(levels); n > 0 && levels[n-1].Price.Equal(o.Price) {
			levels[n-1].Quantity += o.Remaining()
			continue
		}
		levels = append(levels, BookLevel{Price: o.Price, Quantity: o.Remaining()})
	}
	return levels
}

func (s *MarketService) Trades(ctx context.Context, marketID uint64, params repository.ListParams) ([]models.Trade, error) {
	if _, err := s.Get(ctx, marketID); err != nil {
		return nil, err
	}
	return s.Repo.ListTradesByMarket(ctx, marketID, params)
}
