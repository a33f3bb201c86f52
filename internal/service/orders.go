package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"predex/internal/metrics"
	"predex/internal/models"
	"predex/internal/repository"
)

// OrderService owns order intake, cancellation, and the orchestration
// between intake and matching. Intake and the matching pass are two
// independently committed units of work: a failed or empty matching
// pass never rolls back an order that intake already accepted.
type OrderService struct {
	Repo    repository.Repository
	Wallets *WalletService
	Matcher *MatchingService
	Locks   *MarketLocks
	Logger  *zap.Logger
}

// priceScale bounds accepted price precision so reservations and
// refunds stay exact in fixed-point arithmetic.
var priceScale = decimal.New(1, 6)

func validPrice(price decimal.Decimal) bool {
	if !price.IsPositive() || price.GreaterThan(decimal.NewFromInt(1)) {
		return false
	}
	return price.Mul(priceScale).IsInteger()
}

// Submit places the order (phase 1) and, only after that commit, runs a
// matching pass for the market (phase 2). A matching failure is logged
// and swallowed; the accepted order stays PENDING and is retried by the
// next pass for this market.
func (s *OrderService) Submit(ctx context.Context, userID, marketID uint64, side models.OrderSide, price decimal.Decimal, quantity int64) (*models.Order, int, error) {
	order, err := s.place(ctx, userID, marketID, side, price, quantity)
	if err != nil {
		return nil, 0, err
	}

	trades, err := s.Matcher.MatchMarket(ctx, marketID)
	if err != nil {
		s.Logger.Warn("matching pass failed, order remains open",
			zap.Uint64("order_id", order.ID),
			zap.Uint64("market_id", marketID),
			zap.Error(err),
		)
		return order, 0, nil
	}

	// Report the order as the matching pass left it.
	updated, err := s.Repo.GetOrderByID(ctx, order.ID)
	if err == nil && updated != nil {
		order = updated
	}
	return order, trades, nil
}

// place validates and persists the order with its wallet reservation
// and ORDER_PLACED record as one atomic unit. Nothing is persisted on
// failure.
func (s *OrderService) place(ctx context.Context, userID, marketID uint64, side models.OrderSide, price decimal.Decimal, quantity int64) (*models.Order, error) {
	if !side.Valid() {
		return nil, ErrInvalidSide
	}
	if !validPrice(price) {
		metrics.OrdersRejected.WithLabelValues("invalid_price").Inc()
		return nil, ErrInvalidPrice
	}
	if quantity <= 0 {
		metrics.OrdersRejected.WithLabelValues("invalid_quantity").Inc()
		return nil, ErrInvalidQuantity
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	market, err := s.Repo.GetMarketByID(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if market == nil {
		return nil, ErrMarketNotFound
	}
	if market.Status != models.MarketActive {
		metrics.OrdersRejected.WithLabelValues("market_state").Inc()
		return nil, ErrInvalidMarketState
	}

	lockAmount := models.LockAmountFor(side, price, quantity)
	order := &models.Order{
		UserID:   userID,
		MarketID: marketID,
		Side:     side,
		Price:    price,
		Quantity: quantity,
		Status:   models.OrderPending,
	}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Wallets.LockTx(ctx, tx, userID, lockAmount); err != nil {
			return err
		}
		if err := s.Repo.CreateOrderTx(ctx, tx, order); err != nil {
			return err
		}
		orderID := order.ID
		mid := marketID
		return s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
			UserID:   userID,
			Type:     models.TxOrderPlaced,
			Amount:   lockAmount.Neg(),
			OrderID:  &orderID,
			MarketID: &mid,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			metrics.OrdersRejected.WithLabelValues("insufficient_funds").Inc()
		}
		return nil, err
	}

	metrics.OrdersPlaced.WithLabelValues(string(side)).Inc()
	s.Logger.Info("order placed",
		zap.Uint64("order_id", order.ID),
		zap.Uint64("user_id", userID),
		zap.Uint64("market_id", marketID),
		zap.String("side", string(side)),
		zap.String("price", price.String()),
		zap.Int64("quantity", quantity),
		zap.String("locked", lockAmount.String()),
	)
	return order, nil
}

// Cancel transitions an open order to CANCELLED and unlocks the
// reservation held for its unfilled remainder only. It takes the market
// lock so a cancel never races a matching pass over the same book.
func (s *OrderService) Cancel(ctx context.Context, orderID uint64) (*models.Order, error) {
	order, err := s.Repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	unlock := s.Locks.Lock(order.MarketID)
	defer unlock()

	var cancelled *models.Order
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		current, err := s.Repo.GetOrderForUpdateTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if !current.Status.Open() {
			return ErrInvalidOrderState
		}

		refund := current.RemainingLockAmount()
		if err := s.Wallets.UnlockTx(ctx, tx, current.UserID, refund); err != nil {
			return err
		}
		if err := s.Repo.UpdateOrderFillTx(ctx, tx, current.ID, current.Filled, models.OrderCancelled); err != nil {
			return err
		}
		oid := current.ID
		mid := current.MarketID
		if err := s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
			UserID:   current.UserID,
			Type:     models.TxOrderCancelled,
			Amount:   refund,
			OrderID:  &oid,
			MarketID: &mid,
		}); err != nil {
			return err
		}
		current.Status = models.OrderCancelled
		cancelled = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCancelled.Inc()
	s.Logger.Info("order cancelled",
		zap.Uint64("order_id", cancelled.ID),
		zap.Uint64("user_id", cancelled.UserID),
		zap.Int64("remaining", cancelled.Remaining()),
	)
	return cancelled, nil
}

func (s *OrderService) Get(ctx context.Context, orderID uint64) (*models.Order, error) {
	order, err := s.Repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, params repository.ListOrdersParams) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, params)
}
