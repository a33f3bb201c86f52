package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"predex/internal/metrics"
	"predex/internal/models"
	"predex/internal/repository"
	"predex/internal/stream"
)

// MatchingService crosses a market's resting orders under price-time
// priority. A pass is a bounded synchronous walk over the current book:
// it executes every possible crossing and returns, never waiting for
// new orders.
type MatchingService struct {
	Repo    repository.Repository
	Wallets *WalletService
	Locks   *MarketLocks
	Hub     *stream.Hub
	Logger  *zap.Logger
}

// MatchMarket runs one matching pass and returns the number of trades
// executed. The whole pass commits as a single unit: a failure mid-scan
// rolls back every trade of the invocation, leaving orders and wallets
// untouched.
func (s *MatchingService) MatchMarket(ctx context.Context, marketID uint64) (int, error) {
	market, err := s.Repo.GetMarketByID(ctx, marketID)
	if err != nil {
		return 0, err
	}
	if market == nil {
		return 0, ErrMarketNotFound
	}
	if market.Status != models.MarketActive {
		return 0, ErrInvalidMarketState
	}

	unlock := s.Locks.Lock(marketID)
	defer unlock()

	start := time.Now()
	runID := uuid.NewString()
	var executed []stream.TradeEvent

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		// The status may have changed between the unlocked pre-check
		// and acquiring the market lock; a pass must never trade on a
		// suspended or settled book.
		current, err := s.Repo.GetMarketForUpdateTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrMarketNotFound
		}
		if current.Status != models.MarketActive {
			return ErrInvalidMarketState
		}

		buys, err := s.Repo.ListOpenOrdersForMatchTx(ctx, tx, marketID, models.SideBuy)
		if err != nil {
			return err
		}
		sells, err := s.Repo.ListOpenOrdersForMatchTx(ctx, tx, marketID, models.SideSell)
		if err != nil {
			return err
		}

		bi, si := 0, 0
		for bi < len(buys) && si < len(sells) {
			buy, sell := &buys[bi], &sells[si]

			// Lists are sorted best-price-first, so once the best
			// remaining bid and ask no longer cross, none do.
			if buy.Price.LessThan(sell.Price) {
				break
			}

			fillQty := buy.Remaining()
			if sell.Remaining() < fillQty {
				fillQty = sell.Remaining()
			}
			qty := decimal.NewFromInt(fillQty)

			// The maker is the earlier order; its price is honored and
			// the taker keeps the improvement as a refund.
			execPrice := buy.Price
			if sell.ID < buy.ID {
				execPrice = sell.Price
			}
			tradeAmount := execPrice.Mul(qty)

			// Buyer owes execPrice*qty out of the buy.Price*qty slice
			// of its reservation.
			if err := s.Wallets.ConsumeTx(ctx, tx, buy.UserID, tradeAmount); err != nil {
				return err
			}
			if err := s.Wallets.UnlockTx(ctx, tx, buy.UserID, buy.Price.Sub(execPrice).Mul(qty)); err != nil {
				return err
			}

			// Seller owes (1-execPrice)*qty out of (1-sell.Price)*qty.
			sellerOwes := decimal.NewFromInt(1).Sub(execPrice).Mul(qty)
			if err := s.Wallets.ConsumeTx(ctx, tx, sell.UserID, sellerOwes); err != nil {
				return err
			}
			if err := s.Wallets.UnlockTx(ctx, tx, sell.UserID, execPrice.Sub(sell.Price).Mul(qty)); err != nil {
				return err
			}

			buy.Filled += fillQty
			sell.Filled += fillQty
			buy.Status = fillStatus(buy)
			sell.Status = fillStatus(sell)
			if err := s.Repo.UpdateOrderFillTx(ctx, tx, buy.ID, buy.Filled, buy.Status); err != nil {
				return err
			}
			if err := s.Repo.UpdateOrderFillTx(ctx, tx, sell.ID, sell.Filled, sell.Status); err != nil {
				return err
			}

			buyerPaid := tradeAmount
			sellerPaid := sellerOwes
			for _, part := range []struct {
				userID  uint64
				orderID uint64
				amount  decimal.Decimal
			}{
				{buy.UserID, buy.ID, buyerPaid},
				{sell.UserID, sell.ID, sellerPaid},
			} {
				orderID := part.orderID
				mid := marketID
				if err := s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
					UserID:   part.userID,
					Type:     models.TxOrderExecuted,
					Amount:   part.amount.Neg(),
					OrderID:  &orderID,
					MarketID: &mid,
				}); err != nil {
					return err
				}
			}

			if err := s.Repo.AddPositionSharesTx(ctx, tx, buy.UserID, marketID, models.SideBuy, fillQty); err != nil {
				return err
			}
			if err := s.Repo.AddPositionSharesTx(ctx, tx, sell.UserID, marketID, models.SideSell, fillQty); err != nil {
				return err
			}

			maker := buy.ID
			if sell.ID < buy.ID {
				maker = sell.ID
			}
			trade := &models.Trade{
				MarketID:     marketID,
				BuyOrderID:   buy.ID,
				SellOrderID:  sell.ID,
				BuyerID:      buy.UserID,
				SellerID:     sell.UserID,
				MakerOrderID: maker,
				Price:        execPrice,
				Quantity:     fillQty,
				MatchRunID:   runID,
			}
			if err := s.Repo.InsertTradeTx(ctx, tx, trade); err != nil {
				return err
			}
			executed = append(executed, stream.TradeEvent{
				TradeID:    trade.ID,
				MarketID:   marketID,
				Price:      execPrice.String(),
				Quantity:   fillQty,
				MatchRunID: runID,
				ExecutedAt: time.Now().UTC(),
			})

			if buy.Status == models.OrderFilled {
				bi++
			}
			if sell.Status == models.OrderFilled {
				si++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	if len(executed) > 0 {
		mid := strconv.FormatUint(marketID, 10)
		for _, ev := range executed {
			metrics.TradesExecuted.Inc()
			metrics.TradeVolume.WithLabelValues(mid).Add(float64(ev.Quantity))
			if s.Hub != nil {
				s.Hub.Broadcast(ev)
			}
		}
		s.Logger.Info("matching pass executed trades",
			zap.Uint64("market_id", marketID),
			zap.String("match_run_id", runID),
			zap.Int("trades", len(executed)),
		)
	}
	return len(executed), nil
}

// RescanActiveMarkets re-runs the matching pass over every ACTIVE
// market. Orders accepted while an earlier pass failed stay eligible;
// this is their retry path.
func (s *MatchingService) RescanActiveMarkets(ctx context.Context) {
	status := models.MarketActive
	markets, err := s.Repo.ListMarkets(ctx, repository.ListMarketsParams{Status: &status, Limit: 1000})
	if err != nil {
		s.Logger.Warn("book rescan list markets failed", zap.Error(err))
		return
	}
	for _, m := range markets {
		if _, err := s.MatchMarket(ctx, m.ID); err != nil {
			s.Logger.Warn("book rescan matching failed",
				zap.Uint64("market_id", m.ID),
				zap.Error(err),
			)
		}
	}
}

func fillStatus(o *models.Order) models.OrderStatus {
	if o.Filled == o.Quantity {
		return models.OrderFilled
	}
	return models.OrderPartiallyFilled
}
