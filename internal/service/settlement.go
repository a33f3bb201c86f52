package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"predex/internal/metrics"
	"predex/internal/models"
	"predex/internal/repository"
)

// SettlementService finalizes a market: cancels the remaining book,
// pays one unit per winning share, and closes the market for good.
type SettlementService struct {
	Repo    repository.Repository
	Wallets *WalletService
	Locks   *MarketLocks
	Logger  *zap.Logger
}

// Settle resolves the market to the winning outcome as one atomic unit.
// Allowed from ACTIVE or SUSPENDED; settling twice fails AlreadySettled.
func (s *SettlementService) Settle(ctx context.Context, marketID uint64, outcome models.Outcome) error {
	if !outcome.Valid() {
		return ErrInvalidOutcome
	}
	market, err := s.Repo.GetMarketByID(ctx, marketID)
	if err != nil {
		return err
	}
	if market == nil {
		return ErrMarketNotFound
	}

	unlock := s.Locks.Lock(marketID)
	defer unlock()

	var paidUsers int
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		current, err := s.Repo.GetMarketForUpdateTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrMarketNotFound
		}
		if current.Status == models.MarketSettled {
			return ErrAlreadySettled
		}

		// 1. Cancel every open order, releasing each reservation's
		// unfilled remainder.
		open, err := s.Repo.ListOpenOrdersByMarketTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		for i := range open {
			o := &open[i]
			refund := o.RemainingLockAmount()
			if err := s.Wallets.UnlockTx(ctx, tx, o.UserID, refund); err != nil {
				return err
			}
			if err := s.Repo.UpdateOrderFillTx(ctx, tx, o.ID, o.Filled, models.OrderCancelled); err != nil {
				return err
			}
			oid := o.ID
			mid := marketID
			if err := s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
				UserID:   o.UserID,
				Type:     models.TxOrderCancelled,
				Amount:   refund,
				OrderID:  &oid,
				MarketID: &mid,
			}); err != nil {
				return err
			}
		}

		// 2. Pay 1 per winning share; losing shares pay nothing.
		positions, err := s.Repo.ListPositionsByMarketTx(ctx, tx, marketID)
		if err != nil {
			return err
		}
		for _, p := range positions {
			winning := p.YesShares
			if outcome == models.OutcomeNo {
				winning = p.NoShares
			}
			if winning <= 0 {
				continue
			}
			payout := decimal.NewFromInt(winning)
			if err := s.Wallets.CreditTx(ctx, tx, p.UserID, payout); err != nil {
				return err
			}
			mid := marketID
			if err := s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
				UserID:   p.UserID,
				Type:     models.TxSettlement,
				Amount:   payout,
				MarketID: &mid,
			}); err != nil {
				return err
			}
			paidUsers++
		}

		// 3. Terminal transition.
		now := time.Now().UTC()
		current.Status = models.MarketSettled
		current.WinningOutcome = &outcome
		current.SettledAt = &now
		return s.Repo.SettleMarketTx(ctx, tx, current)
	})
	if err != nil {
		return err
	}

	metrics.SettlementsTotal.WithLabelValues(string(outcome)).Inc()
	s.Logger.Info("market settled",
		zap.Uint64("market_id", marketID),
		zap.String("outcome", string(outcome)),
		zap.Int("paid_users", paidUsers),
	)
	return nil
}
