package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"predex/internal/models"
	"predex/internal/repository"
)

// WalletService is the funds ledger: custody of available vs. locked
// balances. Lock/Unlock/Consume/Credit run inside the caller's unit of
// work and serialize per user through a row lock on the wallet.
type WalletService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *WalletService) CreateTx(ctx context.Context, tx *gorm.DB, userID uint64) error {
	wallet := &models.Wallet{
		UserID:    userID,
		Available: decimal.Zero,
		Locked:    decimal.Zero,
	}
	return s.Repo.CreateWalletTx(ctx, tx, wallet)
}

func (s *WalletService) Get(ctx context.Context, userID uint64) (*models.Wallet, error) {
	wallet, err := s.Repo.GetWalletByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, ErrWalletNotFound
	}
	return wallet, nil
}

// Deposit credits the available balance and appends a DEPOSIT record.
func (s *WalletService) Deposit(ctx context.Context, userID uint64, amount decimal.Decimal) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	var wallet *models.Wallet
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.CreditTx(ctx, tx, userID, amount); err != nil {
			return err
		}
		return s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
			UserID: userID,
			Type:   models.TxDeposit,
			Amount: amount,
		})
	})
	if err != nil {
		return nil, err
	}
	wallet, err = s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("deposit credited",
		zap.Uint64("user_id", userID),
		zap.String("amount", amount.String()),
	)
	return wallet, nil
}

// Withdraw debits the available balance and appends a WITHDRAWAL record.
func (s *WalletService) Withdraw(ctx context.Context, userID uint64, amount decimal.Decimal) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		wallet, err := s.Repo.GetWalletForUpdateTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if wallet == nil {
			return ErrWalletNotFound
		}
		if wallet.Available.LessThan(amount) {
			return ErrInsufficientFunds
		}
		wallet.Available = wallet.Available.Sub(amount)
		if err := s.Repo.UpdateWalletBalancesTx(ctx, tx, wallet); err != nil {
			return err
		}
		return s.Repo.InsertTransactionTx(ctx, tx, &models.Transaction{
			UserID: userID,
			Type:   models.TxWithdrawal,
			Amount: amount.Neg(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// LockTx reserves amount against an open order: available -> locked.
// No state change when the available balance is short.
func (s *WalletService) LockTx(ctx context.Context, tx *gorm.DB, userID uint64, amount decimal.Decimal) error {
	wallet, err := s.Repo.GetWalletForUpdateTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}
	if wallet.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	wallet.Available = wallet.Available.Sub(amount)
	wallet.Locked = wallet.Locked.Add(amount)
	return s.Repo.UpdateWalletBalancesTx(ctx, tx, wallet)
}

// UnlockTx releases a reservation back to available: refunds on price
// improvement and the unfilled remainder on cancellation. A zero amount
// is a no-op.
func (s *WalletService) UnlockTx(ctx context.Context, tx *gorm.DB, userID uint64, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	wallet, err := s.Repo.GetWalletForUpdateTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}
	if wallet.Locked.LessThan(amount) {
		s.Logger.Error("unlock exceeds locked balance",
			zap.Uint64("user_id", userID),
			zap.String("locked", wallet.Locked.String()),
			zap.String("amount", amount.String()),
		)
		return ErrInsufficientLockedFunds
	}
	wallet.Locked = wallet.Locked.Sub(amount)
	wallet.Available = wallet.Available.Add(amount)
	return s.Repo.UpdateWalletBalancesTx(ctx, tx, wallet)
}

// ConsumeTx permanently debits a settled amount from the locked balance.
// Locked falling short here means the ledger's own bookkeeping broke; it
// aborts the enclosing transaction rather than touching the wallet.
func (s *WalletService) ConsumeTx(ctx context.Context, tx *gorm.DB, userID uint64, amount decimal.Decimal) error {
	wallet, err := s.Repo.GetWalletForUpdateTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}
	if wallet.Locked.LessThan(amount) {
		s.Logger.Error("consume exceeds locked balance",
			zap.Uint64("user_id", userID),
			zap.String("locked", wallet.Locked.String()),
			zap.String("amount", amount.String()),
		)
		return ErrInsufficientLockedFunds
	}
	wallet.Locked = wallet.Locked.Sub(amount)
	return s.Repo.UpdateWalletBalancesTx(ctx, tx, wallet)
}

// CreditTx adds directly to the available balance (deposits, payouts).
func (s *WalletService) CreditTx(ctx context.Context, tx *gorm.DB, userID uint64, amount decimal.Decimal) error {
	wallet, err := s.Repo.GetWalletForUpdateTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if wallet == nil {
		return ErrWalletNotFound
	}
	wallet.Available = wallet.Available.Add(amount)
	return s.Repo.UpdateWalletBalancesTx(ctx, tx, wallet)
}
