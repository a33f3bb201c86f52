package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's funds split into an available balance and the
// amount locked against open orders. Both balances are non-negative at
// every committed state.
type Wallet struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;uniqueIndex"`

	Available decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`
	Locked    decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Wallet) TableName() string {
	return "wallets"
}
