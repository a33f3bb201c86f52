package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one execution between a crossing BUY and SELL. The
// execution price is the maker's (earlier) order price; MatchRunID
// correlates all trades produced by a single matching pass.
type Trade struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	MarketID uint64 `gorm:"not null;index"`

	BuyOrderID  uint64 `gorm:"not null;index"`
	SellOrderID uint64 `gorm:"not null;index"`
	BuyerID     uint64 `gorm:"not null;index"`
	SellerID    uint64 `gorm:"not null;index"`

	MakerOrderID uint64 `gorm:"not null"`

	Price    decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	Quantity int64           `gorm:"not null"`

	MatchRunID string `gorm:"type:varchar(36);not null;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Trade) TableName() string {
	return "trades"
}
