package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"  // betting YES
	SideSell OrderSide = "SELL" // betting NO
)

func (s OrderSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderFilled          OrderStatus = "FILLED"
	OrderCancelled       OrderStatus = "CANCELLED"
)

// Open reports whether the order can still fill or be cancelled.
func (s OrderStatus) Open() bool {
	return s == OrderPending || s == OrderPartiallyFilled
}

// Order is a resting limit intent on a market's book. The autoincrement
// ID doubles as the creation sequence used for FIFO tie-breaks, so
// price-time priority never depends on wall-clock resolution.
type Order struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	UserID   uint64 `gorm:"not null;index"`
	MarketID uint64 `gorm:"not null;index"`

	Side     OrderSide       `gorm:"type:varchar(10);not null"`
	Price    decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	Quantity int64           `gorm:"not null"`
	Filled   int64           `gorm:"not null;default:0"`

	Status OrderStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// Remaining is the unfilled share count.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.Filled
}

// LockAmount is the reservation taken from the wallet at intake:
// price*qty for BUY, (1-price)*qty for SELL, by complementary pricing.
func (o *Order) LockAmount() decimal.Decimal {
	return LockAmountFor(o.Side, o.Price, o.Quantity)
}

// RemainingLockAmount is the reservation still held for the unfilled
// remainder. Each fill releases exactly the per-share reservation via
// consume+refund, so the remainder scales linearly.
func (o *Order) RemainingLockAmount() decimal.Decimal {
	return LockAmountFor(o.Side, o.Price, o.Remaining())
}

func LockAmountFor(side OrderSide, price decimal.Decimal, qty int64) decimal.Decimal {
	q := decimal.NewFromInt(qty)
	if side == SideBuy {
		return price.Mul(q)
	}
	return decimal.NewFromInt(1).Sub(price).Mul(q)
}
