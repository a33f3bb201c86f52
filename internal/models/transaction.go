package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit        TransactionType = "DEPOSIT"
	TxWithdrawal     TransactionType = "WITHDRAWAL"
	TxOrderPlaced    TransactionType = "ORDER_PLACED"
	TxOrderExecuted  TransactionType = "ORDER_EXECUTED"
	TxOrderCancelled TransactionType = "ORDER_CANCELLED"
	TxSettlement     TransactionType = "SETTLEMENT"
)

// Transaction is the append-only audit record of a balance-affecting
// event. Rows are never updated or deleted; debits carry a negative
// amount.
type Transaction struct {
	ID     uint64          `gorm:"primaryKey;autoIncrement"`
	UserID uint64          `gorm:"not null;index"`
	Type   TransactionType `gorm:"type:varchar(20);not null;index"`

	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	OrderID  *uint64 `gorm:"index"`
	MarketID *uint64 `gorm:"index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Transaction) TableName() string {
	return "transactions"
}
