package models

import (
	"time"
)

// Position is the per-user, per-market aggregate exposure. Created
// lazily on a user's first fill in a market.
type Position struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	UserID   uint64 `gorm:"not null;uniqueIndex:idx_positions_user_market"`
	MarketID uint64 `gorm:"not null;uniqueIndex:idx_positions_user_market;index"`

	YesShares int64 `gorm:"not null;default:0"`
	NoShares  int64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Position) TableName() string {
	return "positions"
}
