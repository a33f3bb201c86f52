package models

import (
	"time"

	"gorm.io/datatypes"
)

type MarketStatus string

const (
	MarketActive    MarketStatus = "ACTIVE"
	MarketSuspended MarketStatus = "SUSPENDED"
	MarketSettled   MarketStatus = "SETTLED"
)

type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

func (o Outcome) Valid() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// Market is one binary-outcome book. Orders are accepted only while
// ACTIVE; SETTLED is terminal.
type Market struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	EventID  uint64 `gorm:"not null;index"`
	Question string `gorm:"type:text;not null"`

	Status         MarketStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	WinningOutcome *Outcome     `gorm:"type:varchar(10)"`
	SettledAt      *time.Time   `gorm:"type:timestamptz"`

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Market) TableName() string {
	return "markets"
}
