package models

import (
	"time"
)

// Event groups the binary markets that resolve on the same real-world
// question.
type Event struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`

	EndTime *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}
