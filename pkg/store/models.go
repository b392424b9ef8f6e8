package store

import (
	"time"

	"gorm.io/datatypes"
)

// SessionEntryModel is one key of the persisted session.
type SessionEntryModel struct {
	Key       string         `gorm:"column:entry_key;primaryKey"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (SessionEntryModel) TableName() string { return "session_entries" }
