package models

import (
	"encoding/json"
	"time"
)

// Setting stores a key-value configuration entry as JSON.
type Setting struct {
	Key   string          `gorm:"type:text;primaryKey"` // Setting key.
	Value json.RawMessage `gorm:"type:jsonb"`           // JSON-encoded value.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
