package db

import (
	"encoding/json"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	"gorm.io/gorm"
)

// IntSetting reads an integer setting, falling back when missing or invalid.
func IntSetting(conn *gorm.DB, key string, fallback int) int {
	var value int
	if !readSetting(conn, key, &value) {
		return fallback
	}
	return value
}

// BoolSetting reads a boolean setting, falling back when missing or invalid.
func BoolSetting(conn *gorm.DB, key string, fallback bool) bool {
	var value bool
	if !readSetting(conn, key, &value) {
		return fallback
	}
	return value
}

// StringSetting reads a string setting, falling back when missing or invalid.
func StringSetting(conn *gorm.DB, key, fallback string) string {
	var value string
	if !readSetting(conn, key, &value) {
		return fallback
	}
	return value
}

func readSetting(conn *gorm.DB, key string, out any) bool {
	var setting models.Setting
	if errFind := conn.Where("key = ?", key).First(&setting).Error; errFind != nil {
		return false
	}
	if len(setting.Value) == 0 {
		return false
	}
	return json.Unmarshal(setting.Value, out) == nil
}
