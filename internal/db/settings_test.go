package db

import (
	"encoding/json"
	"testing"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
)

func TestEnsureIntSettingRoundTrip(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate settings table: %v", errMigrate)
	}

	if errEnsure := ensureIntSetting(conn, "TEST_LIMIT", 7); errEnsure != nil {
		t.Fatalf("ensure setting: %v", errEnsure)
	}
	if got := IntSetting(conn, "TEST_LIMIT", -1); got != 7 {
		t.Fatalf("IntSetting = %d, want 7", got)
	}

	// Re-running must neither error nor clobber the stored value.
	if errEnsure := ensureIntSetting(conn, "TEST_LIMIT", 99); errEnsure != nil {
		t.Fatalf("re-ensure setting: %v", errEnsure)
	}
	if got := IntSetting(conn, "TEST_LIMIT", -1); got != 7 {
		t.Fatalf("IntSetting after re-ensure = %d, want 7", got)
	}
}

func TestEnsureIntSettingFillsEmptyValue(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate settings table: %v", errMigrate)
	}

	blank := models.Setting{Key: "BLANK_LIMIT", Value: json.RawMessage("null")}
	if errCreate := conn.Create(&blank).Error; errCreate != nil {
		t.Fatalf("create blank setting: %v", errCreate)
	}

	if errEnsure := ensureIntSetting(conn, "BLANK_LIMIT", 4); errEnsure != nil {
		t.Fatalf("ensure setting: %v", errEnsure)
	}
	if got := IntSetting(conn, "BLANK_LIMIT", -1); got != 4 {
		t.Fatalf("IntSetting = %d, want 4", got)
	}
}

func TestTypedSettingGetters(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate settings table: %v", errMigrate)
	}

	rows := []models.Setting{
		{Key: "FLAG", Value: json.RawMessage("true")},
		{Key: "PREFIX", Value: json.RawMessage(`"fb:test"`)},
	}
	for _, row := range rows {
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			t.Fatalf("create setting %s: %v", row.Key, errCreate)
		}
	}

	if !BoolSetting(conn, "FLAG", false) {
		t.Error("BoolSetting(FLAG) = false, want true")
	}
	if got := StringSetting(conn, "PREFIX", ""); got != "fb:test" {
		t.Errorf("StringSetting(PREFIX) = %q, want fb:test", got)
	}
	if BoolSetting(conn, "ABSENT", false) {
		t.Error("BoolSetting(ABSENT) = true, want fallback false")
	}
	if got := StringSetting(conn, "ABSENT", "dflt"); got != "dflt" {
		t.Errorf("StringSetting(ABSENT) = %q, want dflt", got)
	}
}
