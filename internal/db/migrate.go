package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	internalsettings "github.com/SafeDevelopers/fantabuild-sub001/internal/settings"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect. Every step is
// safe to re-run: column additions and index creation are existence-guarded,
// and the credits backfill only inserts compensating ledger rows for users
// without one.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// allModels lists every persisted model in dependency order.
func allModels() []any {
	return []any{
		&models.User{},
		&models.Creation{},
		&models.CreditTransaction{},
		&models.Payment{},
		&models.PaymentSession{},
		&models.Setting{},
	}
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(allModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// Role column migration for databases created before roles existed.
	if errRoleAdd := conn.Exec(`
		ALTER TABLE users
		ADD COLUMN IF NOT EXISTS role text NOT NULL DEFAULT 'user'
	`).Error; errRoleAdd != nil {
		return fmt.Errorf("db: add user role: %w", errRoleAdd)
	}

	// Credits columns for databases created before the credits system.
	creditColumns := []struct {
		name string // Column name for error reporting.
		sql  string // Guarded ALTER statement.
	}{
		{"plan", `ALTER TABLE users ADD COLUMN IF NOT EXISTS plan text NOT NULL DEFAULT 'FREE'`},
		{"credits", `ALTER TABLE users ADD COLUMN IF NOT EXISTS credits integer NOT NULL DEFAULT 0`},
		{"pro_since", `ALTER TABLE users ADD COLUMN IF NOT EXISTS pro_since timestamptz`},
		{"pro_until", `ALTER TABLE users ADD COLUMN IF NOT EXISTS pro_until timestamptz`},
		{"daily_usage_count", `ALTER TABLE users ADD COLUMN IF NOT EXISTS daily_usage_count integer NOT NULL DEFAULT 0`},
		{"last_reset_date", `ALTER TABLE users ADD COLUMN IF NOT EXISTS last_reset_date timestamptz`},
	}
	for _, col := range creditColumns {
		if errAdd := conn.Exec(col.sql).Error; errAdd != nil {
			return fmt.Errorf("db: add user %s: %w", col.name, errAdd)
		}
	}

	if errBackfill := backfillInitialCredits(conn); errBackfill != nil {
		return errBackfill
	}
	if errSeed := ensureCreditSettings(conn); errSeed != nil {
		return errSeed
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_payment_sessions_order_id",
			sql: `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_sessions_order_id
				ON payment_sessions (order_id)
			`,
		},
		{
			name: "idx_creations_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_creations_user_id_created_at
				ON creations (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_credit_transactions_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_credit_transactions_user_id_created_at
				ON credit_transactions (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_payments_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_payments_user_id_created_at
				ON payments (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_payments_status_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_payments_status_created_at
				ON payments (status, created_at DESC)
			`,
		},
		{
			name: "idx_payment_sessions_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_payment_sessions_user_id_created_at
				ON payment_sessions (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_payment_sessions_status",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_payment_sessions_status
				ON payment_sessions (status)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(allModels()...); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	// SQLite has no ADD COLUMN IF NOT EXISTS; guard via the migrator.
	migrator := conn.Migrator()
	if migrator == nil {
		return fmt.Errorf("db: nil migrator")
	}
	guardedColumns := []struct {
		name string // Column name to check.
		sql  string // ALTER statement when absent.
	}{
		{"role", `ALTER TABLE users ADD COLUMN role text NOT NULL DEFAULT 'user'`},
		{"plan", `ALTER TABLE users ADD COLUMN plan text NOT NULL DEFAULT 'FREE'`},
		{"credits", `ALTER TABLE users ADD COLUMN credits integer NOT NULL DEFAULT 0`},
		{"pro_since", `ALTER TABLE users ADD COLUMN pro_since datetime`},
		{"pro_until", `ALTER TABLE users ADD COLUMN pro_until datetime`},
		{"daily_usage_count", `ALTER TABLE users ADD COLUMN daily_usage_count integer NOT NULL DEFAULT 0`},
		{"last_reset_date", `ALTER TABLE users ADD COLUMN last_reset_date datetime`},
	}
	for _, col := range guardedColumns {
		if migrator.HasColumn(&models.User{}, col.name) {
			continue
		}
		if errAdd := conn.Exec(col.sql).Error; errAdd != nil {
			return fmt.Errorf("db: add user %s: %w", col.name, errAdd)
		}
	}

	if errBackfill := backfillInitialCredits(conn); errBackfill != nil {
		return errBackfill
	}
	if errSeed := ensureCreditSettings(conn); errSeed != nil {
		return errSeed
	}

	// ddl defines an index or DDL statement to apply.
	type ddl struct {
		name string // Human-readable name for error reporting.
		sql  string // SQL to execute.
	}
	ddls := []ddl{
		{
			name: "idx_payment_sessions_order_id",
			sql: `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_sessions_order_id
				ON payment_sessions (order_id)
			`,
		},
		{
			name: "idx_creations_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_creations_user_id_created_at
				ON creations (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_credit_transactions_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_credit_transactions_user_id_created_at
				ON credit_transactions (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_payments_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_payments_user_id_created_at
				ON payments (user_id, created_at DESC)
			`,
		},
		{
			name: "idx_payment_sessions_user_id_created_at",
			sql: `
				CREATE INDEX IF NOT EXISTS idx_payment_sessions_user_id_created_at
				ON payment_sessions (user_id, created_at DESC)
			`,
		},
	}
	for _, item := range ddls {
		if errDDL := conn.Exec(item.sql).Error; errDDL != nil {
			return fmt.Errorf("db: create index %s: %w", item.name, errDDL)
		}
	}

	return nil
}

// backfillInitialCredits retrofits the free grant onto users created before
// the credits system existed. Pre-credits rows are the ones with a zero
// balance and no ledger history at all; a user who spent down to zero has
// ledger rows and must not be topped back up. The compensating ledger insert
// keys on credits = 3 without an INITIAL_FREE row, matching the production
// migration; re-running inserts nothing.
func backfillInitialCredits(conn *gorm.DB) error {
	if errUpdate := conn.Exec(`
		UPDATE users
		SET plan = 'FREE', credits = ?
		WHERE credits = 0
		AND NOT EXISTS (
			SELECT 1 FROM credit_transactions ct WHERE ct.user_id = users.id
		)
	`, internalsettings.DefaultInitialFreeCredits).Error; errUpdate != nil {
		return fmt.Errorf("db: backfill user credits: %w", errUpdate)
	}

	if errInsert := conn.Exec(`
		INSERT INTO credit_transactions (user_id, change, reason, created_at)
		SELECT u.id, ?, 'INITIAL_FREE', CURRENT_TIMESTAMP
		FROM users u
		WHERE u.credits = ?
		AND NOT EXISTS (
			SELECT 1 FROM credit_transactions ct
			WHERE ct.user_id = u.id AND ct.reason = 'INITIAL_FREE'
		)
	`, internalsettings.DefaultInitialFreeCredits, internalsettings.DefaultInitialFreeCredits).Error; errInsert != nil {
		return fmt.Errorf("db: backfill credit ledger: %w", errInsert)
	}

	return nil
}

// ensureCreditSettings seeds the credit and usage tunables.
func ensureCreditSettings(conn *gorm.DB) error {
	if errEnsure := ensureIntSetting(
		conn,
		internalsettings.InitialFreeCreditsKey,
		internalsettings.DefaultInitialFreeCredits,
	); errEnsure != nil {
		return errEnsure
	}
	if errEnsure := ensureIntSetting(
		conn,
		internalsettings.SubscriptionMonthlyCreditsKey,
		internalsettings.DefaultSubscriptionMonthlyCredits,
	); errEnsure != nil {
		return errEnsure
	}
	return ensureIntSetting(
		conn,
		internalsettings.FreeDailyUsageLimitKey,
		internalsettings.DefaultFreeDailyUsageLimit,
	)
}

// ensureIntSetting ensures an integer setting exists and defaults when empty.
func ensureIntSetting(conn *gorm.DB, key string, value int) error {
	payload, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("db: marshal %s setting: %w", key, errMarshal)
	}
	rawValue := json.RawMessage(payload)

	var existing models.Setting
	if errFind := conn.Where("key = ?", key).First(&existing).Error; errFind == nil {
		trimmed := strings.TrimSpace(string(existing.Value))
		if len(existing.Value) == 0 || trimmed == "" || trimmed == "null" {
			if errUpdate := conn.Model(&existing).Updates(map[string]any{
				"value":      rawValue,
				"updated_at": time.Now().UTC(),
			}).Error; errUpdate != nil {
				return fmt.Errorf("db: update %s setting: %w", key, errUpdate)
			}
		}
		return nil
	} else if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: query %s setting: %w", key, errFind)
	}

	now := time.Now().UTC()
	setting := models.Setting{
		Key:       key,
		Value:     rawValue,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&setting).Error; errCreate != nil {
		return fmt.Errorf("db: create %s setting: %w", key, errCreate)
	}
	return nil
}
