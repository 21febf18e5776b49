package db

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, errOpen := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if errOpen != nil {
		t.Fatalf("open test database: %v", errOpen)
	}
	return conn
}

func TestMigrateIdempotent(t *testing.T) {
	conn := openTestDB(t)

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("first migrate: %v", errMigrate)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("second migrate: %v", errMigrate)
	}

	migrator := conn.Migrator()
	for _, column := range []string{"role", "plan", "credits", "pro_since", "pro_until", "daily_usage_count", "last_reset_date"} {
		if !migrator.HasColumn(&models.User{}, column) {
			t.Errorf("users.%s column missing after migrate", column)
		}
	}
}

func TestMigrateBackfillsLegacyUsers(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	// A row created before the credits system: zero balance, no ledger.
	if errInsert := conn.Exec(`
		INSERT INTO users (email, password, role, plan, credits, daily_usage_count, created_at, updated_at)
		VALUES ('legacy@example.com', 'x', 'user', 'FREE', 0, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`).Error; errInsert != nil {
		t.Fatalf("insert legacy user: %v", errInsert)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("re-migrate: %v", errMigrate)
	}

	var user models.User
	if errFind := conn.Where("email = ?", "legacy@example.com").First(&user).Error; errFind != nil {
		t.Fatalf("load legacy user: %v", errFind)
	}
	if user.Credits != 3 {
		t.Fatalf("legacy user credits = %d, want 3", user.Credits)
	}

	var ledgerCount int64
	if errCount := conn.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND reason = ?", user.ID, models.CreditReasonInitialFree).
		Count(&ledgerCount).Error; errCount != nil {
		t.Fatalf("count ledger rows: %v", errCount)
	}
	if ledgerCount != 1 {
		t.Fatalf("INITIAL_FREE ledger rows = %d, want 1", ledgerCount)
	}

	// Re-running the backfill must not duplicate the compensating entry.
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("third migrate: %v", errMigrate)
	}
	if errCount := conn.Model(&models.CreditTransaction{}).
		Where("user_id = ? AND reason = ?", user.ID, models.CreditReasonInitialFree).
		Count(&ledgerCount).Error; errCount != nil {
		t.Fatalf("recount ledger rows: %v", errCount)
	}
	if ledgerCount != 1 {
		t.Fatalf("INITIAL_FREE ledger rows after re-run = %d, want 1", ledgerCount)
	}
}

func TestMigrateLeavesSpentDownUsersAlone(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	// A user who received the grant and legitimately spent down to zero.
	user := models.User{Email: "spent@example.com", Password: "x", Credits: 0}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	ledger := []models.CreditTransaction{
		{UserID: user.ID, Change: 3, Reason: models.CreditReasonInitialFree},
		{UserID: user.ID, Change: -3, Reason: models.CreditReasonDownload},
	}
	for i := range ledger {
		if errCreate := conn.Create(&ledger[i]).Error; errCreate != nil {
			t.Fatalf("create ledger row %d: %v", i, errCreate)
		}
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("re-migrate: %v", errMigrate)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("load user: %v", errFind)
	}
	if reloaded.Credits != 0 {
		t.Fatalf("credits after re-migrate = %d, want 0", reloaded.Credits)
	}
	var ledgerCount int64
	if errCount := conn.Model(&models.CreditTransaction{}).
		Where("user_id = ?", user.ID).Count(&ledgerCount).Error; errCount != nil {
		t.Fatalf("count ledger rows: %v", errCount)
	}
	if ledgerCount != 2 {
		t.Fatalf("ledger rows after re-migrate = %d, want 2", ledgerCount)
	}
}

func TestMigrateSeedsSettings(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	if got := IntSetting(conn, "INITIAL_FREE_CREDITS", -1); got != 3 {
		t.Errorf("INITIAL_FREE_CREDITS = %d, want 3", got)
	}
	if got := IntSetting(conn, "SUBSCRIPTION_MONTHLY_CREDITS", -1); got != 50 {
		t.Errorf("SUBSCRIPTION_MONTHLY_CREDITS = %d, want 50", got)
	}
	if got := IntSetting(conn, "FREE_DAILY_USAGE_LIMIT", -1); got != 5 {
		t.Errorf("FREE_DAILY_USAGE_LIMIT = %d, want 5", got)
	}
	if got := IntSetting(conn, "MISSING_KEY", 42); got != 42 {
		t.Errorf("missing setting fallback = %d, want 42", got)
	}
}

func TestVerifyAfterMigrate(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	user := models.User{Email: "verify@example.com", Password: "x", Credits: 3}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	report, errVerify := Verify(conn)
	if errVerify != nil {
		t.Fatalf("verify: %v", errVerify)
	}
	if !report.AllPassed() {
		for _, check := range report.Checks {
			if !check.OK {
				t.Errorf("check failed: %s", check.Name)
			}
		}
	}
	if report.Stats.TotalUsers != 1 {
		t.Errorf("total users = %d, want 1", report.Stats.TotalUsers)
	}
	if report.Stats.UsersWithCredits != 1 {
		t.Errorf("users with credits = %d, want 1", report.Stats.UsersWithCredits)
	}
}

func TestOrderIDUniqueIndex(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	user := models.User{Email: "orders@example.com", Password: "x"}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	first := models.PaymentSession{
		ID:      "sess-1",
		UserID:  user.ID,
		Gateway: models.GatewayTelebirr,
		OrderID: "telebirr-0001",
		Type:    models.SessionTypeOnetime,
		Status:  models.SessionStatusPending,
	}
	if errCreate := conn.Create(&first).Error; errCreate != nil {
		t.Fatalf("create first session: %v", errCreate)
	}

	duplicate := models.PaymentSession{
		ID:      "sess-2",
		UserID:  user.ID,
		Gateway: models.GatewayTelebirr,
		OrderID: "telebirr-0001",
		Type:    models.SessionTypeOnetime,
		Status:  models.SessionStatusPending,
	}
	if errCreate := conn.Create(&duplicate).Error; errCreate == nil {
		t.Fatal("duplicate order_id accepted, want unique violation")
	}
}

func TestDeleteCascadesAndDetaches(t *testing.T) {
	conn := openTestDB(t)
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	user := models.User{Email: "cascade@example.com", Password: "x"}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	creation := models.Creation{UserID: user.ID, Name: "landing page"}
	if errCreate := conn.Create(&creation).Error; errCreate != nil {
		t.Fatalf("create creation: %v", errCreate)
	}
	entry := models.CreditTransaction{UserID: user.ID, Change: 3, Reason: models.CreditReasonInitialFree}
	if errCreate := conn.Create(&entry).Error; errCreate != nil {
		t.Fatalf("create ledger entry: %v", errCreate)
	}
	session := models.PaymentSession{
		ID:         "sess-cascade",
		UserID:     user.ID,
		Gateway:    models.GatewayStripe,
		OrderID:    "stripe-0001",
		CreationID: &creation.ID,
		Type:       models.SessionTypeOnetime,
		Status:     models.SessionStatusPending,
	}
	if errCreate := conn.Create(&session).Error; errCreate != nil {
		t.Fatalf("create session: %v", errCreate)
	}

	// Deleting the creation detaches the session instead of removing it.
	if errDelete := conn.Exec(`DELETE FROM creations WHERE id = ?`, creation.ID).Error; errDelete != nil {
		t.Fatalf("delete creation: %v", errDelete)
	}
	var detached models.PaymentSession
	if errFind := conn.First(&detached, "id = ?", session.ID).Error; errFind != nil {
		t.Fatalf("load session after creation delete: %v", errFind)
	}
	if detached.CreationID != nil {
		t.Fatalf("session creation_id = %v, want NULL", *detached.CreationID)
	}

	// Deleting the user removes every dependent row.
	if errDelete := conn.Exec(`DELETE FROM users WHERE id = ?`, user.ID).Error; errDelete != nil {
		t.Fatalf("delete user: %v", errDelete)
	}
	if errFind := conn.First(&models.PaymentSession{}, "id = ?", session.ID).Error; !errors.Is(errFind, gorm.ErrRecordNotFound) {
		t.Fatalf("session after user delete: err = %v, want record not found", errFind)
	}
	var ledgerCount int64
	if errCount := conn.Model(&models.CreditTransaction{}).
		Where("user_id = ?", user.ID).Count(&ledgerCount).Error; errCount != nil {
		t.Fatalf("count ledger rows: %v", errCount)
	}
	if ledgerCount != 0 {
		t.Fatalf("ledger rows after user delete = %d, want 0", ledgerCount)
	}
}
