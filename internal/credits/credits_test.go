package credits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	internaldb "github.com/SafeDevelopers/fantabuild-sub001/internal/db"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	conn, errOpen := internaldb.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if errOpen != nil {
		t.Fatalf("open test database: %v", errOpen)
	}
	if errMigrate := internaldb.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewService(conn), conn
}

func TestCreateUserGrantsInitialCredits(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Email: "new@example.com", Password: "hash"}
	if errCreate := svc.CreateUser(ctx, &user); errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	if user.Credits != 3 {
		t.Fatalf("credits after create = %d, want 3", user.Credits)
	}

	rows, errLedger := svc.Ledger(ctx, user.ID)
	if errLedger != nil {
		t.Fatalf("ledger: %v", errLedger)
	}
	if len(rows) != 1 {
		t.Fatalf("ledger rows = %d, want 1", len(rows))
	}
	if rows[0].Reason != models.CreditReasonInitialFree || rows[0].Change != 3 {
		t.Fatalf("ledger row = %s/%d, want INITIAL_FREE/3", rows[0].Reason, rows[0].Change)
	}
}

func TestCreateUserNonFreePlanSkipsGrant(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Email: "pro@example.com", Password: "hash", Plan: models.PlanPro}
	if errCreate := svc.CreateUser(ctx, &user); errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	if user.Credits != 0 {
		t.Fatalf("credits after create = %d, want 0", user.Credits)
	}

	rows, errLedger := svc.Ledger(ctx, user.ID)
	if errLedger != nil {
		t.Fatalf("ledger: %v", errLedger)
	}
	if len(rows) != 0 {
		t.Fatalf("ledger rows = %d, want 0", len(rows))
	}
}

func TestCreateUserWithStartingCreditsSkipsGrant(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Email: "seeded@example.com", Password: "hash", Credits: 10}
	if errCreate := svc.CreateUser(ctx, &user); errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	if user.Credits != 10 {
		t.Fatalf("credits after create = %d, want 10", user.Credits)
	}
}

func TestSpendInsufficientBalance(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Email: "spender@example.com", Password: "hash"}
	if errCreate := svc.CreateUser(ctx, &user); errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	errSpend := svc.Spend(ctx, user.ID, 5, models.CreditReasonDownload)
	if !errors.Is(errSpend, ErrInsufficientCredits) {
		t.Fatalf("spend err = %v, want ErrInsufficientCredits", errSpend)
	}

	// The failed spend must leave no trace: same balance, no ledger row.
	balance, errBalance := svc.Balance(ctx, user.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 3 {
		t.Fatalf("balance after failed spend = %d, want 3", balance)
	}
	rows, errLedger := svc.Ledger(ctx, user.ID)
	if errLedger != nil {
		t.Fatalf("ledger: %v", errLedger)
	}
	if len(rows) != 1 {
		t.Fatalf("ledger rows after failed spend = %d, want 1", len(rows))
	}
}

func TestSpendAndReconcile(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	user := models.User{Email: "downloader@example.com", Password: "hash"}
	if errCreate := svc.CreateUser(ctx, &user); errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}

	if errSpend := svc.Spend(ctx, user.ID, 1, models.CreditReasonDownload); errSpend != nil {
		t.Fatalf("spend: %v", errSpend)
	}

	balance, ledgerSum, errReconcile := svc.Reconcile(ctx, user.ID)
	if errReconcile != nil {
		t.Fatalf("reconcile: %v", errReconcile)
	}
	if balance != 2 {
		t.Fatalf("balance = %d, want 2", balance)
	}
	if ledgerSum != int64(balance) {
		t.Fatalf("ledger sum = %d, balance = %d; want equal", ledgerSum, balance)
	}
}

func TestGrantAndSpendAmountValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if errGrant := svc.Grant(ctx, 1, 0, models.CreditReasonOneOffPurchase); !errors.Is(errGrant, ErrInvalidAmount) {
		t.Fatalf("grant(0) err = %v, want ErrInvalidAmount", errGrant)
	}
	if errSpend := svc.Spend(ctx, 1, -1, models.CreditReasonDownload); !errors.Is(errSpend, ErrInvalidAmount) {
		t.Fatalf("spend(-1) err = %v, want ErrInvalidAmount", errSpend)
	}
}

func TestGrantUnknownUser(t *testing.T) {
	svc, _ := setupService(t)

	errGrant := svc.Grant(context.Background(), 9999, 5, models.CreditReasonOneOffPurchase)
	if !errors.Is(errGrant, gorm.ErrRecordNotFound) {
		t.Fatalf("grant unknown user err = %v, want record not found", errGrant)
	}
}
