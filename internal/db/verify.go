package db

import (
	"fmt"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	"gorm.io/gorm"
)

// Check is the outcome of one post-migration existence check.
type Check struct {
	Name string // Human-readable check name.
	OK   bool   // Whether the expected object exists.
}

// UserStats aggregates user rows after a migration.
type UserStats struct {
	TotalUsers       int64 // All user rows.
	UsersWithPlan    int64 // Rows with a non-null plan.
	UsersWithCredits int64 // Rows with a positive credit balance.
}

// Report is the result of post-migration verification.
type Report struct {
	Checks []Check
	Stats  UserStats
}

// AllPassed reports whether every existence check succeeded.
func (r Report) AllPassed() bool {
	for _, check := range r.Checks {
		if !check.OK {
			return false
		}
	}
	return true
}

// Verify runs the post-migration existence checks and the user statistics
// query. Individual check failures are recorded, not fatal; an error is only
// returned when the statistics query itself cannot run.
func Verify(conn *gorm.DB) (Report, error) {
	if conn == nil {
		return Report{}, fmt.Errorf("db: nil connection")
	}
	migrator := conn.Migrator()
	if migrator == nil {
		return Report{}, fmt.Errorf("db: nil migrator")
	}

	report := Report{
		Checks: []Check{
			{Name: "users.plan column", OK: migrator.HasColumn(&models.User{}, "plan")},
			{Name: "users.credits column", OK: migrator.HasColumn(&models.User{}, "credits")},
			{Name: "credit_transactions table", OK: migrator.HasTable(&models.CreditTransaction{})},
			{Name: "payments table", OK: migrator.HasTable(&models.Payment{})},
		},
	}

	if errStats := conn.Raw(`
		SELECT
			COUNT(*) AS total_users,
			COUNT(plan) AS users_with_plan,
			COALESCE(SUM(CASE WHEN credits > 0 THEN 1 ELSE 0 END), 0) AS users_with_credits
		FROM users
	`).Scan(&report.Stats).Error; errStats != nil {
		return report, fmt.Errorf("db: user statistics: %w", errStats)
	}

	return report, nil
}
