// Package credits owns every change to a user's credit balance. Each balance
// change and its ledger entry are committed in one transaction so a crash
// can never leave the two inconsistent.
package credits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	internaldb "github.com/SafeDevelopers/fantabuild-sub001/internal/db"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	internalsettings "github.com/SafeDevelopers/fantabuild-sub001/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrInsufficientCredits is returned when a spend exceeds the balance.
var ErrInsufficientCredits = errors.New("credits: insufficient balance")

// ErrInvalidAmount is returned for non-positive spend or grant amounts.
var ErrInvalidAmount = errors.New("credits: amount must be positive")

// Service performs credit balance operations backed by GORM.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateUser inserts a new account. When the account starts on the FREE plan
// with zero credits, the initial grant and its INITIAL_FREE ledger row are
// written in the same transaction as the insert, so no user ever exists
// without a matching grant entry. Callers that set nonzero starting credits
// or a non-FREE plan bypass the grant.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("credits: not initialized")
	}
	if user == nil {
		return fmt.Errorf("credits: nil user")
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("credits: missing email")
	}
	if user.Plan == "" {
		user.Plan = models.PlanFree
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(user).Error; errCreate != nil {
			return fmt.Errorf("credits: create user: %w", errCreate)
		}

		if user.Credits != 0 || user.Plan != models.PlanFree {
			return nil
		}

		grant := internaldb.IntSetting(tx, internalsettings.InitialFreeCreditsKey, internalsettings.DefaultInitialFreeCredits)
		if grant <= 0 {
			return nil
		}

		if errUpdate := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("credits", grant).Error; errUpdate != nil {
			return fmt.Errorf("credits: grant initial credits: %w", errUpdate)
		}
		user.Credits = grant

		entry := models.CreditTransaction{
			UserID: user.ID,
			Change: grant,
			Reason: models.CreditReasonInitialFree,
		}
		if errLedger := tx.Create(&entry).Error; errLedger != nil {
			return fmt.Errorf("credits: initial ledger entry: %w", errLedger)
		}

		log.WithFields(log.Fields{"user_id": user.ID, "credits": grant}).
			Debug("granted initial free credits")
		return nil
	})
}

// Spend atomically decrements the balance and appends a negative ledger row.
// The guarded UPDATE fails the transaction without side effects when the
// balance is insufficient.
func (s *Service) Spend(ctx context.Context, userID uint64, amount int, reason models.CreditReason) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if reason == "" {
		reason = models.CreditReasonDownload
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ? AND credits >= ?", userID, amount).
			Update("credits", gorm.Expr("credits - ?", amount))
		if result.Error != nil {
			return fmt.Errorf("credits: spend: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrInsufficientCredits
		}

		entry := models.CreditTransaction{
			UserID: userID,
			Change: -amount,
			Reason: reason,
		}
		if errLedger := tx.Create(&entry).Error; errLedger != nil {
			return fmt.Errorf("credits: spend ledger entry: %w", errLedger)
		}
		return nil
	})
}

// Grant atomically increments the balance and appends a positive ledger row.
func (s *Service) Grant(ctx context.Context, userID uint64, amount int, reason models.CreditReason) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", amount))
		if result.Error != nil {
			return fmt.Errorf("credits: grant: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		entry := models.CreditTransaction{
			UserID: userID,
			Change: amount,
			Reason: reason,
		}
		if errLedger := tx.Create(&entry).Error; errLedger != nil {
			return fmt.Errorf("credits: grant ledger entry: %w", errLedger)
		}
		return nil
	})
}

// Balance returns the stored credit balance for a user.
func (s *Service) Balance(ctx context.Context, userID uint64) (int, error) {
	var user models.User
	if errFind := s.db.WithContext(ctx).Select("credits").First(&user, userID).Error; errFind != nil {
		return 0, fmt.Errorf("credits: balance: %w", errFind)
	}
	return user.Credits, nil
}

// Ledger returns a user's ledger entries, newest first.
func (s *Service) Ledger(ctx context.Context, userID uint64) ([]models.CreditTransaction, error) {
	var rows []models.CreditTransaction
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("credits: ledger: %w", errFind)
	}
	return rows, nil
}

// Reconcile returns the stored balance and the ledger sum for a user. The
// two agree whenever every balance change went through this service.
func (s *Service) Reconcile(ctx context.Context, userID uint64) (balance int, ledgerSum int64, err error) {
	balance, err = s.Balance(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	var sum struct {
		Total int64
	}
	if errSum := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(change), 0) AS total
		FROM credit_transactions
		WHERE user_id = ?
	`, userID).Scan(&sum).Error; errSum != nil {
		return 0, 0, fmt.Errorf("credits: reconcile: %w", errSum)
	}
	return balance, sum.Total, nil
}
