// Package payments tracks gateway checkout sessions and confirmed payments.
// Sessions only record state; talking to the gateways themselves is the
// caller's job.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SafeDevelopers/fantabuild-sub001/internal/credits"
	internaldb "github.com/SafeDevelopers/fantabuild-sub001/internal/db"
	"github.com/SafeDevelopers/fantabuild-sub001/internal/models"
	internalsettings "github.com/SafeDevelopers/fantabuild-sub001/internal/settings"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrInvalidTransition is returned when a session leaves pending twice.
var ErrInvalidTransition = errors.New("payments: session is not pending")

// ErrUnknownGateway is returned for gateways outside the supported set.
var ErrUnknownGateway = errors.New("payments: unknown gateway")

// Service manages checkout sessions and payment records backed by GORM.
type Service struct {
	db      *gorm.DB
	credits *credits.Service
}

// NewService constructs a Service.
func NewService(db *gorm.DB, creditSvc *credits.Service) *Service {
	return &Service{db: db, credits: creditSvc}
}

// CreateSessionParams holds inputs for checkout session creation.
type CreateSessionParams struct {
	UserID     uint64
	Gateway    models.PaymentGateway
	Amount     float64
	Currency   string
	CreationID *uint64
	Type       models.SessionType
	CreditQty  int // Credits granted when a onetime session completes.
	Metadata   datatypes.JSON
}

// CreateSession opens a pending checkout session with a fresh opaque ID and
// a globally unique order reference.
func (s *Service) CreateSession(ctx context.Context, params CreateSessionParams) (*models.PaymentSession, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("payments: not initialized")
	}
	if !validGateway(params.Gateway) {
		return nil, ErrUnknownGateway
	}
	if params.Type == "" {
		params.Type = models.SessionTypeOnetime
	}
	if params.Type != models.SessionTypeOnetime && params.Type != models.SessionTypeSubscription {
		return nil, fmt.Errorf("payments: unknown session type %q", params.Type)
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "ETB"
	}

	metadata := params.Metadata
	if params.CreditQty > 0 {
		withQty, errQty := withCreditQty(metadata, params.CreditQty)
		if errQty != nil {
			return nil, errQty
		}
		metadata = withQty
	}

	session := models.PaymentSession{
		ID:         uuid.NewString(),
		UserID:     params.UserID,
		Gateway:    params.Gateway,
		Amount:     params.Amount,
		Currency:   currency,
		OrderID:    newOrderID(params.Gateway),
		CreationID: params.CreationID,
		Type:       params.Type,
		Status:     models.SessionStatusPending,
		Metadata:   metadata,
	}
	if errCreate := s.db.WithContext(ctx).Create(&session).Error; errCreate != nil {
		return nil, fmt.Errorf("payments: create session: %w", errCreate)
	}
	return &session, nil
}

// CompleteSession confirms a pending session: it records the gateway
// transaction, inserts the payments row, and applies the purchase side
// effects (credit grant or PRO activation) in one transaction.
func (s *Service) CompleteSession(ctx context.Context, sessionID, transactionID string) (*models.PaymentSession, error) {
	var session models.PaymentSession

	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errFind := tx.First(&session, "id = ?", sessionID).Error; errFind != nil {
			return fmt.Errorf("payments: load session: %w", errFind)
		}
		if session.Status != models.SessionStatusPending {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		session.Status = models.SessionStatusCompleted
		session.TransactionID = strings.TrimSpace(transactionID)
		session.UpdatedAt = now
		if errSave := tx.Model(&models.PaymentSession{}).
			Where("id = ?", session.ID).
			Updates(map[string]any{
				"status":         session.Status,
				"transaction_id": session.TransactionID,
				"updated_at":     now,
			}).Error; errSave != nil {
			return fmt.Errorf("payments: complete session: %w", errSave)
		}

		payment := models.Payment{
			UserID:            session.UserID,
			Type:              paymentTypeForSession(session.Type),
			Amount:            session.Amount,
			Provider:          providerForGateway(session.Gateway),
			ProviderSessionID: session.ID,
			Status:            models.PaymentStatusCompleted,
			Metadata:          session.Metadata,
		}
		if errPayment := tx.Create(&payment).Error; errPayment != nil {
			return fmt.Errorf("payments: record payment: %w", errPayment)
		}

		if session.CreationID != nil {
			if errPurchased := tx.Model(&models.Creation{}).
				Where("id = ?", *session.CreationID).
				Update("purchased", true).Error; errPurchased != nil {
				return fmt.Errorf("payments: mark creation purchased: %w", errPurchased)
			}
		}

		return s.applyPurchase(tx, &session)
	})
	if errTx != nil {
		return nil, errTx
	}

	log.WithFields(log.Fields{
		"session_id": session.ID,
		"order_id":   session.OrderID,
		"gateway":    session.Gateway,
	}).Info("payment session completed")
	return &session, nil
}

// FailSession marks a pending session failed.
func (s *Service) FailSession(ctx context.Context, sessionID string) error {
	return s.closeSession(ctx, sessionID, models.SessionStatusFailed)
}

// CancelSession marks a pending session cancelled.
func (s *Service) CancelSession(ctx context.Context, sessionID string) error {
	return s.closeSession(ctx, sessionID, models.SessionStatusCancelled)
}

// closeSession transitions a pending session to a terminal state.
func (s *Service) closeSession(ctx context.Context, sessionID string, status models.SessionStatus) error {
	result := s.db.WithContext(ctx).Model(&models.PaymentSession{}).
		Where("id = ? AND status = ?", sessionID, models.SessionStatusPending).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("payments: close session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// RecordPayment validates and inserts a payment row directly, for payments
// that arrive outside the session flow (operator reconciliation, replayed
// gateway notifications). Zero status defaults to pending.
func (s *Service) RecordPayment(ctx context.Context, payment *models.Payment) error {
	if payment == nil {
		return fmt.Errorf("payments: nil payment")
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if errValidate := validatePayment(payment); errValidate != nil {
		return errValidate
	}
	if errCreate := s.db.WithContext(ctx).Create(payment).Error; errCreate != nil {
		return fmt.Errorf("payments: record payment: %w", errCreate)
	}
	return nil
}

// validatePayment checks the payment enums against the schema contract.
func validatePayment(payment *models.Payment) error {
	switch payment.Type {
	case models.PaymentTypeOneOff, models.PaymentTypeSubscription:
	default:
		return fmt.Errorf("payments: unknown payment type %q", payment.Type)
	}
	switch payment.Provider {
	case models.PaymentProviderStripe, models.PaymentProviderPayPal, models.PaymentProviderTelebirr, models.PaymentProviderCBE:
	default:
		return fmt.Errorf("payments: unknown provider %q", payment.Provider)
	}
	switch payment.Status {
	case models.PaymentStatusPending, models.PaymentStatusCompleted, models.PaymentStatusFailed,
		models.PaymentStatusCancelled, models.PaymentStatusRefunded:
	default:
		return fmt.Errorf("payments: unknown status %q", payment.Status)
	}
	return nil
}

// ListPayments returns a user's payments, newest first.
func (s *Service) ListPayments(ctx context.Context, userID uint64) ([]models.Payment, error) {
	var rows []models.Payment
	if errFind := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("payments: list: %w", errFind)
	}
	return rows, nil
}

// applyPurchase applies completion side effects inside the caller's tx.
func (s *Service) applyPurchase(tx *gorm.DB, session *models.PaymentSession) error {
	svc := credits.NewService(tx)

	switch session.Type {
	case models.SessionTypeOnetime:
		qty := creditQtyFromMetadata(session.Metadata)
		if qty <= 0 {
			return nil
		}
		return svc.Grant(context.Background(), session.UserID, qty, models.CreditReasonOneOffPurchase)
	case models.SessionTypeSubscription:
		now := time.Now().UTC()
		until := now.AddDate(0, 1, 0)
		if errPro := tx.Model(&models.User{}).
			Where("id = ?", session.UserID).
			Updates(map[string]any{
				"plan":                models.PlanPro,
				"subscription_status": "active",
				"pro_since":           now,
				"pro_until":           until,
			}).Error; errPro != nil {
			return fmt.Errorf("payments: activate pro: %w", errPro)
		}
		allotment := internaldb.IntSetting(tx, internalsettings.SubscriptionMonthlyCreditsKey, internalsettings.DefaultSubscriptionMonthlyCredits)
		if allotment <= 0 {
			return nil
		}
		return svc.Grant(context.Background(), session.UserID, allotment, models.CreditReasonSubscriptionMonthly)
	}
	return nil
}

// validGateway reports whether the gateway is in the supported set.
func validGateway(gateway models.PaymentGateway) bool {
	switch gateway {
	case models.GatewayStripe, models.GatewayTelebirr, models.GatewayCBE, models.GatewayMpesa, models.GatewayAmole:
		return true
	}
	return false
}

// providerForGateway maps a checkout gateway to the payments provider enum.
// M-Pesa and Amole settle through the Telebirr aggregator.
func providerForGateway(gateway models.PaymentGateway) models.PaymentProvider {
	switch gateway {
	case models.GatewayStripe:
		return models.PaymentProviderStripe
	case models.GatewayCBE:
		return models.PaymentProviderCBE
	default:
		return models.PaymentProviderTelebirr
	}
}

// paymentTypeForSession maps a session type to the payments type enum.
func paymentTypeForSession(t models.SessionType) models.PaymentType {
	if t == models.SessionTypeSubscription {
		return models.PaymentTypeSubscription
	}
	return models.PaymentTypeOneOff
}

// newOrderID builds a unique order reference for a gateway.
func newOrderID(gateway models.PaymentGateway) string {
	return fmt.Sprintf("%s-%d-%s", gateway, time.Now().UTC().Unix(), uuid.NewString()[:8])
}
