package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentType identifies the purchase model of a payment.
type PaymentType string

// PaymentType constants define the purchase models.
const (
	// PaymentTypeOneOff is a single pay-per-use purchase.
	PaymentTypeOneOff PaymentType = "ONE_OFF"
	// PaymentTypeSubscription is a recurring subscription charge.
	PaymentTypeSubscription PaymentType = "SUBSCRIPTION"
)

// PaymentProvider identifies the upstream payment processor.
type PaymentProvider string

// PaymentProvider constants define the supported processors.
const (
	// PaymentProviderStripe processes card payments via Stripe.
	PaymentProviderStripe PaymentProvider = "stripe"
	// PaymentProviderPayPal processes payments via PayPal.
	PaymentProviderPayPal PaymentProvider = "paypal"
	// PaymentProviderTelebirr processes payments via Telebirr.
	PaymentProviderTelebirr PaymentProvider = "telebirr"
	// PaymentProviderCBE processes payments via CBE Birr.
	PaymentProviderCBE PaymentProvider = "cbe"
)

// PaymentStatus identifies the lifecycle state of a payment.
type PaymentStatus string

// PaymentStatus constants define the payment lifecycle states.
const (
	// PaymentStatusPending marks a payment awaiting confirmation.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusCompleted marks a confirmed payment.
	PaymentStatusCompleted PaymentStatus = "completed"
	// PaymentStatusFailed marks a failed payment.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusCancelled marks a cancelled payment.
	PaymentStatusCancelled PaymentStatus = "cancelled"
	// PaymentStatusRefunded marks a refunded payment.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment records a completed or attempted purchase.
type Payment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`                                // Related user ID.
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Related user record.

	Type PaymentType `gorm:"type:text;not null;check:type IN ('ONE_OFF','SUBSCRIPTION')"` // Purchase model.

	Amount float64 `gorm:"type:decimal(10,2);not null;default:0"` // Charged amount.

	Provider          PaymentProvider `gorm:"type:text;not null;check:provider IN ('stripe','paypal','telebirr','cbe')"` // Upstream processor.
	ProviderSessionID string          `gorm:"type:text;index"`                                                           // Processor-side session reference.

	Status PaymentStatus `gorm:"type:text;not null;default:'pending';check:status IN ('pending','completed','failed','cancelled','refunded')"` // Lifecycle state.

	Metadata datatypes.JSON `gorm:"type:jsonb"` // Processor payload snapshot.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
