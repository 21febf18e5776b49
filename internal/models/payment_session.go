package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentGateway identifies the checkout gateway handling a session.
type PaymentGateway string

// PaymentGateway constants define the supported checkout gateways.
const (
	// GatewayStripe is the Stripe hosted checkout.
	GatewayStripe PaymentGateway = "stripe"
	// GatewayTelebirr is the Telebirr mobile wallet.
	GatewayTelebirr PaymentGateway = "telebirr"
	// GatewayCBE is the CBE Birr wallet.
	GatewayCBE PaymentGateway = "cbe"
	// GatewayMpesa is the M-Pesa wallet.
	GatewayMpesa PaymentGateway = "mpesa"
	// GatewayAmole is the Amole wallet.
	GatewayAmole PaymentGateway = "amole"
)

// SessionType identifies the purchase model of a checkout session.
type SessionType string

// SessionType constants define the session purchase models.
const (
	// SessionTypeOnetime is a single purchase checkout.
	SessionTypeOnetime SessionType = "onetime"
	// SessionTypeSubscription is a subscription checkout.
	SessionTypeSubscription SessionType = "subscription"
)

// SessionStatus identifies the lifecycle state of a checkout session.
type SessionStatus string

// SessionStatus constants define the session lifecycle states.
const (
	// SessionStatusPending marks a session awaiting gateway confirmation.
	SessionStatusPending SessionStatus = "pending"
	// SessionStatusCompleted marks a confirmed session.
	SessionStatusCompleted SessionStatus = "completed"
	// SessionStatusFailed marks a failed session.
	SessionStatusFailed SessionStatus = "failed"
	// SessionStatusCancelled marks a cancelled session.
	SessionStatusCancelled SessionStatus = "cancelled"
)

// PaymentSession tracks a gateway-specific checkout flow before payment
// confirmation arrives.
type PaymentSession struct {
	ID string `gorm:"type:text;primaryKey"` // Opaque session identifier.

	UserID uint64 `gorm:"not null;index"`                                // Related user ID.
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Related user record.

	Gateway PaymentGateway `gorm:"type:text;not null;check:gateway IN ('stripe','telebirr','cbe','mpesa','amole')"` // Checkout gateway.

	Amount   float64 `gorm:"type:decimal(10,2);not null;default:0"`  // Checkout amount.
	Currency string  `gorm:"type:text;not null;default:'ETB'"`       // ISO currency code.

	OrderID string `gorm:"type:text;not null;uniqueIndex"` // Globally unique order reference.

	CreationID *uint64   `gorm:"index"`                                             // Optional purchased creation ID.
	Creation   *Creation `gorm:"foreignKey:CreationID;constraint:OnDelete:SET NULL"` // Optional purchased creation.

	Type SessionType `gorm:"type:text;not null;default:'onetime';check:type IN ('onetime','subscription')"` // Purchase model.

	Status SessionStatus `gorm:"type:text;not null;default:'pending';check:status IN ('pending','completed','failed','cancelled')"` // Lifecycle state.

	TransactionID string `gorm:"type:text"` // Gateway transaction reference.

	Metadata datatypes.JSON `gorm:"type:jsonb"` // Gateway payload snapshot.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
