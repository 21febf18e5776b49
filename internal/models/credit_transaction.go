package models

import "time"

// CreditReason identifies why a credit balance changed.
type CreditReason string

// CreditReason constants define the ledger entry causes.
const (
	// CreditReasonInitialFree is the one-time free grant for new accounts.
	CreditReasonInitialFree CreditReason = "INITIAL_FREE"
	// CreditReasonDownload charges a credit for downloading a creation.
	CreditReasonDownload CreditReason = "DOWNLOAD"
	// CreditReasonOneOffPurchase credits a pay-per-use purchase.
	CreditReasonOneOffPurchase CreditReason = "ONE_OFF_PURCHASE"
	// CreditReasonSubscriptionMonthly credits the monthly PRO allotment.
	CreditReasonSubscriptionMonthly CreditReason = "SUBSCRIPTION_MONTHLY"
)

// CreditTransaction is an append-only ledger entry recording a balance change.
// Rows are never updated or deleted; the ledger is the audit trail for
// users.credits.
type CreditTransaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Related user ID.
	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Related user record.

	Change int `gorm:"not null"` // Signed balance delta.

	Reason CreditReason `gorm:"type:text;not null;check:reason IN ('INITIAL_FREE','DOWNLOAD','ONE_OFF_PURCHASE','SUBSCRIPTION_MONTHLY')"` // Cause of the change.

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Entry timestamp.
}
