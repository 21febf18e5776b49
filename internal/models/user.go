package models

import "time"

// Plan identifies a user's subscription tier.
type Plan string

// Plan constants define the subscription tiers.
const (
	// PlanFree is the default tier with a one-time free credit grant.
	PlanFree Plan = "FREE"
	// PlanPayPerUse buys credits one-off.
	PlanPayPerUse Plan = "PAY_PER_USE"
	// PlanPro holds an active monthly subscription.
	PlanPro Plan = "PRO"
)

// Role identifies a user's access level.
type Role string

// Role constants define the access levels.
const (
	// RoleUser is a regular account.
	RoleUser Role = "user"
	// RoleAdmin can manage other accounts.
	RoleAdmin Role = "admin"
)

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email    string `gorm:"type:text;not null;uniqueIndex"` // Unique login email.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	SubscriptionStatus string `gorm:"type:text"` // Gateway-reported subscription state.

	Role Role `gorm:"type:text;not null;default:'user';check:role IN ('user','admin')"`             // Access level.
	Plan Plan `gorm:"type:text;not null;default:'FREE';check:plan IN ('FREE','PAY_PER_USE','PRO')"` // Subscription tier.

	Credits int `gorm:"not null;default:0"` // Consumable credit balance.

	ProSince *time.Time `gorm:""` // Start of the current PRO period.
	ProUntil *time.Time `gorm:""` // End of the current PRO period.

	DailyUsageCount int        `gorm:"not null;default:0"` // Generations used today.
	LastResetDate   *time.Time `gorm:""`                   // Last daily counter reset.

	Creations []Creation `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Owned creations.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
