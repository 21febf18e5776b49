package models

import "time"

// CreationMode identifies the kind of artifact generated.
type CreationMode string

// CreationMode constants define the generation modes.
const (
	// CreationModeWeb generates a web page.
	CreationModeWeb CreationMode = "web"
	// CreationModeMobile generates a mobile layout.
	CreationModeMobile CreationMode = "mobile"
	// CreationModeSocial generates a social media asset.
	CreationModeSocial CreationMode = "social"
	// CreationModeLogo generates a logo.
	CreationModeLogo CreationMode = "logo"
)

// Creation represents a generated artifact owned by a user.
type Creation struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"` // Owning user ID.

	Name          string `gorm:"type:text;not null"` // Display name.
	HTML          string `gorm:"type:text"`          // Generated HTML content.
	OriginalImage string `gorm:"type:text"`          // Source image reference.

	Mode CreationMode `gorm:"type:text;not null;default:'web';check:mode IN ('web','mobile','social','logo')"` // Generation mode.

	Purchased bool `gorm:"not null;default:false"` // Whether the artifact was bought.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
