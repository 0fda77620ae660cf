package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Provider identifies how a user authenticates.
type Provider string

const (
	ProviderEmail  Provider = "email"
	ProviderGoogle Provider = "google"
)

// User is an account row. PasswordHash is nil for federated identities and
// AvatarURL is nil unless the identity provider supplied one.
type User struct {
	ID           int64          `gorm:"primaryKey" json:"-"`
	ExternalID   string         `gorm:"size:64;uniqueIndex" json:"user_uid"`
	Email        string         `gorm:"size:255;uniqueIndex:idx_users_email_provider" json:"email"`
	Username     string         `gorm:"size:255;uniqueIndex:idx_users_username_provider" json:"username"`
	AuthProvider Provider       `gorm:"size:32;uniqueIndex:idx_users_email_provider;uniqueIndex:idx_users_username_provider" json:"auth_provider"`
	PasswordHash *string        `gorm:"size:512" json:"-"`
	AvatarURL    *string        `gorm:"size:1024" json:"avatar_url,omitempty"`
	IsPremium    bool           `json:"is_premium"`
	ImageCount   int64          `json:"image_count"`
	Labels       datatypes.JSON `json:"labels"`
	LastActive   time.Time      `json:"last_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
