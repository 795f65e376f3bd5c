package user

import (
	"time"
)

// User represents a user entity in the system.
// RefreshTokenHash is nil when the user has no active refresh session.
type User struct {
	ID               string  `gorm:"primaryKey;type:text"`
	Username         string  `gorm:"uniqueIndex;not null;type:text"`
	Email            string  `gorm:"not null;type:text"`
	PasswordHash     string  `gorm:"not null;type:text"`
	RefreshTokenHash *string `gorm:"type:text"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// HasRefreshSession reports whether a refresh token hash is stored.
func (u *User) HasRefreshSession() bool {
	return u.RefreshTokenHash != nil && *u.RefreshTokenHash != ""
}

// Profile is the outward-facing view of a user. It never carries hashes.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ToProfile builds the outward-facing view of the user.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
