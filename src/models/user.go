package models

import (
	"airattix/src/types"
	"time"
)

type User struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	Username  string `gorm:"uniqueIndex" json:"username,omitempty"`
	Email     string `gorm:"uniqueIndex" json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"-"`
	Role      string `gorm:"default:'user'" json:"role,omitempty"`

	Address *types.JSONB `gorm:"type:jsonb" json:"address,omitempty"`

	IsEmailVerified bool `gorm:"default:false" json:"is_email_verified"`
	IsPhoneVerified bool `gorm:"default:false" json:"is_phone_verified"`

	LoginAttempts uint       `gorm:"default:0" json:"-"`
	LockedUntil   *time.Time `json:"-"`
	LastLogin     *time.Time `json:"last_login,omitempty"`

	Listings []Listing `gorm:"foreignKey:owner_id" json:"listings,omitempty"`

	types.Timestamps
}

// Locked reports whether the account is still inside a failed-login lockout
// window.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
