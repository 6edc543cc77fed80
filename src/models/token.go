package models

import (
	"airattix/src/types"
	"time"
)

type Token struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	UserID uint   `gorm:"column:user_id;index" json:"user_id,omitempty"`
	User   *User  `gorm:"foreignKey:user_id" json:"user,omitempty"`
	Hash   string `gorm:"uniqueIndex" json:"-"`

	Type   types.TokenType   `gorm:"index" json:"type,omitempty"`
	Status types.TokenStatus `gorm:"default:'pending'" json:"status,omitempty"`

	ExpiresAt time.Time  `json:"expires_at,omitempty"`
	UsedAt    *time.Time `json:"used_at,omitempty"`

	types.Timestamps
}

// Usable reports whether the token can still be redeemed.
func (t *Token) Usable(now time.Time) bool {
	return t.Status == types.TOKEN_PENDING && t.ExpiresAt.After(now)
}
