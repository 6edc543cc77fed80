package models

import (
	"airattix/src/types"
)

type Listing struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	Title   string `json:"title,omitempty"`
	Slug    string `gorm:"uniqueIndex" json:"slug,omitempty"`
	About   string `json:"about,omitempty"`
	OwnerID uint   `gorm:"column:owner_id" json:"owner_id,omitempty"`
	Owner   *User  `gorm:"foreignKey:owner_id" json:"owner,omitempty"`

	Type   types.ListingType   `gorm:"index" json:"type,omitempty"`
	Status types.ListingStatus `gorm:"index;default:'draft'" json:"status,omitempty"`

	PricePerDay float64 `json:"price_per_day,omitempty"`
	Currency    string  `gorm:"default:'INR'" json:"currency,omitempty"`

	Location *types.JSONB `gorm:"type:jsonb" json:"location,omitempty"`
	Details  *types.JSONB `gorm:"type:jsonb" json:"details,omitempty"`
	Images   *types.JSONB `gorm:"type:jsonb" json:"images,omitempty"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`

	Bookings []Booking `gorm:"foreignKey:listing_id" json:"bookings,omitempty"`

	types.Timestamps
}

// Bookable reports whether the listing can accept new bookings.
func (l *Listing) Bookable() bool {
	return l.Status == types.LISTING_ACTIVE
}
