package models

import (
	"airattix/src/types"
	"time"
)

type Booking struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	Reference string `gorm:"uniqueIndex" json:"reference,omitempty"`

	ListingID *uint    `gorm:"column:listing_id;index" json:"listing_id,omitempty"`
	Listing   *Listing `gorm:"foreignKey:listing_id" json:"listing,omitempty"`
	UserID    *uint    `gorm:"column:user_id;index" json:"user_id,omitempty"`
	User      *User    `gorm:"foreignKey:user_id" json:"user,omitempty"`

	Name  string `json:"name,omitempty"`
	Email string `gorm:"index" json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	BookingType types.ListingType `json:"booking_type,omitempty"`
	StartDate   time.Time         `gorm:"index" json:"start_date,omitempty"`
	EndDate     time.Time         `gorm:"index" json:"end_date,omitempty"`

	StorageType   string `json:"storage_type,omitempty"`
	SpaceSize     uint   `json:"space_size,omitempty"`
	VehicleType   string `json:"vehicle_type,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`

	TotalDays   uint    `json:"total_days,omitempty"`
	PricePerDay float64 `json:"price_per_day,omitempty"`
	TotalPrice  float64 `json:"total_price,omitempty"`
	Currency    string  `gorm:"default:'INR'" json:"currency,omitempty"`

	Status        types.BookingStatus `gorm:"index;default:'pending'" json:"status,omitempty"`
	PaymentStatus types.PaymentStatus `gorm:"default:'unpaid'" json:"payment_status,omitempty"`

	Notes     string `json:"notes,omitempty"`
	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	types.Timestamps
}

// Elapsed reports whether the booking's stay window has fully passed.
func (b *Booking) Elapsed(now time.Time) bool {
	return b.EndDate.Before(now)
}

func (b *Booking) ToAPIResponse() *types.APIResponseBooking {
	return &types.APIResponseBooking{
		ID:            b.ID,
		Reference:     b.Reference,
		Name:          b.Name,
		Email:         b.Email,
		BookingType:   b.BookingType,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		TotalDays:     b.TotalDays,
		TotalPrice:    b.TotalPrice,
		Currency:      b.Currency,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
	}
}
