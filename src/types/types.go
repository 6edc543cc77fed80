package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type ListingType string

const (
	LISTING_STORAGE ListingType = "storage"
	LISTING_PARKING ListingType = "parking"
)

type ListingStatus string

const (
	LISTING_DRAFT    ListingStatus = "draft"
	LISTING_PENDING  ListingStatus = "pending_verification"
	LISTING_ACTIVE   ListingStatus = "active"
	LISTING_INACTIVE ListingStatus = "inactive"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

// IsFinal reports whether no further transition is allowed out of s.
func (s BookingStatus) IsFinal() bool {
	return s == BOOKING_CANCELLED || s == BOOKING_COMPLETED
}

type PaymentStatus string

const (
	PAYMENT_UNPAID   PaymentStatus = "unpaid"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
	PAYMENT_FAILED   PaymentStatus = "failed"
)

type TokenType string

const (
	TOKEN_EMAIL_VERIFICATION TokenType = "email_verification"
	TOKEN_PASSWORD_RESET     TokenType = "password_reset"
)

type TokenStatus string

const (
	TOKEN_PENDING TokenStatus = "pending"
	TOKEN_DONE    TokenStatus = "done"
	TOKEN_EXPIRED TokenStatus = "expired"
	TOKEN_INVALID TokenStatus = "invalid"
)

const (
	ROLE_USER  = "user"
	ROLE_HOST  = "host"
	ROLE_ADMIN = "admin"
)

// HasRole is the single authorization predicate. admin satisfies every role
// requirement.
func HasRole(role, required string) bool {
	return role == required || role == ROLE_ADMIN
}

// DateRange is the projection returned to callers when a booking request
// collides with existing reservations on the same listing.
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateBookingRequestBody struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required,len=10,numeric"`
	StartDate string `json:"startDate" binding:"required,bookabledate"`
	EndDate   string `json:"endDate" binding:"required,gtedate=StartDate"`
	Notes     string `json:"notes,omitempty"`

	BookingType ListingType `json:"bookingType" binding:"required,oneof=storage parking"`

	// Storage bookings
	StorageType      string `json:"storageType,omitempty" binding:"required_if=BookingType storage,omitempty,min=2,max=50"`
	SpaceSize        uint   `json:"spaceSize,omitempty" binding:"required_if=BookingType storage,omitempty,min=1"`
	ItemsDescription string `json:"itemsDescription,omitempty"`

	// Parking bookings
	VehicleType   string `json:"vehicleType,omitempty" binding:"required_if=BookingType parking,omitempty,min=2,max=50"`
	LicenseNumber string `json:"licenseNumber,omitempty" binding:"required_if=BookingType parking,omitempty,min=2,max=20"`
	VehicleColor  string `json:"vehicleColor,omitempty"`

	ListingID *uint `json:"listingId,omitempty"`
}

type UpdateBookingRequestBody struct {
	Status        *BookingStatus `json:"status,omitempty" binding:"omitempty,oneof=pending confirmed cancelled completed"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty" binding:"omitempty,oneof=unpaid paid refunded failed"`
	Notes         *string        `json:"notes,omitempty"`
}

type BookingQueryFilters struct {
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
	BookingType string `form:"bookingType"`
	Status      string `form:"status"`
	Email       string `form:"email"`
	FromDate    string `form:"fromDate"`
	ToDate      string `form:"toDate"`
	SortBy      string `form:"sortBy"`
}

type ListingLocation struct {
	Address string   `json:"address" binding:"required"`
	City    string   `json:"city" binding:"required"`
	State   string   `json:"state" binding:"required"`
	ZipCode string   `json:"zipCode" binding:"required,len=6,numeric"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

type ListingPrice struct {
	Amount   float64 `json:"amount" binding:"min=0"`
	Currency string  `json:"currency,omitempty"`
	Interval string  `json:"interval" binding:"required,oneof=hourly daily weekly monthly"`
}

type ListingImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

type CreateListingRequestBody struct {
	Title       string          `json:"title" binding:"required,min=5,max=100"`
	Description string          `json:"description" binding:"required,min=20,max=2000"`
	Location    ListingLocation `json:"location" binding:"required"`
	ListingType ListingType     `json:"listingType" binding:"required,oneof=storage parking"`
	Price       ListingPrice    `json:"price" binding:"required"`

	StorageType      string   `json:"storageType,omitempty" binding:"required_if=ListingType storage,omitempty,oneof=garage basement attic shed warehouse other"`
	SpaceSize        uint     `json:"spaceSize,omitempty" binding:"required_if=ListingType storage,omitempty,min=1"`
	StorageAmenities []string `json:"storageAmenities,omitempty"`

	ParkingType      string   `json:"parkingType,omitempty" binding:"required_if=ListingType parking,omitempty,oneof=garage driveway lot street underground other"`
	VehicleTypes     []string `json:"vehicleTypes,omitempty"`
	ParkingAmenities []string `json:"parkingAmenities,omitempty"`

	Images []ListingImage `json:"images,omitempty"`
}

type UpdateListingRequestBody struct {
	Title       *string          `json:"title,omitempty" binding:"omitempty,min=5,max=100"`
	Description *string          `json:"description,omitempty" binding:"omitempty,min=20,max=2000"`
	Location    *ListingLocation `json:"location,omitempty"`
	ListingType *ListingType     `json:"listingType,omitempty"`
	Price       *ListingPrice    `json:"price,omitempty"`

	StorageType      *string  `json:"storageType,omitempty" binding:"omitempty,oneof=garage basement attic shed warehouse other"`
	SpaceSize        *uint    `json:"spaceSize,omitempty" binding:"omitempty,min=1"`
	StorageAmenities []string `json:"storageAmenities,omitempty"`

	ParkingType      *string  `json:"parkingType,omitempty" binding:"omitempty,oneof=garage driveway lot street underground other"`
	VehicleTypes     []string `json:"vehicleTypes,omitempty"`
	ParkingAmenities []string `json:"parkingAmenities,omitempty"`

	Images []ListingImage `json:"images,omitempty"`

	// Admin only; silently dropped for other callers.
	Status     *ListingStatus `json:"status,omitempty" binding:"omitempty,oneof=draft pending_verification active inactive"`
	IsVerified *bool          `json:"isVerified,omitempty"`
}

type ListingQueryFilters struct {
	Page     int     `form:"page"`
	Limit    int     `form:"limit"`
	Type     string  `form:"type"`
	City     string  `form:"city"`
	State    string  `form:"state"`
	ZipCode  string  `form:"zipCode"`
	MinPrice float64 `form:"minPrice"`
	MaxPrice float64 `form:"maxPrice"`
	SortBy   string  `form:"sortBy"`
}

type RegisterUserRequestBody struct {
	Username  string `json:"username" binding:"required,min=3,max=30"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,containsany=0123456789"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty" binding:"omitempty,len=10,numeric"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequestBody struct {
	FirstName *string      `json:"firstName,omitempty"`
	LastName  *string      `json:"lastName,omitempty"`
	Phone     *string      `json:"phone,omitempty" binding:"omitempty,len=10,numeric"`
	Address   *UserAddress `json:"address,omitempty"`
}

type ChangePasswordRequestBody struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,containsany=0123456789"`
}

type ForgotPasswordRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type UserAddress struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// APIResponseBooking is the trimmed projection returned on creation so guest
// checkouts never see more than their own reservation summary.
type APIResponseBooking struct {
	ID          uint          `json:"id"`
	Reference   string        `json:"reference,omitempty"`
	Name        string        `json:"name,omitempty"`
	Email       string        `json:"email,omitempty"`
	StartDate   time.Time     `json:"startDate"`
	EndDate     time.Time     `json:"endDate"`
	BookingType ListingType   `json:"bookingType,omitempty"`
	TotalDays   uint          `json:"totalDays"`
	TotalPrice  float64       `json:"totalPrice"`
	Currency    string        `json:"currency,omitempty"`
	Status      BookingStatus `json:"status,omitempty"`

	PaymentStatus PaymentStatus `json:"paymentStatus,omitempty"`
}
