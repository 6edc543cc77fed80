package utils

import (
	"airattix/src/config"
	"airattix/src/db"
	"airattix/src/models"
	"airattix/src/types"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrListingNotBookable = errors.New("listing is not accepting bookings")
	ErrDatesConflict      = errors.New("requested dates conflict with an existing booking")
	ErrBookingFinal       = errors.New("booking is already in a final state")
	ErrInvalidTransition  = errors.New("invalid booking status transition")
	ErrCancelWindowClosed = errors.New("bookings can only be cancelled up to 24 hours before the start date")
)

// ConflictError carries the ranges that collided so handlers can hand them
// back to the caller for feedback.
type ConflictError struct {
	Conflicts []types.DateRange
}

func (e *ConflictError) Error() string {
	return ErrDatesConflict.Error()
}

func (e *ConflictError) Unwrap() error {
	return ErrDatesConflict
}

// ParseBookingDate normalizes a yyyy-mm-dd string to local midnight.
func ParseBookingDate(value string) (time.Time, error) {
	parsed, err := time.Parse(config.DATE_PARSE_FORMAT, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.Local), nil
}

// FindBookingConflicts returns every non-cancelled booking on the listing
// whose range touches [start, end]. Shared boundary days count as overlap.
func FindBookingConflicts(tx *gorm.DB, listingID uint, start, end time.Time) ([]models.Booking, error) {
	var existing []models.Booking
	err := tx.
		Model(&models.Booking{}).
		Where("listing_id = ?", listingID).
		Where("status <> ?", types.BOOKING_CANCELLED).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Find(&existing).
		Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// ComputeBookingTotals derives the day count and the price captured at
// creation time. Later price changes on the listing never touch an accepted
// booking.
func ComputeBookingTotals(start, end time.Time, pricePerDay float64) (totalDays uint, totalPrice float64) {
	diff := end.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	totalDays = uint(math.Ceil(diff.Hours() / 24))
	totalPrice = pricePerDay * float64(totalDays)
	return totalDays, totalPrice
}

// findBookableListing loads the listing inside the transaction. On postgres
// the row is locked for update so two overlapping requests serialize on the
// listing and the second one sees the first one's booking in its conflict
// scan. sqlite has no row locks; its single-writer model covers the tests.
func findBookableListing(tx *gorm.DB, id uint) (*models.Listing, error) {
	q := tx.Model(&models.Listing{})
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var listing models.Listing
	if err := q.Where("id = ?", id).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if !listing.Bookable() {
		return &listing, ErrListingNotBookable
	}
	return &listing, nil
}

// AdmitBooking runs the admission pipeline for a validated request: resolve
// the listing, scan for overlaps, derive totals, persist. Requests without a
// listing id skip the conflict check and price derivation entirely.
func AdmitBooking(params *types.CreateBookingRequestBody, userID *uint, clientIP, userAgent string) (*models.Booking, error) {
	startDate, err := ParseBookingDate(params.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := ParseBookingDate(params.EndDate)
	if err != nil {
		return nil, err
	}

	booking := models.Booking{
		Reference:     NewBookingReference(),
		ListingID:     params.ListingID,
		UserID:        userID,
		Name:          params.Name,
		Email:         strings.ToLower(params.Email),
		Phone:         params.Phone,
		BookingType:   params.BookingType,
		StartDate:     startDate,
		EndDate:       endDate,
		StorageType:   params.StorageType,
		SpaceSize:     params.SpaceSize,
		VehicleType:   params.VehicleType,
		LicenseNumber: params.LicenseNumber,
		Notes:         params.Notes,
		ClientIP:      clientIP,
		UserAgent:     userAgent,
		Currency:      config.DEFAULT_CURRENCY,
		Status:        types.BOOKING_PENDING,
		PaymentStatus: types.PAYMENT_UNPAID,
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		if params.ListingID != nil {
			listing, err := findBookableListing(tx, *params.ListingID)
			if err != nil {
				return err
			}
			existing, err := FindBookingConflicts(tx, listing.ID, startDate, endDate)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				conflicts := make([]types.DateRange, 0, len(existing))
				for _, b := range existing {
					conflicts = append(conflicts, types.DateRange{StartDate: b.StartDate, EndDate: b.EndDate})
				}
				return &ConflictError{Conflicts: conflicts}
			}
			booking.PricePerDay = listing.PricePerDay
			booking.Currency = listing.Currency
			booking.TotalDays, booking.TotalPrice = ComputeBookingTotals(startDate, endDate, listing.PricePerDay)
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Booking %s admitted [%s - %s]\n", booking.Reference, params.StartDate, params.EndDate)
	return &booking, nil
}

// CanTransition encodes the booking lifecycle: pending may confirm or
// cancel, confirmed may cancel or complete, final states never move.
func CanTransition(from, to types.BookingStatus) bool {
	if from.IsFinal() {
		return false
	}
	switch from {
	case types.BOOKING_PENDING:
		return to == types.BOOKING_CONFIRMED || to == types.BOOKING_CANCELLED
	case types.BOOKING_CONFIRMED:
		return to == types.BOOKING_CANCELLED || to == types.BOOKING_COMPLETED
	}
	return false
}

// ConfirmBooking moves a pending booking to confirmed. Admin only; the
// handler enforces the role before calling in.
func ConfirmBooking(id uint) (*models.Booking, error) {
	db := db.GetDb()
	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, id).Error; err != nil {
			return err
		}
		if booking.Status.IsFinal() {
			return ErrBookingFinal
		}
		if !CanTransition(booking.Status, types.BOOKING_CONFIRMED) {
			return ErrInvalidTransition
		}
		now := time.Now()
		booking.Status = types.BOOKING_CONFIRMED
		booking.ConfirmedAt = &now
		return tx.Save(&booking).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// CancelBooking cancels on behalf of an actor. Admins may cancel any time
// before a final state; the booking's email-identified owner and the listing's
// host only while at least the cutoff remains before the start date.
// Cancellation is a status flip, never a delete.
func CancelBooking(id uint, actorID uint, actorEmail, actorRole string) (*models.Booking, error) {
	db := db.GetDb()
	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, id).Error; err != nil {
			return err
		}
		if booking.Status.IsFinal() {
			return ErrBookingFinal
		}
		if !types.HasRole(actorRole, types.ROLE_ADMIN) {
			allowed := booking.Email == strings.ToLower(actorEmail)
			if !allowed && booking.ListingID != nil {
				var listing models.Listing
				if err := tx.First(&listing, *booking.ListingID).Error; err != nil {
					return err
				}
				allowed = listing.OwnerID == actorID
			}
			if !allowed {
				return gorm.ErrRecordNotFound
			}
			if time.Until(booking.StartDate) < config.CANCEL_CUTOFF {
				return ErrCancelWindowClosed
			}
		}
		now := time.Now()
		booking.Status = types.BOOKING_CANCELLED
		booking.CancelledAt = &now
		return tx.Save(&booking).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Booking %s cancelled by %s\n", booking.Reference, actorEmail)
	return &booking, nil
}

// CompleteElapsedBookings flips confirmed bookings whose stay has fully
// passed to completed. Runs from the scheduler.
func CompleteElapsedBookings() {
	db := db.GetDb()
	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Booking{}).
			Where("status = ?", types.BOOKING_CONFIRMED).
			Where("end_date < ?", now).
			Updates(map[string]any{"status": types.BOOKING_COMPLETED, "completed_at": now}).
			Error
	})
	if err != nil {
		log.Printf("Error completing elapsed bookings: %s\n", err.Error())
		return
	}
}
