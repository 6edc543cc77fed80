package utils

import (
	"airattix/src/config"
	"airattix/src/db"
	"airattix/src/models"
	"airattix/src/types"
	"log"

	"gorm.io/gorm"
)

// CreateNewListing persists a host's listing in draft status. Hosts push it
// to pending_verification when they are ready; only admins activate.
func CreateNewListing(params *types.CreateListingRequestBody, ownerID uint) (uint, error) {
	currency := params.Price.Currency
	if currency == "" {
		currency = config.DEFAULT_CURRENCY
	}
	location := types.JSONB{
		"address": params.Location.Address,
		"city":    params.Location.City,
		"state":   params.Location.State,
		"zipCode": params.Location.ZipCode,
	}
	if params.Location.Lat != nil {
		location["lat"] = *params.Location.Lat
	}
	if params.Location.Lng != nil {
		location["lng"] = *params.Location.Lng
	}
	details := listingDetails(params)
	images := types.JSONB{}
	if len(params.Images) > 0 {
		images["items"] = params.Images
	}

	listing := models.Listing{
		Title:       params.Title,
		Slug:        NewListingSlug(params.Title),
		About:       params.Description,
		OwnerID:     ownerID,
		Type:        params.ListingType,
		Status:      types.LISTING_DRAFT,
		PricePerDay: DailyRate(&params.Price),
		Currency:    currency,
		Location:    &location,
		Details:     &details,
		Images:      &images,
	}

	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&listing).Error
	})
	if err != nil {
		log.Printf("Error creating listing: %s\n", err.Error())
		return 0, err
	}
	return listing.ID, nil
}

func listingDetails(params *types.CreateListingRequestBody) types.JSONB {
	details := types.JSONB{}
	switch params.ListingType {
	case types.LISTING_STORAGE:
		details["storageType"] = params.StorageType
		details["spaceSize"] = params.SpaceSize
		if len(params.StorageAmenities) > 0 {
			details["amenities"] = params.StorageAmenities
		}
	case types.LISTING_PARKING:
		details["parkingType"] = params.ParkingType
		if len(params.VehicleTypes) > 0 {
			details["vehicleTypes"] = params.VehicleTypes
		}
		if len(params.ParkingAmenities) > 0 {
			details["amenities"] = params.ParkingAmenities
		}
	}
	return details
}

// DailyRate normalizes a price quote to the per-day rate bookings are
// computed from.
func DailyRate(price *types.ListingPrice) float64 {
	switch price.Interval {
	case "hourly":
		return price.Amount * 24
	case "weekly":
		return price.Amount / 7
	case "monthly":
		return price.Amount / 30
	default:
		return price.Amount
	}
}
