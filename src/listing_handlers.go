package main

import (
	"airattix/src/db"
	"airattix/src/middlewares"
	"airattix/src/models"
	"airattix/src/types"
	"airattix/src/utils"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	errListingTypeChange  = errors.New("listing type cannot be changed")
	errListingHasBookings = errors.New("listing has upcoming bookings and cannot be deleted")
)

// locationField returns the SQL expression extracting a key from the jsonb
// location column for the active dialect.
func locationField(tx *gorm.DB, key string) string {
	if tx.Dialector.Name() == "postgres" {
		return fmt.Sprintf("location ->> '%s'", key)
	}
	return fmt.Sprintf("json_extract(location, '$.%s')", key)
}

func publicListingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/listings", func(ctx *gin.Context) {
			var filters types.ListingQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			q := db.
				Model(&models.Listing{}).
				Where("status = ?", types.LISTING_ACTIVE)
			if filters.Type != "" {
				q = q.Where("type = ?", filters.Type)
			}
			if filters.City != "" {
				q = q.Where(fmt.Sprintf("LOWER(%s) LIKE ?", locationField(db, "city")), "%"+strings.ToLower(filters.City)+"%")
			}
			if filters.State != "" {
				q = q.Where(fmt.Sprintf("LOWER(%s) LIKE ?", locationField(db, "state")), "%"+strings.ToLower(filters.State)+"%")
			}
			if filters.ZipCode != "" {
				q = q.Where(fmt.Sprintf("%s = ?", locationField(db, "zipCode")), filters.ZipCode)
			}
			if filters.MinPrice > 0 {
				q = q.Where("price_per_day >= ?", filters.MinPrice)
			}
			if filters.MaxPrice > 0 {
				q = q.Where("price_per_day <= ?", filters.MaxPrice)
			}
			switch filters.SortBy {
			case "price_asc":
				q = q.Order("price_per_day ASC")
			case "price_desc":
				q = q.Order("price_per_day DESC")
			default:
				q = q.Order("created_at DESC")
			}
			page := filters.Page
			if page < 1 {
				page = 1
			}
			limit := filters.Limit
			if limit < 1 || limit > 100 {
				limit = 20
			}
			var total int64
			q.Count(&total)
			var listings []models.Listing
			if err := q.
				Offset((page - 1) * limit).
				Limit(limit).
				Find(&listings).
				Error; err != nil {
				log.Printf("Error listing listings: %s\n", err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": listings, "count": total, "page": page})
		}).
		GET("/listings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			var listing models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where("id = ? AND status = ?", params.ID, types.LISTING_ACTIVE).
				First(&listing).
				Error; err != nil {
				apiError(ctx, http.StatusNotFound, "Listing not found")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": listing})
		})
	return g
}

func listingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/listings", func(ctx *gin.Context) {
			var body types.CreateListingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindingError(ctx, err)
				return
			}
			id, err := utils.CreateNewListing(&body, ctx.GetUint("id"))
			if err != nil {
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"status": "success", "data": gin.H{"id": id}})
		}).
		GET("/listings/own", func(ctx *gin.Context) {
			db := db.GetDb()
			var listings []models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where("owner_id = ?", ctx.GetUint("id")).
				Order("created_at DESC").
				Find(&listings).
				Error; err != nil {
				log.Printf("Error listing own listings: %s\n", err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": listings, "count": len(listings)})
		}).
		GET("/listings/status/pending", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			db := db.GetDb()
			var listings []models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where("status = ?", types.LISTING_PENDING).
				Order("created_at ASC").
				Find(&listings).
				Error; err != nil {
				log.Printf("Error listing pending listings: %s\n", err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": listings, "count": len(listings)})
		}).
		PUT("/listings/:id/verify", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			var listing models.Listing
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.First(&listing, params.ID).Error; err != nil {
					return err
				}
				listing.Status = types.LISTING_ACTIVE
				listing.IsVerified = true
				return tx.Save(&listing).Error
			})
			if err != nil {
				apiError(ctx, http.StatusNotFound, "Listing not found")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": listing})
		}).
		GET("/listings/:id/bookings", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			var listing models.Listing
			if err := db.First(&listing, params.ID).Error; err != nil {
				apiError(ctx, http.StatusNotFound, "Listing not found")
				return
			}
			if !types.HasRole(ctx.GetString("role"), types.ROLE_ADMIN) && listing.OwnerID != ctx.GetUint("id") {
				apiError(ctx, http.StatusForbidden, "You do not have permission to perform this action")
				return
			}
			var bookings []models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where("listing_id = ?", listing.ID).
				Order("start_date ASC").
				Find(&bookings).
				Error; err != nil {
				log.Printf("Error listing bookings for listing [%d]: %s\n", listing.ID, err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": bookings, "count": len(bookings)})
		}).
		PUT("/listings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			var body types.UpdateListingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindingError(ctx, err)
				return
			}
			isAdmin := types.HasRole(ctx.GetString("role"), types.ROLE_ADMIN)
			db := db.GetDb()
			var listing models.Listing
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.First(&listing, params.ID).Error; err != nil {
					return err
				}
				if !isAdmin && listing.OwnerID != ctx.GetUint("id") {
					return gorm.ErrRecordNotFound
				}
				if body.ListingType != nil && *body.ListingType != listing.Type {
					return errListingTypeChange
				}
				applyListingUpdates(&listing, &body, isAdmin)
				return tx.Save(&listing).Error
			})
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					apiError(ctx, http.StatusNotFound, "Listing not found")
					return
				}
				if errors.Is(err, errListingTypeChange) {
					apiError(ctx, http.StatusBadRequest, "Listing type cannot be changed")
					return
				}
				log.Printf("Error updating listing [%d]: %s\n", params.ID, err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": listing})
		}).
		PUT("/listings/:id/submit", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			var listing models.Listing
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.First(&listing, params.ID).Error; err != nil {
					return err
				}
				if listing.OwnerID != ctx.GetUint("id") {
					return gorm.ErrRecordNotFound
				}
				listing.Status = types.LISTING_PENDING
				return tx.Save(&listing).Error
			})
			if err != nil {
				apiError(ctx, http.StatusNotFound, "Listing not found")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": listing})
		}).
		DELETE("/listings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			isAdmin := types.HasRole(ctx.GetString("role"), types.ROLE_ADMIN)
			db := db.GetDb()
			err := db.Transaction(func(tx *gorm.DB) error {
				var listing models.Listing
				if err := tx.First(&listing, params.ID).Error; err != nil {
					return err
				}
				if !isAdmin && listing.OwnerID != ctx.GetUint("id") {
					return gorm.ErrRecordNotFound
				}
				var upcoming int64
				if err := tx.
					Model(&models.Booking{}).
					Where("listing_id = ? AND status <> ? AND end_date > ?", listing.ID, types.BOOKING_CANCELLED, time.Now()).
					Count(&upcoming).
					Error; err != nil {
					return err
				}
				if upcoming > 0 {
					return errListingHasBookings
				}
				// Listings with history are retired, never removed.
				listing.Status = types.LISTING_INACTIVE
				return tx.Save(&listing).Error
			})
			if err != nil {
				if errors.Is(err, errListingHasBookings) {
					apiError(ctx, http.StatusBadRequest, "Listing has upcoming bookings and cannot be deleted")
					return
				}
				apiError(ctx, http.StatusNotFound, "Listing not found")
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}

// applyListingUpdates copies the provided fields onto the listing. Edits that
// change what renters see put a non-admin listing back through verification.
func applyListingUpdates(listing *models.Listing, body *types.UpdateListingRequestBody, isAdmin bool) {
	edited := false
	if body.Title != nil {
		listing.Title = *body.Title
		edited = true
	}
	if body.Description != nil {
		listing.About = *body.Description
		edited = true
	}
	if body.Price != nil {
		listing.PricePerDay = utils.DailyRate(body.Price)
		if body.Price.Currency != "" {
			listing.Currency = body.Price.Currency
		}
		edited = true
	}
	if body.Location != nil {
		location := types.JSONB{
			"address": body.Location.Address,
			"city":    body.Location.City,
			"state":   body.Location.State,
			"zipCode": body.Location.ZipCode,
		}
		if body.Location.Lat != nil {
			location["lat"] = *body.Location.Lat
		}
		if body.Location.Lng != nil {
			location["lng"] = *body.Location.Lng
		}
		listing.Location = &location
		edited = true
	}
	details := types.JSONB{}
	if listing.Details != nil {
		details = *listing.Details
	}
	if body.StorageType != nil {
		details["storageType"] = *body.StorageType
		edited = true
	}
	if body.SpaceSize != nil {
		details["spaceSize"] = *body.SpaceSize
		edited = true
	}
	if len(body.StorageAmenities) > 0 {
		details["amenities"] = body.StorageAmenities
		edited = true
	}
	if body.ParkingType != nil {
		details["parkingType"] = *body.ParkingType
		edited = true
	}
	if len(body.VehicleTypes) > 0 {
		details["vehicleTypes"] = body.VehicleTypes
		edited = true
	}
	if len(body.ParkingAmenities) > 0 {
		details["amenities"] = body.ParkingAmenities
		edited = true
	}
	listing.Details = &details
	if len(body.Images) > 0 {
		images := types.JSONB{"items": body.Images}
		listing.Images = &images
		edited = true
	}
	if isAdmin {
		if body.Status != nil {
			listing.Status = *body.Status
		}
		if body.IsVerified != nil {
			listing.IsVerified = *body.IsVerified
		}
		return
	}
	if edited && listing.Status == types.LISTING_ACTIVE {
		listing.Status = types.LISTING_PENDING
		listing.IsVerified = false
	}
}
