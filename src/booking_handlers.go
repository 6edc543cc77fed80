package main

import (
	"airattix/src/config"
	"airattix/src/db"
	"airattix/src/lib"
	"airattix/src/lib/mailer"
	"airattix/src/middlewares"
	"airattix/src/models"
	"airattix/src/types"
	"airattix/src/utils"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var bookingSortColumns = map[string]string{
	"createdAt":  "created_at",
	"startDate":  "start_date",
	"endDate":    "end_date",
	"totalPrice": "total_price",
	"status":     "status",
}

// bookingSortOrder parses a "field:dir" sort expression against a column
// whitelist so client input never reaches the ORDER BY clause raw.
func bookingSortOrder(sortBy string) string {
	parts := strings.SplitN(sortBy, ":", 2)
	col, ok := bookingSortColumns[parts[0]]
	if !ok {
		return "created_at DESC"
	}
	dir := "ASC"
	if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
		dir = "DESC"
	}
	return col + " " + dir
}

func publicBookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings",
			middlewares.RateLimit("bookings", config.BOOKING_RATE_LIMIT, config.BOOKING_RATE_WINDOW),
			middlewares.OptionalAuth,
			func(ctx *gin.Context) {
				var body types.CreateBookingRequestBody
				if err := ctx.ShouldBindJSON(&body); err != nil {
					bindingError(ctx, err)
					return
				}
				var userID *uint
				if id := ctx.GetUint("id"); id > 0 {
					userID = &id
				}
				booking, err := utils.AdmitBooking(&body, userID, ctx.ClientIP(), ctx.Request.UserAgent())
				if err != nil {
					var conflict *utils.ConflictError
					switch {
					case errors.As(err, &conflict):
						ctx.JSON(http.StatusConflict, gin.H{
							"status":    "error",
							"message":   "The selected dates are not available",
							"conflicts": conflict.Conflicts,
						})
					case errors.Is(err, utils.ErrListingNotFound):
						apiError(ctx, http.StatusNotFound, "Listing not found")
					case errors.Is(err, utils.ErrListingNotBookable):
						apiError(ctx, http.StatusBadRequest, "Listing is not accepting bookings")
					default:
						log.Printf("Error admitting booking: %s\n", err.Error())
						apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
					}
					return
				}
				mailer.NewMailerMessage(&lib.SendMailInput{
					To:      []string{booking.Email},
					Subject: fmt.Sprintf("Booking request received [%s]", booking.Reference),
					Body:    fmt.Sprintf("Hi %s, we received your %s booking request for %s to %s. You will be notified once it is confirmed.", booking.Name, booking.BookingType, body.StartDate, body.EndDate),
				})
				ctx.JSON(http.StatusCreated, gin.H{"status": "success", "data": booking.ToAPIResponse()})
			})
	return g
}

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			var filters types.BookingQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			q := db.Model(&models.Booking{})
			role := ctx.GetString("role")
			if !types.HasRole(role, types.ROLE_ADMIN) {
				q = q.Where("email = ? OR user_id = ?", ctx.GetString("email"), ctx.GetUint("id"))
			}
			if filters.Status != "" {
				q = q.Where("status = ?", filters.Status)
			}
			if filters.BookingType != "" {
				q = q.Where("booking_type = ?", filters.BookingType)
			}
			if filters.Email != "" {
				q = q.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(filters.Email)+"%")
			}
			if filters.FromDate != "" {
				if from, err := utils.ParseBookingDate(filters.FromDate); err == nil {
					q = q.Where("start_date >= ?", from)
				}
			}
			if filters.ToDate != "" {
				if to, err := utils.ParseBookingDate(filters.ToDate); err == nil {
					q = q.Where("end_date <= ?", to)
				}
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
			var bookings []models.Booking
			if err := q.
				Order(bookingSortOrder(filters.SortBy)).
				Offset((page - 1) * limit).
				Limit(limit).
				Find(&bookings).
				Error; err != nil {
				log.Printf("Error listing bookings: %s\n", err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": bookings, "count": total, "page": page})
		}).
		GET("/bookings/user/me", func(ctx *gin.Context) {
			db := db.GetDb()
			var bookings []models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where("email = ? OR user_id = ?", ctx.GetString("email"), ctx.GetUint("id")).
				Order("created_at DESC").
				Find(&bookings).
				Error; err != nil {
				log.Printf("Error listing own bookings: %s\n", err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			var booking models.Booking
			if err := db.
				Model(&models.Booking{}).
				Preload("Listing").
				First(&booking, params.ID).
				Error; err != nil {
				apiError(ctx, http.StatusNotFound, "Booking not found")
				return
			}
			role := ctx.GetString("role")
			email := ctx.GetString("email")
			ownsListing := booking.Listing != nil && booking.Listing.OwnerID == ctx.GetUint("id")
			if !types.HasRole(role, types.ROLE_ADMIN) && booking.Email != email && !ownsListing {
				apiError(ctx, http.StatusForbidden, "You do not have permission to perform this action")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": booking})
		}).
		PUT("/bookings/:id/confirm", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			booking, err := utils.ConfirmBooking(params.ID)
			if err != nil {
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					apiError(ctx, http.StatusNotFound, "Booking not found")
				case errors.Is(err, utils.ErrBookingFinal), errors.Is(err, utils.ErrInvalidTransition):
					apiError(ctx, http.StatusBadRequest, err.Error())
				default:
					log.Printf("Error confirming booking [%d]: %s\n", params.ID, err.Error())
					apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				}
				return
			}
			mailer.NewMailerMessage(&lib.SendMailInput{
				To:      []string{booking.Email},
				Subject: fmt.Sprintf("Booking confirmed [%s]", booking.Reference),
				Body:    fmt.Sprintf("Hi %s, your booking from %s to %s has been confirmed.", booking.Name, booking.StartDate.Format(config.DATE_PARSE_FORMAT), booking.EndDate.Format(config.DATE_PARSE_FORMAT)),
			})
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": booking})
		}).
		PUT("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			booking, err := utils.CancelBooking(params.ID, ctx.GetUint("id"), ctx.GetString("email"), ctx.GetString("role"))
			if err != nil {
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					apiError(ctx, http.StatusNotFound, "Booking not found")
				case errors.Is(err, utils.ErrCancelWindowClosed):
					apiError(ctx, http.StatusBadRequest, err.Error())
				case errors.Is(err, utils.ErrBookingFinal):
					apiError(ctx, http.StatusBadRequest, err.Error())
				default:
					log.Printf("Error cancelling booking [%d]: %s\n", params.ID, err.Error())
					apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": booking})
		}).
		PATCH("/bookings/:id", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				bindingError(ctx, err)
				return
			}
			var body types.UpdateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			var booking models.Booking
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.First(&booking, params.ID).Error; err != nil {
					return err
				}
				if body.Status != nil && *body.Status != booking.Status {
					if !utils.CanTransition(booking.Status, *body.Status) {
						return utils.ErrInvalidTransition
					}
					booking.Status = *body.Status
				}
				if body.PaymentStatus != nil {
					booking.PaymentStatus = *body.PaymentStatus
				}
				if body.Notes != nil {
					booking.Notes = *body.Notes
				}
				return tx.Save(&booking).Error
			})
			if err != nil {
				switch {
				case errors.Is(err, gorm.ErrRecordNotFound):
					apiError(ctx, http.StatusNotFound, "Booking not found")
				case errors.Is(err, utils.ErrInvalidTransition):
					apiError(ctx, http.StatusBadRequest, err.Error())
				default:
					log.Printf("Error updating booking [%d]: %s\n", params.ID, err.Error())
					apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": booking})
		})
	return g
}
