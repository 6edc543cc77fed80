package main

import (
	"airattix/src/config"
	"airattix/src/db"
	"airattix/src/middlewares"
	"airattix/src/models"
	"airattix/src/types"
	"airattix/src/utils"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB            *gorm.DB
	AdminToken    string
	UserToken     string
	HostToken     string
	StrangerToken string

	ActiveListing   uint
	StayListing     uint
	InactiveListing uint
}

var dbi *gorm.DB

const testPassword = "secret123"

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	registerValidators()

	d, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		log.Fatalf("error opening test database: %s", err.Error())
	}
	db.NewDB(d)
	s.DB = d
	dbi = d

	if err := dbi.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Booking{},
		&models.Token{},
	); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	hashed, err := utils.HashPassword(testPassword)
	if err != nil {
		log.Fatalf("error hashing password: %s", err.Error())
	}

	admin := models.User{Username: "admin", Email: "admin@example.com", Password: hashed, Role: types.ROLE_ADMIN}
	user := models.User{Username: "renter", Email: "renter@example.com", Password: hashed, Role: types.ROLE_USER}
	host := models.User{Username: "host", Email: "host@example.com", Password: hashed, Role: types.ROLE_HOST}
	locked := models.User{Username: "locked", Email: "locked@example.com", Password: hashed, Role: types.ROLE_USER}
	if err := d.Transaction(func(tx *gorm.DB) error {
		for _, u := range []*models.User{&admin, &user, &host, &locked} {
			if err := tx.Create(u).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		log.Fatalf("Could not create users due to error: %s\n", err.Error())
	}

	s.AdminToken, _ = utils.GenerateJWT(admin.Email, admin.ID, admin.Role)
	s.UserToken, _ = utils.GenerateJWT(user.Email, user.ID, user.Role)
	s.HostToken, _ = utils.GenerateJWT(host.Email, host.ID, host.Role)
	s.StrangerToken, _ = utils.GenerateJWT(locked.Email, locked.ID, locked.Role)

	garageLocation := types.JSONB{"address": "4 Fort Lane", "city": "Mumbai", "state": "MH", "zipCode": "400001"}
	listings := []*models.Listing{
		{Title: "Garage storage downtown", Slug: "garage-storage-downtown", OwnerID: host.ID, Type: types.LISTING_STORAGE, Status: types.LISTING_ACTIVE, PricePerDay: 150, Currency: "INR", Location: &garageLocation},
		{Title: "Covered parking spot", Slug: "covered-parking-spot", OwnerID: host.ID, Type: types.LISTING_PARKING, Status: types.LISTING_ACTIVE, PricePerDay: 80, Currency: "INR"},
		{Title: "Basement storage", Slug: "basement-storage", OwnerID: host.ID, Type: types.LISTING_STORAGE, Status: types.LISTING_INACTIVE, PricePerDay: 100, Currency: "INR"},
	}
	for _, l := range listings {
		if err := d.Create(l).Error; err != nil {
			log.Fatalf("Could not create listing due to error: %s\n", err.Error())
		}
	}
	s.ActiveListing = listings[0].ID
	s.StayListing = listings[1].ID
	s.InactiveListing = listings[2].ID
}

func (s *TestSuite) TearDownSuite() {
	inner, err := s.DB.DB()
	if err != nil {
		log.Printf("Error accessing inner db instance: %s\n", err.Error())
		return
	}
	inner.Close()
}

func (s *TestSuite) api() *gin.Engine {
	router := setupRouter()
	publicRoutes(router)
	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware)
	bookingHandlers(authorized)
	listingHandlers(authorized)
	userHandlers(authorized)
	return router
}

func jsonRequest(method, target, token string, body any) *http.Request {
	var reader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	return req
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(config.DATE_PARSE_FORMAT)
}

func storageBookingBody(listingID *uint, startDays, endDays int) map[string]any {
	body := map[string]any{
		"name":        "Ravi Kumar",
		"email":       "renter@example.com",
		"phone":       "9876543210",
		"startDate":   futureDate(startDays),
		"endDate":     futureDate(endDays),
		"bookingType": "storage",
		"storageType": "household items",
		"spaceSize":   50,
	}
	if listingID != nil {
		body["listingId"] = *listingID
	}
	return body
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestMaintenanceMode() {
	os.Setenv("MAINTENANCE_MODE", "true")
	defer os.Unsetenv("MAINTENANCE_MODE")

	router := setupRouter()
	router = maintenanceModeMiddleware(router)
	publicRoutes(router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/listings", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 503, w.Code)
}

func (s *TestSuite) TestAuthFlow() {
	router := s.api()

	s.Run("register creates a new account", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/register", "", map[string]any{
			"username": "newuser",
			"email":    "newuser@example.com",
			"password": "hunter42",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		body := w.Body.String()
		assert.Equal(s.T(), "newuser", gjson.Get(body, "data.username").String())
		assert.NotEmpty(s.T(), gjson.Get(body, "data.token").String())
	})

	s.Run("register stores the email lowercased", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/register", "", map[string]any{
			"username": "shouty",
			"email":    "Shouty@Example.COM",
			"password": "hunter42",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		assert.Equal(s.T(), "shouty@example.com", gjson.Get(w.Body.String(), "data.email").String())

		w = httptest.NewRecorder()
		req = jsonRequest("POST", "/api/users/login", "", map[string]any{
			"email":    "SHOUTY@example.com",
			"password": "hunter42",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("register rejects a duplicate email", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/register", "", map[string]any{
			"username": "someoneelse",
			"email":    "newuser@example.com",
			"password": "hunter42",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 409, w.Code)
		assert.Contains(s.T(), gjson.Get(w.Body.String(), "message").String(), "email")
	})

	s.Run("register rejects a duplicate username", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/register", "", map[string]any{
			"username": "newuser",
			"email":    "unclaimed@example.com",
			"password": "hunter42",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 409, w.Code)
		assert.Contains(s.T(), gjson.Get(w.Body.String(), "message").String(), "username")
	})

	s.Run("register rejects a weak password", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/register", "", map[string]any{
			"username": "weakling",
			"email":    "weak@example.com",
			"password": "short",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		assert.Equal(s.T(), "error", gjson.Get(w.Body.String(), "status").String())
	})

	s.Run("login rejects a wrong password", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/login", "", map[string]any{
			"email":    "renter@example.com",
			"password": "wrongpass1",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("login returns a token", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/login", "", map[string]any{
			"email":    "renter@example.com",
			"password": testPassword,
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		token := gjson.Get(w.Body.String(), "data.token").String()
		assert.NotEmpty(s.T(), token)
	})

	s.Run("account locks after repeated failures", func() {
		for i := 0; i < config.MAX_LOGIN_ATTEMPTS; i++ {
			w := httptest.NewRecorder()
			req := jsonRequest("POST", "/api/users/login", "", map[string]any{
				"email":    "locked@example.com",
				"password": "wrongpass1",
			})
			router.ServeHTTP(w, req)
			assert.Equal(s.T(), 401, w.Code)
		}

		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/login", "", map[string]any{
			"email":    "locked@example.com",
			"password": testPassword,
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("forgot password never reveals account existence", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/forgot-password", "", map[string]any{
			"email": "nobody@example.com",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("verify email rejects a bogus token", func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/users/verify-email?token=bogus", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("reset password rejects a bogus token", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/reset-password", "", map[string]any{
			"token":    "bogus",
			"password": "hunter42",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestBookingAdmission() {
	router := s.api()

	s.Run("admits a booking and derives totals", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(&s.ActiveListing, 30, 34))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		body := w.Body.String()
		assert.Equal(s.T(), "pending", gjson.Get(body, "data.status").String())
		assert.Equal(s.T(), int64(4), gjson.Get(body, "data.totalDays").Int())
		assert.Equal(s.T(), float64(600), gjson.Get(body, "data.totalPrice").Float())
		assert.NotEmpty(s.T(), gjson.Get(body, "data.reference").String())
	})

	s.Run("rejects an overlapping range with conflicts", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(&s.ActiveListing, 32, 36))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 409, w.Code)
		conflicts := gjson.Get(w.Body.String(), "conflicts").Array()
		assert.Greater(s.T(), len(conflicts), 0)
	})

	s.Run("shared boundary day counts as overlap", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(&s.ActiveListing, 34, 38))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 409, w.Code)
	})

	s.Run("admits a disjoint range on the same listing", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(&s.ActiveListing, 40, 42))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
	})

	s.Run("admits an unattached booking without a conflict check", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(nil, 30, 34))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		assert.Equal(s.T(), int64(0), gjson.Get(w.Body.String(), "data.totalPrice").Int())
	})

	s.Run("rejects a booking on an inactive listing", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(&s.InactiveListing, 30, 34))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("rejects a booking on a missing listing", func() {
		missing := uint(99999)
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(&missing, 30, 34))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("rejects a start date in the past", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(nil, -2, 3))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("rejects an end date before the start date", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(nil, 34, 30))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("rejects a parking booking without a license number", func() {
		body := map[string]any{
			"name":        "Ravi Kumar",
			"email":       "renter@example.com",
			"phone":       "9876543210",
			"startDate":   futureDate(30),
			"endDate":     futureDate(34),
			"bookingType": "parking",
			"vehicleType": "sedan",
		}
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", body)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		errs := gjson.Get(w.Body.String(), "errors").Array()
		assert.Greater(s.T(), len(errs), 0)
	})

	s.Run("a bearer header without a token stays anonymous", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", storageBookingBody(nil, 44, 46))
		req.Header.Set("Authorization", "Bearer")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
	})

	s.Run("rejects a malformed phone number", func() {
		body := storageBookingBody(nil, 30, 34)
		body["phone"] = "12345"
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", body)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestBookingLifecycle() {
	router := s.api()

	createBooking := func(startDays, endDays int) uint {
		body := map[string]any{
			"name":          "Ravi Kumar",
			"email":         "renter@example.com",
			"phone":         "9876543210",
			"startDate":     futureDate(startDays),
			"endDate":       futureDate(endDays),
			"bookingType":   "parking",
			"vehicleType":   "sedan",
			"licenseNumber": "KA01AB1234",
			"listingId":     s.StayListing,
		}
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", s.UserToken, body)
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), 201, w.Code)
		return uint(gjson.Get(w.Body.String(), "data.id").Uint())
	}

	id := createBooking(60, 64)

	s.Run("confirm requires the admin role", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/confirm", id), s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("admin confirms a pending booking", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/confirm", id), s.AdminToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "confirmed", gjson.Get(w.Body.String(), "data.status").String())
	})

	s.Run("confirming twice is rejected", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/confirm", id), s.AdminToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("a stranger cannot cancel the booking", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/cancel", id), s.StrangerToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("the listing host may cancel ahead of the cutoff", func() {
		hid := createBooking(90, 92)
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/cancel", hid), s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "cancelled", gjson.Get(w.Body.String(), "data.status").String())
	})

	s.Run("the owner cancels ahead of the cutoff", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/cancel", id), s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "cancelled", gjson.Get(w.Body.String(), "data.status").String())
	})

	s.Run("cancelled bookings are final", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/cancel", id), s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("owner cancellation inside the cutoff is rejected", func() {
		soon := models.Booking{
			Reference:   utils.NewBookingReference(),
			ListingID:   &s.StayListing,
			Name:        "Ravi Kumar",
			Email:       "renter@example.com",
			Phone:       "9876543210",
			BookingType: types.LISTING_PARKING,
			StartDate:   time.Now().Add(6 * time.Hour),
			EndDate:     time.Now().Add(30 * time.Hour),
			Status:      types.BOOKING_PENDING,
		}
		assert.Nil(s.T(), s.DB.Create(&soon).Error)

		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/cancel", soon.ID), s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)

		w = httptest.NewRecorder()
		req = jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/cancel", soon.ID), s.AdminToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("admin updates payment status", func() {
		pid := createBooking(70, 72)
		w := httptest.NewRecorder()
		req := jsonRequest("PATCH", fmt.Sprintf("/api/bookings/%d", pid), s.AdminToken, map[string]any{
			"paymentStatus": "paid",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "paid", gjson.Get(w.Body.String(), "data.payment_status").String())
	})

	s.Run("admin cannot force an illegal transition", func() {
		pid := createBooking(80, 82)
		w := httptest.NewRecorder()
		req := jsonRequest("PATCH", fmt.Sprintf("/api/bookings/%d", pid), s.AdminToken, map[string]any{
			"status": "completed",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("renters see only their own bookings", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/bookings", s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		for _, b := range gjson.Get(w.Body.String(), "data").Array() {
			assert.Equal(s.T(), "host@example.com", b.Get("email").String())
		}
	})

	s.Run("user me lists the renter's bookings", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/bookings/user/me", s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		bookings := gjson.Get(w.Body.String(), "data").Array()
		assert.Greater(s.T(), len(bookings), 0)
		for _, b := range bookings {
			assert.Equal(s.T(), "renter@example.com", b.Get("email").String())
		}
	})

	s.Run("a stranger cannot read another renter's booking", func() {
		rid := createBooking(100, 102)
		w := httptest.NewRecorder()
		req := jsonRequest("GET", fmt.Sprintf("/api/bookings/%d", rid), s.StrangerToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)
	})

	s.Run("admin filters by email substring and sorts", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/bookings?email=RENT&sortBy=totalPrice:desc", s.AdminToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		bookings := gjson.Get(w.Body.String(), "data").Array()
		assert.Greater(s.T(), len(bookings), 0)
		prev := float64(0)
		for i, b := range bookings {
			assert.Contains(s.T(), b.Get("email").String(), "rent")
			price := b.Get("total_price").Float()
			if i > 0 {
				assert.LessOrEqual(s.T(), price, prev)
			}
			prev = price
		}
	})

	s.Run("guest email case is normalized for cancellation", func() {
		body := map[string]any{
			"name":          "Ravi Kumar",
			"email":         "Renter@Example.COM",
			"phone":         "9876543210",
			"startDate":     futureDate(110),
			"endDate":       futureDate(112),
			"bookingType":   "parking",
			"vehicleType":   "sedan",
			"licenseNumber": "KA01AB1234",
			"listingId":     s.StayListing,
		}
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/bookings", "", body)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		gid := gjson.Get(w.Body.String(), "data.id").Uint()
		assert.Equal(s.T(), "renter@example.com", gjson.Get(w.Body.String(), "data.email").String())

		w = httptest.NewRecorder()
		req = jsonRequest("PUT", fmt.Sprintf("/api/bookings/%d/cancel", gid), s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})
}

func (s *TestSuite) TestListingFlow() {
	router := s.api()

	var listingID uint
	s.Run("host creates a draft listing", func() {
		body := map[string]any{
			"title":       "Warehouse corner unit",
			"description": "Dry, secure warehouse corner with round the clock access.",
			"listingType": "storage",
			"storageType": "warehouse",
			"spaceSize":   120,
			"location": map[string]any{
				"address": "12 Industrial Estate",
				"city":    "Pune",
				"state":   "MH",
				"zipCode": "411001",
			},
			"price": map[string]any{
				"amount":   200,
				"interval": "daily",
			},
		}
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/listings", s.HostToken, body)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		listingID = uint(gjson.Get(w.Body.String(), "data.id").Uint())
		assert.Greater(s.T(), listingID, uint(0))
	})

	s.Run("draft listings are not public", func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", fmt.Sprintf("/api/listings/%d", listingID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 404, w.Code)
	})

	s.Run("host submits the listing for verification", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/listings/%d/submit", listingID), s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "pending_verification", gjson.Get(w.Body.String(), "data.status").String())
	})

	s.Run("the pending queue is admin only", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/listings/status/pending", s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)

		w = httptest.NewRecorder()
		req = jsonRequest("GET", "/api/listings/status/pending", s.AdminToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		found := false
		for _, l := range gjson.Get(w.Body.String(), "data").Array() {
			if uint(l.Get("id").Uint()) == listingID {
				found = true
			}
		}
		assert.True(s.T(), found)
	})

	s.Run("only admins can activate", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/listings/%d", listingID), s.HostToken, map[string]any{
			"status": "active",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.NotEqual(s.T(), "active", gjson.Get(w.Body.String(), "data.status").String())

		w = httptest.NewRecorder()
		req = jsonRequest("PUT", fmt.Sprintf("/api/listings/%d/verify", listingID), s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)

		w = httptest.NewRecorder()
		req = jsonRequest("PUT", fmt.Sprintf("/api/listings/%d/verify", listingID), s.AdminToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "active", gjson.Get(w.Body.String(), "data.status").String())
		assert.True(s.T(), gjson.Get(w.Body.String(), "data.is_verified").Bool())
	})

	s.Run("active listings are public", func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", fmt.Sprintf("/api/listings/%d", listingID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("the listing type cannot change after creation", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/listings/%d", listingID), s.HostToken, map[string]any{
			"listingType": "parking",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("host edits send the listing back to verification", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PUT", fmt.Sprintf("/api/listings/%d", listingID), s.HostToken, map[string]any{
			"title": "Warehouse corner unit, renovated",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "pending_verification", gjson.Get(w.Body.String(), "data.status").String())
		assert.False(s.T(), gjson.Get(w.Body.String(), "data.is_verified").Bool())

		w = httptest.NewRecorder()
		req = jsonRequest("PUT", fmt.Sprintf("/api/listings/%d/verify", listingID), s.AdminToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("city search matches substrings in any case", func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/listings?city=mumb", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		found := false
		for _, l := range gjson.Get(w.Body.String(), "data").Array() {
			if uint(l.Get("id").Uint()) == s.ActiveListing {
				found = true
			}
		}
		assert.True(s.T(), found)
	})

	s.Run("own listings include drafts", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/listings/own", s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Greater(s.T(), len(gjson.Get(w.Body.String(), "data").Array()), 0)
	})

	s.Run("listing bookings are owner only", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", fmt.Sprintf("/api/listings/%d/bookings", s.ActiveListing), s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)

		w = httptest.NewRecorder()
		req = jsonRequest("GET", fmt.Sprintf("/api/listings/%d/bookings", s.ActiveListing), s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
	})

	s.Run("a short description is rejected", func() {
		body := map[string]any{
			"title":       "Tiny listing",
			"description": "too short",
			"listingType": "parking",
			"parkingType": "driveway",
			"location": map[string]any{
				"address": "1 Main St",
				"city":    "Pune",
				"state":   "MH",
				"zipCode": "411001",
			},
			"price": map[string]any{
				"amount":   50,
				"interval": "daily",
			},
		}
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/listings", s.HostToken, body)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("delete is blocked while bookings are upcoming", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("DELETE", fmt.Sprintf("/api/listings/%d", s.ActiveListing), s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)

		var listing models.Listing
		assert.Nil(s.T(), s.DB.First(&listing, s.ActiveListing).Error)
		assert.Equal(s.T(), types.LISTING_ACTIVE, listing.Status)
	})

	s.Run("delete retires the listing", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("DELETE", fmt.Sprintf("/api/listings/%d", listingID), s.HostToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 204, w.Code)

		var listing models.Listing
		assert.Nil(s.T(), s.DB.First(&listing, listingID).Error)
		assert.Equal(s.T(), types.LISTING_INACTIVE, listing.Status)
	})
}

func (s *TestSuite) TestUserProfile() {
	router := s.api()

	s.Run("me returns the authenticated user", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/users/me", s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "renter@example.com", gjson.Get(w.Body.String(), "data.email").String())
	})

	s.Run("me requires a token", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/users/me", "", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("a bearer header without a token is unauthorized", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/users/me", "", nil)
		req.Header.Set("Authorization", "Bearer")
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})

	s.Run("admins list every account", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("GET", "/api/users", s.UserToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 403, w.Code)

		w = httptest.NewRecorder()
		req = jsonRequest("GET", "/api/users", s.AdminToken, nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Greater(s.T(), len(gjson.Get(w.Body.String(), "data").Array()), 0)
	})

	s.Run("profile fields are updatable", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("PATCH", "/api/users/me", s.UserToken, map[string]any{
			"firstName": "Ravi",
			"lastName":  "Kumar",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 200, w.Code)
		assert.Equal(s.T(), "Ravi", gjson.Get(w.Body.String(), "data.first_name").String())
	})

	s.Run("change password checks the current one", func() {
		w := httptest.NewRecorder()
		req := jsonRequest("POST", "/api/users/change-password", s.UserToken, map[string]any{
			"currentPassword": "notthepassword1",
			"newPassword":     "hunter42",
		})
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 401, w.Code)
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
