package config

import (
	"fmt"
	"os"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const DATE_PARSE_FORMAT = "2006-01-02"

const (
	// Booking creation is capped per client address per rolling hour.
	BOOKING_RATE_LIMIT  = 5
	BOOKING_RATE_WINDOW = time.Hour

	// Login attempts share the stricter auth window.
	AUTH_RATE_LIMIT  = 5
	AUTH_RATE_WINDOW = 15 * time.Minute

	// Failed-login lockout policy.
	MAX_LOGIN_ATTEMPTS = 5
	LOCKOUT_DURATION   = 30 * time.Minute

	// Non-admins may cancel only up to this long before the start date.
	CANCEL_CUTOFF = 24 * time.Hour

	TOKEN_TTL        = 24 * time.Hour
	VERIFICATION_TTL = 24 * time.Hour
	RESET_TTL        = time.Hour

	BCRYPT_COST = 12

	DEFAULT_CURRENCY = "INR"
)
