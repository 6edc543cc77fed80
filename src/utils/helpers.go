package utils

import (
	"airattix/src/config"
	"airattix/src/types"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), config.BCRYPT_COST)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func GenerateJWT(email string, id uint, role string) (string, error) {
	now := time.Now()
	claims := types.Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(id)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TOKEN_TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(jwtKey)
	if err != nil {
		log.Printf("Error signing token: %s\n", err.Error())
		return "", err
	}
	return signed, nil
}

// NewSecretToken returns a raw single-use secret and its sha256 digest. Only
// the digest is stored so a database leak never exposes live tokens.
func NewSecretToken() (raw string, hash string) {
	raw = uuid.NewString()
	hash = HashToken(raw)
	return raw, hash
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewListingSlug builds a url-safe slug with a short random suffix to keep
// the unique index happy when titles collide.
func NewListingSlug(title string) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s-%s", slug.Make(title), suffix)
}

func NewBookingReference() string {
	return fmt.Sprintf("BKG-%s", uuid.NewString())
}
