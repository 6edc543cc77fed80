package utils

import (
	"airattix/src/db"
	"airattix/src/models"
	"airattix/src/types"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

var ErrTokenInvalid = errors.New("token is invalid or has expired")

// IssueToken invalidates any pending token of the same type for the user and
// stores a fresh one. The raw secret goes out by mail; only the digest is
// kept.
func IssueToken(userID uint, tokenType types.TokenType, ttl time.Duration) (string, error) {
	raw, hash := NewSecretToken()
	token := models.Token{
		UserID:    userID,
		Hash:      hash,
		Type:      tokenType,
		Status:    types.TOKEN_PENDING,
		ExpiresAt: time.Now().Add(ttl),
	}
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Token{}).
			Where(&models.Token{UserID: userID, Type: tokenType, Status: types.TOKEN_PENDING}).
			Update("status", types.TOKEN_INVALID).
			Error; err != nil {
			return err
		}
		return tx.Create(&token).Error
	})
	if err != nil {
		log.Printf("Error issuing %s token for user [%d]: %s\n", tokenType, userID, err.Error())
		return "", err
	}
	return raw, nil
}

// RedeemToken burns a pending token and returns its owner.
func RedeemToken(raw string, tokenType types.TokenType) (*models.User, error) {
	hash := HashToken(raw)
	var user models.User
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		var token models.Token
		if err := tx.
			Where(&models.Token{Hash: hash, Type: tokenType}).
			First(&token).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		now := time.Now()
		if !token.Usable(now) {
			return ErrTokenInvalid
		}
		token.Status = types.TOKEN_DONE
		token.UsedAt = &now
		if err := tx.Save(&token).Error; err != nil {
			return err
		}
		return tx.First(&user, token.UserID).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ExpireStaleTokens marks pending tokens past their deadline. Runs from the
// scheduler.
func ExpireStaleTokens() {
	db := db.GetDb()
	err := db.
		Model(&models.Token{}).
		Where("status = ?", types.TOKEN_PENDING).
		Where("expires_at < ?", time.Now()).
		Update("status", types.TOKEN_EXPIRED).
		Error
	if err != nil {
		log.Printf("Error expiring stale tokens: %s\n", err.Error())
	}
}
