package controllers

import (
	"airattix/src/config"
	"airattix/src/db"
	"airattix/src/lib"
	"airattix/src/lib/mailer"
	"airattix/src/models"
	"airattix/src/types"
	"airattix/src/utils"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to too many failed login attempts")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrUsernameTaken      = errors.New("this username is already taken")
)

func AuthRegister(ctx *gin.Context) (user *models.User, token string, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, "", http.StatusBadRequest, err
	}

	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		log.Printf("Error hashing password: %s\n", err.Error())
		return nil, "", http.StatusInternalServerError, err
	}

	newUser := models.User{
		Username:  body.Username,
		Email:     strings.ToLower(body.Email),
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
		Password:  hashed,
		Role:      types.ROLE_USER,
	}

	db := db.GetDb()
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.
			Model(&models.User{}).
			Where("email = ?", newUser.Email).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.
			Model(&models.User{}).
			Where("username = ?", newUser.Username).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		return tx.Create(&newUser).Error
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken) {
			return nil, "", http.StatusConflict, err
		}
		log.Printf("Error registering user: %s\n", err.Error())
		return nil, "", http.StatusInternalServerError, err
	}

	raw, err := utils.IssueToken(newUser.ID, types.TOKEN_EMAIL_VERIFICATION, config.VERIFICATION_TTL)
	if err == nil {
		verifyURL := fmt.Sprintf("%s/verify-email?token=%s", os.Getenv("APP_HOST"), raw)
		mailer.NewMailerMessage(&lib.SendMailInput{
			To:      []string{newUser.Email},
			Subject: "Verify your email address",
			Body:    fmt.Sprintf("Welcome %s! Please verify your email address by visiting: %s", newUser.Username, verifyURL),
		})
	}

	jwt, err := utils.GenerateJWT(newUser.Email, newUser.ID, newUser.Role)
	if err != nil {
		log.Printf("Error signing token for new user [%d]: %s\n", newUser.ID, err.Error())
		return nil, "", http.StatusInternalServerError, err
	}

	return &newUser, jwt, http.StatusCreated, nil
}

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	var user models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{Email: strings.ToLower(body.Email)}).
		First(&user).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusUnauthorized, ErrInvalidCredentials
		}
		return nil, http.StatusInternalServerError, err
	}

	now := time.Now()
	if user.Locked(now) {
		return nil, http.StatusForbidden, ErrAccountLocked
	}

	if !utils.ComparePassword(user.Password, body.Password) {
		err := db.Transaction(func(tx *gorm.DB) error {
			attempts := user.LoginAttempts + 1
			updates := map[string]any{"login_attempts": attempts}
			if attempts >= config.MAX_LOGIN_ATTEMPTS {
				lockedUntil := now.Add(config.LOCKOUT_DURATION)
				updates["locked_until"] = lockedUntil
				updates["login_attempts"] = 0
				log.Printf("User [%d] locked out until %s\n", user.ID, lockedUntil.String())
			}
			return tx.Model(&models.User{}).Where("id", user.ID).Updates(updates).Error
		})
		if err != nil {
			log.Printf("Error recording failed login for user [%d]: %s\n", user.ID, err.Error())
		}
		return nil, http.StatusUnauthorized, ErrInvalidCredentials
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.User{}).
			Where("id", user.ID).
			Updates(map[string]any{"login_attempts": 0, "locked_until": nil, "last_login": now}).
			Error
	})
	if err != nil {
		log.Printf("Error logging in user [%d]: %s\n", user.ID, err.Error())
		return nil, http.StatusInternalServerError, err
	}

	jwt, err := utils.GenerateJWT(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &jwt, http.StatusOK, nil
}

func AuthVerifyEmail(ctx *gin.Context) (status int, err error) {
	raw := ctx.Query("token")
	if raw == "" {
		return http.StatusBadRequest, utils.ErrTokenInvalid
	}
	user, err := utils.RedeemToken(raw, types.TOKEN_EMAIL_VERIFICATION)
	if err != nil {
		if errors.Is(err, utils.ErrTokenInvalid) {
			return http.StatusBadRequest, err
		}
		return http.StatusInternalServerError, err
	}
	db := db.GetDb()
	if err := db.
		Model(&models.User{}).
		Where("id", user.ID).
		Update("is_email_verified", true).
		Error; err != nil {
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}

// AuthForgotPassword always reports success so the endpoint cannot be used
// to probe which addresses have accounts.
func AuthForgotPassword(ctx *gin.Context) (status int, err error) {
	var body types.ForgotPasswordRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	db := db.GetDb()
	var user models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{Email: strings.ToLower(body.Email)}).
		First(&user).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return http.StatusOK, nil
		}
		return http.StatusInternalServerError, err
	}
	raw, err := utils.IssueToken(user.ID, types.TOKEN_PASSWORD_RESET, config.RESET_TTL)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", os.Getenv("APP_HOST"), raw)
	mailer.NewMailerMessage(&lib.SendMailInput{
		To:      []string{user.Email},
		Subject: "Reset your password",
		Body:    fmt.Sprintf("A password reset was requested for your account. Reset it here: %s. The link expires in 1 hour.", resetURL),
	})
	return http.StatusOK, nil
}

func AuthResetPassword(ctx *gin.Context) (status int, err error) {
	var body struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=6,containsany=0123456789"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	user, err := utils.RedeemToken(body.Token, types.TOKEN_PASSWORD_RESET)
	if err != nil {
		if errors.Is(err, utils.ErrTokenInvalid) {
			return http.StatusBadRequest, err
		}
		return http.StatusInternalServerError, err
	}
	hashed, err := utils.HashPassword(body.Password)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	db := db.GetDb()
	if err := db.
		Model(&models.User{}).
		Where("id", user.ID).
		Updates(map[string]any{"password": hashed, "login_attempts": 0, "locked_until": nil}).
		Error; err != nil {
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}

func AuthChangePassword(ctx *gin.Context, userID uint) (status int, err error) {
	var body types.ChangePasswordRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, err
	}
	db := db.GetDb()
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return http.StatusNotFound, err
	}
	if !utils.ComparePassword(user.Password, body.CurrentPassword) {
		return http.StatusUnauthorized, ErrInvalidCredentials
	}
	hashed, err := utils.HashPassword(body.NewPassword)
	if err != nil {
		return http.StatusInternalServerError, err
	}
	if err := db.
		Model(&models.User{}).
		Where("id", user.ID).
		Update("password", hashed).
		Error; err != nil {
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}
