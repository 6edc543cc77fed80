package main

import (
	"airattix/src/config"
	"airattix/src/controllers"
	"airattix/src/db"
	"airattix/src/middlewares"
	"airattix/src/models"
	"airattix/src/types"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func guestUserHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	users := g.Group("/users")
	users.Use(middlewares.RateLimit("auth", config.AUTH_RATE_LIMIT, config.AUTH_RATE_WINDOW))
	users.
		POST("/register", func(ctx *gin.Context) {
			user, token, status, err := controllers.AuthRegister(ctx)
			if err != nil {
				if status == http.StatusBadRequest {
					bindingError(ctx, err)
					return
				}
				apiError(ctx, status, err.Error())
				return
			}
			ctx.JSON(status, gin.H{"status": "success", "data": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"email":    user.Email,
				"token":    token,
			}})
		}).
		POST("/login", func(ctx *gin.Context) {
			token, status, err := controllers.AuthLogin(ctx)
			if err != nil {
				if status == http.StatusBadRequest {
					bindingError(ctx, err)
					return
				}
				apiError(ctx, status, err.Error())
				return
			}
			ctx.JSON(status, gin.H{"status": "success", "data": gin.H{"token": *token}})
		}).
		GET("/verify-email", func(ctx *gin.Context) {
			status, err := controllers.AuthVerifyEmail(ctx)
			if err != nil {
				apiError(ctx, status, err.Error())
				return
			}
			ctx.JSON(status, gin.H{"status": "success", "message": "Email verified"})
		}).
		POST("/forgot-password", func(ctx *gin.Context) {
			status, err := controllers.AuthForgotPassword(ctx)
			if err != nil {
				if status == http.StatusBadRequest {
					bindingError(ctx, err)
					return
				}
				apiError(ctx, status, err.Error())
				return
			}
			ctx.JSON(status, gin.H{"status": "success", "message": "If the address exists, a reset link has been sent"})
		}).
		POST("/reset-password", func(ctx *gin.Context) {
			status, err := controllers.AuthResetPassword(ctx)
			if err != nil {
				if status == http.StatusBadRequest {
					bindingError(ctx, err)
					return
				}
				apiError(ctx, status, err.Error())
				return
			}
			ctx.JSON(status, gin.H{"status": "success", "message": "Password updated"})
		})
	return g
}

func userHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/users", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			db := db.GetDb()
			var users []models.User
			if err := db.
				Model(&models.User{}).
				Order("created_at ASC").
				Find(&users).
				Error; err != nil {
				log.Printf("Error listing users: %s\n", err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": users, "count": len(users)})
		}).
		GET("/users/me", func(ctx *gin.Context) {
			db := db.GetDb()
			var user models.User
			if err := db.First(&user, ctx.GetUint("id")).Error; err != nil {
				apiError(ctx, http.StatusNotFound, "User not found")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": user})
		}).
		PATCH("/users/me", func(ctx *gin.Context) {
			var body types.UpdateProfileRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				bindingError(ctx, err)
				return
			}
			db := db.GetDb()
			var user models.User
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.First(&user, ctx.GetUint("id")).Error; err != nil {
					return err
				}
				if body.FirstName != nil {
					user.FirstName = *body.FirstName
				}
				if body.LastName != nil {
					user.LastName = *body.LastName
				}
				if body.Phone != nil {
					user.Phone = *body.Phone
				}
				if body.Address != nil {
					address := types.JSONB{
						"street":  body.Address.Street,
						"city":    body.Address.City,
						"state":   body.Address.State,
						"zipCode": body.Address.ZipCode,
						"country": body.Address.Country,
					}
					user.Address = &address
				}
				return tx.Save(&user).Error
			})
			if err != nil {
				log.Printf("Error updating profile for user [%d]: %s\n", ctx.GetUint("id"), err.Error())
				apiError(ctx, http.StatusInternalServerError, "Something went wrong. Please try again later.")
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": user})
		}).
		POST("/users/change-password", func(ctx *gin.Context) {
			status, err := controllers.AuthChangePassword(ctx, ctx.GetUint("id"))
			if err != nil {
				if status == http.StatusBadRequest {
					bindingError(ctx, err)
					return
				}
				apiError(ctx, status, err.Error())
				return
			}
			ctx.JSON(status, gin.H{"status": "success", "message": "Password updated"})
		})
	return g
}
