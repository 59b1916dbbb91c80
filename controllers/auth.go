package controllers

import (
	"net/http"
	"time"

	"reminder-bot/config"
	"reminder-bot/utils"

	"github.com/gin-gonic/gin"
)

type LoginInput struct {
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	HTTP config.HTTPConfig
}

// controllers/auth.go
func (a AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if !utils.CheckPasswordHash(input.Password, a.HTTP.AdminPasswordHash) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	expiry := time.Duration(a.HTTP.JWTExpiryHours) * time.Hour
	token, err := utils.GenerateToken(a.HTTP.JWTSecret, expiry)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": int(expiry.Seconds()),
	})
}
