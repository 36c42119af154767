package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"accounthub/internal/middleware"
	"accounthub/internal/models"
	"accounthub/internal/services"
	"accounthub/internal/utils"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

type AuthHandler struct {
	userService     services.UserService
	authService     services.AuthService
	passwordService services.PasswordService
}

func NewAuthHandler(userService services.UserService, authService services.AuthService, passwordService services.PasswordService) *AuthHandler {
	return &AuthHandler{
		userService:     userService,
		authService:     authService,
		passwordService: passwordService,
	}
}

func (h *AuthHandler) issueAccessToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID: user.ID,
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(middleware.JWTKey())
}

// @Summary      Log in
// @Description  Authenticates an activated account and returns access/refresh tokens
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.userService.GetUserByEmail(email)
	if err != nil || user == nil {
		log.WithFields(log.Fields{"email": email}).Infof("[auth][login] unknown email: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !h.authService.CheckPassword(user.PasswordHash, strings.TrimSpace(req.Password)) {
		log.WithFields(log.Fields{"user_id": user.ID}).Info("[auth][login] password mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is not activated"})
		return
	}

	accessToken, err := h.issueAccessToken(user)
	if err != nil {
		log.WithFields(log.Fields{"user_id": user.ID}).Errorf("[auth][login] sign access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	// opaque refresh token, stored server-side
	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}
	if err := h.userService.UpdateRefresh(user.ID, rt, time.Now().Add(refreshTokenTTL)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
		return
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role_id": user.RoleID}).Info("[auth][login] success")
	c.JSON(http.StatusOK, gin.H{
		"user": user, // PasswordHash is json:"-"
		"tokens": gin.H{
			"access_token":  accessToken,
			"refresh_token": rt,
		},
	})
}

// @Summary      Rotate the refresh token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	old := strings.TrimSpace(req.RefreshToken)

	user, err := h.userService.GetByRefreshToken(old)
	if err != nil || user == nil || user.RefreshToken == nil || user.RefreshExpiresAt == nil || user.RefreshRevoked {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if time.Now().After(*user.RefreshExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		return
	}

	newRT, err := utils.NewRefreshToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rotate refresh token"})
		return
	}
	rotated, err := h.userService.RotateRefresh(old, newRT, time.Now().Add(refreshTokenTTL))
	if err != nil || rotated == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	accessToken, err := h.issueAccessToken(rotated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": newRT,
	})
}

// @Summary      Log out
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if err := h.userService.ClearRefresh(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// @Summary      Request a password reset code
// @Description  Sends a RESET_PASSWORD code to the account email; never discloses whether the email exists
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /password/reset/request [post]
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.passwordService.RequestReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, services.ErrDeliveryFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed, try again"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request reset"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a code was sent"})
}

// @Summary      Reset the password with a code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /password/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required,email"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.passwordService.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		respondVerificationError(c, err, "Failed to reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset"})
}

// @Summary      Request a password update code
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /password/update/request [post]
func (h *AuthHandler) RequestPasswordUpdate(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if err := h.passwordService.RequestPasswordUpdate(c.Request.Context(), userID); err != nil {
		if errors.Is(err, services.ErrDeliveryFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed, try again"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code sent"})
}

// @Summary      Update the password with a code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /password/update [post]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.passwordService.UpdatePassword(c.Request.Context(), userID, req.Code, req.NewPassword); err != nil {
		respondVerificationError(c, err, "Failed to update password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
