package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"accounthub/internal/authz"
	"accounthub/internal/models"
	"accounthub/internal/services"
)

type UserHandler struct {
	service services.UserService
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Register an account
// @Description  Creates an inactive account and sends activation codes to email and phone
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        request  body      registerRequest  true  "registration data"
// @Success      201      {object}  models.User
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Email, req.Phone, req.Password, authz.RoleUser)
	switch {
	case errors.Is(err, services.ErrEmailAlreadyRegistered),
		errors.Is(err, services.ErrPhoneAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrDeliveryFailed):
		// account exists and the code is issued; client can ask for a resend
		c.JSON(http.StatusCreated, gin.H{
			"user":    user,
			"warning": "activation code delivery failed, request a resend",
		})
		return
	case err != nil:
		log.Errorf("[users][register] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// @Summary      Activate an account
// @Description  Requires both ACTIVATION verifications (email + phone) to be checked first
// @Tags         Users
// @Accept       json
// @Produce      json
// @Success      200  {object}  models.User
// @Failure      409  {object}  map[string]string
// @Router       /register/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Activate(c.Request.Context(), req.Email, req.Phone)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	case errors.Is(err, services.ErrActivationIncomplete):
		c.JSON(http.StatusConflict, gin.H{"error": "verify both email and phone first"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary      Request a contact change code
// @Tags         Users
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /users/contact/request [post]
func (h *UserHandler) RequestContactChange(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Channel string `json:"channel" binding:"required"`
		Key     string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.RequestContactChange(c.Request.Context(), userID, models.VerificationChannel(req.Channel), req.Key)
	if err != nil {
		if errors.Is(err, services.ErrDeliveryFailed) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed, try again"})
			return
		}
		respondVerificationError(c, err, "Failed to request contact change")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code sent to the new contact"})
}

// @Summary      Confirm a contact change
// @Tags         Users
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /users/contact/confirm [post]
func (h *UserHandler) ConfirmContactChange(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req struct {
		Channel string `json:"channel" binding:"required"`
		Key     string `json:"key" binding:"required"`
		Code    string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.ConfirmContactChange(c.Request.Context(), userID, models.VerificationChannel(req.Channel), req.Key, req.Code)
	if err != nil {
		respondVerificationError(c, err, "Failed to confirm contact change")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contact updated"})
}

// @Summary      Get a user
// @Tags         Users
// @Produce      json
// @Param        id   path      int  true  "user id"
// @Success      200  {object}  models.User
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	callerID, roleID := getUserAndRole(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if id != callerID && !authz.IsElevated(roleID) && roleID != authz.RoleAudit {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	user, err := h.service.GetUserByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      List users
// @Tags         Users
// @Produce      json
// @Success      200  {array}  models.User
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.service.ListUsers(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Update a user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id   path      int  true  "user id"
// @Success      200  {object}  models.User
// @Router       /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.service.GetUserByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req struct {
		RoleID *int `json:"role_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RoleID != nil {
		user.RoleID = *req.RoleID
	}

	if err := h.service.UpdateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Delete a user
// @Tags         Users
// @Produce      json
// @Param        id   path      int  true  "user id"
// @Success      200  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if err := h.service.DeleteUser(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// @Summary      Count users
// @Tags         Users
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /users/count [get]
func (h *UserHandler) GetUserCount(c *gin.Context) {
	count, err := h.service.GetUserCount()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
