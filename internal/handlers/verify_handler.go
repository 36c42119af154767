package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"accounthub/internal/models"
	"accounthub/internal/services"
)

// VerifyHandler exposes the verification engine directly: issue a code,
// check a code, query and drop verification state.
type VerifyHandler struct {
	verifications services.VerificationService
}

func NewVerifyHandler(verifications services.VerificationService) *VerifyHandler {
	return &VerifyHandler{verifications: verifications}
}

func parseItem(raw string) (models.VerificationItem, bool) {
	item := models.VerificationItem(raw)
	return item, item.Valid()
}

// @Summary      Send a verification code
// @Description  Issues (or re-issues) a code for the item and dispatches it via the channel
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        request  body      object  true  "item, channel, key"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]string
// @Failure      502      {object}  map[string]string
// @Router       /verify/send [post]
func (h *VerifyHandler) Send(c *gin.Context) {
	var req struct {
		Item    string `json:"item" binding:"required"`
		Channel string `json:"channel" binding:"required"`
		Key     string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, ok := parseItem(req.Item)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown item"})
		return
	}

	rec, err := h.verifications.SendVerificationMessage(
		c.Request.Context(), item,
		models.VerificationChannel(req.Channel),
		services.VerificationPayload{Key: req.Key},
	)
	switch {
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrDeliveryFailed):
		// the code is persisted; the client may retry the send or check later
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed, code was issued"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send verification code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Code sent", "expired_at": rec.ExpiredAt})
}

// @Summary      Check a verification code
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        request  body      object  true  "item, key, code"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      429      {object}  map[string]string
// @Router       /verify/check [post]
func (h *VerifyHandler) Check(c *gin.Context) {
	var req struct {
		Item string `json:"item" binding:"required"`
		Key  string `json:"key" binding:"required"`
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, ok := parseItem(req.Item)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown item"})
		return
	}

	err := h.verifications.CheckVerification(c.Request.Context(), item, services.VerificationPayload{Key: req.Key, Code: req.Code})
	switch {
	case errors.Is(err, services.ErrVerificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no active verification, request a new code"})
		return
	case errors.Is(err, services.ErrRetryLimitExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "retry limit exceeded, request a new code"})
		return
	case errors.Is(err, services.ErrCodeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verified"})
}

// @Summary      Verification status
// @Tags         Verification
// @Produce      json
// @Param        item  query  string  true  "verification item"
// @Param        key   query  string  true  "contact key"
// @Success      200   {object}  map[string]bool
// @Router       /verify/status [get]
func (h *VerifyHandler) Status(c *gin.Context) {
	item, ok := parseItem(c.Query("item"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown item"})
		return
	}
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	verified, err := h.verifications.IsVerified(c.Request.Context(), item, key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_verified": verified})
}

// @Summary      Delete a verification
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        request  body      object  true  "item, key"
// @Success      200      {object}  map[string]string
// @Router       /verify [delete]
func (h *VerifyHandler) Delete(c *gin.Context) {
	var req struct {
		Item string `json:"item" binding:"required"`
		Key  string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, ok := parseItem(req.Item)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown item"})
		return
	}

	// idempotent: deleting an absent verification succeeds
	if err := h.verifications.DeleteVerification(c.Request.Context(), item, req.Key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete verification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}
