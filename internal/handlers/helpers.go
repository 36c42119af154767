package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"accounthub/internal/services"
)

// tolerant of claim value types (int / int64 / float64 / string)
func getIntFromCtx(c *gin.Context, key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n, true
		}
	}
	return 0, false
}

func getUserAndRole(c *gin.Context) (userID, roleID int) {
	if id, ok := getIntFromCtx(c, "user_id"); ok {
		userID = id
	}
	if id, ok := getIntFromCtx(c, "role_id"); ok {
		roleID = id
	}
	return
}

// respondVerificationError maps the engine's error kinds onto HTTP
// statuses; anything unrecognized is an internal error with a generic
// message.
func respondVerificationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrVerificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no active verification, request a new code"})
	case errors.Is(err, services.ErrRetryLimitExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "retry limit exceeded, request a new code"})
	case errors.Is(err, services.ErrCodeMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
