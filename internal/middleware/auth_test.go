package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	SetJWTKey([]byte("test-secret"))

	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		id, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return r
}

func signToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := &Claims{
		UserID: 7,
		RoleID: 10,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTKey())
	require.NoError(t, err)
	return s
}

func doAuthed(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	r := newAuthRouter(t)

	w := doAuthed(r, signToken(t, time.Now().Add(10*time.Minute)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7}`, w.Body.String())
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	r := newAuthRouter(t)

	w := doAuthed(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareExpiryLeeway(t *testing.T) {
	r := newAuthRouter(t)

	// just past expiry, inside the 2-minute leeway window
	w := doAuthed(r, signToken(t, time.Now().Add(-30*time.Second)))
	assert.Equal(t, http.StatusOK, w.Code)

	// well past the leeway window
	w = doAuthed(r, signToken(t, time.Now().Add(-5*time.Minute)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMissingExpiry(t *testing.T) {
	r := newAuthRouter(t)

	claims := &Claims{UserID: 7, RoleID: 10}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTKey())
	require.NoError(t, err)

	w := doAuthed(r, s)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsWrongAlg(t *testing.T) {
	r := newAuthRouter(t)

	// alg=none tokens must never pass
	claims := &Claims{UserID: 7, RoleID: 10, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	w := doAuthed(r, s)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
