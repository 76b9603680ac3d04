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

	"github.com/d60-Lab/social-blog/config"
)

func init() { gin.SetMode(gin.TestMode) }

func newAuthRouter(a *TokenAuth) *gin.Engine {
	r := gin.New()
	echo := func(c *gin.Context) { c.String(http.StatusOK, Principal(c)) }
	r.GET("/required", a.Required(), echo)
	r.GET("/optional", a.Optional(), echo)
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenAuth(t *testing.T) {
	a := NewTokenAuth(config.JWTConfig{Secret: "s3cret", Issuer: "social-blog"})
	r := newAuthRouter(a)

	token, err := a.Issue("acc-1", time.Minute)
	require.NoError(t, err)

	w := do(r, "/required", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acc-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "/required", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/required", "Bearer garbage").Code)

	w = do(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, do(r, "/optional", "Bearer garbage").Code)
}

func TestTokenAuth_RejectsForeignTokens(t *testing.T) {
	a := NewTokenAuth(config.JWTConfig{Secret: "s3cret", Issuer: "social-blog"})

	other := NewTokenAuth(config.JWTConfig{Secret: "other", Issuer: "social-blog"})
	token, err := other.Issue("acc-1", time.Minute)
	require.NoError(t, err)
	_, err = a.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewTokenAuth(config.JWTConfig{Secret: "s3cret", Issuer: "someone-else"})
	token, err = wrongIssuer.Issue("acc-1", time.Minute)
	require.NoError(t, err)
	_, err = a.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := a.Issue("acc-1", -time.Minute)
	require.NoError(t, err)
	_, err = a.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "acc-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = a.Parse(noneAlg)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Parse("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(0.001, 2)
	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per key")

	r := gin.New()
	r.POST("/v", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusAccepted) })
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v", nil)
		req.RemoteAddr = "3.3.3.3:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)
}
