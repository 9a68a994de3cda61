package auth

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

const (
	testKey    = "test-secret"
	testIssuer = "varna-registrations"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("admin@example.com", testIssuer, testKey, 12*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Value)

	claims, err := Parse(tok.Value, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin@example.com", claims.Subject)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, 12*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.WithinDuration(t, tok.ExpiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestParseRejects(t *testing.T) {
	tok, err := Issue("admin@example.com", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok.Value, "rotated-secret", testIssuer)
	assert.Error(t, err, "secret rotation invalidates old tokens")

	_, err = Parse(tok.Value, testKey, "someone-else")
	assert.Error(t, err)

	expired, err := Issue("admin@example.com", testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	_, err = Parse(expired.Value, testKey, testIssuer)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	_, err = Parse("not-a-token", testKey, testIssuer)
	assert.Error(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Email:            "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: testIssuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testKey))
	require.NoError(t, err)
	_, err = Parse(hs512, testKey, testIssuer)
	assert.Error(t, err)
}

func TestAdminAuthenticate(t *testing.T) {
	admin := Admin{Email: "admin@example.com", Password: "password123"}

	assert.NoError(t, admin.Authenticate("admin@example.com", "password123"))
	assert.NoError(t, admin.Authenticate(" admin@example.com ", "password123"))
	assert.ErrorIs(t, admin.Authenticate("admin@example.com", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, admin.Authenticate("other@example.com", "password123"), ErrInvalidCredentials)
	assert.ErrorIs(t, admin.Authenticate("", ""), ErrInvalidCredentials)
	assert.ErrorIs(t, Admin{}.Authenticate("", ""), ErrInvalidCredentials)
}

func TestAdminAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AdminAuth(testKey, testIssuer), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(AdminEmailKey)})
	})

	good, err := Issue("admin@example.com", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	expired, err := Issue("admin@example.com", testIssuer, testKey, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"no header", "", http.StatusUnauthorized, `{"error":"Missing token"}`},
		{"basic scheme", "Basic abc", http.StatusUnauthorized, `{"error":"Missing token"}`},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, `{"error":"Missing token"}`},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, `{"error":"Invalid token"}`},
		{"expired", "Bearer " + expired.Value, http.StatusUnauthorized, `{"error":"Invalid token"}`},
		{"valid", "Bearer " + good.Value, http.StatusOK, `{"email":"admin@example.com"}`},
		{"lowercase scheme", "bearer " + good.Value, http.StatusOK, `{"email":"admin@example.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}
