package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/babbageLabs/insta-lite/internal/config"
	"github.com/babbageLabs/insta-lite/internal/middleware"
	"github.com/babbageLabs/insta-lite/internal/repository"
	"github.com/babbageLabs/insta-lite/internal/service"
	"github.com/babbageLabs/insta-lite/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AuthRequired runs against the real AuthService so issuer, audience and
// expiry checks are exercised end to end. Without Redis no token is
// treated as revoked.
func TestServer_AuthRequired(t *testing.T) {
	secret := "test-secret-key-12345678901234567890123456789012"
	cfg := &config.Config{JWTSecret: secret}
	tokens := middleware.NewTokenManager(cfg)
	db := testutil.NewSQLiteDB(t)
	s := &Server{
		config: cfg,
		auth:   service.NewAuthService(repository.NewUserRepository(db), tokens),
	}
	app := fiber.New()

	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		userID := c.Locals("userID")
		ctxUser, _ := c.UserContext().Value(middleware.UserIDKey).(uint)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": userID, "ctxUserID": ctxUser})
	})

	generateToken := func(sub any, issuer, audience string, exp time.Duration) string {
		claims := jwt.MapClaims{
			"sub": sub,
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
			"jti": "test-jti-valid-length",
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		str, _ := token.SignedString([]byte(secret))
		return str
	}
	issued, _, err := tokens.Issue(123)
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		tokenParam     string
		expectedStatus int
	}{
		{
			name:           "Issued Token",
			authHeader:     "Bearer " + issued,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + generateToken(strconv.Itoa(123), "insta-lite-api", "insta-lite-client", time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Valid Token via Query Param",
			tokenParam:     issued,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + generateToken("123", "insta-lite-api", "insta-lite-client", -time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Issuer",
			authHeader:     "Bearer " + generateToken("123", "wrong-issuer", "insta-lite-client", time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Audience",
			authHeader:     "Bearer " + generateToken("123", "insta-lite-api", "wrong-audience", time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Header and Param",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed Bearer Format",
			authHeader:     "BearerTokenOnly",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Numeric Subject",
			authHeader:     "Bearer " + generateToken(123, "insta-lite-api", "insta-lite-client", time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/protected"
			if tt.tokenParam != "" {
				path += "?token=" + tt.tokenParam
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				_ = json.NewDecoder(resp.Body).Decode(&body)
				assert.Equal(t, float64(123), body["userID"])
				assert.Equal(t, float64(123), body["ctxUserID"])
			}
			_ = resp.Body.Close()
		})
	}
}
