package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rxtech-lab/actionkeeper/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(handler)
	app.All("/*", func(c *fiber.Ctx) error {
		if user := GetAuthenticatedUser(c); user != nil {
			return c.SendString("user:" + user.Sub)
		}
		return c.SendString("ok")
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, _ = buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.String()
}

func TestAuthMiddleware(t *testing.T) {
	jwtSecret := "jwt-secret"
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "keeper-admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	tests := []struct {
		name       string
		config     AuthConfig
		header     string
		wantStatus int
		wantBody   string
	}{
		{"disabled", AuthConfig{}, "", http.StatusOK, "ok"},
		{"missing token", AuthConfig{APIToken: "secret"}, "", http.StatusUnauthorized, "Missing or invalid API token."},
		{"wrong scheme", AuthConfig{APIToken: "secret"}, "Basic secret", http.StatusUnauthorized, ""},
		{"wrong token", AuthConfig{APIToken: "secret"}, "Bearer nope", http.StatusUnauthorized, ""},
		{"static token", AuthConfig{APIToken: "secret"}, "Bearer secret", http.StatusOK, "ok"},
		{"jwt", AuthConfig{APIToken: "secret", JWTAuthenticator: utils.NewJwtAuthenticator(jwtSecret)}, "Bearer " + signed, http.StatusOK, "user:keeper-admin"},
		{"jwt only rejects static", AuthConfig{JWTAuthenticator: utils.NewJwtAuthenticator(jwtSecret)}, "Bearer secret", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(AuthMiddleware(tt.config))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/agreements", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			status, body := doRequest(t, app, req)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantBody != "" {
				assert.Contains(t, body, tt.wantBody)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2)
	app := newTestApp(limiter.Handler())

	for i := 0; i < 2; i++ {
		status, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, status)
	}
	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, body, "Rate limit exceeded")

	limiter.Reset()
	status, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, status)
}

func TestRateLimiterDisabled(t *testing.T) {
	app := newTestApp(NewRateLimiter(0).Handler())
	for i := 0; i < 20; i++ {
		status, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, status)
	}
}

func TestWebhookAuth(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	body := `{"payment_id":"p1","event":"checkout.session.completed"}`
	cfg := WebhookConfig{Secret: "whsec", Tolerance: 5 * time.Minute, Now: func() time.Time { return now }}

	tests := []struct {
		name       string
		cfg        WebhookConfig
		headers    map[string]string
		wantStatus int
	}{
		{"disabled", WebhookConfig{}, nil, http.StatusOK},
		{"missing", cfg, nil, http.StatusUnauthorized},
		{"shared secret", cfg, map[string]string{WebhookSecretHeader: "whsec"}, http.StatusOK},
		{"wrong shared secret", cfg, map[string]string{WebhookSecretHeader: "nope"}, http.StatusUnauthorized},
		{"stripe signature", cfg, map[string]string{StripeSignatureHeader: SignStripePayload([]byte(body), "whsec", now)}, http.StatusOK},
		{"stripe signature wrong secret", cfg, map[string]string{StripeSignatureHeader: SignStripePayload([]byte(body), "other", now)}, http.StatusUnauthorized},
		{"stripe signature stale", cfg, map[string]string{StripeSignatureHeader: SignStripePayload([]byte(body), "whsec", now.Add(-10*time.Minute))}, http.StatusUnauthorized},
		{"stripe header malformed", cfg, map[string]string{StripeSignatureHeader: "garbage"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(WebhookAuth(tt.cfg))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			status, _ := doRequest(t, app, req)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestVerifyStripeSignatureMultipleSignatures(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)
	body := []byte(`{}`)
	valid := SignStripePayload(body, "whsec", now)
	header := valid + ",v1=deadbeef"

	assert.True(t, VerifyStripeSignature(header, body, "whsec", time.Minute, now))
	assert.False(t, VerifyStripeSignature(header, []byte(`{"x":1}`), "whsec", time.Minute, now))
	assert.True(t, VerifyStripeSignature(valid, body, "whsec", 0, now.Add(24*time.Hour)))
}
