package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	WebhookSecretHeader   = "X-Webhook-Secret"
	StripeSignatureHeader = "Stripe-Signature"
)

// WebhookConfig configures webhook authentication.
type WebhookConfig struct {
	// Secret is both the shared header secret and the Stripe signing secret. Empty disables the check.
	Secret string
	// Tolerance bounds the Stripe timestamp skew. Zero skips the skew check.
	Tolerance time.Duration
	Now       func() time.Time
}

// WebhookAuth accepts a request carrying either the shared secret header or a valid
// Stripe-Signature (t=<unix>,v1=<hex hmac of "t.body">).
func WebhookAuth(cfg WebhookConfig) fiber.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		if cfg.Secret == "" {
			return c.Next()
		}

		if provided := c.Get(WebhookSecretHeader); provided != "" && hmac.Equal([]byte(provided), []byte(cfg.Secret)) {
			return c.Next()
		}

		if header := c.Get(StripeSignatureHeader); header != "" &&
			VerifyStripeSignature(header, c.Body(), cfg.Secret, cfg.Tolerance, now()) {
			return c.Next()
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid webhook signature",
		})
	}
}

// SignStripePayload builds a Stripe-Signature header value for body at ts.
func SignStripePayload(body []byte, secret string, ts time.Time) string {
	timestamp := strconv.FormatInt(ts.Unix(), 10)
	return "t=" + timestamp + ",v1=" + stripeMAC(timestamp, body, secret)
}

// VerifyStripeSignature checks any v1 signature in header against body.
func VerifyStripeSignature(header string, body []byte, secret string, tolerance time.Duration, receivedAt time.Time) bool {
	timestamp, signatures := parseStripeSignatureHeader(header)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || ts <= 0 || len(signatures) == 0 {
		return false
	}

	if tolerance > 0 {
		skew := receivedAt.Sub(time.Unix(ts, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > tolerance {
			return false
		}
	}

	expected, _ := hex.DecodeString(stripeMAC(timestamp, body, secret))
	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			return true
		}
	}
	return false
}

func stripeMAC(timestamp string, body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseStripeSignatureHeader(header string) (string, []string) {
	var timestamp string
	var v1 []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key, val := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch {
		case key == "t" && timestamp == "":
			timestamp = val
		case key == "v1" && val != "":
			v1 = append(v1, val)
		}
	}
	return timestamp, v1
}
