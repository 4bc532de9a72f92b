package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func TestValidateTokenWithoutSecret(t *testing.T) {
	auth := NewJwtAuthenticator("")

	_, err := auth.ValidateToken("dummy.jwt.token")
	if err == nil {
		t.Fatal("Expected error when JWT secret is not configured")
	}

	expectedError := "JWT secret not configured"
	if err.Error() != expectedError {
		t.Errorf("Expected error message '%s', got '%s'", expectedError, err.Error())
	}
}

func TestMapClaimsToUser(t *testing.T) {
	auth := NewJwtAuthenticator("secret")

	claims := map[string]interface{}{
		"sub":    "keeper-admin",
		"iss":    "https://auth.example.com",
		"exp":    1234567890.0,
		"iat":    1234567800.0,
		"aud":    []interface{}{"audience1", "audience2"},
		"roles":  []interface{}{"admin", "user"},
		"scopes": []interface{}{"read", "write"},
	}

	user, err := auth.mapClaimsToUser(claims)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if user.Sub != "keeper-admin" {
		t.Errorf("Expected Sub to be 'keeper-admin', got '%s'", user.Sub)
	}
	if user.Iss != "https://auth.example.com" {
		t.Errorf("Expected Iss to be 'https://auth.example.com', got '%s'", user.Iss)
	}
	if user.Exp != 1234567890 || user.Iat != 1234567800 {
		t.Errorf("Unexpected Exp/Iat: %d/%d", user.Exp, user.Iat)
	}
	if len(user.Aud) != 2 || user.Aud[0] != "audience1" || user.Aud[1] != "audience2" {
		t.Errorf("Expected Aud to be ['audience1', 'audience2'], got %v", user.Aud)
	}
	if len(user.Roles) != 2 || user.Roles[0] != "admin" {
		t.Errorf("Expected Roles to be ['admin', 'user'], got %v", user.Roles)
	}
	if len(user.Scopes) != 2 || user.Scopes[1] != "write" {
		t.Errorf("Expected Scopes to be ['read', 'write'], got %v", user.Scopes)
	}
}

func TestMapClaimsToUserWithSingleAudience(t *testing.T) {
	auth := NewJwtAuthenticator("secret")

	user, err := auth.mapClaimsToUser(map[string]interface{}{"aud": "single-audience"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(user.Aud) != 1 || user.Aud[0] != "single-audience" {
		t.Errorf("Expected Aud to be ['single-audience'], got %v", user.Aud)
	}
}

func TestValidateTokenWithRealSignature(t *testing.T) {
	auth := NewJwtAuthenticator("shared-secret")

	token := signHS256(t, "shared-secret", jwt.MapClaims{
		"sub": "keeper-admin",
		"aud": "actionkeeper",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	user, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("Expected token to validate, got %v", err)
	}
	if user.Sub != "keeper-admin" {
		t.Errorf("Expected Sub to be 'keeper-admin', got '%s'", user.Sub)
	}
	if len(user.Aud) != 1 || user.Aud[0] != "actionkeeper" {
		t.Errorf("Unexpected audience %v", user.Aud)
	}
}

func TestValidateTokenRejectsBadTokens(t *testing.T) {
	auth := NewJwtAuthenticator("shared-secret")

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "wrong secret",
			token: signHS256(t, "other-secret", jwt.MapClaims{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()}),
		},
		{
			name:  "expired",
			token: signHS256(t, "shared-secret", jwt.MapClaims{"sub": "x", "exp": time.Now().Add(-time.Hour).Unix()}),
		},
		{
			name:  "garbage",
			token: "not-a-jwt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.ValidateToken(tt.token); err == nil {
				t.Errorf("Expected %s token to be rejected", tt.name)
			}
		})
	}
}

func TestValidateTokenRejectsNoneAlgorithm(t *testing.T) {
	auth := NewJwtAuthenticator("shared-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Failed to build unsigned token: %v", err)
	}

	if _, err := auth.ValidateToken(signed); err == nil {
		t.Error("Expected unsigned token to be rejected")
	}
}
