package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// AuthenticatedUser is the caller identity carried by a bearer JWT.
type AuthenticatedUser struct {
	Sub    string   `json:"sub"`
	Iss    string   `json:"iss"`
	Aud    []string `json:"aud"`
	Exp    int64    `json:"exp"`
	Iat    int64    `json:"iat"`
	Roles  []string `json:"roles"`
	Scopes []string `json:"scopes"`
}

// JwtAuthenticator validates HS256 tokens signed with a shared secret.
type JwtAuthenticator struct {
	secret []byte
}

func NewJwtAuthenticator(secret string) *JwtAuthenticator {
	return &JwtAuthenticator{secret: []byte(secret)}
}

// ValidateToken parses and verifies tokenString. Expired tokens and tokens signed with any other
// algorithm are rejected.
func (a *JwtAuthenticator) ValidateToken(tokenString string) (*AuthenticatedUser, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("JWT secret not configured")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}

	return a.mapClaimsToUser(claims)
}

func (a *JwtAuthenticator) mapClaimsToUser(claims map[string]interface{}) (*AuthenticatedUser, error) {
	user := &AuthenticatedUser{}

	if sub, ok := claims["sub"].(string); ok {
		user.Sub = sub
	}
	if iss, ok := claims["iss"].(string); ok {
		user.Iss = iss
	}
	if exp, ok := claims["exp"].(float64); ok {
		user.Exp = int64(exp)
	}
	if iat, ok := claims["iat"].(float64); ok {
		user.Iat = int64(iat)
	}

	switch aud := claims["aud"].(type) {
	case string:
		user.Aud = []string{aud}
	case []interface{}:
		user.Aud = toStrings(aud)
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		user.Roles = toStrings(roles)
	}
	if scopes, ok := claims["scopes"].([]interface{}); ok {
		user.Scopes = toStrings(scopes)
	}

	return user, nil
}

func toStrings(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
