// Package auth is the opaque per-connection authentication hook. Token
// issuance lives elsewhere; the gateway only verifies that a presented
// token was signed with the shared secret and extracts the user identity.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid auth token")

// Validate verifies an HS256-signed token and returns its subject. The
// subject claim carries the user id; "sub" is preferred, "player_id" is
// accepted for older token issuers.
func Validate(secret, tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}

	if sub, _ := claims["sub"].(string); sub != "" {
		return sub, nil
	}
	if pid, _ := claims["player_id"].(string); pid != "" {
		return pid, nil
	}
	return "", ErrInvalidToken
}
