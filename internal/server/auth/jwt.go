// Package auth verifies the platform-issued access JWTs carried on incoming
// requests. Token issuance belongs to the identity service.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/studyvault/noteaccess/internal/common"
)

// Claims extends the registered JWT claims with the platform user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// GetUserIDFromToken parses and verifies an HS256 access token and returns
// the embedded user id.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
