// Package auth provides functionality for generating and parsing JSON Web
// Tokens (JWT) for user authentication, and HTTP middleware that validates
// bearer tokens on protected routes.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"rewear/internal/models"
)

// secretKey is the key used to sign the JWT. Overridden from configuration
// at startup.
var secretKey = []byte("supersecretkey")

// tokenTTL defines the token expiration duration.
var tokenTTL = time.Hour * 3

// Configure sets the signing secret and token lifetime from configuration.
func Configure(secret string, ttl time.Duration) {
	if secret != "" {
		secretKey = []byte(secret)
	}
	if ttl > 0 {
		tokenTTL = ttl
	}
}

// Claims represents the custom JWT claims carrying the user identity and
// role alongside the standard registered claims.
type Claims struct {
	UserID int64       `json:"uid"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT for the given user id and role.
func GenerateToken(userID int64, role models.Role) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
		UserID: userID,
		Role:   role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseToken validates the provided JWT string and parses its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
