package authUtils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"nivaran-be/models"
)

// TokenTTL is how long a session token stays valid.
const TokenTTL = 72 * time.Hour

// CookieName carries the token for browser clients.
const CookieName = "auth_token"

type Claims struct {
	Session models.Session `json:"session"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token carrying the session.
func GenerateToken(secret string, session models.Session, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret is not set")
	}

	claims := Claims{
		Session: session,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the signature and expiry and returns the session.
func ParseToken(secret, tokenString string) (models.Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return models.Session{}, err
	}
	if !token.Valid {
		return models.Session{}, errors.New("invalid token")
	}
	if claims.Session.ID == "" || !claims.Session.Role.Valid() {
		return models.Session{}, errors.New("invalid token claims")
	}
	return claims.Session, nil
}
