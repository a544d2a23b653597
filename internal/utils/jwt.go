package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

// GenerateToken signs an HS256 token for the user and role.
func GenerateToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates tokenString and returns the bearer's identity.
func ParseToken(secret, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, errors.Join(jwt.ErrTokenInvalidClaims, err)
	}
	return Identity{UserID: id, Role: claims.Role}, nil
}
