package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnauthenticated is the single rejection a failed session decode produces.
// Callers never learn whether the token was missing, expired or forged.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims represents the session JWT claims
type Claims struct {
	TelegramID int64 `json:"telegram_id"`
	jwt.RegisteredClaims
}

// SessionCodec issues and decodes signed session tokens
type SessionCodec struct {
	secret   []byte
	duration time.Duration
}

// NewSessionCodec creates a SessionCodec with the given signing secret and
// token lifetime
func NewSessionCodec(secret string, duration time.Duration) *SessionCodec {
	return &SessionCodec{
		secret:   []byte(secret),
		duration: duration,
	}
}

// Issue generates a session token for a Telegram user ID
func (c *SessionCodec) Issue(telegramID int64) (string, error) {
	now := time.Now()

	claims := &Claims{
		TelegramID: telegramID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)

	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Decode verifies a session token and returns the Telegram user ID it binds.
// Any failure maps to ErrUnauthenticated.
func (c *SessionCodec) Decode(tokenString string) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})

	if err != nil || !token.Valid || claims.TelegramID == 0 {
		return 0, ErrUnauthenticated
	}

	return claims.TelegramID, nil
}

// Duration returns the configured token lifetime
func (c *SessionCodec) Duration() time.Duration {
	return c.duration
}
