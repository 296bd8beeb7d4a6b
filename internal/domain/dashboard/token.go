package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/keto-dashboard/pkg/errors"
)

const sessionTokenType = "session"

type sessionClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

func (s *service) generateToken(sessionID uuid.UUID, issuedAt, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap("session_error", "failed to sign session token", err)
	}
	return signed, nil
}

func (s *service) parseToken(token string) (uuid.UUID, error) {
	if strings.TrimSpace(token) == "" {
		return uuid.Nil, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return uuid.Nil, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.TokenType != sessionTokenType {
		return uuid.Nil, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	if claims.ExpiresAt == nil {
		return uuid.Nil, apperrors.Wrap("invalid_token", "token missing expiry", nil)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperrors.Wrap("invalid_token", "token subject is not a session id", err)
	}
	return id, nil
}
