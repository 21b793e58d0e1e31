package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/niksmo/prime-house/internal/core/port"
)

const issuer = "prime-house"

var ErrEmptySecret = errors.New("jwt secret is empty")

var _ port.TokenService = (*JWT)(nil)

// A JWT issues and parses HS256 signed session tokens.
type JWT struct {
	secret []byte
	now    func() time.Time
}

func NewJWT(secret string) (JWT, error) {
	const op = "NewJWT"
	if secret == "" {
		return JWT{}, fmt.Errorf("%s: %w", op, ErrEmptySecret)
	}
	return JWT{secret: []byte(secret), now: time.Now}, nil
}

func (s JWT) IssueToken(
	email string, ttl time.Duration,
) (string, time.Time, error) {
	const op = "JWT.IssueToken"

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   email,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return token, expiresAt, nil
}

func (s JWT) ParseToken(token string) (string, error) {
	const op = "JWT.ParseToken"

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%s: %w", op, jwt.ErrTokenInvalidSubject)
	}
	return claims.Subject, nil
}
