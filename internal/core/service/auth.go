package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
)

var _ port.Authenticator = (*Auth)(nil)

type Auth struct {
	passwords port.PasswordVerifier
	tokens    port.TokenService
	adminHash string
	tokenTTL  time.Duration
}

func NewAuth(
	passwords port.PasswordVerifier,
	tokens port.TokenService,
	adminHash string,
	tokenTTL time.Duration,
) Auth {
	return Auth{
		passwords: passwords,
		tokens:    tokens,
		adminHash: adminHash,
		tokenTTL:  tokenTTL,
	}
}

func (a Auth) Login(
	ctx context.Context, email, password string,
) (domain.Session, error) {
	const op = "Auth.Login"
	log := slog.With("op", op, "email", email)

	if err := ctx.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.passwords.VerifyPassword(email, password); err != nil {
		log.Warn("rejected login", "err", err)
		return domain.Session{}, fmt.Errorf(
			"%s: %w", op, domain.ErrInvalidCredentials,
		)
	}

	token, expiresAt, err := a.tokens.IssueToken(email, a.tokenTTL)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	admin := IsAdmin(email, a.adminHash)
	log.Info("logged in", "admin", admin)

	return domain.Session{
		Token:     token,
		Email:     email,
		Admin:     admin,
		ExpiresAt: expiresAt,
	}, nil
}

func (a Auth) Authenticate(
	ctx context.Context, token string,
) (domain.Identity, error) {
	const op = "Auth.Authenticate"

	if err := ctx.Err(); err != nil {
		return domain.Identity{}, fmt.Errorf("%s: %w", op, err)
	}

	if token == "" {
		return domain.Identity{}, fmt.Errorf(
			"%s: %w", op, domain.ErrUnauthenticated,
		)
	}

	email, err := a.tokens.ParseToken(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf(
			"%s: %w", op, errors.Join(domain.ErrUnauthenticated, err),
		)
	}

	return domain.Identity{
		Email: email,
		Admin: IsAdmin(email, a.adminHash),
	}, nil
}
