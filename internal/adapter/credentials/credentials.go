package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/niksmo/prime-house/internal/core/port"
	"golang.org/x/crypto/bcrypt"
)

var ErrUnknownUser = errors.New("unknown user")

var _ port.PasswordVerifier = (*Users)(nil)

type User struct {
	Email        string
	PasswordHash string
}

// Users verifies passwords against bcrypt hashes of the configured users.
// Emails are compared case-insensitively.
type Users struct {
	hashes map[string][]byte
}

func NewUsers(users []User) (Users, error) {
	const op = "NewUsers"

	hashes := make(map[string][]byte, len(users))
	for _, u := range users {
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return Users{}, fmt.Errorf("%s: user %q: %w", op, u.Email, err)
		}
		hashes[normalizeEmail(u.Email)] = []byte(u.PasswordHash)
	}
	return Users{hashes}, nil
}

func (u Users) VerifyPassword(email, password string) error {
	const op = "Users.VerifyPassword"

	hash, ok := u.hashes[normalizeEmail(email)]
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrUnknownUser)
	}

	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HashPassword is used by operators to fill in the users config.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("HashPassword: %w", err)
	}
	return string(b), nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
