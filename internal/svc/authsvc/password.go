package authsvc

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownPasswordScheme is returned when AuthConfig names an unsupported scheme.
var ErrUnknownPasswordScheme = errors.New("unknown password scheme")

// Password schemes.
const (
	// PasswordSchemePlain stores passwords verbatim in the users slot.
	PasswordSchemePlain = "plain"
	// PasswordSchemeBcrypt stores bcrypt hashes in the password field.
	PasswordSchemeBcrypt = "bcrypt"
)

// PasswordScheme turns passwords into stored values and checks them again.
type PasswordScheme interface {
	// Encode returns the value persisted for password.
	Encode(password string) (string, error)
	// Verify reports whether password matches the persisted value.
	Verify(stored, password string) bool
}

// NewPasswordScheme returns the scheme named by name. cost is only used by bcrypt.
func NewPasswordScheme(name string, cost int) (PasswordScheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PasswordSchemePlain, "":
		return plainScheme{}, nil
	case PasswordSchemeBcrypt:
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}

		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
		}

		return bcryptScheme{cost: cost}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPasswordScheme, name)
	}
}

type plainScheme struct{}

func (plainScheme) Encode(password string) (string, error) {
	return password, nil
}

func (plainScheme) Verify(stored, password string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

type bcryptScheme struct {
	cost int
}

func (s bcryptScheme) Encode(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}

	return string(hash), nil
}

func (bcryptScheme) Verify(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
