package domain

import "errors"

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when a catalog command is issued without an active session.
	ErrUnauthorized = errors.New("unauthorized")
)

// User is a registered account as persisted in the users slot.
// Password holds whatever the configured password scheme stores: the verbatim
// password for the plain scheme, a bcrypt hash otherwise.
type User struct {
	Username string `json:"username"` // Login username, unique and case-sensitive
	Password string `json:"password"` // Stored password value
}
