package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
	"github.com/mkrupp/homecase-catalog/internal/repo/slot"
)

// ErrUsernameRequired is returned when signing up with a blank username while
// AuthConfig.RequireUsername is set.
var ErrUsernameRequired = errors.New("username is required")

// AuthConfig contains configuration parameters for the credential store.
type AuthConfig struct {
	// PasswordScheme selects how passwords are stored: "plain" or "bcrypt"
	PasswordScheme string `env:"PASSWORD_SCHEME" default:"plain" toml:"password_scheme"`

	// BcryptCost is the bcrypt work factor used by the bcrypt scheme
	BcryptCost int `env:"BCRYPT_COST" default:"10" toml:"bcrypt_cost"`

	// RequireUsername rejects blank usernames on sign-up
	RequireUsername bool `env:"REQUIRE_USERNAME" default:"false" toml:"require_username"`
}

// AuthService owns the registered users and the single active session.
// Users live in the users slot, rewritten in full on every sign-up; the session
// username lives in the user slot.
type AuthService struct {
	Config AuthConfig
	Store  slot.Repository
	Scheme PasswordScheme
	Log    logging.Logger

	session  string
	loggedIn bool
	m        sync.Mutex
}

// NewAuthService creates an AuthService writing through store.
// The session starts logged out; call RestoreSession once at startup.
func NewAuthService(store slot.Repository, cfg AuthConfig) (*AuthService, error) {
	scheme, err := NewPasswordScheme(cfg.PasswordScheme, cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("new password scheme: %w", err)
	}

	return &AuthService{
		Config: cfg,
		Store:  store,
		Scheme: scheme,
		Log:    logging.GetLogger("svc.authsvc.auth_service"),
	}, nil
}

// SignUp registers a new user. It does not log the user in.
// Returns domain.ErrUserAlreadyExists if the username is taken (exact, case-sensitive match).
func (s *AuthService) SignUp(ctx context.Context, username, password string) (err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "sign up failed", "error", err)
		} else {
			log.DebugContext(ctx, "user signed up")
		}
	}()

	if s.Config.RequireUsername && strings.TrimSpace(username) == "" {
		return errors.Join(domain.ErrValidation, ErrUsernameRequired)
	}

	s.m.Lock()
	defer s.m.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	if slices.ContainsFunc(users, func(u domain.User) bool { return u.Username == username }) {
		return fmt.Errorf("%w: %q", domain.ErrUserAlreadyExists, username)
	}

	stored, err := s.scheme().Encode(password)
	if err != nil {
		return fmt.Errorf("encode password: %w", err)
	}

	users = append(users, domain.User{Username: username, Password: stored})

	if err := s.saveUsers(ctx, users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}

	return nil
}

// LogIn starts a session for username if the password matches.
// Returns domain.ErrInvalidCredentials otherwise; the session is left unchanged.
func (s *AuthService) LogIn(ctx context.Context, username, password string) (err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	s.m.Lock()
	defer s.m.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	idx := slices.IndexFunc(users, func(u domain.User) bool { return u.Username == username })
	if idx < 0 || !s.scheme().Verify(users[idx].Password, password) {
		return domain.ErrInvalidCredentials
	}

	text, err := json.Marshal(username)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.Store.Save(ctx, domain.SlotSession, string(text)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	s.session = username
	s.loggedIn = true

	return nil
}

// LogOut ends the session and removes the session slot. Logging out while
// logged out is a no-op.
func (s *AuthService) LogOut(ctx context.Context) (err error) {
	s.m.Lock()
	defer s.m.Unlock()

	log := s.Log.With(logging.Group("user", "username", s.session))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "logout failed", "error", err)
		} else {
			log.DebugContext(ctx, "logged out")
		}
	}()

	if err := s.Store.Remove(ctx, domain.SlotSession); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}

	s.session = ""
	s.loggedIn = false

	return nil
}

// RestoreSession reads the session slot and, if it is present, treats the user
// it names as logged in without checking the password again.
func (s *AuthService) RestoreSession(ctx context.Context) (username string, ok bool, err error) {
	defer func() {
		log := s.Log.With(logging.Group("user", "username", username))
		if err != nil {
			log.ErrorContext(ctx, "restore session failed", "error", err)
		} else {
			log.DebugContext(ctx, "session restored", "loggedIn", ok)
		}
	}()

	text, found, err := s.Store.Load(ctx, domain.SlotSession)
	if err != nil {
		return "", false, fmt.Errorf("load session: %w", err)
	}

	if found {
		username = decodeSession(text)
	}

	s.m.Lock()
	defer s.m.Unlock()

	s.session = username
	s.loggedIn = found

	return username, found, nil
}

// CurrentSession returns the username of the active session.
func (s *AuthService) CurrentSession() (string, bool) {
	s.m.Lock()
	defer s.m.Unlock()

	return s.session, s.loggedIn
}

// ListUsers returns the registered users in registration order.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.m.Lock()
	defer s.m.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	return users, nil
}

func (s *AuthService) scheme() PasswordScheme {
	if s.Scheme == nil {
		return plainScheme{}
	}

	return s.Scheme
}

// loadUsers re-reads the users slot; another client sharing the store may have
// added users since the last call.
func (s *AuthService) loadUsers(ctx context.Context) ([]domain.User, error) {
	text, ok, err := s.Store.Load(ctx, domain.SlotUsers)
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}

	if !ok || strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var users []domain.User
	if err := json.Unmarshal([]byte(text), &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	return users, nil
}

func (s *AuthService) saveUsers(ctx context.Context, users []domain.User) error {
	text, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	if err := s.Store.Save(ctx, domain.SlotUsers, string(text)); err != nil {
		return fmt.Errorf("save slot: %w", err)
	}

	return nil
}

// decodeSession accepts a JSON string and, for data written by older clients,
// a bare username.
func decodeSession(text string) string {
	var username string
	if err := json.Unmarshal([]byte(text), &username); err == nil {
		return username
	}

	return strings.TrimSpace(text)
}
