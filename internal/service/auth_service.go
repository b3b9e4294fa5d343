package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/TWRT/board-sync/internal/client"
	"github.com/TWRT/board-sync/internal/models"
	"github.com/TWRT/board-sync/internal/repository"
	"github.com/TWRT/board-sync/internal/state"
	"github.com/TWRT/board-sync/internal/validate"
)

const usersPath = "users"

const (
	msgUserNotFound      = "User not found"
	msgInvalidPassword   = "Invalid password"
	msgPasswordsMismatch = "Passwords do not match"
	msgEmailRegistered   = "Email already registered"
)

var ErrInvalidToken = errors.New("invalid session token")

// AuthResult reports login and registration outcomes. Wrong credentials are a
// result, not an error.
type AuthResult struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Token   string              `json:"token,omitempty"`
	User    *models.CurrentUser `json:"user,omitempty"`
}

type AuthConfig struct {
	SigningKey []byte
	TokenTTL   time.Duration
}

type AuthService struct {
	store    client.DocumentStore
	sessions *repository.SessionRepository
	cfg      AuthConfig
	logger   zerolog.Logger
	users    *state.Value[[]models.User]
	kept     undecodedMembers
	now      func() time.Time

	writeMu sync.Mutex
}

func NewAuthService(
	store client.DocumentStore,
	sessions *repository.SessionRepository,
	cfg AuthConfig,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		store:    store,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With().Str("service", "auth").Logger(),
		users:    state.NewValue([]models.User{}),
		now:      time.Now,
	}
}

func (s *AuthService) LoadUsers(ctx context.Context) []models.User {
	users, undecoded := decodeCollection[models.User](s.logger, usersPath, s.store.Load(ctx, usersPath))
	s.kept.Set(undecoded)
	s.users.Set(users)
	return users
}

// Login checks credentials against a fresh copy of the users collection and
// opens a session on success.
func (s *AuthService) Login(ctx context.Context, creds models.LoginCredentials) (AuthResult, error) {
	users := s.LoadUsers(ctx)

	if creds.Email == models.GuestEmail && creds.Password == models.GuestPassword {
		return s.openSession(ctx, models.GuestUser)
	}

	idx := slices.IndexFunc(users, func(u models.User) bool { return u.Email == creds.Email })
	if idx < 0 {
		s.logger.Info().Str("email", creds.Email).Msg("login for unknown user")
		return AuthResult{Error: msgUserNotFound}, nil
	}

	user := users[idx]
	match, err := checkPassword(creds.Password, user.Pw)
	if err != nil {
		return AuthResult{}, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		s.logger.Info().Str("email", creds.Email).Msg("password mismatch")
		return AuthResult{Error: msgInvalidPassword}, nil
	}

	return s.openSession(ctx, user.Current())
}

func ValidateRegistration(data models.RegisterData) error {
	errs := validate.Errors{}
	if strings.TrimSpace(data.Name) == "" {
		errs.Add("name", "Name is required")
	}
	if strings.TrimSpace(data.Email) == "" {
		errs.Add("email", "Email is required")
	} else if !validate.IsEmail(data.Email) {
		errs.Add("email", validate.MsgInvalidEmail)
	}
	if data.Password == "" {
		errs.Add("password", "Password is required")
	} else if len(data.Password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if data.ConfirmPassword == "" {
		errs.Add("confirm_password", "Please confirm your password")
	}
	if !data.AcceptPrivacy {
		errs.Add("accept_privacy", "Please accept the privacy policy")
	}
	return errs.Err()
}

// Register appends a team member. The password is stored as an argon2id hash.
func (s *AuthService) Register(ctx context.Context, data models.RegisterData) (AuthResult, error) {
	if data.Password != data.ConfirmPassword {
		return AuthResult{Error: msgPasswordsMismatch}, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	users := s.LoadUsers(ctx)
	if slices.ContainsFunc(users, func(u models.User) bool { return u.Email == data.Email }) {
		return AuthResult{Error: msgEmailRegistered}, nil
	}

	hash, err := argon2id.CreateHash(data.Password, argon2id.DefaultParams)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:    data.Email,
		Name:     data.Name,
		Initials: models.Initials(data.Name),
		Pw:       hash,
	}
	updated := make([]models.User, 0, len(users)+1)
	updated = append(updated, users...)
	updated = append(updated, user)

	if s.store.Put(ctx, usersPath, collectionDoc(updated, s.kept.Get())) == nil {
		return AuthResult{}, ErrPersistFailed
	}
	s.users.Set(updated)

	s.logger.Info().Str("email", user.Email).Msg("registered user")
	current := user.Current()
	return AuthResult{Success: true, User: &current}, nil
}

// Logout forgets the signed-in user and the last visited page.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info().Str("session_id", sessionID).Msg("logged out")
	return nil
}

// Authenticate resolves a bearer token to its live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*repository.Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.cfg.SigningKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	session, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *AuthService) SetLastPage(ctx context.Context, sessionID, page string) error {
	return s.sessions.SetLastPage(ctx, sessionID, page)
}

func (s *AuthService) openSession(ctx context.Context, user models.CurrentUser) (AuthResult, error) {
	session, err := s.sessions.Create(ctx, user)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   user.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		return AuthResult{}, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().
		Str("email", user.Email).
		Str("session_id", session.ID).
		Msg("logged in")
	return AuthResult{Success: true, Token: token, User: &user}, nil
}

// checkPassword accepts argon2id hashes and the plain-text passwords of
// accounts created before hashing.
func checkPassword(password, stored string) (bool, error) {
	if stored == "" {
		return false, nil
	}
	if strings.HasPrefix(stored, "$argon2id$") {
		return argon2id.ComparePasswordAndHash(password, stored)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1, nil
}
