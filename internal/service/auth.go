package service

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/redis"
	"github.com/parley-chat/parley/internal/snowflake"
)

const (
	usernameMinLen = 2
	usernameMaxLen = 32
	passwordMinLen = 6
	passwordMaxLen = 128
)

// Usernames are the public handle; display names carry anything printable.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// AuthResult holds the session tokens and user returned after registration
// or login.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

// RefreshResult holds the rotated token pair.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles registration, login, token refresh, and logout.
// Refresh tokens are opaque and live in redis; rotation invalidates the
// presented token before a replacement is issued.
type AuthService struct {
	users     database.UserRepository
	tokens    *auth.TokenService
	sessions  *redis.Client
	snowflake *snowflake.Generator
	log       *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users database.UserRepository,
	tokens *auth.TokenService,
	sessions *redis.Client,
	sf *snowflake.Generator,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		sessions:  sessions,
		snowflake: sf,
		log:       log,
	}
}

func validateUsername(username string) error {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return BadRequest("INVALID_USERNAME", "username must be 2-32 characters")
	}
	if !usernamePattern.MatchString(username) {
		return BadRequest("INVALID_USERNAME", "username may only contain letters, digits, and underscores")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return BadRequest("INVALID_PASSWORD", "password must be 6-128 characters")
	}
	return nil
}

// Register creates a new account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	taken, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if taken != nil {
		return nil, Conflict("USERNAME_TAKEN", "that username is not available")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	user := &models.User{
		ID:           s.snowflake.Generate().Int64(),
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.log.Info("user registered", "user_id", user.ID, "username", username)
	return s.startSession(ctx, user)
}

// Login verifies credentials and opens a session. Unknown usernames and
// wrong passwords produce the same response.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	if user != nil {
		ok, err := auth.VerifyPassword(password, user.PasswordHash)
		if err == nil && ok {
			return s.startSession(ctx, user)
		}
	}

	s.log.Debug("login rejected", "username", username)
	return nil, Unauthorized("INVALID_CREDENTIALS", "incorrect username or password")
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. A token that is unknown, expired, or already rotated is
// rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, BadRequest("MISSING_TOKEN", "refresh_token is required")
	}

	userID, err := s.sessions.GetRefreshTokenUserID(ctx, refreshToken)
	if err != nil {
		s.log.Warn("refresh rejected", "reason", "unknown or expired token")
		return nil, Unauthorized("INVALID_TOKEN", "refresh token is not valid")
	}

	if err := s.sessions.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	access, refresh, err := s.mintTokens(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the given refresh token. Access tokens are short-lived and
// simply expire.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken != "" {
		_ = s.sessions.DeleteRefreshToken(ctx, refreshToken)
	}
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	access, refresh, err := s.mintTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         *user,
	}, nil
}

func (s *AuthService) mintTokens(ctx context.Context, userID int64) (access, refresh string, err error) {
	access, err = s.tokens.GenerateAccessToken(userID)
	if err != nil {
		return "", "", Internal("INTERNAL", "internal server error")
	}

	refresh, err = s.tokens.GenerateRefreshToken()
	if err != nil {
		return "", "", Internal("INTERNAL", "internal server error")
	}

	if err := s.sessions.StoreRefreshToken(ctx, refresh, userID, s.tokens.RefreshExpiry()); err != nil {
		return "", "", Internal("INTERNAL", "internal server error")
	}
	return access, refresh, nil
}
