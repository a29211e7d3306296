package service

import (
	"context"
	"slices"

	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/redis"
)

var presenceStatuses = []string{"online", "idle", "dnd", "offline"}

// UserService handles user profiles and presence.
type UserService struct {
	users database.UserRepository
	redis *redis.Client
}

// NewUserService creates a UserService.
func NewUserService(users database.UserRepository, redis *redis.Client) *UserService {
	return &UserService{users: users, redis: redis}
}

// GetByID returns the user with the given ID.
func (s *UserService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if user == nil {
		return nil, NotFound("NOT_FOUND", "user not found")
	}
	return user, nil
}

// UpdateProfile updates the authenticated user's display name.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, displayName *string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if user == nil {
		return nil, NotFound("NOT_FOUND", "user not found")
	}

	if displayName != nil {
		if len(*displayName) < 1 || len(*displayName) > 32 {
			return nil, BadRequest("INVALID_DISPLAY_NAME", "display name must be 1-32 characters")
		}
		user.DisplayName = *displayName
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	return user, nil
}

// SetStatus sets the authenticated user's presence status.
func (s *UserService) SetStatus(ctx context.Context, userID int64, status string) error {
	if !slices.Contains(presenceStatuses, status) {
		return BadRequest("INVALID_STATUS", "status must be one of online, idle, dnd, offline")
	}

	if status == "offline" {
		if err := s.redis.DeletePresence(ctx, userID); err != nil {
			return Internal("INTERNAL", "internal server error")
		}
		return nil
	}

	if err := s.redis.SetPresence(ctx, userID, status); err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	return nil
}

// GetStatus returns a user's presence status. Users with no stored
// presence read as offline.
func (s *UserService) GetStatus(ctx context.Context, userID int64) (string, error) {
	status, err := s.redis.GetPresence(ctx, userID)
	if err != nil {
		return "", Internal("INTERNAL", "internal server error")
	}
	if status == "" {
		return "offline", nil
	}
	return status, nil
}
