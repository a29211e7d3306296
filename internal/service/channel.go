package service

import (
	"context"
	"slices"

	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/snowflake"
)

// ChannelService handles channel management and channel permission overrides.
type ChannelService struct {
	channels  database.ChannelRepository
	roles     database.RoleRepository
	members   database.MemberRepository
	overrides database.ChannelOverrideRepository
	snowflake *snowflake.Generator
	perms     *PermissionChecker
	audit     *AuditRecorder
}

// NewChannelService creates a ChannelService.
func NewChannelService(
	channels database.ChannelRepository,
	roles database.RoleRepository,
	members database.MemberRepository,
	overrides database.ChannelOverrideRepository,
	sf *snowflake.Generator,
	perms *PermissionChecker,
	audit *AuditRecorder,
) *ChannelService {
	return &ChannelService{
		channels:  channels,
		roles:     roles,
		members:   members,
		overrides: overrides,
		snowflake: sf,
		perms:     perms,
		audit:     audit,
	}
}

// CreateChannel creates a channel in a server.
func (s *ChannelService) CreateChannel(ctx context.Context, serverID, actorID int64, name string, position int, topic *string) (*models.Channel, error) {
	if name == "" || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "name must be 1-100 characters")
	}

	channel := &models.Channel{
		ID:       s.snowflake.Generate().Int64(),
		ServerID: serverID,
		Name:     name,
		Position: position,
		Topic:    topic,
	}

	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "channel.create", &channel.ID, map[string]any{"name": channel.Name})
	return channel, nil
}

// GetChannel returns a channel if the user can read it.
func (s *ChannelService) GetChannel(ctx context.Context, channelID, userID int64) (*models.Channel, error) {
	if err := s.perms.RequireChannelPermission(ctx, channelID, userID, permissions.PermReadMessages); err != nil {
		return nil, err
	}
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}
	return channel, nil
}

// ListChannels returns the server's channels the user can see. A channel is
// included iff the user's effective readMessages there is true.
func (s *ChannelService) ListChannels(ctx context.Context, serverID, userID int64) ([]models.Channel, error) {
	channels, err := s.channels.GetByServerID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	visible, err := s.perms.FilterVisibleChannels(ctx, serverID, userID, channels)
	if err != nil {
		return nil, err
	}
	if visible == nil {
		visible = []models.Channel{}
	}
	return visible, nil
}

// UpdateChannel updates a channel. Nil fields are left unchanged.
func (s *ChannelService) UpdateChannel(ctx context.Context, channelID, actorID int64, name *string, position *int, topic *string) (*models.Channel, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	if name != nil {
		if *name == "" || len(*name) > 100 {
			return nil, BadRequest("INVALID_NAME", "name must be 1-100 characters")
		}
		channel.Name = *name
	}
	if position != nil {
		channel.Position = *position
	}
	if topic != nil {
		channel.Topic = topic
	}

	if err := s.channels.Update(ctx, channel); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, channel.ServerID, actorID, "channel.update", &channel.ID, map[string]any{"name": channel.Name})
	return channel, nil
}

// DeleteChannel deletes a channel and, via cascade, its overrides.
func (s *ChannelService) DeleteChannel(ctx context.Context, channelID, actorID int64) error {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.channels.Delete(ctx, channelID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, channel.ServerID, actorID, "channel.delete", &channelID, map[string]any{"name": channel.Name})
	return nil
}

// SetOverride creates or replaces a channel permission override. Requires
// manageChannels on the parent server. Kind names are validated here, at
// write time; a kind listed in both allow and deny is kept only in deny.
func (s *ChannelService) SetOverride(ctx context.Context, channelID, actorID int64, target models.OverrideTarget, allow, deny []string) (*models.ChannelOverride, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireServerPermission(ctx, channel.ServerID, actorID, permissions.PermManageChannels); err != nil {
		return nil, err
	}

	switch target.Type {
	case models.OverrideTargetRole:
		role, err := s.roles.GetByID(ctx, target.ID)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
		if role == nil || role.ServerID != channel.ServerID {
			return nil, NotFound("NOT_FOUND", "role not found")
		}
	case models.OverrideTargetUser:
		member, err := s.members.GetByServerAndUser(ctx, channel.ServerID, target.ID)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
		if member == nil {
			return nil, NotFound("NOT_FOUND", "member not found")
		}
	default:
		return nil, BadRequest("INVALID_TARGET", "target type must be role or user")
	}

	allow, err = validateKinds(allow)
	if err != nil {
		return nil, err
	}
	deny, err = validateKinds(deny)
	if err != nil {
		return nil, err
	}
	allow = subtractKinds(allow, deny)

	override := &models.ChannelOverride{
		ChannelID: channelID,
		Target:    target,
		Allow:     allow,
		Deny:      deny,
	}

	if err := s.overrides.Set(ctx, override); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, channel.ServerID, actorID, "override.set", &channelID, map[string]any{
		"target_type": string(target.Type),
		"target_id":   target.ID,
		"allow":       allow,
		"deny":        deny,
	})
	return override, nil
}

// DeleteOverride removes a channel permission override.
func (s *ChannelService) DeleteOverride(ctx context.Context, channelID, actorID int64, target models.OverrideTarget) error {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireServerPermission(ctx, channel.ServerID, actorID, permissions.PermManageChannels); err != nil {
		return err
	}

	if target.Type != models.OverrideTargetRole && target.Type != models.OverrideTargetUser {
		return BadRequest("INVALID_TARGET", "target type must be role or user")
	}

	if err := s.overrides.Delete(ctx, channelID, target); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, channel.ServerID, actorID, "override.delete", &channelID, map[string]any{
		"target_type": string(target.Type),
		"target_id":   target.ID,
	})
	return nil
}

// ListOverrides returns all overrides on a channel.
func (s *ChannelService) ListOverrides(ctx context.Context, channelID, actorID int64) ([]models.ChannelOverride, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return nil, NotFound("NOT_FOUND", "channel not found")
	}

	if err := s.perms.RequireServerPermission(ctx, channel.ServerID, actorID, permissions.PermManageChannels); err != nil {
		return nil, err
	}

	overrides, err := s.overrides.GetByChannel(ctx, channelID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if overrides == nil {
		overrides = []models.ChannelOverride{}
	}
	return overrides, nil
}

// validateKinds rejects unknown kind names and deduplicates. Write-time
// validation is what lets the resolver treat stray values as ignorable.
func validateKinds(kinds []string) ([]string, error) {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if !permissions.Kind(k).Valid() {
			return nil, BadRequest("INVALID_PERMISSION", "unknown permission kind: "+k)
		}
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func subtractKinds(from, remove []string) []string {
	out := make([]string, 0, len(from))
	for _, k := range from {
		if !slices.Contains(remove, k) {
			out = append(out, k)
		}
	}
	return out
}
