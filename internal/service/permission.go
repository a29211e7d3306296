package service

import (
	"context"

	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
)

// PermissionChecker gathers the facts the resolver needs (ownership,
// membership, assigned roles, applicable overrides) and invokes it. The
// resolver itself is pure; this is the I/O pipeline in front of it.
//
// Decisions are recomputed on every request. Nothing here caches: role and
// override data may change between requests, and a stale grant is a security
// bug in a way a redundant query is not.
type PermissionChecker struct {
	servers   database.ServerRepository
	channels  database.ChannelRepository
	members   database.MemberRepository
	roles     database.RoleRepository
	overrides database.ChannelOverrideRepository
}

// NewPermissionChecker creates a PermissionChecker.
func NewPermissionChecker(
	servers database.ServerRepository,
	channels database.ChannelRepository,
	members database.MemberRepository,
	roles database.RoleRepository,
	overrides database.ChannelOverrideRepository,
) *PermissionChecker {
	return &PermissionChecker{
		servers:   servers,
		channels:  channels,
		members:   members,
		roles:     roles,
		overrides: overrides,
	}
}

// serverFacts loads ownership, membership, and assigned roles for a user on a
// server. Non-members are rejected here, before any role or override data is
// fetched.
func (p *PermissionChecker) serverFacts(ctx context.Context, serverID, userID int64) (isOwner bool, roles []models.Role, err error) {
	server, err := p.servers.GetByID(ctx, serverID)
	if err != nil {
		return false, nil, Internal("INTERNAL", "internal server error")
	}
	if server == nil {
		return false, nil, NotFound("NOT_FOUND", "server not found")
	}
	if server.OwnerID == userID {
		return true, nil, nil
	}

	member, err := p.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return false, nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return false, nil, Forbidden("NOT_A_MEMBER", "you are not a member of this server")
	}

	roles, err = p.roles.GetByMember(ctx, serverID, userID)
	if err != nil {
		return false, nil, Internal("INTERNAL", "internal server error")
	}
	return false, roles, nil
}

// EffectiveServerPermissions computes a user's server-wide permission set.
func (p *PermissionChecker) EffectiveServerPermissions(ctx context.Context, serverID, userID int64) (permissions.Permission, error) {
	isOwner, roles, err := p.serverFacts(ctx, serverID, userID)
	if err != nil {
		return 0, err
	}
	return permissions.ResolveServer(isOwner, roles), nil
}

// EffectiveChannelPermissions computes a user's permission set in a channel,
// including channel overrides.
func (p *PermissionChecker) EffectiveChannelPermissions(ctx context.Context, channelID, userID int64) (permissions.Permission, error) {
	channel, err := p.channels.GetByID(ctx, channelID)
	if err != nil {
		return 0, Internal("INTERNAL", "internal server error")
	}
	if channel == nil {
		return 0, NotFound("NOT_FOUND", "channel not found")
	}

	isOwner, roles, err := p.serverFacts(ctx, channel.ServerID, userID)
	if err != nil {
		return 0, err
	}
	if isOwner {
		return permissions.PermAll, nil
	}

	roleIDs := make([]int64, len(roles))
	for i, r := range roles {
		roleIDs[i] = r.ID
	}

	overrides, err := p.overrides.GetApplicable(ctx, channelID, roleIDs, userID)
	if err != nil {
		return 0, Internal("INTERNAL", "internal server error")
	}

	return permissions.ResolveChannel(false, roles, overrides, userID), nil
}

// RequireServerPermission checks that the user has the given permission
// server-wide. Owners and administrators pass unconditionally.
func (p *PermissionChecker) RequireServerPermission(ctx context.Context, serverID, userID int64, perm permissions.Permission) error {
	computed, err := p.EffectiveServerPermissions(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if !computed.Has(perm) {
		return Forbidden("MISSING_PERMISSIONS", "you do not have permission to perform this action")
	}
	return nil
}

// RequireChannelPermission checks that the user has the given permission in a
// channel, applying channel overrides on top of server-wide permissions.
func (p *PermissionChecker) RequireChannelPermission(ctx context.Context, channelID, userID int64, perm permissions.Permission) error {
	computed, err := p.EffectiveChannelPermissions(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if !computed.Has(perm) {
		return Forbidden("MISSING_PERMISSIONS", "you do not have permission to perform this action")
	}
	return nil
}

// RequireMembership checks that the user is the owner or a member of the
// server, without requiring any particular permission.
func (p *PermissionChecker) RequireMembership(ctx context.Context, serverID, userID int64) error {
	_, _, err := p.serverFacts(ctx, serverID, userID)
	return err
}

// IsServerOwner returns true if the user owns the server.
func (p *PermissionChecker) IsServerOwner(ctx context.Context, serverID, userID int64) (bool, error) {
	server, err := p.servers.GetByID(ctx, serverID)
	if err != nil {
		return false, Internal("INTERNAL", "internal server error")
	}
	if server == nil {
		return false, nil
	}
	return server.OwnerID == userID, nil
}

// HighestRolePosition returns the highest position among the user's roles.
// Position only matters for management hierarchy (who may edit which role),
// never for grant resolution.
func (p *PermissionChecker) HighestRolePosition(ctx context.Context, serverID, userID int64) (int, error) {
	memberRoles, err := p.roles.GetByMember(ctx, serverID, userID)
	if err != nil {
		return 0, Internal("INTERNAL", "internal server error")
	}
	highest := 0
	for _, r := range memberRoles {
		if r.Position > highest {
			highest = r.Position
		}
	}
	return highest, nil
}

// FilterVisibleChannels returns the subset of channels the user can see: a
// channel is visible iff effective readMessages is true there.
func (p *PermissionChecker) FilterVisibleChannels(ctx context.Context, serverID, userID int64, channels []models.Channel) ([]models.Channel, error) {
	isOwner, roles, err := p.serverFacts(ctx, serverID, userID)
	if err != nil {
		return nil, err
	}
	if isOwner {
		return channels, nil
	}

	roleIDs := make([]int64, len(roles))
	for i, r := range roles {
		roleIDs[i] = r.ID
	}

	visible := make([]models.Channel, 0, len(channels))
	for _, ch := range channels {
		overrides, err := p.overrides.GetApplicable(ctx, ch.ID, roleIDs, userID)
		if err != nil {
			return nil, Internal("INTERNAL", "internal server error")
		}
		if permissions.ResolveChannel(false, roles, overrides, userID).Has(permissions.PermReadMessages) {
			visible = append(visible, ch)
		}
	}
	return visible, nil
}
