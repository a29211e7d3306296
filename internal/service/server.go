package service

import (
	"context"

	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/snowflake"
)

// ServerService handles server lifecycle and membership entry points.
type ServerService struct {
	servers   database.ServerRepository
	channels  database.ChannelRepository
	members   database.MemberRepository
	snowflake *snowflake.Generator
	perms     *PermissionChecker
	audit     *AuditRecorder
}

// NewServerService creates a ServerService.
func NewServerService(
	servers database.ServerRepository,
	channels database.ChannelRepository,
	members database.MemberRepository,
	sf *snowflake.Generator,
	perms *PermissionChecker,
	audit *AuditRecorder,
) *ServerService {
	return &ServerService{
		servers:   servers,
		channels:  channels,
		members:   members,
		snowflake: sf,
		perms:     perms,
		audit:     audit,
	}
}

// CreateServer creates a server owned by the creator, joins them as the
// first member, and seeds a general channel.
func (s *ServerService) CreateServer(ctx context.Context, ownerID int64, name string) (*models.Server, error) {
	if name == "" || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "name must be 1-100 characters")
	}

	server := &models.Server{
		ID:      s.snowflake.Generate().Int64(),
		Name:    name,
		OwnerID: ownerID,
	}

	if err := s.servers.Create(ctx, server); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	member := &models.Member{
		ServerID: server.ID,
		UserID:   ownerID,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	channel := &models.Channel{
		ID:       s.snowflake.Generate().Int64(),
		ServerID: server.ID,
		Name:     "general",
		Position: 0,
	}
	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, server.ID, ownerID, "server.create", &server.ID, map[string]any{"name": server.Name})
	return server, nil
}

// GetServer returns a server. Membership is required.
func (s *ServerService) GetServer(ctx context.Context, serverID, userID int64) (*models.Server, error) {
	if err := s.perms.RequireMembership(ctx, serverID, userID); err != nil {
		return nil, err
	}
	server, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if server == nil {
		return nil, NotFound("NOT_FOUND", "server not found")
	}
	return server, nil
}

// ListServers returns the servers a user belongs to.
func (s *ServerService) ListServers(ctx context.Context, userID int64) ([]models.Server, error) {
	servers, err := s.servers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if servers == nil {
		servers = []models.Server{}
	}
	return servers, nil
}

// UpdateServer renames a server. Requires manageServer.
func (s *ServerService) UpdateServer(ctx context.Context, serverID, actorID int64, name string) (*models.Server, error) {
	if err := s.perms.RequireServerPermission(ctx, serverID, actorID, permissions.PermManageServer); err != nil {
		return nil, err
	}
	if name == "" || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "name must be 1-100 characters")
	}

	server, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if server == nil {
		return nil, NotFound("NOT_FOUND", "server not found")
	}

	server.Name = name
	if err := s.servers.Update(ctx, server); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "server.update", &serverID, map[string]any{"name": name})
	return server, nil
}

// DeleteServer deletes a server. Only the owner may do this; administrator
// does not suffice.
func (s *ServerService) DeleteServer(ctx context.Context, serverID, actorID int64) error {
	owner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return err
	}
	if !owner {
		return Forbidden("OWNER_ONLY", "only the server owner can delete the server")
	}

	if err := s.servers.Delete(ctx, serverID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	return nil
}

// LeaveServer removes the caller from a server. The owner cannot leave.
func (s *ServerService) LeaveServer(ctx context.Context, serverID, userID int64) error {
	owner, err := s.perms.IsServerOwner(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if owner {
		return BadRequest("OWNER_CANNOT_LEAVE", "transfer or delete the server instead")
	}

	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return NotFound("NOT_A_MEMBER", "not a member of this server")
	}

	if err := s.members.Delete(ctx, serverID, userID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, userID, "member.leave", &userID, nil)
	return nil
}
