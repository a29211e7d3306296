package service

import (
	"context"

	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/snowflake"
)

// RoleService handles role management and assignment. Permission gating
// (manageRoles) happens in the route middleware; hierarchy rules live here.
type RoleService struct {
	roles     database.RoleRepository
	members   database.MemberRepository
	overrides database.ChannelOverrideRepository
	snowflake *snowflake.Generator
	perms     *PermissionChecker
	audit     *AuditRecorder
}

// NewRoleService creates a RoleService.
func NewRoleService(
	roles database.RoleRepository,
	members database.MemberRepository,
	overrides database.ChannelOverrideRepository,
	sf *snowflake.Generator,
	perms *PermissionChecker,
	audit *AuditRecorder,
) *RoleService {
	return &RoleService{
		roles:     roles,
		members:   members,
		overrides: overrides,
		snowflake: sf,
		perms:     perms,
		audit:     audit,
	}
}

// CreateRole creates a new role with role hierarchy enforcement.
func (s *RoleService) CreateRole(ctx context.Context, serverID, actorID int64, name string, color int, grants permissions.Permission, position int, mentionable bool) (*models.Role, error) {
	if name == "" || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "name must be 1-100 characters")
	}

	isOwner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		highest, err := s.perms.HighestRolePosition(ctx, serverID, actorID)
		if err != nil {
			return nil, err
		}
		if position >= highest {
			return nil, RoleHierarchyError("cannot create a role at or above your highest role position")
		}
	}

	role := &models.Role{
		ID:          s.snowflake.Generate().Int64(),
		ServerID:    serverID,
		Name:        name,
		Color:       color,
		Permissions: int64(grants),
		Position:    position,
		Mentionable: mentionable,
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "role.create", &role.ID, map[string]any{
		"name":        role.Name,
		"permissions": permissions.Permission(role.Permissions).String(),
	})
	return role, nil
}

// ListRoles returns all roles for a server. Membership is required.
func (s *RoleService) ListRoles(ctx context.Context, serverID, actorID int64) ([]models.Role, error) {
	if err := s.perms.RequireMembership(ctx, serverID, actorID); err != nil {
		return nil, err
	}
	roles, err := s.roles.GetByServerID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return roles, nil
}

// UpdateRole updates a role with hierarchy enforcement. Nil fields are left
// unchanged.
func (s *RoleService) UpdateRole(ctx context.Context, serverID, actorID, roleID int64, name *string, color *int, grants *permissions.Permission, position *int, mentionable *bool) (*models.Role, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if role == nil || role.ServerID != serverID {
		return nil, NotFound("NOT_FOUND", "role not found")
	}

	if err := s.requireAboveRole(ctx, serverID, actorID, role.Position, "modify"); err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" || len(*name) > 100 {
			return nil, BadRequest("INVALID_NAME", "name must be 1-100 characters")
		}
		role.Name = *name
	}
	if color != nil {
		role.Color = *color
	}
	if grants != nil {
		role.Permissions = int64(*grants)
	}
	if position != nil {
		role.Position = *position
	}
	if mentionable != nil {
		role.Mentionable = *mentionable
	}

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "role.update", &role.ID, map[string]any{
		"name":        role.Name,
		"permissions": permissions.Permission(role.Permissions).String(),
	})
	return role, nil
}

// DeleteRole deletes a role, its assignments, and any channel overrides
// targeting it.
func (s *RoleService) DeleteRole(ctx context.Context, serverID, actorID, roleID int64) error {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if role == nil || role.ServerID != serverID {
		return NotFound("NOT_FOUND", "role not found")
	}

	if err := s.requireAboveRole(ctx, serverID, actorID, role.Position, "delete"); err != nil {
		return err
	}

	// Override rows target roles without a foreign key (the target column is
	// polymorphic), so they are cleaned up explicitly.
	if err := s.overrides.DeleteByRole(ctx, roleID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if err := s.roles.Delete(ctx, roleID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "role.delete", &roleID, map[string]any{"name": role.Name})
	return nil
}

// AssignRole assigns a role to a member with hierarchy enforcement.
func (s *RoleService) AssignRole(ctx context.Context, serverID, actorID, userID, roleID int64) error {
	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return NotFound("NOT_FOUND", "member not found")
	}

	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if role == nil || role.ServerID != serverID {
		return NotFound("NOT_FOUND", "role not found")
	}

	if err := s.requireAboveRole(ctx, serverID, actorID, role.Position, "assign"); err != nil {
		return err
	}

	if err := s.members.AddRole(ctx, serverID, userID, roleID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "role.assign", &roleID, map[string]any{"user_id": userID})
	return nil
}

// RemoveRole removes a role from a member with hierarchy enforcement.
func (s *RoleService) RemoveRole(ctx context.Context, serverID, actorID, userID, roleID int64) error {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if role != nil {
		if err := s.requireAboveRole(ctx, serverID, actorID, role.Position, "remove"); err != nil {
			return err
		}
	}

	if err := s.members.RemoveRole(ctx, serverID, userID, roleID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "role.unassign", &roleID, map[string]any{"user_id": userID})
	return nil
}

// requireAboveRole rejects actors trying to act on a role at or above their
// own highest position. Owners are exempt.
func (s *RoleService) requireAboveRole(ctx context.Context, serverID, actorID int64, rolePosition int, verb string) error {
	isOwner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return err
	}
	if isOwner {
		return nil
	}
	highest, err := s.perms.HighestRolePosition(ctx, serverID, actorID)
	if err != nil {
		return err
	}
	if rolePosition >= highest {
		return RoleHierarchyError("cannot " + verb + " a role at or above your highest role position")
	}
	return nil
}
