package service

import (
	"context"

	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
)

const (
	defaultMemberLimit = 50
	maxMemberLimit     = 200
)

// MemberService handles membership listing, nicknames and kicks.
type MemberService struct {
	members database.MemberRepository
	perms   *PermissionChecker
	audit   *AuditRecorder
}

// NewMemberService creates a MemberService.
func NewMemberService(members database.MemberRepository, perms *PermissionChecker, audit *AuditRecorder) *MemberService {
	return &MemberService{members: members, perms: perms, audit: audit}
}

// ListMembers returns a page of server members. Membership is required.
func (s *MemberService) ListMembers(ctx context.Context, serverID, actorID int64, limit, offset int) ([]models.Member, error) {
	if err := s.perms.RequireMembership(ctx, serverID, actorID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMemberLimit
	}
	if limit > maxMemberLimit {
		limit = maxMemberLimit
	}
	if offset < 0 {
		offset = 0
	}

	members, err := s.members.GetByServerID(ctx, serverID, limit, offset)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if members == nil {
		members = []models.Member{}
	}
	return members, nil
}

// GetMember returns a single member. Membership is required.
func (s *MemberService) GetMember(ctx context.Context, serverID, actorID, userID int64) (*models.Member, error) {
	if err := s.perms.RequireMembership(ctx, serverID, actorID); err != nil {
		return nil, err
	}

	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return nil, NotFound("NOT_FOUND", "member not found")
	}
	return member, nil
}

// UpdateNickname sets or clears a member's nickname. Members may change
// their own; changing someone else's requires manageServer.
func (s *MemberService) UpdateNickname(ctx context.Context, serverID, actorID, userID int64, nickname *string) (*models.Member, error) {
	if actorID != userID {
		if err := s.perms.RequireServerPermission(ctx, serverID, actorID, permissions.PermManageServer); err != nil {
			return nil, err
		}
	} else if err := s.perms.RequireMembership(ctx, serverID, actorID); err != nil {
		return nil, err
	}

	if nickname != nil && len(*nickname) > 32 {
		return nil, BadRequest("INVALID_NICKNAME", "nickname must be at most 32 characters")
	}

	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return nil, NotFound("NOT_FOUND", "member not found")
	}

	member.Nickname = nickname
	if err := s.members.Update(ctx, member); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	return member, nil
}

// KickMember removes a member from a server. Requires manageServer. The
// owner cannot be kicked, and kicking someone at or above the actor's
// highest role position is rejected.
func (s *MemberService) KickMember(ctx context.Context, serverID, actorID, userID int64) error {
	if err := s.perms.RequireServerPermission(ctx, serverID, actorID, permissions.PermManageServer); err != nil {
		return err
	}

	owner, err := s.perms.IsServerOwner(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if owner {
		return Forbidden("OWNER_IMMUNE", "the server owner cannot be kicked")
	}

	member, err := s.members.GetByServerAndUser(ctx, serverID, userID)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if member == nil {
		return NotFound("NOT_FOUND", "member not found")
	}

	actorOwner, err := s.perms.IsServerOwner(ctx, serverID, actorID)
	if err != nil {
		return err
	}
	if !actorOwner {
		actorTop, err := s.perms.HighestRolePosition(ctx, serverID, actorID)
		if err != nil {
			return err
		}
		targetTop, err := s.perms.HighestRolePosition(ctx, serverID, userID)
		if err != nil {
			return err
		}
		if targetTop >= actorTop {
			return RoleHierarchyError("cannot kick a member with an equal or higher role")
		}
	}

	if err := s.members.Delete(ctx, serverID, userID); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "member.kick", &userID, nil)
	return nil
}
