package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
)

const inviteCodeBytes = 8

// InviteService handles invite creation, acceptance and revocation.
type InviteService struct {
	invites database.InviteRepository
	members database.MemberRepository
	servers database.ServerRepository
	perms   *PermissionChecker
	audit   *AuditRecorder
}

// NewInviteService creates an InviteService.
func NewInviteService(
	invites database.InviteRepository,
	members database.MemberRepository,
	servers database.ServerRepository,
	perms *PermissionChecker,
	audit *AuditRecorder,
) *InviteService {
	return &InviteService{invites: invites, members: members, servers: servers, perms: perms, audit: audit}
}

// CreateInvite mints a new invite code for a server. Requires manageServer.
// maxUses 0 means unlimited; ttl 0 means no expiry.
func (s *InviteService) CreateInvite(ctx context.Context, serverID, actorID int64, maxUses int, ttl time.Duration) (*models.Invite, error) {
	if err := s.perms.RequireServerPermission(ctx, serverID, actorID, permissions.PermManageServer); err != nil {
		return nil, err
	}
	if maxUses < 0 {
		return nil, BadRequest("INVALID_MAX_USES", "max_uses must be non-negative")
	}
	if ttl < 0 {
		return nil, BadRequest("INVALID_TTL", "expiry must be in the future")
	}

	code, err := generateInviteCode()
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	invite := &models.Invite{
		Code:      code,
		ServerID:  serverID,
		CreatorID: actorID,
		MaxUses:   maxUses,
		CreatedAt: time.Now().UTC(),
	}
	if ttl > 0 {
		expires := invite.CreatedAt.Add(ttl)
		invite.ExpiresAt = &expires
	}

	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, serverID, actorID, "invite.create", nil, map[string]any{"code": code, "max_uses": maxUses})
	return invite, nil
}

// ListInvites returns a server's invites. Requires manageServer.
func (s *InviteService) ListInvites(ctx context.Context, serverID, actorID int64) ([]models.Invite, error) {
	if err := s.perms.RequireServerPermission(ctx, serverID, actorID, permissions.PermManageServer); err != nil {
		return nil, err
	}
	invites, err := s.invites.GetByServerID(ctx, serverID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if invites == nil {
		invites = []models.Invite{}
	}
	return invites, nil
}

// AcceptInvite joins the caller to the invite's server. Expired and
// exhausted invites are reported as gone.
func (s *InviteService) AcceptInvite(ctx context.Context, code string, userID int64) (*models.Server, error) {
	invite, err := s.invites.GetByCode(ctx, code)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if invite == nil {
		return nil, NotFound("NOT_FOUND", "invite not found")
	}
	if invite.ExpiresAt != nil && time.Now().After(*invite.ExpiresAt) {
		return nil, Gone("INVITE_EXPIRED", "invite has expired")
	}
	if invite.MaxUses > 0 && invite.Uses >= invite.MaxUses {
		return nil, Gone("INVITE_EXHAUSTED", "invite has no uses left")
	}

	existing, err := s.members.GetByServerAndUser(ctx, invite.ServerID, userID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if existing != nil {
		return nil, Conflict("ALREADY_MEMBER", "already a member of this server")
	}

	member := &models.Member{
		ServerID: invite.ServerID,
		UserID:   userID,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if err := s.invites.IncrementUses(ctx, code); err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}

	server, err := s.servers.GetByID(ctx, invite.ServerID)
	if err != nil {
		return nil, Internal("INTERNAL", "internal server error")
	}
	if server == nil {
		return nil, NotFound("NOT_FOUND", "server not found")
	}

	s.audit.Record(ctx, invite.ServerID, userID, "member.join", &userID, map[string]any{"invite": code})
	return server, nil
}

// RevokeInvite deletes an invite. Requires manageServer on its server.
func (s *InviteService) RevokeInvite(ctx context.Context, code string, actorID int64) error {
	invite, err := s.invites.GetByCode(ctx, code)
	if err != nil {
		return Internal("INTERNAL", "internal server error")
	}
	if invite == nil {
		return NotFound("NOT_FOUND", "invite not found")
	}

	if err := s.perms.RequireServerPermission(ctx, invite.ServerID, actorID, permissions.PermManageServer); err != nil {
		return err
	}

	if err := s.invites.Delete(ctx, code); err != nil {
		return Internal("INTERNAL", "internal server error")
	}

	s.audit.Record(ctx, invite.ServerID, actorID, "invite.revoke", nil, map[string]any{"code": code})
	return nil
}

func generateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
