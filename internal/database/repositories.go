package database

import (
	"context"

	"github.com/parley-chat/parley/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, id int64) (*models.Server, error)
	Update(ctx context.Context, server *models.Server) error
	Delete(ctx context.Context, id int64) error
	GetByUserID(ctx context.Context, userID int64) ([]models.Server, error)
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	GetByServerID(ctx context.Context, serverID int64) ([]models.Channel, error)
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id int64) error
}

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	GetByServerID(ctx context.Context, serverID int64) ([]models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id int64) error
	GetByMember(ctx context.Context, serverID, userID int64) ([]models.Role, error)
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByServerAndUser(ctx context.Context, serverID, userID int64) (*models.Member, error)
	GetByServerID(ctx context.Context, serverID int64, limit, offset int) ([]models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, serverID, userID int64) error
	AddRole(ctx context.Context, serverID, userID, roleID int64) error
	RemoveRole(ctx context.Context, serverID, userID, roleID int64) error
}

type ChannelOverrideRepository interface {
	Set(ctx context.Context, override *models.ChannelOverride) error
	GetByChannel(ctx context.Context, channelID int64) ([]models.ChannelOverride, error)
	// GetApplicable returns the overrides for a channel that target one of
	// the given role IDs or the given user directly.
	GetApplicable(ctx context.Context, channelID int64, roleIDs []int64, userID int64) ([]models.ChannelOverride, error)
	Delete(ctx context.Context, channelID int64, target models.OverrideTarget) error
	DeleteByRole(ctx context.Context, roleID int64) error
}

type InviteRepository interface {
	Create(ctx context.Context, invite *models.Invite) error
	GetByCode(ctx context.Context, code string) (*models.Invite, error)
	GetByServerID(ctx context.Context, serverID int64) ([]models.Invite, error)
	IncrementUses(ctx context.Context, code string) error
	Delete(ctx context.Context, code string) error
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	GetByServerID(ctx context.Context, serverID int64, limit, offset int) ([]models.AuditLogEntry, error)
}
