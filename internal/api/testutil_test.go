package api

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/database"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/internal/snowflake"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestContext(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func setAuthUser(c echo.Context, userID int64) {
	c.Set("user_id", userID)
}

func testSnowflake() *snowflake.Generator {
	sf, _ := snowflake.NewGenerator(1, 1)
	return sf
}

func testAuditRecorder(entries database.AuditLogRepository) *service.AuditRecorder {
	return service.NewAuditRecorder(entries, testSnowflake(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ---------------------------------------------------------------------------
// Mock repositories
// ---------------------------------------------------------------------------

// mockUserRepo implements database.UserRepository.
type mockUserRepo struct {
	CreateFn        func(ctx context.Context, user *models.User) error
	GetByIDFn       func(ctx context.Context, id int64) (*models.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	UpdateFn        func(ctx context.Context, user *models.User) error
	DeleteFn        func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// mockServerRepo implements database.ServerRepository.
type mockServerRepo struct {
	CreateFn      func(ctx context.Context, server *models.Server) error
	GetByIDFn     func(ctx context.Context, id int64) (*models.Server, error)
	UpdateFn      func(ctx context.Context, server *models.Server) error
	DeleteFn      func(ctx context.Context, id int64) error
	GetByUserIDFn func(ctx context.Context, userID int64) ([]models.Server, error)
}

func (m *mockServerRepo) Create(ctx context.Context, server *models.Server) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, server)
	}
	return nil
}

func (m *mockServerRepo) GetByID(ctx context.Context, id int64) (*models.Server, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockServerRepo) Update(ctx context.Context, server *models.Server) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, server)
	}
	return nil
}

func (m *mockServerRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockServerRepo) GetByUserID(ctx context.Context, userID int64) ([]models.Server, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, nil
}

// mockChannelRepo implements database.ChannelRepository.
type mockChannelRepo struct {
	CreateFn        func(ctx context.Context, channel *models.Channel) error
	GetByIDFn       func(ctx context.Context, id int64) (*models.Channel, error)
	GetByServerIDFn func(ctx context.Context, serverID int64) ([]models.Channel, error)
	UpdateFn        func(ctx context.Context, channel *models.Channel) error
	DeleteFn        func(ctx context.Context, id int64) error
}

func (m *mockChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, channel)
	}
	return nil
}

func (m *mockChannelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockChannelRepo) GetByServerID(ctx context.Context, serverID int64) ([]models.Channel, error) {
	if m.GetByServerIDFn != nil {
		return m.GetByServerIDFn(ctx, serverID)
	}
	return nil, nil
}

func (m *mockChannelRepo) Update(ctx context.Context, channel *models.Channel) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, channel)
	}
	return nil
}

func (m *mockChannelRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// mockRoleRepo implements database.RoleRepository.
type mockRoleRepo struct {
	CreateFn        func(ctx context.Context, role *models.Role) error
	GetByIDFn       func(ctx context.Context, id int64) (*models.Role, error)
	GetByServerIDFn func(ctx context.Context, serverID int64) ([]models.Role, error)
	UpdateFn        func(ctx context.Context, role *models.Role) error
	DeleteFn        func(ctx context.Context, id int64) error
	GetByMemberFn   func(ctx context.Context, serverID, userID int64) ([]models.Role, error)
}

func (m *mockRoleRepo) Create(ctx context.Context, role *models.Role) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, role)
	}
	return nil
}

func (m *mockRoleRepo) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRoleRepo) GetByServerID(ctx context.Context, serverID int64) ([]models.Role, error) {
	if m.GetByServerIDFn != nil {
		return m.GetByServerIDFn(ctx, serverID)
	}
	return nil, nil
}

func (m *mockRoleRepo) Update(ctx context.Context, role *models.Role) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, role)
	}
	return nil
}

func (m *mockRoleRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockRoleRepo) GetByMember(ctx context.Context, serverID, userID int64) ([]models.Role, error) {
	if m.GetByMemberFn != nil {
		return m.GetByMemberFn(ctx, serverID, userID)
	}
	return nil, nil
}

// mockMemberRepo implements database.MemberRepository.
type mockMemberRepo struct {
	CreateFn             func(ctx context.Context, member *models.Member) error
	GetByServerAndUserFn func(ctx context.Context, serverID, userID int64) (*models.Member, error)
	GetByServerIDFn      func(ctx context.Context, serverID int64, limit, offset int) ([]models.Member, error)
	UpdateFn             func(ctx context.Context, member *models.Member) error
	DeleteFn             func(ctx context.Context, serverID, userID int64) error
	AddRoleFn            func(ctx context.Context, serverID, userID, roleID int64) error
	RemoveRoleFn         func(ctx context.Context, serverID, userID, roleID int64) error
}

func (m *mockMemberRepo) Create(ctx context.Context, member *models.Member) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, member)
	}
	return nil
}

func (m *mockMemberRepo) GetByServerAndUser(ctx context.Context, serverID, userID int64) (*models.Member, error) {
	if m.GetByServerAndUserFn != nil {
		return m.GetByServerAndUserFn(ctx, serverID, userID)
	}
	return nil, nil
}

func (m *mockMemberRepo) GetByServerID(ctx context.Context, serverID int64, limit, offset int) ([]models.Member, error) {
	if m.GetByServerIDFn != nil {
		return m.GetByServerIDFn(ctx, serverID, limit, offset)
	}
	return nil, nil
}

func (m *mockMemberRepo) Update(ctx context.Context, member *models.Member) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, member)
	}
	return nil
}

func (m *mockMemberRepo) Delete(ctx context.Context, serverID, userID int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, serverID, userID)
	}
	return nil
}

func (m *mockMemberRepo) AddRole(ctx context.Context, serverID, userID, roleID int64) error {
	if m.AddRoleFn != nil {
		return m.AddRoleFn(ctx, serverID, userID, roleID)
	}
	return nil
}

func (m *mockMemberRepo) RemoveRole(ctx context.Context, serverID, userID, roleID int64) error {
	if m.RemoveRoleFn != nil {
		return m.RemoveRoleFn(ctx, serverID, userID, roleID)
	}
	return nil
}

// mockOverrideRepo implements database.ChannelOverrideRepository.
type mockOverrideRepo struct {
	SetFn           func(ctx context.Context, override *models.ChannelOverride) error
	GetByChannelFn  func(ctx context.Context, channelID int64) ([]models.ChannelOverride, error)
	GetApplicableFn func(ctx context.Context, channelID int64, roleIDs []int64, userID int64) ([]models.ChannelOverride, error)
	DeleteFn        func(ctx context.Context, channelID int64, target models.OverrideTarget) error
	DeleteByRoleFn  func(ctx context.Context, roleID int64) error
}

func (m *mockOverrideRepo) Set(ctx context.Context, override *models.ChannelOverride) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, override)
	}
	return nil
}

func (m *mockOverrideRepo) GetByChannel(ctx context.Context, channelID int64) ([]models.ChannelOverride, error) {
	if m.GetByChannelFn != nil {
		return m.GetByChannelFn(ctx, channelID)
	}
	return nil, nil
}

func (m *mockOverrideRepo) GetApplicable(ctx context.Context, channelID int64, roleIDs []int64, userID int64) ([]models.ChannelOverride, error) {
	if m.GetApplicableFn != nil {
		return m.GetApplicableFn(ctx, channelID, roleIDs, userID)
	}
	return nil, nil
}

func (m *mockOverrideRepo) Delete(ctx context.Context, channelID int64, target models.OverrideTarget) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, channelID, target)
	}
	return nil
}

func (m *mockOverrideRepo) DeleteByRole(ctx context.Context, roleID int64) error {
	if m.DeleteByRoleFn != nil {
		return m.DeleteByRoleFn(ctx, roleID)
	}
	return nil
}

// mockInviteRepo implements database.InviteRepository.
type mockInviteRepo struct {
	CreateFn        func(ctx context.Context, invite *models.Invite) error
	GetByCodeFn     func(ctx context.Context, code string) (*models.Invite, error)
	GetByServerIDFn func(ctx context.Context, serverID int64) ([]models.Invite, error)
	IncrementUsesFn func(ctx context.Context, code string) error
	DeleteFn        func(ctx context.Context, code string) error
}

func (m *mockInviteRepo) Create(ctx context.Context, invite *models.Invite) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, invite)
	}
	return nil
}

func (m *mockInviteRepo) GetByCode(ctx context.Context, code string) (*models.Invite, error) {
	if m.GetByCodeFn != nil {
		return m.GetByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockInviteRepo) GetByServerID(ctx context.Context, serverID int64) ([]models.Invite, error) {
	if m.GetByServerIDFn != nil {
		return m.GetByServerIDFn(ctx, serverID)
	}
	return nil, nil
}

func (m *mockInviteRepo) IncrementUses(ctx context.Context, code string) error {
	if m.IncrementUsesFn != nil {
		return m.IncrementUsesFn(ctx, code)
	}
	return nil
}

func (m *mockInviteRepo) Delete(ctx context.Context, code string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, code)
	}
	return nil
}

// mockAuditRepo implements database.AuditLogRepository.
type mockAuditRepo struct {
	CreateFn        func(ctx context.Context, entry *models.AuditLogEntry) error
	GetByServerIDFn func(ctx context.Context, serverID int64, limit, offset int) ([]models.AuditLogEntry, error)
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditRepo) GetByServerID(ctx context.Context, serverID int64, limit, offset int) ([]models.AuditLogEntry, error) {
	if m.GetByServerIDFn != nil {
		return m.GetByServerIDFn(ctx, serverID, limit, offset)
	}
	return nil, nil
}
