package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/service"
)

const (
	testServerID int64 = 500
	testOwnerID  int64 = 1
)

func newTestRoleHandler(
	servers *mockServerRepo,
	channels *mockChannelRepo,
	members *mockMemberRepo,
	roles *mockRoleRepo,
	overrides *mockOverrideRepo,
) *RoleHandler {
	checker := service.NewPermissionChecker(servers, channels, members, roles, overrides)
	audit := testAuditRecorder(&mockAuditRepo{})
	svc := service.NewRoleService(roles, members, overrides, testSnowflake(), checker, audit)
	return NewRoleHandler(svc)
}

func ownedServerRepo() *mockServerRepo {
	return &mockServerRepo{
		GetByIDFn: func(_ context.Context, id int64) (*models.Server, error) {
			if id == testServerID {
				return &models.Server{ID: testServerID, Name: "Test", OwnerID: testOwnerID}, nil
			}
			return nil, nil
		},
	}
}

func TestCreateRole_AsOwner(t *testing.T) {
	var created atomic.Int32
	roles := &mockRoleRepo{
		CreateFn: func(_ context.Context, r *models.Role) error {
			created.Add(1)
			if r.ServerID != testServerID {
				t.Errorf("role created for server %d, want %d", r.ServerID, testServerID)
			}
			return nil
		},
	}

	h := newTestRoleHandler(ownedServerRepo(), &mockChannelRepo{}, &mockMemberRepo{}, roles, &mockOverrideRepo{})

	body := strings.NewReader(`{"name":"Moderator","permissions":{"sendMessages":true,"manageMessages":true},"position":1}`)
	c, rec := newTestContext(http.MethodPost, "/api/v1/servers/500/roles", body)
	c.SetParamNames("id")
	c.SetParamValues("500")
	setAuthUser(c, testOwnerID)

	if err := h.CreateRole(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if created.Load() != 1 {
		t.Errorf("expected 1 role created, got %d", created.Load())
	}

	var resp roleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Permissions.SendMessages || !resp.Permissions.ManageMessages {
		t.Errorf("response permissions = %+v, want sendMessages and manageMessages true", resp.Permissions)
	}
	if resp.Permissions.Administrator {
		t.Error("administrator should not be granted")
	}
}

func TestCreateRole_HierarchyRejected(t *testing.T) {
	const actorID int64 = 2000

	members := &mockMemberRepo{
		GetByServerAndUserFn: func(_ context.Context, serverID, userID int64) (*models.Member, error) {
			return &models.Member{ServerID: serverID, UserID: userID}, nil
		},
	}
	roles := &mockRoleRepo{
		GetByMemberFn: func(_ context.Context, _, _ int64) ([]models.Role, error) {
			return []models.Role{
				{ID: 10, ServerID: testServerID, Name: "Mod", Position: 3,
					Permissions: int64(permissions.PermManageRoles)},
			}, nil
		},
	}

	h := newTestRoleHandler(ownedServerRepo(), &mockChannelRepo{}, members, roles, &mockOverrideRepo{})

	// Position 5 is above the actor's highest role (3).
	body := strings.NewReader(`{"name":"Super","position":5}`)
	c, rec := newTestContext(http.MethodPost, "/api/v1/servers/500/roles", body)
	c.SetParamNames("id")
	c.SetParamValues("500")
	setAuthUser(c, actorID)

	if err := h.CreateRole(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d: %s", http.StatusForbidden, rec.Code, rec.Body.String())
	}
}

func TestDeleteRole_CleansOverrides(t *testing.T) {
	const roleID int64 = 42

	var overridesDeleted, roleDeleted atomic.Int32
	roles := &mockRoleRepo{
		GetByIDFn: func(_ context.Context, id int64) (*models.Role, error) {
			if id == roleID {
				return &models.Role{ID: roleID, ServerID: testServerID, Name: "Old", Position: 1}, nil
			}
			return nil, nil
		},
		DeleteFn: func(_ context.Context, id int64) error {
			roleDeleted.Add(1)
			return nil
		},
	}
	overrides := &mockOverrideRepo{
		DeleteByRoleFn: func(_ context.Context, id int64) error {
			if id != roleID {
				t.Errorf("override cleanup for role %d, want %d", id, roleID)
			}
			overridesDeleted.Add(1)
			return nil
		},
	}

	h := newTestRoleHandler(ownedServerRepo(), &mockChannelRepo{}, &mockMemberRepo{}, roles, overrides)

	c, rec := newTestContext(http.MethodDelete, "/api/v1/servers/500/roles/42", nil)
	c.SetParamNames("id", "role_id")
	c.SetParamValues("500", "42")
	setAuthUser(c, testOwnerID)

	if err := h.DeleteRole(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, rec.Code, rec.Body.String())
	}
	if overridesDeleted.Load() != 1 {
		t.Errorf("expected override cleanup, got %d calls", overridesDeleted.Load())
	}
	if roleDeleted.Load() != 1 {
		t.Errorf("expected 1 role delete, got %d", roleDeleted.Load())
	}
}

func TestAssignRole_TargetMustBeMember(t *testing.T) {
	roles := &mockRoleRepo{
		GetByIDFn: func(_ context.Context, id int64) (*models.Role, error) {
			return &models.Role{ID: id, ServerID: testServerID, Name: "Mod", Position: 1}, nil
		},
	}
	// No member records at all.
	h := newTestRoleHandler(ownedServerRepo(), &mockChannelRepo{}, &mockMemberRepo{}, roles, &mockOverrideRepo{})

	c, rec := newTestContext(http.MethodPut, "/api/v1/servers/500/members/77/roles/42", nil)
	c.SetParamNames("id", "user_id", "role_id")
	c.SetParamValues("500", "77", "42")
	setAuthUser(c, testOwnerID)

	if err := h.AssignRole(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
	}
}
