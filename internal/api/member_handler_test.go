package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/service"
)

func newTestMemberHandler(
	servers *mockServerRepo,
	members *mockMemberRepo,
	roles *mockRoleRepo,
) *MemberHandler {
	checker := service.NewPermissionChecker(servers, &mockChannelRepo{}, members, roles, &mockOverrideRepo{})
	audit := testAuditRecorder(&mockAuditRepo{})
	svc := service.NewMemberService(members, checker, audit)
	return NewMemberHandler(svc)
}

// serverPopulation builds member and role mocks for a server with several
// members, each holding the given roles.
func serverPopulation(rolesByUser map[int64][]models.Role) (*mockMemberRepo, *mockRoleRepo) {
	members := &mockMemberRepo{
		GetByServerAndUserFn: func(_ context.Context, serverID, userID int64) (*models.Member, error) {
			if serverID != testServerID {
				return nil, nil
			}
			if _, ok := rolesByUser[userID]; ok {
				return &models.Member{ServerID: serverID, UserID: userID}, nil
			}
			return nil, nil
		},
	}
	roleRepo := &mockRoleRepo{
		GetByMemberFn: func(_ context.Context, serverID, userID int64) ([]models.Role, error) {
			if serverID != testServerID {
				return nil, nil
			}
			return rolesByUser[userID], nil
		},
	}
	return members, roleRepo
}

func kickRequest(actorID, targetID int64) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newTestContext(http.MethodDelete, "/api/v1/servers/500/members/"+strconv.FormatInt(targetID, 10), nil)
	c.SetParamNames("id", "user_id")
	c.SetParamValues("500", strconv.FormatInt(targetID, 10))
	setAuthUser(c, actorID)
	return c, rec
}

func TestKickMember_AsOwner(t *testing.T) {
	const targetID int64 = 3000

	members, roles := serverPopulation(map[int64][]models.Role{
		testOwnerID: nil,
		targetID: {{
			ID: 10, ServerID: testServerID, Name: "Admin", Position: 9,
			Permissions: int64(permissions.PermAll),
		}},
	})

	kicked := false
	members.DeleteFn = func(_ context.Context, serverID, userID int64) error {
		if serverID != testServerID || userID != targetID {
			t.Errorf("deleted member (%d, %d), want (%d, %d)", serverID, userID, testServerID, targetID)
		}
		kicked = true
		return nil
	}

	h := newTestMemberHandler(ownedServerRepo(), members, roles)

	c, rec := kickRequest(testOwnerID, targetID)
	if err := h.KickMember(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, rec.Code, rec.Body.String())
	}
	if !kicked {
		t.Error("member was not removed")
	}
}

func TestKickMember_OwnerImmune(t *testing.T) {
	const actorID int64 = 2000

	members, roles := serverPopulation(map[int64][]models.Role{
		testOwnerID: nil,
		actorID: {{
			ID: 10, ServerID: testServerID, Name: "Manager", Position: 5,
			Permissions: int64(permissions.PermManageServer),
		}},
	})

	h := newTestMemberHandler(ownedServerRepo(), members, roles)

	c, rec := kickRequest(actorID, testOwnerID)
	if err := h.KickMember(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d: %s", http.StatusForbidden, rec.Code, rec.Body.String())
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != "OWNER_IMMUNE" {
		t.Errorf("error code = %q, want OWNER_IMMUNE", resp.Error.Code)
	}
}

func TestKickMember_HierarchyRejected(t *testing.T) {
	const actorID int64 = 2000
	const targetID int64 = 3000

	members, roles := serverPopulation(map[int64][]models.Role{
		actorID: {{
			ID: 10, ServerID: testServerID, Name: "Manager", Position: 2,
			Permissions: int64(permissions.PermManageServer),
		}},
		targetID: {{
			ID: 11, ServerID: testServerID, Name: "Senior", Position: 5,
		}},
	})

	kicked := false
	members.DeleteFn = func(_ context.Context, serverID, userID int64) error {
		kicked = true
		return nil
	}

	h := newTestMemberHandler(ownedServerRepo(), members, roles)

	c, rec := kickRequest(actorID, targetID)
	if err := h.KickMember(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d: %s", http.StatusForbidden, rec.Code, rec.Body.String())
	}
	if kicked {
		t.Error("member must not be removed across the hierarchy")
	}
}

func TestKickMember_WithoutManageServer(t *testing.T) {
	const actorID int64 = 2000
	const targetID int64 = 3000

	members, roles := serverPopulation(map[int64][]models.Role{
		actorID: {{
			ID: 10, ServerID: testServerID, Name: "Member", Position: 1,
			Permissions: int64(permissions.PermReadMessages | permissions.PermSendMessages),
		}},
		targetID: nil,
	})

	h := newTestMemberHandler(ownedServerRepo(), members, roles)

	c, rec := kickRequest(actorID, targetID)
	if err := h.KickMember(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d: %s", http.StatusForbidden, rec.Code, rec.Body.String())
	}
}

func TestUpdateNickname_Self(t *testing.T) {
	const userID int64 = 2000

	members, roles := serverPopulation(map[int64][]models.Role{userID: nil})
	var updated *models.Member
	members.UpdateFn = func(_ context.Context, m *models.Member) error {
		updated = m
		return nil
	}

	h := newTestMemberHandler(ownedServerRepo(), members, roles)

	body := strings.NewReader(`{"nickname":"shadow"}`)
	c, rec := newTestContext(http.MethodPatch, "/api/v1/servers/500/members/2000", body)
	c.SetParamNames("id", "user_id")
	c.SetParamValues("500", "2000")
	setAuthUser(c, userID)

	if err := h.UpdateNickname(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if updated == nil || updated.Nickname == nil || *updated.Nickname != "shadow" {
		t.Errorf("updated member = %+v, want nickname shadow", updated)
	}
}

func TestUpdateNickname_OtherRequiresManageServer(t *testing.T) {
	const actorID int64 = 2000
	const targetID int64 = 3000

	members, roles := serverPopulation(map[int64][]models.Role{
		actorID: {{
			ID: 10, ServerID: testServerID, Name: "Member", Position: 1,
			Permissions: int64(permissions.PermReadMessages),
		}},
		targetID: nil,
	})

	h := newTestMemberHandler(ownedServerRepo(), members, roles)

	body := strings.NewReader(`{"nickname":"imposed"}`)
	c, rec := newTestContext(http.MethodPatch, "/api/v1/servers/500/members/3000", body)
	c.SetParamNames("id", "user_id")
	c.SetParamValues("500", "3000")
	setAuthUser(c, actorID)

	if err := h.UpdateNickname(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d: %s", http.StatusForbidden, rec.Code, rec.Body.String())
	}
}

func TestListMembers_NonMemberForbidden(t *testing.T) {
	members, roles := serverPopulation(map[int64][]models.Role{})

	h := newTestMemberHandler(ownedServerRepo(), members, roles)

	c, rec := newTestContext(http.MethodGet, "/api/v1/servers/500/members", nil)
	c.SetParamNames("id")
	c.SetParamValues("500")
	setAuthUser(c, 9999)

	if err := h.ListMembers(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d: %s", http.StatusForbidden, rec.Code, rec.Body.String())
	}
}
