package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/models"
	"github.com/parley-chat/parley/internal/redis"
	"github.com/parley-chat/parley/internal/service"
)

func newTestAuthHandler(t *testing.T, users *mockUserRepo) *AuthHandler {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	tokens := auth.NewTokenService("test-secret")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewAuthService(users, tokens, client, testSnowflake(), log)
	return NewAuthHandler(svc)
}

func TestRegister_Success(t *testing.T) {
	var created *models.User
	users := &mockUserRepo{
		CreateFn: func(_ context.Context, u *models.User) error {
			created = u
			return nil
		},
	}

	h := newTestAuthHandler(t, users)

	body := strings.NewReader(`{"username":"alex","password":"hunter22"}`)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/register", body)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if created == nil {
		t.Fatal("user was not created")
	}
	if created.Username != "alex" {
		t.Errorf("username = %q, want alex", created.Username)
	}
	if created.PasswordHash == "" || created.PasswordHash == "hunter22" {
		t.Error("password should be stored hashed")
	}

	var resp struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		User         json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected both tokens in response")
	}
	if strings.Contains(string(resp.User), "password") {
		t.Error("password hash must not appear in the response")
	}
}

func TestRegister_UsernameTaken(t *testing.T) {
	users := &mockUserRepo{
		GetByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: 1, Username: username}, nil
		},
	}

	h := newTestAuthHandler(t, users)

	body := strings.NewReader(`{"username":"alex","password":"hunter22"}`)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/register", body)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
}

func TestRegister_InvalidCredentials(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"username too short", `{"username":"x","password":"hunter22"}`},
		{"username with spaces", `{"username":"not a name","password":"hunter22"}`},
		{"password too short", `{"username":"alex","password":"short"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestAuthHandler(t, &mockUserRepo{})

			c, rec := newTestContext(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tc.body))

			if err := h.Register(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestLogin_UnknownUsername(t *testing.T) {
	h := newTestAuthHandler(t, &mockUserRepo{})

	body := strings.NewReader(`{"username":"nobody","password":"whatever1"}`)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/login", body)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d: %s", http.StatusUnauthorized, rec.Code, rec.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("right-password")
	if err != nil {
		t.Fatal(err)
	}
	users := &mockUserRepo{
		GetByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: 1, Username: username, PasswordHash: hash}, nil
		},
	}

	h := newTestAuthHandler(t, users)

	body := strings.NewReader(`{"username":"alex","password":"wrong-password"}`)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/login", body)

	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d: %s", http.StatusUnauthorized, rec.Code, rec.Body.String())
	}
}

func TestLoginThenRefresh(t *testing.T) {
	hash, err := auth.HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}
	users := &mockUserRepo{
		GetByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: 42, Username: username, PasswordHash: hash}, nil
		},
	}

	h := newTestAuthHandler(t, users)

	body := strings.NewReader(`{"username":"alex","password":"hunter22"}`)
	c, rec := newTestContext(http.MethodPost, "/api/v1/auth/login", body)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}

	var loginResp struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}

	body = strings.NewReader(`{"refresh_token":"` + loginResp.RefreshToken + `"}`)
	c, rec = newTestContext(http.MethodPost, "/api/v1/auth/refresh", body)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}

	var refreshResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &refreshResp); err != nil {
		t.Fatalf("failed to decode refresh response: %v", err)
	}
	if refreshResp.RefreshToken == loginResp.RefreshToken {
		t.Error("refresh token should rotate")
	}

	// The old token is revoked after rotation.
	body = strings.NewReader(`{"refresh_token":"` + loginResp.RefreshToken + `"}`)
	c, rec = newTestContext(http.MethodPost, "/api/v1/auth/refresh", body)
	if err := h.Refresh(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d for reused token, got %d", http.StatusUnauthorized, rec.Code)
	}
}
