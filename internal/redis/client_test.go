package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.StoreRefreshToken(ctx, "tok-abc", 42, time.Hour); err != nil {
		t.Fatalf("StoreRefreshToken() error: %v", err)
	}

	userID, err := client.GetRefreshTokenUserID(ctx, "tok-abc")
	if err != nil {
		t.Fatalf("GetRefreshTokenUserID() error: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}

	if err := client.DeleteRefreshToken(ctx, "tok-abc"); err != nil {
		t.Fatalf("DeleteRefreshToken() error: %v", err)
	}
	if _, err := client.GetRefreshTokenUserID(ctx, "tok-abc"); err == nil {
		t.Error("GetRefreshTokenUserID() should fail after delete")
	}
}

func TestRefreshTokenExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	if err := client.StoreRefreshToken(ctx, "tok-exp", 7, time.Minute); err != nil {
		t.Fatalf("StoreRefreshToken() error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := client.GetRefreshTokenUserID(ctx, "tok-exp"); err == nil {
		t.Error("GetRefreshTokenUserID() should fail after expiry")
	}
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, count, ttlMs, err := client.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
		if err != nil {
			t.Fatalf("CheckRateLimit() error: %v", err)
		}
		if !allowed {
			t.Errorf("request %d should be allowed", i)
		}
		if count != int64(i) {
			t.Errorf("count = %d, want %d", count, i)
		}
		if ttlMs <= 0 {
			t.Errorf("ttlMs = %d, want positive", ttlMs)
		}
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, _, _, err := client.CheckRateLimit(ctx, "rl:block", 2, time.Minute); err != nil {
			t.Fatalf("CheckRateLimit() error: %v", err)
		}
	}

	allowed, count, _, err := client.CheckRateLimit(ctx, "rl:block", 2, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit() error: %v", err)
	}
	if allowed {
		t.Error("third request should be blocked with limit 2")
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		client.CheckRateLimit(ctx, "rl:reset", 2, time.Minute)
	}

	mr.FastForward(2 * time.Minute)

	allowed, count, _, err := client.CheckRateLimit(ctx, "rl:reset", 2, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit() error: %v", err)
	}
	if !allowed {
		t.Error("request after window reset should be allowed")
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 after reset", count)
	}
}

func TestPresenceRoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	if err := client.SetPresence(ctx, 9, "online"); err != nil {
		t.Fatalf("SetPresence() error: %v", err)
	}

	status, err := client.GetPresence(ctx, 9)
	if err != nil {
		t.Fatalf("GetPresence() error: %v", err)
	}
	if status != "online" {
		t.Errorf("status = %q, want %q", status, "online")
	}

	if err := client.DeletePresence(ctx, 9); err != nil {
		t.Fatalf("DeletePresence() error: %v", err)
	}
	status, err = client.GetPresence(ctx, 9)
	if err != nil {
		t.Fatalf("GetPresence() error: %v", err)
	}
	if status != "" {
		t.Errorf("status = %q, want empty after delete", status)
	}

	// Presence expires on its own when not refreshed.
	client.SetPresence(ctx, 9, "idle")
	mr.FastForward(10 * time.Minute)
	status, _ = client.GetPresence(ctx, 9)
	if status != "" {
		t.Errorf("status = %q, want empty after TTL", status)
	}
}
