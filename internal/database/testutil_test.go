package database

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-chat/parley/internal/models"
)

// testPool returns a pgxpool.Pool connected to the test database.
// It skips the test if DATABASE_URL is not set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// testIDCounter provides unique IDs across all tests in the package.
// Starts well above zero to avoid conflicts with any existing data.
var testIDCounter int64 = 100000

func nextID() int64 {
	return atomic.AddInt64(&testIDCounter, 1)
}

func createTestUser(t *testing.T, repo UserRepository) *models.User {
	t.Helper()
	ctx := context.Background()
	id := nextID()
	user := &models.User{
		ID:           id,
		Username:     fmt.Sprintf("testuser_%d", id),
		DisplayName:  "Test",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$abc$def",
		CreatedAt:    time.Now().Truncate(time.Microsecond),
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, user.ID) })
	return user
}

func createTestServer(t *testing.T, repo ServerRepository, ownerID int64) *models.Server {
	t.Helper()
	ctx := context.Background()
	server := &models.Server{
		ID:        nextID(),
		Name:      "TestServer",
		OwnerID:   ownerID,
		CreatedAt: time.Now().Truncate(time.Microsecond),
	}
	if err := repo.Create(ctx, server); err != nil {
		t.Fatalf("createTestServer: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, server.ID) })
	return server
}

func createTestChannel(t *testing.T, repo ChannelRepository, serverID int64) *models.Channel {
	t.Helper()
	ctx := context.Background()
	channel := &models.Channel{
		ID:       nextID(),
		ServerID: serverID,
		Name:     "test-channel",
	}
	if err := repo.Create(ctx, channel); err != nil {
		t.Fatalf("createTestChannel: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, channel.ID) })
	return channel
}

func createTestRole(t *testing.T, repo RoleRepository, serverID int64) *models.Role {
	t.Helper()
	ctx := context.Background()
	role := &models.Role{
		ID:       nextID(),
		ServerID: serverID,
		Name:     "TestRole",
		Position: 1,
	}
	if err := repo.Create(ctx, role); err != nil {
		t.Fatalf("createTestRole: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, role.ID) })
	return role
}

func createTestMember(t *testing.T, repo MemberRepository, serverID, userID int64) *models.Member {
	t.Helper()
	ctx := context.Background()
	member := &models.Member{
		ServerID: serverID,
		UserID:   userID,
		JoinedAt: time.Now().Truncate(time.Microsecond),
	}
	if err := repo.Create(ctx, member); err != nil {
		t.Fatalf("createTestMember: %v", err)
	}
	t.Cleanup(func() { _ = repo.Delete(ctx, serverID, userID) })
	return member
}
