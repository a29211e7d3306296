package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/permissions"
	"github.com/parley-chat/parley/internal/redis"
	"github.com/parley-chat/parley/internal/service"
)

// Dependencies holds all handler instances and middleware for route wiring.
type Dependencies struct {
	Auth     *AuthHandler
	Servers  *ServerHandler
	Channels *ChannelHandler
	Members  *MemberHandler
	Users    *UserHandler
	Invites  *InviteHandler
	Roles    *RoleHandler
	Audit    *AuditHandler

	Checker      *service.PermissionChecker
	TokenService *auth.TokenService
	Redis        *redis.Client
}

// SetupRouter registers all API routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/api/v1")

	// Auth routes — no auth middleware, stricter rate limit
	authGroup := v1.Group("/auth",
		RateLimitMiddleware(deps.Redis, 5, time.Minute),
	)
	authGroup.POST("/register", deps.Auth.Register)
	authGroup.POST("/login", deps.Auth.Login)
	authGroup.POST("/refresh", deps.Auth.Refresh)

	// Protected routes — require JWT auth + general rate limit
	authMw := deps.TokenService.Middleware()
	protected := v1.Group("", authMw,
		RateLimitMiddleware(deps.Redis, 50, time.Minute),
	)

	// Auth (protected)
	protected.POST("/auth/logout", deps.Auth.Logout)

	// Users and presence
	protected.GET("/users/@me", deps.Users.GetMe)
	protected.PATCH("/users/@me", deps.Users.UpdateMe)
	protected.PUT("/users/@me/status", deps.Users.SetStatus)
	protected.GET("/users/:id", deps.Users.GetUser)
	protected.GET("/users/:id/status", deps.Users.GetStatus)

	// Servers
	protected.POST("/servers", deps.Servers.CreateServer)
	protected.GET("/servers", deps.Servers.ListServers)
	protected.GET("/servers/:id", deps.Servers.GetServer)
	protected.PATCH("/servers/:id", deps.Servers.UpdateServer)
	protected.DELETE("/servers/:id", deps.Servers.DeleteServer)

	// Channels. Creation needs manageChannels on the server; update and
	// delete need it on the channel so overrides are honored.
	protected.POST("/servers/:id/channels", deps.Channels.CreateChannel,
		RequireServerPermission(permissions.PermManageChannels, deps.Checker))
	protected.GET("/servers/:id/channels", deps.Channels.ListChannels)
	protected.GET("/channels/:id", deps.Channels.GetChannel)
	protected.PATCH("/channels/:id", deps.Channels.UpdateChannel,
		RequireChannelPermission(permissions.PermManageChannels, deps.Checker))
	protected.DELETE("/channels/:id", deps.Channels.DeleteChannel,
		RequireChannelPermission(permissions.PermManageChannels, deps.Checker))

	// Effective channel permissions for the caller
	protected.GET("/channels/:id/permissions", deps.Channels.GetEffectivePermissions)

	// Channel permission overrides
	protected.GET("/channels/:id/overrides", deps.Channels.ListOverrides)
	protected.PUT("/channels/:id/permissions/:target_type/:target_id", deps.Channels.SetOverride)
	protected.DELETE("/channels/:id/permissions/:target_type/:target_id", deps.Channels.DeleteOverride)

	// Members
	protected.GET("/servers/:id/members", deps.Members.ListMembers)
	protected.GET("/servers/:id/members/:user_id", deps.Members.GetMember)
	protected.PATCH("/servers/:id/members/:user_id", deps.Members.UpdateNickname)
	protected.DELETE("/servers/:id/members/@me", deps.Servers.LeaveServer)
	protected.DELETE("/servers/:id/members/:user_id", deps.Members.KickMember)

	// Roles
	protected.POST("/servers/:id/roles", deps.Roles.CreateRole,
		RequireServerPermission(permissions.PermManageRoles, deps.Checker))
	protected.GET("/servers/:id/roles", deps.Roles.ListRoles)
	protected.PATCH("/servers/:id/roles/:role_id", deps.Roles.UpdateRole,
		RequireServerPermission(permissions.PermManageRoles, deps.Checker))
	protected.DELETE("/servers/:id/roles/:role_id", deps.Roles.DeleteRole,
		RequireServerPermission(permissions.PermManageRoles, deps.Checker))
	protected.PUT("/servers/:id/members/:user_id/roles/:role_id", deps.Roles.AssignRole,
		RequireServerPermission(permissions.PermManageRoles, deps.Checker))
	protected.DELETE("/servers/:id/members/:user_id/roles/:role_id", deps.Roles.RemoveRole,
		RequireServerPermission(permissions.PermManageRoles, deps.Checker))

	// Invites
	protected.POST("/servers/:id/invites", deps.Invites.CreateInvite)
	protected.GET("/servers/:id/invites", deps.Invites.ListInvites)
	protected.POST("/invites/:code", deps.Invites.AcceptInvite)
	protected.DELETE("/invites/:code", deps.Invites.RevokeInvite)

	// Audit log
	protected.GET("/servers/:id/audit-log", deps.Audit.ListEntries)
	protected.GET("/servers/:id/audit-log/export", deps.Audit.Export)
}
