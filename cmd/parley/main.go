package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/parley-chat/parley/internal/api"
	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/config"
	"github.com/parley-chat/parley/internal/database"
	redisclient "github.com/parley-chat/parley/internal/redis"
	"github.com/parley-chat/parley/internal/service"
	"github.com/parley-chat/parley/internal/snowflake"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	// --- Infrastructure ---

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	sf, err := snowflake.NewGenerator(cfg.WorkerID, cfg.ProcessID)
	if err != nil {
		log.Error("snowflake init failed", "error", err)
		os.Exit(1)
	}
	tokenSvc := auth.NewTokenService(cfg.JWTSecret)

	// --- Repositories ---

	users := database.NewUserRepository(pool)
	servers := database.NewServerRepository(pool)
	channels := database.NewChannelRepository(pool)
	roles := database.NewRoleRepository(pool)
	members := database.NewMemberRepository(pool)
	invites := database.NewInviteRepository(pool)
	overrides := database.NewChannelOverrideRepository(pool)
	auditLog := database.NewAuditLogRepository(pool)

	// --- Services ---

	checker := service.NewPermissionChecker(servers, channels, members, roles, overrides)
	recorder := service.NewAuditRecorder(auditLog, sf, log)

	authSvc := service.NewAuthService(users, tokenSvc, rdb, sf, log)
	userSvc := service.NewUserService(users, rdb)
	serverSvc := service.NewServerService(servers, channels, members, sf, checker, recorder)
	channelSvc := service.NewChannelService(channels, roles, members, overrides, sf, checker, recorder)
	memberSvc := service.NewMemberService(members, checker, recorder)
	roleSvc := service.NewRoleService(roles, members, overrides, sf, checker, recorder)
	inviteSvc := service.NewInviteService(invites, members, servers, checker, recorder)
	auditSvc := service.NewAuditService(auditLog, checker)

	// --- Handlers ---

	deps := &api.Dependencies{
		Auth:         api.NewAuthHandler(authSvc),
		Servers:      api.NewServerHandler(serverSvc),
		Channels:     api.NewChannelHandler(channelSvc, checker),
		Members:      api.NewMemberHandler(memberSvc),
		Users:        api.NewUserHandler(userSvc),
		Invites:      api.NewInviteHandler(inviteSvc),
		Roles:        api.NewRoleHandler(roleSvc),
		Audit:        api.NewAuditHandler(auditSvc),
		Checker:      checker,
		TokenService: tokenSvc,
		Redis:        rdb,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.SetupRouter(e, deps)

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("parley starting", "addr", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()
	log.Info("shutting down")
	if err := e.Shutdown(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
