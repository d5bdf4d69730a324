package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"streamnet/internal/cache"
	"streamnet/internal/chat"
	"streamnet/internal/config"
	"streamnet/internal/database"
	"streamnet/internal/handler"
	"streamnet/internal/logger"
	"streamnet/internal/queue"
	rediscli "streamnet/internal/redis"
	"streamnet/internal/service"
	"streamnet/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// Run loads configuration, wires every component and serves until SIGINT or
// SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	log := logger.Log
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	repos, closeRepos, err := database.OpenRepositories(ctx, cfg, log.Named("db"))
	if err != nil {
		return err
	}
	defer closeRepos()

	// 3. Chat provider, queue and cache
	var provider chat.Provider
	var chatClient *chat.StreamClient
	if cfg.ChatEnabled() {
		chatClient = chat.NewStreamClient(cfg.StreamBaseURL, cfg.StreamAPIKey, cfg.StreamAPISecret, log.Named("chat"))
		provider = chatClient
	} else {
		log.Warn("Stream credentials not set; chat sync and chat routes are disabled")
	}

	var publisher queue.Publisher
	var statsCache cache.StatsCache
	var manager *worker.Manager
	if cfg.RedisURL != "" {
		rdb, err := rediscli.Connect(ctx, cfg.RedisURL, log.Named("redis"))
		if err != nil {
			return err
		}
		defer rdb.Close()

		statsCache = cache.NewStatsCache(rdb.Client, time.Duration(cfg.StatsCacheTTL)*time.Second, log.Named("cache"))

		if provider != nil {
			publisher = queue.NewPublisher(rdb.Client, log.Named("queue"))
			consumer := queue.NewConsumer(rdb.Client, log.Named("queue"))
			manager = worker.NewManager(consumer, worker.NewHandler(provider, log.Named("worker")), worker.DefaultManagerConfig(), log.Named("worker"))
			if err := manager.Start(ctx); err != nil {
				return fmt.Errorf("failed to start chat sync workers: %w", err)
			}
			defer manager.Stop()
		}
	}

	var mediaService *service.MediaService
	if cfg.MediaEnabled() {
		mediaService, err = service.NewMediaService(ctx, cfg)
		if err != nil {
			return err
		}
	} else {
		log.Warn("R2 settings incomplete; avatar uploads are disabled")
	}

	// 4. Services
	validate := service.NewValidator()
	sync := service.NewChatSync(provider, publisher, log.Named("chat-sync"))
	sessions := service.NewSessionService(cfg.JWTSecret, time.Duration(cfg.SessionMaxAge)*time.Second)

	userService := service.NewUserService(repos.Tx, repos.Users, validate, service.NewAvatarSource(cfg.AvatarBaseURL), sync, cfg.AdminSecretKey, log.Named("users"))
	friendService := service.NewFriendService(repos.Tx, repos.Users, repos.Friends, log.Named("friends"))
	adminService := service.NewAdminService(repos.Tx, repos.Users, repos.Friends, repos.Stats, statsCache, sync, log.Named("admin"))
	supportService := service.NewSupportService(repos.Support, validate, log.Named("support"))

	// 5. Router
	routerCfg := RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, sessions, cfg.CookieSecure, log),
		UserHandler:    handler.NewUserHandler(userService, friendService, mediaService, log),
		AdminHandler:   handler.NewAdminHandler(adminService, log),
		SupportHandler: handler.NewSupportHandler(supportService, log),
		Sessions:       sessions,
		Users:          repos.Users,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Log:            log.Named("http"),
	}
	if chatClient != nil {
		chatService := service.NewChatService(chatClient, chatClient.APIKey(), repos.Users, repos.Friends)
		routerCfg.ChatHandler = handler.NewChatHandler(chatService, log)
	}

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
