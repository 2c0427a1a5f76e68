package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/mookzZ/fast-websockets/internal/auth"
	"github.com/mookzZ/fast-websockets/internal/cache"
	"github.com/mookzZ/fast-websockets/internal/config"
	"github.com/mookzZ/fast-websockets/internal/domain"
	"github.com/mookzZ/fast-websockets/internal/events"
	"github.com/mookzZ/fast-websockets/internal/handler"
	"github.com/mookzZ/fast-websockets/internal/notifier"
	"github.com/mookzZ/fast-websockets/internal/registry"
	"github.com/mookzZ/fast-websockets/internal/repository"
	"github.com/mookzZ/fast-websockets/internal/service"
	"github.com/mookzZ/fast-websockets/internal/token"
	"github.com/mookzZ/fast-websockets/pkg/database"
	"github.com/mookzZ/fast-websockets/pkg/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	logger := log.L()

	if cfg.JWT.Secret == "" {
		logger.Fatal().Msg("JWT_SECRET is not set")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.ChatModel{},
		&domain.ChatMemberModel{},
		&domain.MessageModel{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	users := repository.NewGormUserRepository(db)
	chats := repository.NewGormChatRepository(db)
	messages := repository.NewGormMessageRepository(db)

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	var msgCache cache.MessageCache = cache.NoopCache{}
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisMessageCache(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		msgCache = redisCache
		logger.Info().Str("address", cfg.Redis.Address).Msg("history cache enabled")
	}
	defer msgCache.Close()

	var producer events.Producer = events.NoopProducer{}
	if cfg.Kafka.Enabled {
		kafkaProducer, err := events.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		producer = kafkaProducer
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("message events enabled")
	}
	defer producer.Close()

	reg := registry.New(logger)

	chatSvc := service.NewChatService(tokens, users, chats, messages, reg, msgCache, producer)
	inviteNotifier := notifier.New(reg, logger)
	mgmtSvc := service.NewManagementService(users, chats, messages, tokens, inviteNotifier, msgCache)

	authMiddleware := auth.NewMiddleware(tokens, users)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(log.GinMiddleware(logger))

	handler.NewHandler(mgmtSvc, authMiddleware).RegisterRoutes(r)
	handler.NewWSHandler(chatSvc, cfg.WebSocket).RegisterRoutes(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("chat backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")

	// Websocket connections are hijacked, so Shutdown will not touch
	// them; close them explicitly first.
	reg.CloseAll(websocket.CloseGoingAway, "server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("stopped")
}
