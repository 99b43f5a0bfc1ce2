package main

// @title           GenieLearn API
// @version         1.0
// @description     Study-group platform backend: accounts, groups, chat, file sharing.
// @host            localhost:8080
// @BasePath        /api/v1
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genielearn-backend/internal/config"
	"genielearn-backend/internal/database"
	"genielearn-backend/internal/events"
	"genielearn-backend/internal/repository"
	"genielearn-backend/internal/server"
	"genielearn-backend/internal/server/handlers"
	"genielearn-backend/internal/service"
	"genielearn-backend/internal/session"
	"genielearn-backend/internal/ws"

	_ "genielearn-backend/docs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting GenieLearn backend")

	db, err := database.NewPostgresConnection(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	redisClient, err := database.NewRedisConnection(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	blobs, err := database.NewBlobStore(&cfg.MinIO)
	if err != nil {
		slog.Error("Failed to connect to MinIO", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher
	publisher, err = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		slog.Warn("Kafka unavailable, chat events disabled", "error", err)
		publisher = events.NoopPublisher{}
	}
	defer publisher.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	fileRepo := repository.NewFileRepository(db)

	// Services
	sessions := session.NewManager(cfg.JWT.Secret, cfg.JWT.ExpirationTime)
	authService := service.NewAuthService(userRepo, sessions)
	groupService := service.NewGroupService(groupRepo, userRepo)
	messageService := service.NewMessageService(messageRepo, publisher)
	fileService := service.NewFileService(fileRepo, blobs)
	presenceService := service.NewPresenceService(redisClient)

	// Chat gateway
	registry := ws.NewRegistry()
	gateway := ws.NewGateway(registry, sessions, groupService, messageService, presenceService)

	// HTTP layer
	authHandler := handlers.NewAuthHandler(authService)
	groupHandler := handlers.NewGroupHandler(groupService, presenceService)
	messageHandler := handlers.NewMessageHandler(messageService, groupService, gateway)
	fileHandler := handlers.NewFileHandler(fileService, groupService)

	router := gin.Default()
	server.SetupRoutes(router, sessions, authHandler, groupHandler, messageHandler, fileHandler, gateway)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
