package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/config"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/handlers"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/middleware"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/migrations"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/realtime"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/routes"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/services"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
)

func main() {
	config.LoadConfig()

	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	logger.Init(env)

	logger.Info().Str("environment", env).Msg("Starting Waste Management Portal backend...")

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database.Connect()
	database.InitRedis()

	logger.Info().Msg("Running database migrations...")
	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.CommunicationTemplate{},
		&models.CommunicationLog{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database tables")
	}
	if err := migrations.NewMigrator(database.DB).Run(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Info().Msg("Database migrations complete")

	// Messaging core: registry + broadcaster + dispatcher + sweeper
	registry := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(registry)
	notifier := services.NewNotifier(services.NewSMTPSender(), services.NewTwilioSender())
	messenger := services.NewMessenger(broadcaster, notifier)

	sweepInterval := time.Duration(config.AppConfig.SweepIntervalSeconds) * time.Second
	sweeper := services.NewSweeper(notifier, sweepInterval)
	sweeper.Start()

	conversationHandler := handlers.NewConversationHandler(messenger)
	composeHandler := handlers.NewComposeHandler(notifier)
	socketHandler := handlers.NewSocketHandler(registry)

	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	// websockets are long-lived, exempt from per-request rate limiting
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/ws" {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	api := r.Group("/api")
	{
		routes.RegisterAuthRoutes(api)
		routes.RegisterConversationRoutes(api, conversationHandler)
		routes.RegisterAdminRoutes(api, conversationHandler, composeHandler)
	}

	r.GET("/ws", socketHandler.ServeWS)

	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		redisStatus := "ok"

		sqlDB, err := database.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			dbStatus = "error"
		}

		if database.Redis != nil {
			if _, err := database.Redis.Ping(context.Background()).Result(); err != nil {
				redisStatus = "error"
			}
		} else {
			redisStatus = "not configured"
		}

		status := "ok"
		if dbStatus != "ok" || (redisStatus != "ok" && redisStatus != "not configured") {
			status = "degraded"
		}

		c.JSON(200, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	})

	port := config.AppConfig.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
