package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/classpilot/backend/internal/api/handlers"
	"github.com/classpilot/backend/internal/auth"
	"github.com/classpilot/backend/internal/cache/redis"
	"github.com/classpilot/backend/internal/chat"
	"github.com/classpilot/backend/internal/gateway"
	"github.com/classpilot/backend/internal/llm"
	"github.com/classpilot/backend/internal/metrics"
	"github.com/classpilot/backend/internal/middleware/ratelimit"
	"github.com/classpilot/backend/internal/middleware/security"
	"github.com/classpilot/backend/internal/middleware/validation"
	"github.com/classpilot/backend/internal/planner"
	"github.com/classpilot/backend/internal/storage/models"
	"github.com/classpilot/backend/internal/storage/sqlite"
	"github.com/classpilot/backend/pkg/config"
	appLogger "github.com/classpilot/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting ClassPilot API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}
	if err := sqliteClient.SeedStandards(); err != nil {
		appLogger.Warn("Failed to seed standards", zap.Error(err))
	}

	redisClient, err := redis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	llmClient, err := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	gw := gateway.New(llmClient, gateway.Config{
		RetryAttempts:  cfg.LLM.RetryAttempts,
		RetryBaseDelay: time.Duration(cfg.LLM.RetryBaseMillis) * time.Millisecond,
	})

	sessionTTL := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
	authService := auth.NewService(sqliteClient, redisClient, sessionTTL)
	chatService := chat.NewService(sqliteClient, gw, redisClient,
		time.Duration(cfg.Chat.ReplyCacheTTLSec)*time.Second)
	plannerService := planner.NewService(sqliteClient, gw, redisClient)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Server.Development,
	}))
	app.Use(validation.Middleware(validation.Config{
		MaxBodyBytes: cfg.Server.BodyLimit,
	}))

	chatLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Chat.MaxRequestsPerMinute,
	})
	defer chatLimiter.Stop()

	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.CookieName, cfg.Auth.CookieSecure, sessionTTL)
	courseHandler := handlers.NewCourseHandler(sqliteClient)
	topicHandler := handlers.NewTopicHandler(sqliteClient, plannerService)
	materialHandler := handlers.NewMaterialHandler(sqliteClient, plannerService)
	chatHandler := handlers.NewChatHandler(chatService, cfg.Chat.MaxMessageLength)
	standardHandler := handlers.NewStandardHandler(sqliteClient)

	api := app.Group("/api/v1")

	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/logout", authHandler.Logout)

	requireAuth := auth.RequireAuth(authService, cfg.Auth.CookieName)
	teacherOnly := auth.RequireRole(models.RoleTeacher)
	studentOnly := auth.RequireRole(models.RoleStudent)

	api.Get("/auth/me", requireAuth, authHandler.Me)

	api.Post("/courses", requireAuth, teacherOnly, courseHandler.Create)
	api.Get("/courses", requireAuth, courseHandler.ListMine)
	api.Post("/courses/join", requireAuth, studentOnly, courseHandler.Join)
	api.Get("/courses/:id", requireAuth, courseHandler.Get)
	api.Delete("/courses/:id", requireAuth, teacherOnly, courseHandler.Delete)
	api.Get("/courses/:id/students", requireAuth, teacherOnly, courseHandler.ListStudents)

	api.Post("/courses/:id/topics", requireAuth, teacherOnly, topicHandler.Create)
	api.Get("/courses/:id/topics", requireAuth, topicHandler.List)
	api.Put("/topics/:id", requireAuth, teacherOnly, topicHandler.Update)
	api.Delete("/topics/:id", requireAuth, teacherOnly, topicHandler.Delete)
	api.Post("/courses/:id/pacing-guide", requireAuth, teacherOnly, topicHandler.ImportPacingGuide)
	api.Post("/topics/analyze", requireAuth, teacherOnly, topicHandler.Analyze)

	api.Post("/courses/:id/materials", requireAuth, teacherOnly, materialHandler.Create)
	api.Get("/courses/:id/materials", requireAuth, materialHandler.List)
	api.Delete("/courses/:id/materials/:materialId", requireAuth, teacherOnly, materialHandler.Delete)

	api.Post("/courses/:id/chat", requireAuth, studentOnly, chatLimiter.Middleware(), chatHandler.SendMessage)
	api.Get("/courses/:id/chat", requireAuth, studentOnly, chatHandler.History)

	api.Get("/standards", requireAuth, standardHandler.List)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		if err := sqliteClient.Ping(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "database unavailable"})
		}
		if err := redisClient.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "cache unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
