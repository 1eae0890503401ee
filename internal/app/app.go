package app

import (
	"context"
	"fmt"
	"time"

	"projchat_backend/internal/auth"
	"projchat_backend/internal/config"
	"projchat_backend/internal/handlers"
	"projchat_backend/internal/logger"
	"projchat_backend/internal/middleware"
	"projchat_backend/internal/models"
	modelChat "projchat_backend/internal/models/chat"
	"projchat_backend/internal/notifications"
	"projchat_backend/internal/repositories"
	repoChat "projchat_backend/internal/repositories/chat"
	"projchat_backend/internal/routes"
	"projchat_backend/internal/services"
	chatService "projchat_backend/internal/services/chat"
	"projchat_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB := openDatabase(cfg)

	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.ProjectFile{},
		&modelChat.Message{},
		&modelChat.ReadReceipt{},
		&modelChat.FileActivity{},
		&modelChat.AutoMessageCursor{},
	); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}
	logger.Info("Database migrated")

	c := buildContainer(cfg, gormDB)
	router := setupRouter(cfg, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker := workers.NewChatWorker(c.typing, c.auto, cfg.Chat)
	worker.Start(ctx)
	logger.Info("Chat workers started", "mode", string(cfg.Chat.AutoMessageMode))

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := router.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func openDatabase(cfg *config.Config) *gorm.DB {
	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		dialector = postgres.Open(cfg.Database.DSN)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")
	return gormDB
}

func setupRouter(cfg *config.Config, c *container) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())

	tokens := auth.NewTokenManager(cfg.JWT.Secret, tokenTTL)
	routes.RegisterRoutes(router, tokens, c.chatHandler, c.sseHandler, c.heartbeatHandler)
	return router
}

type container struct {
	typing           *chatService.TypingService
	auto             *chatService.AutoMessageService
	chatHandler      *handlers.ChatHandler
	sseHandler       *handlers.SSEHandler
	heartbeatHandler *handlers.HeartbeatHandler
}

func buildContainer(cfg *config.Config, gormDB *gorm.DB) *container {
	userRepo := repositories.NewUserRepository(gormDB)
	projectRepo := repositories.NewProjectRepository(gormDB)
	fileRepo := repositories.NewFileRepository(gormDB)
	messageRepo := repoChat.NewMessageRepository(gormDB)
	receiptRepo := repoChat.NewReadReceiptRepository(gormDB)
	activityRepo := repoChat.NewFileActivityRepository(gormDB)

	gate := services.NewProjectPermissionGate(projectRepo, messageRepo)
	limiter := chatService.NewRateLimiter(messageRepo, cfg.Chat)
	messageService := chatService.NewMessageService(messageRepo, projectRepo, gate, limiter, cfg.Chat)
	seenService := chatService.NewSeenService(receiptRepo, messageRepo, projectRepo, cfg.Chat)
	typingService := chatService.NewTypingService(cfg.Chat)
	autoService := chatService.NewAutoMessageService(activityRepo, fileRepo, userRepo, messageService, cfg.Chat)
	deltaService := chatService.NewDeltaService(messageRepo, receiptRepo, userRepo, gate, typingService, seenService)
	exportService := chatService.NewExportService(messageRepo, projectRepo, userRepo)

	sender := notifications.NewEmailSender(cfg)
	notifier := notifications.NewMentionNotifier(sender, userRepo, projectRepo, cfg.Email.Enabled)

	base := handlers.NewBaseHandler()
	return &container{
		typing: typingService,
		auto:   autoService,
		chatHandler: handlers.NewChatHandler(
			base, messageService, seenService, typingService,
			deltaService, autoService, exportService, notifier,
			cfg.Chat.FetchLimit, cfg.Chat.EarlierLimit,
		),
		sseHandler:       handlers.NewSSEHandler(base, deltaService, cfg.Chat),
		heartbeatHandler: handlers.NewHeartbeatHandler(base, deltaService, seenService, cfg.Chat),
	}
}
