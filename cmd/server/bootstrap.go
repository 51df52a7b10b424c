package main

import (
	"github.com/ColorlessCube/fastapi-admin/internal/config"
	"github.com/ColorlessCube/fastapi-admin/internal/handlers"
	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/internal/services"
	"github.com/ColorlessCube/fastapi-admin/internal/utils"
	"github.com/ColorlessCube/fastapi-admin/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg                 *config.Config
	configCache         *services.ConfigCache
	dispatcher          *services.Dispatcher
	taskQueue           services.TaskQueue
	worker              *services.Worker
	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	roleHandler         *handlers.RoleHandler
	permissionHandler   *handlers.PermissionHandler
	configHandler       *handlers.SystemConfigHandler
	notificationHandler *handlers.NotificationHandler
	logHandler          *handlers.SystemLogHandler
	healthHandler       *handlers.HealthHandler
	permService         *services.PermissionService
	userService         *services.UserService
}

// bootstrap initializes all application dependencies: database, cache, queue.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()
	services.InitSystemLogger(db)

	configCache := services.NewConfigCache(db, cfg.Cache.RefreshSeconds)
	if err := configCache.Start(); err != nil {
		logger.Fatalf("Failed to start config cache: %v", err)
	}

	clients := services.NewNotificationClientService(db)
	notifications := services.NewNotificationService(clients)

	// The dispatcher's processor serves both queue modes.
	taskQueue := services.InitTaskQueue(cfg)
	dispatcher := services.NewDispatcher(notifications, taskQueue)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(dispatcher.ProcessTask)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(dispatcher.ProcessTask)
			worker.Start()
		}
	}

	return &appServices{
		cfg:                 cfg,
		configCache:         configCache,
		dispatcher:          dispatcher,
		taskQueue:           taskQueue,
		worker:              worker,
		authHandler:         handlers.NewAuthHandler(db, cfg, configCache, dispatcher),
		userHandler:         handlers.NewUserHandler(db, dispatcher),
		roleHandler:         handlers.NewRoleHandler(db),
		permissionHandler:   handlers.NewPermissionHandler(db),
		configHandler:       handlers.NewSystemConfigHandler(db, configCache, dispatcher),
		notificationHandler: handlers.NewNotificationHandler(db, dispatcher),
		logHandler:          handlers.NewSystemLogHandler(db),
		healthHandler:       handlers.NewHealthHandler(configCache),
		permService:         services.NewPermissionService(db),
		userService:         services.NewUserService(db),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	s.configCache.Stop()
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("Background services stopped")
}
