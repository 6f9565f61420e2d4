package main

import (
	"github.com/litmer/backend/internal/config"
	"github.com/litmer/backend/internal/handlers"
	"github.com/litmer/backend/internal/models"
	"github.com/litmer/backend/internal/services"
	"github.com/litmer/backend/internal/utils"
	"github.com/litmer/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg       *config.Config
	taskQueue services.TaskQueue
	worker    *services.Worker
	aiHandler *handlers.AIHandler
}

// bootstrap initializes all application dependencies: database, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	notificationService := services.NewNotificationService(models.GetDB())
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.Deliver)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.Deliver)
			worker.Start()
		}
	}

	// AI gateway and its rate-window purge scheduler
	aiHandler := handlers.NewAIHandler(models.GetDB(), &cfg.AI)
	if err := aiHandler.Service().Windows().StartGC(cfg.AI.WindowGCPeriod); err != nil {
		logger.Warn().Err(err).Msg("Failed to start rate window purge scheduler")
	}

	return &appServices{
		cfg:       cfg,
		taskQueue: taskQueue,
		worker:    worker,
		aiHandler: aiHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.aiHandler.Service().Windows().StopGC()

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
