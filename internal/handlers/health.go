package handlers

import (
	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct {
	cache *services.ConfigCache
}

func NewHealthHandler(cache *services.ConfigCache) *HealthHandler {
	return &HealthHandler{cache: cache}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var enabledClients int64
	models.GetDB().Model(&models.NotificationClient{}).
		Where("enabled = ?", true).
		Count(&enabledClients)

	c.JSON(200, gin.H{
		"status":      overall,
		"service":     "fastapi-admin",
		"maintenance": h.cache != nil && h.cache.MaintenanceMode(),
		"components": gin.H{
			"database":             dbStatus,
			"queue_mode":           queueMode,
			"notification_clients": enabledClients,
		},
	})
}
