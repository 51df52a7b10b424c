package handlers

import (
	"fmt"

	"github.com/ColorlessCube/fastapi-admin/internal/middleware"
	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/internal/services"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SystemConfigHandler struct {
	configs    *services.SystemConfigService
	cache      *services.ConfigCache
	dispatcher *services.Dispatcher
}

func NewSystemConfigHandler(db *gorm.DB, cache *services.ConfigCache, dispatcher *services.Dispatcher) *SystemConfigHandler {
	return &SystemConfigHandler{
		configs:    services.NewSystemConfigService(db),
		cache:      cache,
		dispatcher: dispatcher,
	}
}

// List returns a page of config entries
// GET /api/v1/configs
func (h *SystemConfigHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	configs, total, err := h.configs.List(offset, limit, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"total": total, "items": configs})
}

// GetByKey returns the decoded value of one key
// GET /api/v1/configs/key/:key
func (h *SystemConfigHandler) GetByKey(c *gin.Context) {
	cfg, err := h.configs.GetByKey(c.Param("key"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"config": cfg,
		"value":  services.DecodeValue(cfg, nil),
	})
}

type ConfigRequest struct {
	Key         string `json:"key" binding:"required"`
	Value       string `json:"value"`
	DataType    string `json:"data_type"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// Create creates a config entry
// POST /api/v1/configs
func (h *SystemConfigHandler) Create(c *gin.Context) {
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cfg := &models.SystemConfig{
		Key:         req.Key,
		Value:       req.Value,
		DataType:    req.DataType,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}

	if err := h.configs.Create(cfg); err != nil {
		response.Error(c, err)
		return
	}

	if h.cache != nil {
		h.cache.Refresh()
	}
	h.notifyChange(c, cfg.Key, "created")
	response.Created(c, cfg)
}

// Update modifies a config entry and refreshes the cache snapshot
// PUT /api/v1/configs/:id
func (h *SystemConfigHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid config id")
		return
	}

	var req struct {
		Key         *string `json:"key"`
		Value       *string `json:"value"`
		DataType    *string `json:"data_type"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Key != nil {
		updates["key"] = *req.Key
	}
	if req.Value != nil {
		updates["value"] = *req.Value
	}
	if req.DataType != nil {
		updates["data_type"] = *req.DataType
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	cfg, err := h.configs.Update(id, updates)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Written values should be visible without waiting a refresh tick.
	if h.cache != nil {
		h.cache.Refresh()
	}
	h.notifyChange(c, cfg.Key, "updated")
	response.Success(c, cfg)
}

// Delete removes a non-system config entry
// DELETE /api/v1/configs/:id
func (h *SystemConfigHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid config id")
		return
	}

	cfg, err := h.configs.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.configs.Delete(id); err != nil {
		response.Error(c, err)
		return
	}

	if h.cache != nil {
		h.cache.Refresh()
	}
	h.notifyChange(c, cfg.Key, "deleted")
	response.Success(c, gin.H{"message": "config deleted"})
}

func (h *SystemConfigHandler) notifyChange(c *gin.Context, key, action string) {
	if h.dispatcher == nil {
		return
	}
	h.dispatcher.DispatchScenario("config_changed",
		"Config Changed",
		fmt.Sprintf("config %s %s by %s", key, action, middleware.GetUsername(c)),
		map[string]interface{}{"key": key, "action": action})
}
