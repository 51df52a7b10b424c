package handlers

import (
	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/internal/services"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	clients       *services.NotificationClientService
	notifications *services.NotificationService
	dispatcher    *services.Dispatcher
}

func NewNotificationHandler(db *gorm.DB, dispatcher *services.Dispatcher) *NotificationHandler {
	clients := services.NewNotificationClientService(db)
	return &NotificationHandler{
		clients:       clients,
		notifications: services.NewNotificationService(clients),
		dispatcher:    dispatcher,
	}
}

// Types returns the client type registry with field schemas
// GET /api/v1/notifications/types
func (h *NotificationHandler) Types(c *gin.Context) {
	response.Success(c, services.ClientTypes())
}

// TypeDetail returns one client type's field schema
// GET /api/v1/notifications/types/:type
func (h *NotificationHandler) TypeDetail(c *gin.Context) {
	info, ok := services.GetClientType(c.Param("type"))
	if !ok {
		response.NotFound(c, "unknown client type")
		return
	}
	response.Success(c, info)
}

// Scenarios returns the dispatch scenarios with their defaults
// GET /api/v1/notifications/scenarios
func (h *NotificationHandler) Scenarios(c *gin.Context) {
	response.Success(c, services.Scenarios())
}

type ValidateConfigRequest struct {
	Type   string                 `json:"type" binding:"required"`
	Config map[string]interface{} `json:"config"`
}

// ValidateConfig dry-runs config validation without persisting
// POST /api/v1/notifications/validate-config
func (h *NotificationHandler) ValidateConfig(c *gin.Context) {
	var req ValidateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	errs := services.ValidateConfig(req.Type, req.Config)
	response.Success(c, gin.H{"valid": len(errs) == 0, "errors": errs})
}

// List returns a page of notification clients
// GET /api/v1/notifications/clients
func (h *NotificationHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	clients, total, err := h.clients.List(offset, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"total": total, "items": clients})
}

// Get returns one client
// GET /api/v1/notifications/clients/:id
func (h *NotificationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid client id")
		return
	}
	client, err := h.clients.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, client)
}

type ClientRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Type        string                 `json:"type" binding:"required"`
	Config      map[string]interface{} `json:"config"`
	Switches    map[string]bool        `json:"switches"`
	Enabled     *bool                  `json:"enabled"`
	Interactive bool                   `json:"interactive"`
}

// Create creates a notification client
// POST /api/v1/notifications/clients
func (h *NotificationHandler) Create(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	client := &models.NotificationClient{
		Name:        req.Name,
		Type:        req.Type,
		Config:      models.JSONMap(req.Config),
		Switches:    models.SwitchMap(req.Switches),
		Enabled:     true,
		Interactive: req.Interactive,
	}
	if req.Enabled != nil {
		client.Enabled = *req.Enabled
	}

	if err := h.clients.Create(client); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, client)
}

// Update modifies a notification client
// PUT /api/v1/notifications/clients/:id
func (h *NotificationHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid client id")
		return
	}

	var req struct {
		Name        *string                `json:"name"`
		Type        *string                `json:"type"`
		Config      map[string]interface{} `json:"config"`
		Switches    map[string]bool        `json:"switches"`
		Enabled     *bool                  `json:"enabled"`
		Interactive *bool                  `json:"interactive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Config != nil {
		updates["config"] = req.Config
	}
	if req.Switches != nil {
		updates["switches"] = req.Switches
	}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.Interactive != nil {
		updates["interactive"] = *req.Interactive
	}

	client, err := h.clients.Update(id, updates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, client)
}

// Delete removes a client
// DELETE /api/v1/notifications/clients/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid client id")
		return
	}
	if err := h.clients.Delete(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "client deleted"})
}

// Toggle flips the enabled flag
// POST /api/v1/notifications/clients/:id/toggle
func (h *NotificationHandler) Toggle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid client id")
		return
	}
	client, err := h.clients.Toggle(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, client)
}

// UpdateSwitches replaces the scenario switch map
// PUT /api/v1/notifications/clients/:id/switches
func (h *NotificationHandler) UpdateSwitches(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid client id")
		return
	}

	var req map[string]bool
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	client, err := h.clients.UpdateSwitches(id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, client)
}

// Statistics summarizes the client fleet
// GET /api/v1/notifications/statistics
func (h *NotificationHandler) Statistics(c *gin.Context) {
	stats, err := h.clients.Statistics()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// Test exercises a stored client's channel with a fixed message
// POST /api/v1/notifications/clients/:id/test
func (h *NotificationHandler) Test(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid client id")
		return
	}
	client, err := h.clients.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, h.notifications.Test(client))
}

type SendRequest struct {
	ClientIDs []uint                 `json:"client_ids"`
	Scenario  string                 `json:"scenario"`
	Title     string                 `json:"title" binding:"required"`
	Content   string                 `json:"content" binding:"required"`
	ExtraData map[string]interface{} `json:"extra_data"`
}

// Send queues a dispatch to explicit clients or to a scenario
// POST /api/v1/notifications/send
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if len(req.ClientIDs) == 0 && req.Scenario == "" {
		response.BadRequest(c, "either client_ids or scenario is required")
		return
	}

	var batchID string
	var err error
	if len(req.ClientIDs) > 0 {
		batchID, err = h.dispatcher.DispatchClients(req.ClientIDs, req.Title, req.Content, req.ExtraData)
	} else {
		batchID, err = h.dispatcher.DispatchScenario(req.Scenario, req.Title, req.Content, req.ExtraData)
	}
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.Success(c, gin.H{"batch_id": batchID, "queued": true})
}

// SendNow delivers synchronously and returns per-client results in
// request order
// POST /api/v1/notifications/send-now
func (h *NotificationHandler) SendNow(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var results []services.SendResult
	var err error
	switch {
	case len(req.ClientIDs) > 0:
		results, err = h.notifications.SendToClients(req.ClientIDs, req.Title, req.Content, req.ExtraData)
	case req.Scenario != "":
		results, err = h.notifications.SendToScenario(req.Scenario, req.Title, req.Content, req.ExtraData)
	default:
		response.BadRequest(c, "either client_ids or scenario is required")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	success := 0
	for _, r := range results {
		if r.Success {
			success++
		}
	}
	response.Success(c, gin.H{
		"total":   len(results),
		"success": success,
		"failed":  len(results) - success,
		"results": results,
	})
}
