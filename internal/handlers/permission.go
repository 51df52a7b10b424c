package handlers

import (
	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/internal/services"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PermissionHandler struct {
	perms *services.PermissionService
}

func NewPermissionHandler(db *gorm.DB) *PermissionHandler {
	return &PermissionHandler{perms: services.NewPermissionService(db)}
}

// List returns a page of permissions
// GET /api/v1/permissions
func (h *PermissionHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	perms, total, err := h.perms.List(offset, limit, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"total": total, "items": perms})
}

// Get returns one permission
// GET /api/v1/permissions/:id
func (h *PermissionHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid permission id")
		return
	}
	perm, err := h.perms.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, perm)
}

type PermissionRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code"`
	Resource    string `json:"resource" binding:"required"`
	Action      string `json:"action" binding:"required"`
	Description string `json:"description"`
}

// Create creates a permission; the code defaults to resource:action
// POST /api/v1/permissions
func (h *PermissionHandler) Create(c *gin.Context) {
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	perm := &models.Permission{
		Name:        req.Name,
		Code:        req.Code,
		Resource:    req.Resource,
		Action:      req.Action,
		Description: req.Description,
	}
	if err := h.perms.Create(perm); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, perm)
}

// Update modifies a permission
// PUT /api/v1/permissions/:id
func (h *PermissionHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid permission id")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Code        *string `json:"code"`
		Resource    *string `json:"resource"`
		Action      *string `json:"action"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Code != nil {
		updates["code"] = *req.Code
	}
	if req.Resource != nil {
		updates["resource"] = *req.Resource
	}
	if req.Action != nil {
		updates["action"] = *req.Action
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	perm, err := h.perms.Update(id, updates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, perm)
}

// Delete removes a permission no role references
// DELETE /api/v1/permissions/:id
func (h *PermissionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid permission id")
		return
	}
	if err := h.perms.Delete(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "permission deleted"})
}
