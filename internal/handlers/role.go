package handlers

import (
	"strconv"

	"github.com/ColorlessCube/fastapi-admin/internal/models"
	"github.com/ColorlessCube/fastapi-admin/internal/services"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type RoleHandler struct {
	roles *services.RoleService
}

func NewRoleHandler(db *gorm.DB) *RoleHandler {
	return &RoleHandler{roles: services.NewRoleService(db)}
}

// List returns a page of roles with their permissions
// GET /api/v1/roles
func (h *RoleHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	roles, total, err := h.roles.List(offset, limit, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"total": total, "items": roles})
}

// Get returns one role
// GET /api/v1/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid role id")
		return
	}
	role, err := h.roles.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}

type RoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// Create creates a role
// POST /api/v1/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role := &models.Role{Name: req.Name, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		role.IsActive = *req.IsActive
	}

	if err := h.roles.Create(role); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, role)
}

// Update modifies a role
// PUT /api/v1/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid role id")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	role, err := h.roles.Update(id, updates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}

// Delete removes a role no user holds
// DELETE /api/v1/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid role id")
		return
	}
	if err := h.roles.Delete(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "role deleted"})
}

// AssignPermission grants one permission to the role
// POST /api/v1/roles/:id/permissions/:perm_id
func (h *RoleHandler) AssignPermission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid role id")
		return
	}
	permID, err := strconv.ParseUint(c.Param("perm_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid permission id")
		return
	}

	role, err := h.roles.AssignPermission(id, uint(permID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}

// RemovePermission revokes one permission from the role
// DELETE /api/v1/roles/:id/permissions/:perm_id
func (h *RoleHandler) RemovePermission(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid role id")
		return
	}
	permID, err := strconv.ParseUint(c.Param("perm_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid permission id")
		return
	}

	role, err := h.roles.RemovePermission(id, uint(permID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}

type SetPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids"`
}

// SetPermissions replaces the role's whole permission set
// PUT /api/v1/roles/:id/permissions
func (h *RoleHandler) SetPermissions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid role id")
		return
	}

	var req SetPermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, err := h.roles.SetPermissions(id, req.PermissionIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, role)
}
