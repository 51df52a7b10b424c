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

type UserHandler struct {
	users      *services.UserService
	dispatcher *services.Dispatcher
}

func NewUserHandler(db *gorm.DB, dispatcher *services.Dispatcher) *UserHandler {
	return &UserHandler{
		users:      services.NewUserService(db),
		dispatcher: dispatcher,
	}
}

// List returns a page of users
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	users, total, err := h.users.List(offset, limit, c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"total": total, "items": users})
}

// Get returns one user
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.users.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

type CreateUserRequest struct {
	Username          string `json:"username" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=6"`
	FullName          string `json:"full_name"`
	IsActive          *bool  `json:"is_active"`
	PreferredLanguage string `json:"preferred_language"`
	Timezone          string `json:"timezone"`
}

// Create creates a user
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user := &models.User{
		Username:          req.Username,
		Email:             req.Email,
		FullName:          req.FullName,
		IsActive:          true,
		PreferredLanguage: req.PreferredLanguage,
		Timezone:          req.Timezone,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.users.Create(user, req.Password); err != nil {
		response.Error(c, err)
		return
	}

	if h.dispatcher != nil {
		h.dispatcher.DispatchScenario("user_created",
			"User Created",
			fmt.Sprintf("account %s was created by %s", user.Username, middleware.GetUsername(c)),
			map[string]interface{}{"user_id": user.ID})
	}
	response.Created(c, user)
}

type UpdateUserRequest struct {
	Email             *string `json:"email"`
	FullName          *string `json:"full_name"`
	Password          *string `json:"password"`
	IsActive          *bool   `json:"is_active"`
	PreferredLanguage *string `json:"preferred_language"`
	Timezone          *string `json:"timezone"`
}

// Update modifies a user
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Password != nil {
		updates["password"] = *req.Password
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.PreferredLanguage != nil {
		updates["preferred_language"] = *req.PreferredLanguage
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}

	user, err := h.users.Update(id, updates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// Delete removes a user; deleting yourself is refused.
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid user id")
		return
	}

	if err := h.users.Delete(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user deleted"})
}

type ReplaceRolesRequest struct {
	RoleIDs []uint `json:"role_ids"`
}

// ReplaceRoles swaps the user's role set for exactly the given ids
// PUT /api/v1/users/:id/roles
func (h *UserHandler) ReplaceRoles(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req ReplaceRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.ReplaceRoles(id, req.RoleIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.dispatcher != nil {
		h.dispatcher.DispatchScenario("role_changed",
			"Role Changed",
			fmt.Sprintf("roles of %s were changed by %s", user.Username, middleware.GetUsername(c)),
			map[string]interface{}{"user_id": user.ID, "role_ids": req.RoleIDs})
	}
	response.Success(c, user)
}
