package handlers

import (
	"fmt"

	"github.com/ColorlessCube/fastapi-admin/internal/config"
	"github.com/ColorlessCube/fastapi-admin/internal/middleware"
	"github.com/ColorlessCube/fastapi-admin/internal/services"
	"github.com/ColorlessCube/fastapi-admin/internal/utils"
	"github.com/ColorlessCube/fastapi-admin/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	users       *services.UserService
	perms       *services.PermissionService
	cache       *services.ConfigCache
	dispatcher  *services.Dispatcher
	expireHours int
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, cache *services.ConfigCache, dispatcher *services.Dispatcher) *AuthHandler {
	return &AuthHandler{
		users:       services.NewUserService(db),
		perms:       services.NewPermissionService(db),
		cache:       cache,
		dispatcher:  dispatcher,
		expireHours: cfg.JWT.ExpireHour,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// The identifier matches either username or email. A wrong password
	// and an unknown account produce the same answer.
	user, err := h.users.Authenticate(req.Username, req.Password)
	if err != nil {
		response.ServerError(c, "login failed")
		return
	}
	if user == nil {
		services.LogWarning("auth", "login", "failed login for "+req.Username,
			nil, utils.ClientIP(c.Request), c.Request.UserAgent(), nil)
		response.Unauthenticated(c, "incorrect username or password")
		return
	}
	if !user.IsActive {
		response.Error(c, response.NewInactive("account is inactive"))
		return
	}

	ip := utils.ClientIP(c.Request)
	if err := h.users.UpdateLoginInfo(user.ID, ip); err != nil {
		response.ServerError(c, "login failed")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, h.expireHours)
	if err != nil {
		response.ServerError(c, "login failed")
		return
	}

	services.LogInfo("auth", "login", user.Username+" logged in",
		&user.ID, ip, c.Request.UserAgent(), nil)

	if h.dispatcher != nil {
		h.dispatcher.DispatchScenario("user_login",
			"User Login",
			fmt.Sprintf("%s logged in from %s", user.Username, ip),
			map[string]interface{}{"user_id": user.ID, "ip": ip})
	}

	response.Success(c, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// Logout handles user logout (client-side token removal)
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "logged out successfully"})
}

// Me returns the current logged-in user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthenticated(c, "not authenticated")
		return
	}
	response.Success(c, user)
}

// MyPermissions returns the resolved permission codes of the caller
// GET /api/v1/auth/me/permissions
func (h *AuthHandler) MyPermissions(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthenticated(c, "not authenticated")
		return
	}

	codes, err := h.perms.Resolve(user)
	if err != nil {
		response.ServerError(c, "failed to resolve permissions")
		return
	}

	list := make([]string, 0, len(codes))
	for code := range codes {
		list = append(list, code)
	}
	response.Success(c, gin.H{"permissions": list})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword updates the caller's own password
// POST /api/v1/auth/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthenticated(c, "not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	minLen := 6
	if h.cache != nil {
		minLen = h.cache.PasswordMinLength()
	}
	if len(req.NewPassword) < minLen {
		response.BadRequest(c, fmt.Sprintf("password must be at least %d characters", minLen))
		return
	}

	if err := h.users.ChangePassword(user.ID, req.OldPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "password changed"})
}

type PreferencesRequest struct {
	PreferredLanguage string `json:"preferred_language"`
	Timezone          string `json:"timezone"`
}

// UpdatePreferences updates the caller's language and timezone
// PUT /api/v1/auth/me/preferences
func (h *AuthHandler) UpdatePreferences(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthenticated(c, "not authenticated")
		return
	}

	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updated, err := h.users.UpdatePreferences(user.ID, req.PreferredLanguage, req.Timezone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}
