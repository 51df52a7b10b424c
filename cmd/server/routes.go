package main

import (
	"github.com/ColorlessCube/fastapi-admin/internal/middleware"
	"github.com/ColorlessCube/fastapi-admin/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Brute-force protection on the login route, flood protection on
	// the send routes.
	loginLimiter := middleware.NewThrottle(middleware.ThrottleConfig{PerSecond: 2, Burst: 5})
	sendLimiter := middleware.NewThrottle(middleware.ThrottleConfig{PerSecond: 5, Burst: 10})

	r.GET("/health", svc.healthHandler.CheckHealth)

	perm := func(code string) gin.HandlerFunc {
		return middleware.RequirePermission(svc.permService, code)
	}

	api := r.Group("/api/v1")
	{
		// Public auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", loginLimiter.Handler(), svc.authHandler.Login)
			auth.POST("/logout", svc.authHandler.Logout)
		}

		// Everything below requires a valid token for an active account.
		protected := api.Group("")
		protected.Use(
			middleware.AuthRequired(svc.userService),
			middleware.ActiveRequired(),
			middleware.AuditLog(),
		)
		{
			// Self-service routes need no dedicated permission.
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.GET("/auth/me/permissions", svc.authHandler.MyPermissions)
			protected.POST("/auth/me/password", svc.authHandler.ChangePassword)
			protected.PUT("/auth/me/preferences", svc.authHandler.UpdatePreferences)

			// Users
			protected.GET("/users", perm("user:read"), svc.userHandler.List)
			protected.GET("/users/:id", perm("user:read"), svc.userHandler.Get)
			protected.POST("/users", perm("user:create"), svc.userHandler.Create)
			protected.PUT("/users/:id", perm("user:update"), svc.userHandler.Update)
			protected.DELETE("/users/:id", perm("user:delete"), svc.userHandler.Delete)
			protected.PUT("/users/:id/roles", perm("user:update"), svc.userHandler.ReplaceRoles)

			// Roles
			protected.GET("/roles", perm("role:read"), svc.roleHandler.List)
			protected.GET("/roles/:id", perm("role:read"), svc.roleHandler.Get)
			protected.POST("/roles", perm("role:create"), svc.roleHandler.Create)
			protected.PUT("/roles/:id", perm("role:update"), svc.roleHandler.Update)
			protected.DELETE("/roles/:id", perm("role:delete"), svc.roleHandler.Delete)
			protected.PUT("/roles/:id/permissions", perm("role:assign_permission"), svc.roleHandler.SetPermissions)
			protected.POST("/roles/:id/permissions/:perm_id", perm("role:assign_permission"), svc.roleHandler.AssignPermission)
			protected.DELETE("/roles/:id/permissions/:perm_id", perm("role:assign_permission"), svc.roleHandler.RemovePermission)

			// Permissions
			protected.GET("/permissions", perm("permission:read"), svc.permissionHandler.List)
			protected.GET("/permissions/:id", perm("permission:read"), svc.permissionHandler.Get)
			protected.POST("/permissions", perm("permission:create"), svc.permissionHandler.Create)
			protected.PUT("/permissions/:id", perm("permission:update"), svc.permissionHandler.Update)
			protected.DELETE("/permissions/:id", perm("permission:delete"), svc.permissionHandler.Delete)

			// System configs
			protected.GET("/configs", perm("config:read"), svc.configHandler.List)
			protected.GET("/configs/key/:key", perm("config:read"), svc.configHandler.GetByKey)
			protected.POST("/configs", perm("config:create"), svc.configHandler.Create)
			protected.PUT("/configs/:id", perm("config:update"), svc.configHandler.Update)
			protected.DELETE("/configs/:id", perm("config:delete"), svc.configHandler.Delete)

			// Notifications
			protected.GET("/notifications/types", perm("notification:read"), svc.notificationHandler.Types)
			protected.GET("/notifications/types/:type", perm("notification:read"), svc.notificationHandler.TypeDetail)
			protected.GET("/notifications/scenarios", perm("notification:read"), svc.notificationHandler.Scenarios)
			protected.POST("/notifications/validate-config", perm("notification:read"), svc.notificationHandler.ValidateConfig)
			protected.GET("/notifications/statistics", perm("notification:read"), svc.notificationHandler.Statistics)
			protected.GET("/notifications/clients", perm("notification:read"), svc.notificationHandler.List)
			protected.GET("/notifications/clients/:id", perm("notification:read"), svc.notificationHandler.Get)
			protected.POST("/notifications/clients", perm("notification:create"), svc.notificationHandler.Create)
			protected.PUT("/notifications/clients/:id", perm("notification:update"), svc.notificationHandler.Update)
			protected.DELETE("/notifications/clients/:id", perm("notification:delete"), svc.notificationHandler.Delete)
			protected.POST("/notifications/clients/:id/toggle", perm("notification:update"), svc.notificationHandler.Toggle)
			protected.PUT("/notifications/clients/:id/switches", perm("notification:update"), svc.notificationHandler.UpdateSwitches)
			protected.POST("/notifications/clients/:id/test", perm("notification:test"), svc.notificationHandler.Test)
			protected.POST("/notifications/send", sendLimiter.Handler(), perm("notification:send"), svc.notificationHandler.Send)
			protected.POST("/notifications/send-now", sendLimiter.Handler(), perm("notification:send"), svc.notificationHandler.SendNow)

			// System logs
			protected.GET("/logs", perm("config:read"), svc.logHandler.List)
			protected.GET("/logs/modules", perm("config:read"), svc.logHandler.Modules)
		}
	}
}
