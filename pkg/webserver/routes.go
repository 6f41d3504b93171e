package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Public routes (no authentication required)
		public := v1.Group("")
		{
			auth := public.Group("/auth")
			{
				auth.POST("/login", s.handleLogin)
				auth.GET("/sso", s.handleSSOLogin)
				auth.POST("/logout", s.handleLogout)
			}

			// Webhook intake (bearer-token authentication, rate limited)
			webhook := public.Group("/webhook")
			webhook.Use(s.webhookRateLimitMiddleware())
			{
				webhook.POST("/:integration", s.handleWebhook)
			}
		}

		// Protected routes (JWT authentication required)
		protected := v1.Group("")
		protected.Use(s.authMiddleware())
		{
			protected.GET("/me", s.getMe)

			// Integrations as visible to the current principal
			integrations := protected.Group("/integrations")
			{
				integrations.GET("", s.getVisibleIntegrations)
				integrations.GET("/:key/events", s.getEffectiveEvents)
			}

			// Notification settings and per-integration subscriptions
			settings := protected.Group("/settings")
			{
				settings.GET("/notifications", s.getNotificationSettings)
				settings.PUT("/notifications", s.updateNotificationSettings)
				settings.GET("/notifications/integrations", s.getSubscriptions)
				settings.GET("/notifications/integrations/:key", s.getSubscription)
				settings.PUT("/notifications/integrations/:key", s.updateSubscription)
			}

			// Identity links for the current user
			identity := protected.Group("/identity-links")
			{
				identity.GET("", s.getIdentityLinks)
				identity.POST("", s.createIdentityLink)
				identity.DELETE("/:service", s.deleteIdentityLink)
			}

			// Notification inbox
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", s.getNotifications)
				notifications.PUT("/:id/read", s.markNotificationRead)
			}

			// Administrator routes
			admin := protected.Group("/admin")
			admin.Use(s.adminMiddleware())
			{
				admin.GET("/integrations", s.adminListIntegrations)
				admin.POST("/integrations", s.adminCreateIntegration)
				admin.PUT("/integrations/:key", s.adminUpdateIntegration)
				admin.DELETE("/integrations/:key", s.adminDeleteIntegration)

				admin.GET("/integrations/:key/share", s.adminGetShareRule)
				admin.PUT("/integrations/:key/share", s.adminSetShareRule)

				admin.GET("/integrations/:key/allowlist", s.adminGetAllowlist)
				admin.PUT("/integrations/:key/allowlist/admin", s.adminSetAdminEvents)
				admin.PUT("/integrations/:key/allowlist/user", s.adminSetUserEvents)

				admin.GET("/integrations/:key/token", s.adminDescribeToken)
				admin.POST("/integrations/:key/token", s.adminIssueToken)
				admin.DELETE("/integrations/:key/token", s.adminRevokeToken)

				admin.GET("/users", s.adminListUsers)
				admin.GET("/groups", s.adminListGroups)
				admin.POST("/groups", s.adminCreateGroup)
				admin.POST("/groups/:id/members", s.adminAddGroupMember)
				admin.DELETE("/groups/:id/members/:user_id", s.adminRemoveGroupMember)
				admin.DELETE("/users/:id/identity-links/:service", s.adminDeleteIdentityLink)

				admin.POST("/test-notification", s.adminTestNotification)
			}
		}
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}
