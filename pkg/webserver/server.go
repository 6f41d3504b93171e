package webserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Framerrr/Framerr-app-sub000/pkg/config"
	"github.com/Framerrr/Framerr-app-sub000/pkg/db"
	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/log"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	db         *db.DB
	repo       *db.Repository
	logger     *log.Logger
	router     *gin.Engine
	httpServer *http.Server
	jwtManager *utils.JWTManager
	validator  *utils.Validator
	dispatcher engine.Dispatcher

	// Engine components
	shares      *engine.ShareRegistry
	allowlist   *engine.EventAllowlist
	subs        *engine.Subscriptions
	identities  *engine.IdentityResolver
	tokens      *engine.TokenManager
	eventRouter *engine.Router
}

// New creates a new HTTP server instance wired to the notification
// engine. dispatcher is the transport notifications are enqueued to.
func New(cfg *config.Config, database *db.DB, logger *log.Logger, dispatcher engine.Dispatcher) (*Server, error) {
	repo := db.NewRepository(database)

	shares := engine.NewShareRegistry(repo)
	allowlist := engine.NewEventAllowlist(repo, shares)
	subs := engine.NewSubscriptions(repo, allowlist, repo)
	identities := engine.NewIdentityResolver(repo)
	tokens := engine.NewTokenManager(repo)
	eventRouter := engine.NewRouter(repo, tokens, shares, subs, identities, dispatcher, logger)

	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()

	// Create server
	server := &Server{
		config:      cfg,
		db:          database,
		repo:        repo,
		logger:      logger,
		router:      router,
		jwtManager:  utils.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpirationHours),
		validator:   utils.NewValidator(),
		dispatcher:  dispatcher,
		shares:      shares,
		allowlist:   allowlist,
		subs:        subs,
		identities:  identities,
		tokens:      tokens,
		eventRouter: eventRouter,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	// Create HTTP server
	server.httpServer = &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.WithField("panic", recovered).Error("Panic recovered")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		c.Abort()
	}))

	// Logging middleware
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Session middleware for browser logins
	store := cookie.NewStore([]byte(s.config.Security.JWTSecret))
	store.Options(sessions.Options{
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   s.config.Security.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	s.router.Use(sessions.Sessions(s.config.Security.SessionCookieName, store))

	// Security headers middleware
	s.router.Use(s.securityHeadersMiddleware())
}

// loggingMiddleware tags every request with an opaque id and logs it
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	gen := utils.NewTokenGenerator()

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		requestID := gen.GenerateRequestID()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		latency := time.Since(start)

		s.logger.LogRequest(
			requestID,
			c.Request.Method,
			path,
			c.Request.UserAgent(),
			c.ClientIP(),
			c.Writer.Status(),
			latency.Milliseconds(),
		)
	}
}

// webhookRateLimitMiddleware limits the unauthenticated intake path
func (s *Server) webhookRateLimitMiddleware() gin.HandlerFunc {
	limiter := rate.NewLimiter(
		rate.Limit(s.config.Security.RateLimitPerMinute)/60, // per second
		s.config.Security.RateLimitBurstSize,
	)

	return func(c *gin.Context) {
		if !s.config.Security.RateLimitEnabled {
			c.Next()
			return
		}
		if !limiter.Allow() {
			s.logger.LogSecurity("rate_limit_exceeded", 0, c.ClientIP(), map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			c.JSON(http.StatusTooManyRequests, utils.NewErrorResponse("Rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// securityHeadersMiddleware adds security headers
func (s *Server) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// authMiddleware validates JWT tokens
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Authorization header required"))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		tokenString := ""
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		} else {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := s.jwtManager.ValidateToken(tokenString)
		if err != nil {
			s.logger.LogSecurity("invalid_token", 0, c.ClientIP(), map[string]interface{}{
				"error": err.Error(),
			})
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid token"))
			c.Abort()
			return
		}

		user, err := s.repo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			s.logger.LogSecurity("user_not_found", claims.UserID, c.ClientIP(), map[string]interface{}{
				"error": err.Error(),
			})
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("User not found"))
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// adminMiddleware requires the authenticated user to be an
// administrator. Must run after authMiddleware.
func (s *Server) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.getCurrentUser(c)
		if err != nil || !user.IsAdmin {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse("Administrator access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// getCurrentUser gets the current user from context
func (s *Server) getCurrentUser(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// principalFor builds an engine principal for an authenticated user
func principalFor(user *models.User) engine.Principal {
	groups := make([]uint, 0, len(user.Memberships))
	for _, m := range user.Memberships {
		groups = append(groups, m.GroupID)
	}
	return engine.Principal{
		UserID: user.ID,
		Groups: groups,
		Admin:  user.IsAdmin,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info(fmt.Sprintf("Starting server on %s", s.config.Server.GetServerAddr()))

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}

// Health check endpoint
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse("Database unavailable"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}, "Service is healthy"))
}
