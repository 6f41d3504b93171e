package webserver

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Framerrr/Framerr-app-sub000/pkg/catalog"
	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

// LoginRequest represents a local username/password login
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=200"`
}

// handleLogin authenticates a local account and issues a JWT
func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	user, err := s.repo.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil || user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.LogAuth(0, req.Username, "local", "login", false)
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid credentials"))
		return
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		s.logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		s.logger.WithError(err).Error("Failed to save session")
	}

	s.logger.LogAuth(user.ID, user.Username, "local", "login", true)

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"token": token,
		"user":  user,
	}, "Login successful"))
}

// handleSSOLogin authenticates via trusted reverse-proxy headers,
// provisioning the account and its identity link on first sight. The
// SSO-provided username is recorded as an sso-method identity link for
// the provider's service, overwriting any manual link.
func (s *Server) handleSSOLogin(c *gin.Context) {
	if !s.config.SSO.Enabled {
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("SSO is not enabled"))
		return
	}

	username := s.validator.SanitizeInput(c.GetHeader(s.config.SSO.UsernameHeader))
	if username == "" || !s.validator.ValidateUsername(username) {
		s.logger.LogSecurity("sso_missing_identity", 0, c.ClientIP(), nil)
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Missing SSO identity"))
		return
	}

	email := s.validator.SanitizeInput(c.GetHeader(s.config.SSO.EmailHeader))
	name := s.validator.SanitizeInput(c.GetHeader(s.config.SSO.NameHeader))

	ctx := c.Request.Context()
	provider := s.config.SSO.Provider

	user, err := s.repo.GetUserBySSOSubject(ctx, provider, username)
	if err == engine.ErrNotFound {
		user = &models.User{
			Username:    username,
			Email:       email,
			DisplayName: name,
			SSOProvider: provider,
			SSOSubject:  username,
		}
		if err := s.repo.CreateUser(ctx, user); err != nil {
			s.logger.WithError(err).Error("Failed to provision SSO user")
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
			return
		}
	} else if err != nil {
		s.logger.WithError(err).Error("Failed to look up SSO user")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		return
	}

	// Sync group memberships supplied by the proxy, creating groups on
	// first sight.
	if groupsHeader := c.GetHeader(s.config.SSO.GroupsHeader); groupsHeader != "" {
		s.syncSSOGroups(c, user, groupsHeader)
	}

	// Record the SSO identity link; sso is authoritative over manual.
	// Only identity services the event catalog resolves against are
	// linkable, so SSO_PROVIDER must name one (e.g. plex) for logins
	// to feed resolution.
	if catalog.KnownIdentityService(provider) {
		if err := s.identities.Link(ctx, user.ID, provider, username, email, models.LinkMethodSSO); err != nil {
			s.logger.WithError(err).Error("Failed to record SSO identity link")
		}
	} else {
		s.logger.WithField("provider", provider).Debug("SSO provider is not a known identity service, skipping link")
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		s.logger.WithError(err).Error("Failed to generate token")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	if err := session.Save(); err != nil {
		s.logger.WithError(err).Error("Failed to save session")
	}

	s.logger.LogAuth(user.ID, user.Username, "sso", "login", true)

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"token": token,
		"user":  user,
	}, "Login successful"))
}

func (s *Server) syncSSOGroups(c *gin.Context, user *models.User, groupsHeader string) {
	ctx := c.Request.Context()
	for _, name := range strings.Split(groupsHeader, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		group, err := s.repo.GetGroupByName(ctx, name)
		if err == engine.ErrNotFound {
			group = &models.Group{Name: name}
			if err := s.repo.CreateGroup(ctx, group); err != nil {
				s.logger.WithError(err).Error("Failed to create SSO group")
				continue
			}
		} else if err != nil {
			s.logger.WithError(err).Error("Failed to look up SSO group")
			continue
		}

		if err := s.repo.AddGroupMember(ctx, group.ID, user.ID); err != nil {
			s.logger.WithError(err).Error("Failed to add SSO group member")
		}
	}
}

// handleLogout clears the browser session
func (s *Server) handleLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		s.logger.WithError(err).Error("Failed to clear session")
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Logged out"))
}

// getMe returns the authenticated user
func (s *Server) getMe(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(user, "User retrieved successfully"))
}
