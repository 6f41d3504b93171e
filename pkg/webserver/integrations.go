package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Framerrr/Framerr-app-sub000/pkg/catalog"
	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

// CreateIntegrationRequest represents the request to create an integration
type CreateIntegrationRequest struct {
	Key              string      `json:"key" binding:"required,min=1,max=64"`
	Type             string      `json:"type" binding:"required"`
	DisplayName      string      `json:"display_name" binding:"max=100"`
	Enabled          *bool       `json:"enabled"`
	ConnectionParams models.JSON `json:"connection_params"`
}

// UpdateIntegrationRequest represents the request to update an integration
type UpdateIntegrationRequest struct {
	DisplayName      string      `json:"display_name" binding:"max=100"`
	Enabled          *bool       `json:"enabled"`
	ConnectionParams models.JSON `json:"connection_params"`
}

// ShareRuleRequest represents the request to replace a share rule
type ShareRuleRequest struct {
	Mode   string `json:"mode" binding:"required"`
	Groups []uint `json:"groups"`
	Users  []uint `json:"users"`
}

// EventSetRequest represents the request to replace an event set
type EventSetRequest struct {
	Events []string `json:"events"`
}

// respondEngineError maps engine errors to HTTP responses
func (s *Server) respondEngineError(c *gin.Context, err error) {
	var invalidEvent *engine.InvalidEventError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.NewErrorResponse("Integration not found"))
	case errors.As(err, &invalidEvent):
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(invalidEvent.Error()))
	default:
		s.logger.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
	}
}

// getVisibleIntegrations returns the integrations the current
// principal may see, per their share rules.
func (s *Server) getVisibleIntegrations(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}
	principal := principalFor(user)

	integrations, err := s.repo.ListIntegrations(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list integrations")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list integrations"))
		return
	}

	visible := make([]models.Integration, 0, len(integrations))
	for i := range integrations {
		if principal.Admin || engine.RuleAllows(&integrations[i], principal) {
			visible = append(visible, integrations[i])
		}
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(visible, "Integrations retrieved successfully"))
}

// getEffectiveEvents returns the events the current principal may
// receive from one integration. Feeds the event-selection control.
func (s *Server) getEffectiveEvents(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	events, err := s.allowlist.EffectiveEventsFor(c.Request.Context(), c.Param("key"), principalFor(user))
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"events": events,
	}, "Effective events retrieved successfully"))
}

// adminListIntegrations returns every integration with config detail
func (s *Server) adminListIntegrations(c *gin.Context) {
	integrations, err := s.repo.ListIntegrations(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list integrations")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list integrations"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(integrations, "Integrations retrieved successfully"))
}

// adminCreateIntegration creates an integration
func (s *Server) adminCreateIntegration(c *gin.Context) {
	var req CreateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	req.Key = s.validator.SanitizeInput(req.Key)
	if !s.validator.ValidateIntegrationKey(req.Key) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid integration key"))
		return
	}

	if _, err := catalog.Lookup(req.Type); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Unknown integration type"))
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	integration := &models.Integration{
		Key:              req.Key,
		Type:             req.Type,
		DisplayName:      s.validator.SanitizeInput(req.DisplayName),
		Enabled:          enabled,
		ConnectionParams: req.ConnectionParams,
		ShareMode:        models.ShareNone,
		ShareGroups:      models.UintList{},
		ShareUsers:       models.UintList{},
		AdminEvents:      models.StringList{},
		UserEvents:       models.StringList{},
	}

	if err := s.repo.CreateIntegration(c.Request.Context(), integration); err != nil {
		s.logger.WithError(err).Error("Failed to create integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to create integration"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(integration, "Integration created successfully"))
}

// adminUpdateIntegration updates display fields and connection params
func (s *Server) adminUpdateIntegration(c *gin.Context) {
	var req UpdateIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	ctx := c.Request.Context()
	integration, err := s.repo.GetIntegrationByKey(ctx, c.Param("key"))
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	if req.DisplayName != "" {
		integration.DisplayName = s.validator.SanitizeInput(req.DisplayName)
	}
	if req.Enabled != nil {
		integration.Enabled = *req.Enabled
	}
	if req.ConnectionParams != nil {
		integration.ConnectionParams = req.ConnectionParams
	}

	if err := s.repo.UpdateIntegration(ctx, integration); err != nil {
		s.logger.WithError(err).Error("Failed to update integration")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to update integration"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(integration, "Integration updated successfully"))
}

// adminDeleteIntegration removes an integration and its dependents
func (s *Server) adminDeleteIntegration(c *gin.Context) {
	if err := s.repo.DeleteIntegration(c.Request.Context(), c.Param("key")); err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.logger.WithField("integration", c.Param("key")).Info("Integration deleted")
	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Integration deleted successfully"))
}

// adminGetShareRule returns the stored share rule
func (s *Server) adminGetShareRule(c *gin.Context) {
	rule, err := s.shares.Rule(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(rule, "Share rule retrieved successfully"))
}

// adminSetShareRule replaces the share rule
func (s *Server) adminSetShareRule(c *gin.Context) {
	var req ShareRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	rule := engine.ShareRule{
		Mode:   models.ShareMode(req.Mode),
		Groups: req.Groups,
		Users:  req.Users,
	}

	if err := s.shares.SetRule(c.Request.Context(), c.Param("key"), rule); err != nil {
		var invalidMode *engine.InvalidShareModeError
		if errors.As(err, &invalidMode) {
			c.JSON(http.StatusBadRequest, utils.NewErrorResponse(invalidMode.Error()))
			return
		}
		s.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(rule, "Share rule updated successfully"))
}

// adminGetAllowlist returns both event sets plus the type catalog
func (s *Server) adminGetAllowlist(c *gin.Context) {
	integration, err := s.repo.GetIntegrationByKey(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	def, err := catalog.Lookup(integration.Type)
	if err != nil {
		s.logger.WithError(err).Error("Integration references unknown type")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"admin_events": integration.AdminEvents,
		"user_events":  integration.UserEvents,
		"catalog":      def.Events,
	}, "Allowlist retrieved successfully"))
}

// adminSetAdminEvents replaces the admin-visible event set
func (s *Server) adminSetAdminEvents(c *gin.Context) {
	var req EventSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	if err := s.allowlist.SetAdminEvents(c.Request.Context(), c.Param("key"), req.Events); err != nil {
		s.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(req.Events, "Admin events updated successfully"))
}

// adminSetUserEvents replaces the user-visible event set
func (s *Server) adminSetUserEvents(c *gin.Context) {
	var req EventSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	if err := s.allowlist.SetUserEvents(c.Request.Context(), c.Param("key"), req.Events); err != nil {
		s.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(req.Events, "User events updated successfully"))
}

// adminIssueToken generates and returns a fresh webhook token. This is
// the only response that ever contains the full token.
func (s *Server) adminIssueToken(c *gin.Context) {
	token, err := s.tokens.Issue(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.logger.WithField("integration", c.Param("key")).Info("Webhook token issued")

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(map[string]interface{}{
		"token": token,
	}, "Token issued; store it now, it will not be shown again"))
}

// adminDescribeToken returns the masked credential state
func (s *Server) adminDescribeToken(c *gin.Context) {
	cred, err := s.tokens.Describe(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("No token configured"))
			return
		}
		s.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"token_prefix": cred.TokenPrefix,
		"enabled":      cred.Enabled,
		"created_at":   cred.CreatedAt,
	}, "Token retrieved successfully"))
}

// adminRevokeToken disables the credential without replacement
func (s *Server) adminRevokeToken(c *gin.Context) {
	if err := s.tokens.Revoke(c.Request.Context(), c.Param("key")); err != nil {
		s.respondEngineError(c, err)
		return
	}

	s.logger.WithField("integration", c.Param("key")).Info("Webhook token revoked")
	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Token revoked successfully"))
}
