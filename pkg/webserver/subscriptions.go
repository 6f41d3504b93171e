package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

// UpdateSettingsRequest represents the request to update global
// notification settings
type UpdateSettingsRequest struct {
	Enabled          *bool `json:"enabled"`
	Sound            *bool `json:"sound"`
	ReceiveUnmatched *bool `json:"receive_unmatched"`
}

// UpdateSubscriptionRequest represents the request to update a
// per-integration subscription
type UpdateSubscriptionRequest struct {
	Enabled bool     `json:"enabled"`
	Events  []string `json:"events"`
}

// getNotificationSettings returns the current user's global settings
func (s *Server) getNotificationSettings(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	settings, err := s.subs.Settings(c.Request.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load notification settings")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to load settings"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(settings, "Settings retrieved successfully"))
}

// updateNotificationSettings updates the current user's global settings
func (s *Server) updateNotificationSettings(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	ctx := c.Request.Context()
	settings, err := s.subs.Settings(ctx, user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load notification settings")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to load settings"))
		return
	}

	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.Sound != nil {
		settings.Sound = *req.Sound
	}
	if req.ReceiveUnmatched != nil {
		// Unmatched fallback is an admin capability
		if !user.IsAdmin && *req.ReceiveUnmatched {
			c.JSON(http.StatusForbidden, utils.NewErrorResponse("Only administrators can receive unmatched notifications"))
			return
		}
		settings.ReceiveUnmatched = *req.ReceiveUnmatched
	}

	if err := s.subs.UpdateSettings(ctx, settings); err != nil {
		s.logger.WithError(err).Error("Failed to save notification settings")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to save settings"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(settings, "Settings updated successfully"))
}

// subscriptionView is the subscription state joined with what the
// user may currently select for that integration.
type subscriptionView struct {
	IntegrationKey  string            `json:"integration_key"`
	DisplayName     string            `json:"display_name"`
	Type            string            `json:"type"`
	Enabled         bool              `json:"enabled"`
	Events          models.StringList `json:"events"`
	AvailableEvents []string          `json:"available_events"`
}

// getSubscriptions lists subscription state for every integration the
// user can see
func (s *Server) getSubscriptions(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}
	principal := principalFor(user)

	ctx := c.Request.Context()
	integrations, err := s.repo.ListIntegrations(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list integrations")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list subscriptions"))
		return
	}

	views := make([]subscriptionView, 0, len(integrations))
	for i := range integrations {
		integration := &integrations[i]
		if !principal.Admin && !engine.RuleAllows(integration, principal) {
			continue
		}

		sub, err := s.subs.Subscription(ctx, user.ID, integration)
		if err != nil {
			s.logger.WithError(err).Error("Failed to load subscription")
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list subscriptions"))
			return
		}

		available, err := s.allowlist.EffectiveEventsFor(ctx, integration.Key, principal)
		if err != nil {
			s.logger.WithError(err).Error("Failed to load effective events")
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list subscriptions"))
			return
		}

		views = append(views, subscriptionView{
			IntegrationKey:  integration.Key,
			DisplayName:     integration.DisplayName,
			Type:            integration.Type,
			Enabled:         sub.Enabled,
			Events:          sub.Events,
			AvailableEvents: available,
		})
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(views, "Subscriptions retrieved successfully"))
}

// getSubscription returns the subscription state for one integration
func (s *Server) getSubscription(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	ctx := c.Request.Context()
	integration, err := s.repo.GetIntegrationByKey(ctx, c.Param("key"))
	if err != nil {
		s.respondEngineError(c, err)
		return
	}

	sub, err := s.subs.Subscription(ctx, user.ID, integration)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load subscription")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to load subscription"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(sub, "Subscription retrieved successfully"))
}

// updateSubscription replaces the subscription state for one
// integration. Selected events must be within the user's effective
// event set.
func (s *Server) updateSubscription(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	var req UpdateSubscriptionRequest
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

	if err := s.subs.SetSubscription(ctx, c.Param("key"), integration, user.ID, req.Enabled, req.Events); err != nil {
		s.respondEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(map[string]interface{}{
		"enabled": req.Enabled,
		"events":  req.Events,
	}, "Subscription updated successfully"))
}
