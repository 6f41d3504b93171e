package webserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Framerrr/Framerr-app-sub000/pkg/catalog"
	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

// webhookToken pulls the presented token from the Authorization header
// or, for senders that cannot set headers, the token query parameter.
func webhookToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// eventType pulls the event identifier from the payload
func eventType(payload models.JSON) string {
	for _, field := range []string{"event", "event_type"} {
		if v, ok := payload[field].(string); ok {
			return v
		}
	}
	return ""
}

// handleWebhook is the inbound event endpoint. Authentication failures
// are answered with a bare 401 carrying no reason; the reason is
// logged server side only.
func (s *Server) handleWebhook(c *gin.Context) {
	key := c.Param("integration")
	sourceIP := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	token := webhookToken(c)
	if token == "" || !s.validator.ValidateWebhookToken(token) {
		s.logger.LogWebhook(key, sourceIP, userAgent, false, "missing or malformed token")
		c.Status(http.StatusUnauthorized)
		return
	}

	var payload models.JSON
	if err := c.ShouldBindJSON(&payload); err != nil {
		// Body problems are only reported to authenticated senders
		if !s.tokens.Validate(c.Request.Context(), key, token) {
			s.logger.LogWebhook(key, sourceIP, userAgent, false, "invalid token")
			c.Status(http.StatusUnauthorized)
			return
		}
		s.logger.LogWebhook(key, sourceIP, userAgent, false, "malformed payload")
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid payload"))
		return
	}

	event := eventType(payload)
	if !s.validator.ValidateEventID(event) {
		if !s.tokens.Validate(c.Request.Context(), key, token) {
			s.logger.LogWebhook(key, sourceIP, userAgent, false, "invalid token")
			c.Status(http.StatusUnauthorized)
			return
		}
		s.logger.LogWebhook(key, sourceIP, userAgent, false, "missing or malformed event identifier")
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Missing or malformed event identifier"))
		return
	}

	ev := engine.InboundEvent{
		Integration: key,
		EventType:   event,
		Actor:       s.actorFrom(c.Request.Context(), key, payload),
		Payload:     payload,
	}

	result, err := s.eventRouter.Route(c.Request.Context(), token, ev)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrUnauthorized):
			s.logger.LogWebhook(key, sourceIP, userAgent, false, "invalid token")
			c.Status(http.StatusUnauthorized)
		case errors.Is(err, engine.ErrNotFound):
			// Keys that exist but lost their integration row mid-flight
			s.logger.LogWebhook(key, sourceIP, userAgent, false, "integration missing")
			c.Status(http.StatusUnauthorized)
		default:
			s.logger.WithError(err).Error("Webhook routing failed")
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		}
		return
	}

	s.logger.LogWebhook(key, sourceIP, userAgent, true, "")
	c.JSON(http.StatusOK, utils.NewSuccessResponse(result, "Event accepted"))
}

// actorFrom extracts the external actor's username from the payload
// using the identity field declared for the integration's type. An
// explicit actor field in the payload wins.
func (s *Server) actorFrom(ctx context.Context, key string, payload models.JSON) string {
	if v, ok := payload["actor"].(string); ok && v != "" {
		return v
	}

	integration, err := s.repo.GetIntegrationByKey(ctx, key)
	if err != nil {
		return ""
	}
	def, err := catalog.Lookup(integration.Type)
	if err != nil || def.IdentityField == "" {
		return ""
	}
	if v, ok := payload[def.IdentityField].(string); ok {
		return v
	}
	return ""
}
