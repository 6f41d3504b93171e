package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Framerrr/Framerr-app-sub000/pkg/catalog"
	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

// CreateIdentityLinkRequest represents the request to link an external
// account to the current user
type CreateIdentityLinkRequest struct {
	Service          string `json:"service" binding:"required"`
	ExternalUsername string `json:"external_username" binding:"required,min=1,max=100"`
	ExternalEmail    string `json:"external_email" binding:"max=255"`
}

// getIdentityLinks lists the current user's external account links
func (s *Server) getIdentityLinks(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	links, err := s.identities.Links(c.Request.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list identity links")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list identity links"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(links, "Identity links retrieved successfully"))
}

// createIdentityLink records a manual link for the current user. A
// manual link can never displace one recorded by the SSO provider.
func (s *Server) createIdentityLink(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	var req CreateIdentityLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	if !catalog.KnownIdentityService(req.Service) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Unknown identity service"))
		return
	}
	if req.ExternalEmail != "" && !s.validator.ValidateEmail(req.ExternalEmail) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid email address"))
		return
	}

	username := s.validator.SanitizeInput(req.ExternalUsername)
	err = s.identities.Link(c.Request.Context(), user.ID, req.Service, username, req.ExternalEmail, models.LinkMethodManual)
	if err != nil {
		if errors.Is(err, engine.ErrLinkManaged) {
			c.JSON(http.StatusConflict, utils.NewErrorResponse("This link is managed by the identity provider"))
			return
		}
		s.logger.WithError(err).Error("Failed to save identity link")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to save identity link"))
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"service": req.Service,
	}).Info("Identity link created")

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(nil, "Identity link created successfully"))
}

// deleteIdentityLink removes one of the current user's manual links
func (s *Server) deleteIdentityLink(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	err = s.identities.Unlink(c.Request.Context(), user.ID, c.Param("service"))
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrNotFound):
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Identity link not found"))
		case errors.Is(err, engine.ErrLinkManaged):
			c.JSON(http.StatusForbidden, utils.NewErrorResponse("This link is managed by the identity provider"))
		default:
			s.logger.WithError(err).Error("Failed to delete identity link")
			c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to delete identity link"))
		}
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Identity link deleted successfully"))
}

// adminDeleteIdentityLink removes any user's link, including
// provider-managed ones
func (s *Server) adminDeleteIdentityLink(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid user ID"))
		return
	}

	err = s.identities.AdminUnlink(c.Request.Context(), uint(userID), c.Param("service"))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Identity link not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to delete identity link")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to delete identity link"))
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"service": c.Param("service"),
	}).Warn("Identity link removed by administrator")

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Identity link deleted successfully"))
}
