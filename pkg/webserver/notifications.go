package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Framerrr/Framerr-app-sub000/pkg/engine"
	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
	"github.com/Framerrr/Framerr-app-sub000/pkg/utils"
)

// TestNotificationRequest represents the request to send a test
// notification
type TestNotificationRequest struct {
	RecipientID uint   `json:"recipient_id"`
	Title       string `json:"title" binding:"max=200"`
	Body        string `json:"body" binding:"max=2000"`
}

// getNotifications returns the current user's notification inbox
func (s *Server) getNotifications(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	unreadOnly := c.Query("unread") == "true"

	ctx := c.Request.Context()
	total, err := s.repo.CountNotifications(ctx, user.ID, unreadOnly)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count notifications")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list notifications"))
		return
	}

	pagination := utils.NewPagination(page, limit, total)
	notifications, err := s.repo.ListNotifications(ctx, user.ID, unreadOnly, pagination.Limit, pagination.GetOffset())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list notifications")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list notifications"))
		return
	}

	c.JSON(http.StatusOK, utils.NewPaginatedResponse(notifications, pagination, "Notifications retrieved successfully"))
}

// markNotificationRead marks one of the current user's notifications
// as read
func (s *Server) markNotificationRead(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid notification ID"))
		return
	}

	err = s.repo.MarkNotificationRead(c.Request.Context(), user.ID, uint(id))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Notification not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to mark notification read")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to update notification"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Notification marked as read"))
}

// adminTestNotification enqueues a synthetic notification so an
// administrator can verify the dispatch path end to end. The recipient
// defaults to the caller.
func (s *Server) adminTestNotification(c *gin.Context) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return
	}

	var req TestNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	recipientID := req.RecipientID
	if recipientID == 0 {
		recipientID = user.ID
	} else if _, err := s.repo.GetUserByID(c.Request.Context(), recipientID); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Recipient not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to look up recipient")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		return
	}

	title := req.Title
	if title == "" {
		title = "Test notification"
	}
	body := req.Body
	if body == "" {
		body = "If you can read this, delivery works."
	}

	s.dispatcher.Enqueue(engine.Notification{
		RecipientID: recipientID,
		EventType:   "system.test",
		Kind:        models.KindTest,
		Title:       title,
		Body:        body,
		Metadata:    models.JSON{"issued_by": user.Username},
	})

	c.JSON(http.StatusAccepted, utils.NewSuccessResponse(map[string]interface{}{
		"recipient_id": recipientID,
	}, "Test notification queued"))
}
