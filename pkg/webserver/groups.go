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

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=64"`
	Description string `json:"description" binding:"max=255"`
}

// AddGroupMemberRequest represents the request to add a group member
type AddGroupMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// adminListUsers returns all users for share-rule and group management
func (s *Server) adminListUsers(c *gin.Context) {
	users, err := s.repo.ListUsers(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list users"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(users, "Users retrieved successfully"))
}

// adminListGroups returns all groups with their members
func (s *Server) adminListGroups(c *gin.Context) {
	groups, err := s.repo.ListGroups(c.Request.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list groups")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to list groups"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(groups, "Groups retrieved successfully"))
}

// adminCreateGroup creates a group
func (s *Server) adminCreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	name := s.validator.SanitizeInput(req.Name)
	if _, err := s.repo.GetGroupByName(c.Request.Context(), name); err == nil {
		c.JSON(http.StatusConflict, utils.NewErrorResponse("Group already exists"))
		return
	}

	group := &models.Group{
		Name:        name,
		Description: s.validator.SanitizeInput(req.Description),
	}
	if err := s.repo.CreateGroup(c.Request.Context(), group); err != nil {
		s.logger.WithError(err).Error("Failed to create group")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to create group"))
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(group, "Group created successfully"))
}

// adminAddGroupMember adds a user to a group
func (s *Server) adminAddGroupMember(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid group ID"))
		return
	}

	var req AddGroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return
	}

	ctx := c.Request.Context()
	if _, err := s.repo.GetUserByID(ctx, req.UserID); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("User not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		return
	}

	if err := s.repo.AddGroupMember(ctx, uint(groupID), req.UserID); err != nil {
		s.logger.WithError(err).Error("Failed to add group member")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to add group member"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Member added successfully"))
}

// adminRemoveGroupMember removes a user from a group
func (s *Server) adminRemoveGroupMember(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid group ID"))
		return
	}
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid user ID"))
		return
	}

	if err := s.repo.RemoveGroupMember(c.Request.Context(), uint(groupID), uint(userID)); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.JSON(http.StatusNotFound, utils.NewErrorResponse("Membership not found"))
			return
		}
		s.logger.WithError(err).Error("Failed to remove group member")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to remove group member"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Member removed successfully"))
}
