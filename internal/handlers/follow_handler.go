package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/services"
)

// FollowHandler handles HTTP requests related to follow relationships
type FollowHandler struct {
	graph     *services.GraphService
	presenter presenter
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.GraphService, refs RefResolver) *FollowHandler {
	return &FollowHandler{
		graph:     graph,
		presenter: presenter{refs: refs},
	}
}

// FollowResponse is the body returned by FollowUser
type FollowResponse struct {
	Message string `json:"message"`
	models.FollowResult
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.GET("/users/me/follow", h.GetFollowSummary)
}

// FollowUser toggles the follow edge to the target user, or drives it to
// ?state=follow|unfollow when given.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	targetID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	want, conditional, err := desiredState(c, "follow", "unfollow")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var result *models.FollowResult
	if conditional {
		result, err = h.graph.SetFollow(ctx, userID, targetID, want)
	} else {
		result, err = h.graph.ToggleFollow(ctx, userID, targetID)
	}
	if err != nil {
		return err
	}

	message := "User unfollowed successfully"
	if result.IsFollowing {
		message = "User followed successfully"
	}
	return c.JSON(http.StatusOK, FollowResponse{Message: message, FollowResult: *result})
}

// GetFollowSummary lists the authenticated user's followers and followees
func (h *FollowHandler) GetFollowSummary(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	followers, following, err := h.graph.Summary(ctx, userID)
	if err != nil {
		return err
	}
	summary, err := h.presenter.followSummary(ctx, followers, following)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
