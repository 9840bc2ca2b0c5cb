package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/services"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	posts     *services.PostService
	presenter presenter
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(posts *services.PostService, refs RefResolver) *LikeHandler {
	return &LikeHandler{
		posts:     posts,
		presenter: presenter{refs: refs},
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
}

// LikePost toggles the caller's like, or drives it to ?state=like|unlike
// when given. It responds with the updated post.
func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	want, conditional, err := desiredState(c, "like", "unlike")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var post *models.Post
	if conditional {
		post, err = h.posts.SetLike(ctx, postID, userID, want)
	} else {
		post, err = h.posts.ToggleLike(ctx, postID, userID)
	}
	if err != nil {
		return err
	}

	view, err := h.presenter.post(ctx, post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
