package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	posts     *services.PostService
	presenter presenter
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(posts *services.PostService, refs RefResolver) *CommentHandler {
	return &CommentHandler{
		posts:     posts,
		presenter: presenter{refs: refs},
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comment", h.CreateComment)
	g.DELETE("/posts/:id/comments/:commentId", h.DeleteComment)
}

// CreateComment appends a comment to a post and responds with the post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.posts.AddComment(ctx, postID, userID, req.Content)
	if err != nil {
		return err
	}

	view, err := h.presenter.post(ctx, post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// DeleteComment deletes one of the caller's own comments
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}
	commentID, err := objectIDParam(c, "commentId")
	if err != nil {
		return err
	}

	if err := h.posts.DeleteComment(c.Request().Context(), postID, commentID, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
