package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/services"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts     *services.PostService
	presenter presenter
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService, refs RefResolver) *PostHandler {
	return &PostHandler{
		posts:     posts,
		presenter: presenter{refs: refs},
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetPosts) // all posts, or one author's with ?author=
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Create(c.Request().Context(), userID, req.Content)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusCreated, post)
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	post, err := h.posts.Get(c.Request().Context(), postID)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, post)
}

// GetPosts lists posts newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		posts []models.Post
		err   error
	)
	if author := c.QueryParam("author"); author != "" {
		authorID, perr := primitive.ObjectIDFromHex(author)
		if perr != nil {
			return apperror.ErrInvalidID.WithCause(perr)
		}
		posts, err = h.posts.ListByAuthor(ctx, authorID)
	} else {
		posts, err = h.posts.ListAll(ctx)
	}
	if err != nil {
		return err
	}
	return h.renderList(c, posts)
}

// GetUserPosts lists one user's posts newest first
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	authorID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	posts, err := h.posts.ListByAuthor(c.Request().Context(), authorID)
	if err != nil {
		return err
	}
	return h.renderList(c, posts)
}

// UpdatePost replaces the content of the caller's own post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Update(c.Request().Context(), postID, userID, req.Content)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, post)
}

// DeletePost deletes the caller's own post
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.posts.Delete(c.Request().Context(), postID, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PostHandler) render(c echo.Context, status int, post *models.Post) error {
	view, err := h.presenter.post(c.Request().Context(), post)
	if err != nil {
		return err
	}
	return c.JSON(status, view)
}

func (h *PostHandler) renderList(c echo.Context, posts []models.Post) error {
	views, err := h.presenter.posts(c.Request().Context(), posts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}
