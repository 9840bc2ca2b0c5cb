package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/services"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	identity  *services.IdentityService
	presenter presenter
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(identity *services.IdentityService) *UserHandler {
	return &UserHandler{
		identity:  identity,
		presenter: presenter{refs: identity},
	}
}

// RegisterUserRoutes registers user listing and profile routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users", h.ListUsers)
	g.GET("/users/search/:query", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.PUT("/users/profile", h.UpdateProfile)
}

// ListUsers returns every user except the requester
func (h *UserHandler) ListUsers(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	users, err := h.identity.ListUsers(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser returns another user's profile with relations resolved
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.identity.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	profile, err := h.presenter.profile(ctx, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// SearchUsers finds users by a case-insensitive username substring
func (h *UserHandler) SearchUsers(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	users, err := h.identity.Search(c.Request().Context(), c.Param("query"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.identity.UpdateProfile(ctx, userID, models.ProfileUpdate{
		Username: req.Username,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return err
	}
	profile, err := h.presenter.profile(ctx, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
