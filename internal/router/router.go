package router

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/circle/backend/internal/handlers"
	"github.com/anonto42/circle/backend/internal/middleware"
	"github.com/anonto42/circle/backend/internal/services"
)

// Dependencies are the services and collaborators the routes are built from.
type Dependencies struct {
	Identity *services.IdentityService
	Graph    *services.GraphService
	Posts    *services.PostService
	Notes    *services.NoteService
	Tokens   middleware.TokenVerifier
	Health   *handlers.HealthHandler
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(logrus.WithField("component", "http"))

	if deps.Health != nil {
		e.GET("/health", deps.Health.HealthCheck)
	}

	api := e.Group("/api")

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(deps.Identity)
	authHandler.RegisterAuthRoutes(api.Group("/auth"))

	// --- Protected routes (require JWT authentication) ---
	protected := api.Group("", middleware.JWTAuthMiddleware(deps.Tokens))
	authHandler.RegisterSessionRoutes(protected.Group("/auth"))

	handlers.NewUserHandler(deps.Identity).RegisterUserRoutes(protected)
	handlers.NewFollowHandler(deps.Graph, deps.Identity).RegisterFollowRoutes(protected)
	handlers.NewPostHandler(deps.Posts, deps.Identity).RegisterPostRoutes(protected)
	handlers.NewLikeHandler(deps.Posts, deps.Identity).RegisterLikeRoutes(protected)
	handlers.NewCommentHandler(deps.Posts, deps.Identity).RegisterCommentRoutes(protected)
	handlers.NewNoteHandler(deps.Notes).RegisterNoteRoutes(protected)

	logrus.WithField("routes", len(e.Routes())).Debug("routes configured")
}
