package handlers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/anonto42/circle/backend/internal/middleware"
)

// getUserIDFromContext returns the id stored by the auth middleware.
func getUserIDFromContext(c echo.Context) (primitive.ObjectID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return primitive.NilObjectID, apperror.ErrUnauthenticated
	}
	return id, nil
}

func objectIDParam(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperror.ErrInvalidID.WithCause(err)
	}
	return id, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.ErrInvalidID.WithCause(err)
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the
// registered validator over it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperror.ErrInvalidPayload.WithCause(err)
	}
	return c.Validate(req)
}

// desiredState parses an optional ?state= query. ok is false when the
// parameter is absent and the caller should toggle instead.
func desiredState(c echo.Context, on, off string) (want, ok bool, err error) {
	switch c.QueryParam("state") {
	case "":
		return false, false, nil
	case on:
		return true, true, nil
	case off:
		return false, true, nil
	default:
		return false, false, apperror.New(apperror.ValidationFailed, "state must be "+on+" or "+off)
	}
}
