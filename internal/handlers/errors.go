package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/circle/backend/internal/apperror"
)

// NewHTTPErrorHandler renders every handler error as {"error": message}.
// Classified errors get the status of their kind; anything unclassified is a
// 500 whose detail only reaches the log.
func NewHTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := apperror.PublicMessage(err)

		var he *echo.HTTPError
		var ae *apperror.Error
		switch {
		case errors.As(err, &ae):
			status = ae.Kind.HTTPStatus()
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		}

		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"uri":        c.Request().RequestURI,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"kind":       apperror.KindOf(err).String(),
			}).Error("request failed")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, map[string]string{"error": message})
		}
		if werr != nil {
			log.WithError(werr).Warn("failed to write error response")
		}
	}
}
