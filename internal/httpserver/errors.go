package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/validation"
)

// fail maps service errors to HTTP errors. Only 5xx carry the cause to the
// log at Error; the client gets a fixed message.
func fail(l *slog.Logger, event string, err error, notFound string) error {
	var status int
	var msg string

	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, "invalid body"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, service.ErrWrongPassword):
		status, msg = http.StatusUnauthorized, "incorrect current password"
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, "user already exists"
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, notFound
	default:
		l.Error(event, "status", 500, "reason", "internal server error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}

	l.Warn(event, "status", status, "reason", msg)
	return echo.NewHTTPError(status, msg)
}

// payload fetches the body stored by validation.Body. A route wired without
// that middleware is a server bug, so its absence is a 500.
func payload[T any](c echo.Context, l *slog.Logger, event string) (T, error) {
	req, ok := validation.Validated[T](c)
	if !ok {
		l.Error(event, "status", 500, "reason", "validated payload missing")
		return req, echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return req, nil
}
