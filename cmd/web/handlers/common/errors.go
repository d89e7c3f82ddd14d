package common

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/registry"
)

// ErrBadRequest returns a 400 Bad Request error.
func ErrBadRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}

// ErrNotFound returns a 404 Not Found error.
func ErrNotFound(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, msg)
}

// ErrUnauthorized returns a 401 Unauthorized error.
func ErrUnauthorized() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

// ErrInternal returns a 500 Internal Server Error.
func ErrInternal(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}

// ErrBadGateway returns a 502 Bad Gateway error. Used when an upstream
// provider failed and the caller should retry.
func ErrBadGateway(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadGateway, msg)
}

// FromDomain maps a pipeline error onto an HTTP error. The message never
// carries upstream response bodies.
func FromDomain(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return ErrNotFound("not found")
	case errors.Is(err, leads.ErrInvalidPayload):
		return ErrBadRequest(err.Error())
	case errors.Is(err, leads.ErrProviderUnavailable):
		return ErrBadGateway("upstream unavailable")
	default:
		return ErrInternal("internal error")
	}
}
