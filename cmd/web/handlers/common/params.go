package common

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequireUUIDParam extracts a UUID route parameter or returns a 400 error.
func RequireUUIDParam(c echo.Context, param string) (uuid.UUID, error) {
	u, err := uuid.Parse(c.Param(param))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
	}
	return u, nil
}

// OptionalUUIDQuery parses a UUID query parameter. Missing means uuid.Nil.
func OptionalUUIDQuery(c echo.Context, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return uuid.Nil, nil
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return u, nil
}

// IntQuery parses a non-negative integer query parameter, falling back to def
// when it is absent.
func IntQuery(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return n, nil
}

// BindAndValidate binds the request body into req and runs the echo validator.
func BindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return ErrBadRequest("invalid json")
	}
	if err := c.Validate(req); err != nil {
		return ErrBadRequest(err.Error())
	}
	return nil
}
