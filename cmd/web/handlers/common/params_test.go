package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/registry"
)

func newContext(target string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	return he.Code
}

func TestRequireUUIDParam(t *testing.T) {
	id := uuid.New()
	c := newContext("/")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	got, err := RequireUUIDParam(c, "id")
	require.NoError(t, err)
	require.Equal(t, id, got)

	c.SetParamValues("nope")
	_, err = RequireUUIDParam(c, "id")
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestOptionalUUIDQuery(t *testing.T) {
	got, err := OptionalUUIDQuery(newContext("/?video_id="), "video_id")
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, got)

	_, err = OptionalUUIDQuery(newContext("/?video_id=zzz"), "video_id")
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestIntQuery(t *testing.T) {
	n, err := IntQuery(newContext("/"), "limit", 100)
	require.NoError(t, err)
	require.Equal(t, 100, n)

	n, err = IntQuery(newContext("/?limit=25"), "limit", 100)
	require.NoError(t, err)
	require.Equal(t, 25, n)

	_, err = IntQuery(newContext("/?limit=-3"), "limit", 100)
	require.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestFromDomain(t *testing.T) {
	require.Equal(t, http.StatusNotFound, FromDomain(fmt.Errorf("get: %w", registry.ErrNotFound)).Code)
	require.Equal(t, http.StatusBadRequest, FromDomain(fmt.Errorf("url: %w", leads.ErrInvalidPayload)).Code)

	he := FromDomain(fmt.Errorf("apify said 503 secret-body: %w", leads.ErrProviderUnavailable))
	require.Equal(t, http.StatusBadGateway, he.Code)
	require.NotContains(t, fmt.Sprint(he.Message), "secret-body")

	require.Equal(t, http.StatusInternalServerError, FromDomain(errors.New("boom")).Code)
}
