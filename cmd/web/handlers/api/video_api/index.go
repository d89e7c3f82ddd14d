package video_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/leadwatch/cmd/web/handlers/common"
	"thirdcoast.systems/leadwatch/internal/registry"
)

const timeLayout = time.RFC3339

// HandleIndex lists tracked videos, active or not, oldest first.
func HandleIndex(store registry.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, err := common.IntQuery(c, "limit", 0)
		if err != nil {
			return err
		}

		videos, err := store.List(c.Request().Context(), limit)
		if err != nil {
			slog.Error("failed to list videos", "error", err)
			return common.ErrInternal("failed to list videos")
		}

		out := make([]videoResponse, 0, len(videos))
		for _, v := range videos {
			out = append(out, toVideoResponse(v))
		}
		return c.JSON(http.StatusOK, map[string]any{"videos": out})
	}
}

// HandleDeactivate stops scanning a video. Its leads are kept.
func HandleDeactivate(store registry.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		if err := store.Deactivate(c.Request().Context(), id); err != nil {
			return common.FromDomain(err)
		}
		return c.JSON(http.StatusOK, map[string]any{"id": id.String(), "active": false})
	}
}
