// package lead_api lists captured leads for operators.
package lead_api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/leadwatch/cmd/web/handlers/common"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/ledger"
)

// HandleIndex returns the newest leads, optionally for one video.
func HandleIndex(store ledger.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		videoID, err := common.OptionalUUIDQuery(c, "video_id")
		if err != nil {
			return err
		}
		limit, err := common.IntQuery(c, "limit", ledger.DefaultListLimit)
		if err != nil {
			return err
		}

		rows, err := store.List(c.Request().Context(), videoID, limit)
		if err != nil {
			slog.Error("failed to list leads", "error", err)
			return common.ErrInternal("failed to list leads")
		}
		if rows == nil {
			rows = []leads.Lead{}
		}
		return c.JSON(http.StatusOK, map[string]any{"leads": rows})
	}
}
