// package scrape_api exposes the cycle trigger.
package scrape_api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/leadwatch/internal/leads"
)

type CycleRunner interface {
	RunCycle(ctx context.Context) (*leads.CycleReport, error)
}

// HandleRunCycle runs one orchestration cycle and returns its report. Per-video
// failures live inside the report; only cycle-level failures change the status.
func HandleRunCycle(runner CycleRunner) echo.HandlerFunc {
	return func(c echo.Context) error {
		report, err := runner.RunCycle(c.Request().Context())
		if err != nil {
			slog.Error("scrape cycle failed", "error", err)
			resp := map[string]any{"error": "cycle failed"}
			if report != nil {
				resp["report"] = report
			}
			return c.JSON(http.StatusInternalServerError, resp)
		}

		slog.Info("scrape cycle finished", "summary", report.Summary())
		return c.JSON(http.StatusOK, report)
	}
}
