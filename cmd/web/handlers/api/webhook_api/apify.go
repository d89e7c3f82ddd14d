// package webhook_api receives run completion callbacks from the scrape provider.
package webhook_api

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/leadwatch/cmd/web/handlers/common"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/pipeline"
	"thirdcoast.systems/leadwatch/internal/scrape"
)

type CompletionHandler interface {
	HandleCompletion(ctx context.Context, c pipeline.Completion) (*leads.CycleReport, error)
}

// HandleApify acknowledges a run callback. The body never echoes business
// data. A provider failure answers 502 so the callback is redelivered.
func HandleApify(h CompletionHandler, secret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		if secret != "" {
			got := c.Request().Header.Get(scrape.SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return common.ErrUnauthorized()
			}
		}

		var payload scrape.CallbackPayload
		if err := c.Bind(&payload); err != nil {
			return common.ErrBadRequest("invalid json")
		}

		completion := pipeline.CompletionFromPayload(payload)
		log := slog.With("run_id", completion.RunID, "event", payload.EventType)

		report, err := h.HandleCompletion(c.Request().Context(), completion)
		switch {
		case err == nil:
			log.Info("webhook delivery processed", "summary", report.Summary())
			return c.JSON(http.StatusOK, map[string]any{"status": "accepted"})
		case errors.Is(err, pipeline.ErrIgnored):
			log.Info("webhook delivery ignored", "reason", err)
			return c.JSON(http.StatusOK, map[string]any{"status": "ignored"})
		case errors.Is(err, leads.ErrInvalidPayload):
			log.Warn("webhook delivery rejected", "error", err)
			return common.ErrBadRequest("invalid payload")
		default:
			log.Error("webhook delivery failed", "error", err)
			return common.FromDomain(err)
		}
	}
}
