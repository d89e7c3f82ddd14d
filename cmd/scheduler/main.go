package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thirdcoast.systems/leadwatch/internal/application"
	"thirdcoast.systems/leadwatch/internal/config"
	"thirdcoast.systems/leadwatch/internal/leads"
)

// The scheduler re-runs the cycle every CYCLE_INTERVAL. A video that failed or
// ran out of budget is simply picked up again on the next tick.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting scheduler service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	app, err := application.New(ctx, *conf)
	if err != nil {
		slog.Error("failed to assemble pipeline", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	once := len(os.Args) > 1 && os.Args[1] == "once"
	if once {
		if err := runCycle(ctx, app); err != nil {
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(conf.CycleInterval)
	defer ticker.Stop()

	slog.Info("Scheduling cycles", "interval", conf.CycleInterval, "strategy", conf.ScrapeStrategy)
	for {
		if err := runCycle(ctx, app); err != nil && errors.Is(err, leads.ErrConfiguration) {
			slog.Error("stopping scheduler on configuration error", "error", err)
			os.Exit(1)
		}

		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func runCycle(ctx context.Context, app *application.App) error {
	report, err := app.Orchestrator.RunCycle(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		slog.Error("scrape cycle failed", "error", err)
		return err
	}
	slog.Info("scrape cycle finished",
		"cycle_id", report.CycleID,
		"summary", report.Summary(),
		"errors", len(report.Errors),
	)
	return nil
}
