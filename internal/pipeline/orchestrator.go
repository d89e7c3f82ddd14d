package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/scrape"
)

// VideoSource is the registry view used by a cycle.
type VideoSource interface {
	ListActive(ctx context.Context) ([]leads.TrackedVideo, error)
	TouchLastChecked(ctx context.Context, id uuid.UUID, at time.Time) error
}

type OrchestratorOptions struct {
	// Concurrency is the number of videos scraped at once. Values below 2 run sequentially.
	Concurrency int
	// Budget bounds the whole cycle. Videos not started when it runs out are
	// deferred to the next cycle. Zero disables it.
	Budget time.Duration
}

type Orchestrator struct {
	videos    VideoSource
	strategy  scrape.Strategy
	processor *Processor
	opts      OrchestratorOptions
	now       func() time.Time
}

func NewOrchestrator(videos VideoSource, strategy scrape.Strategy, processor *Processor, opts OrchestratorOptions) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Orchestrator{
		videos:    videos,
		strategy:  strategy,
		processor: processor,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type videoResult struct {
	report leads.VideoReport
	errs   []leads.ItemError
}

// RunCycle scrapes every active video once. Failures are isolated per
// video and reported. Only a registry failure or a configuration error
// aborts the cycle; the partial report is returned alongside the error.
func (o *Orchestrator) RunCycle(ctx context.Context) (*leads.CycleReport, error) {
	start := o.now()
	report := leads.NewCycleReport(o.strategy.Name(), start)
	log := slog.With("cycle_id", report.CycleID, "strategy", o.strategy.Name())

	videos, err := o.videos.ListActive(ctx)
	if err != nil {
		report.Finish(o.now())
		return report, fmt.Errorf("load tracked videos: %w", err)
	}
	log.Info("cycle started", "videos", len(videos))

	var deadline time.Time
	if o.opts.Budget > 0 {
		deadline = start.Add(o.opts.Budget)
	}

	results := make([]videoResult, len(videos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Concurrency)

	for i, v := range videos {
		g.Go(func() error {
			if gctx.Err() != nil || (!deadline.IsZero() && !o.now().Before(deadline)) {
				results[i] = videoResult{report: leads.VideoReport{
					VideoID:   v.ID,
					SourceURL: v.SourceURL,
					State:     "DEFERRED",
					Deferred:  true,
				}}
				return nil
			}

			res, err := o.scrapeVideo(gctx, v)
			results[i] = res
			return err
		})
	}
	fatal := g.Wait()

	for _, r := range results {
		report.Add(r.report, r.errs...)
	}
	report.Finish(o.now())

	if fatal != nil {
		log.Error("cycle aborted", "error", fatal, "summary", report.Summary())
		return report, fatal
	}
	log.Info("cycle finished", "summary", report.Summary())
	return report, nil
}

// scrapeVideo returns a non-nil error only when the whole cycle must stop.
func (o *Orchestrator) scrapeVideo(ctx context.Context, v leads.TrackedVideo) (videoResult, error) {
	log := slog.With("video_id", v.ID, "source_url", v.SourceURL)
	res := videoResult{report: leads.VideoReport{VideoID: v.ID, SourceURL: v.SourceURL}}

	out, err := o.strategy.Scrape(ctx, v)
	res.report.State = string(out.State)
	res.report.RunID = out.Run.ID

	// The attempt happened whatever its result.
	if terr := o.videos.TouchLastChecked(ctx, v.ID, o.now()); terr != nil {
		log.Warn("could not update last_checked_at", "error", terr)
		res.errs = append(res.errs, leads.NewItemError(v.ID, "", terr))
	}

	if err != nil {
		log.Warn("scrape failed", "state", out.State, "error", err)
		res.report.Error = err.Error()
		res.errs = append(res.errs, leads.NewItemError(v.ID, "", err))
		if errors.Is(err, leads.ErrConfiguration) {
			return res, err
		}
		return res, nil
	}

	res.report.Skipped = len(out.Skipped)
	res.errs = append(res.errs, out.Skipped...)
	if len(out.Comments) == 0 {
		return res, nil
	}

	batch, err := o.processor.Process(ctx, v, out.Comments)
	res.report.CommentsEvaluated = batch.Evaluated
	res.report.Matched = batch.Matched
	res.report.LeadsCreated = batch.Created
	res.report.Duplicates = batch.Duplicates
	res.errs = append(res.errs, batch.Errors...)
	if err != nil {
		log.Error("lead processing stopped", "error", err)
		res.report.Error = err.Error()
	}
	return res, err
}
