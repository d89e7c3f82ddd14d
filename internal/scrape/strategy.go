package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"thirdcoast.systems/leadwatch/internal/config"
	"thirdcoast.systems/leadwatch/internal/leads"
)

type State string

const (
	StateStarted   State = "STARTED"
	StatePolling   State = "POLLING"
	StateSucceeded State = "SUCCEEDED"
	StateTimedOut  State = "TIMED_OUT"
	StateFailed    State = "FAILED"
	StateTriggered State = "TRIGGERED"
	StateDelivered State = "DELIVERED"
)

// Outcome is what a strategy learned about one video. Comments is only
// filled when the batch was collected within the same call.
type Outcome struct {
	State    State
	Run      leads.ScrapeRun
	Comments []leads.Comment
	Skipped  []leads.ItemError
}

// Strategy decides how a scrape is obtained for one video.
type Strategy interface {
	Name() string
	Scrape(ctx context.Context, video leads.TrackedVideo) (Outcome, error)
}

const (
	StrategyPoll    = "poll"
	StrategyWebhook = "webhook"

	// MaxPollBudget keeps a poll inside a short-lived invocation.
	MaxPollBudget = 10 * time.Second
)

// New builds the strategy selected by cfg.ScrapeStrategy.
func New(cfg config.Config, p Provider) (Strategy, error) {
	if p == nil {
		return nil, leads.Configurationf("scrape provider is required")
	}
	if !ValidSchema(cfg.ScrapeRecordSchema) && cfg.ScrapeRecordSchema != "" {
		return nil, leads.Configurationf("unknown record schema %q", cfg.ScrapeRecordSchema)
	}
	opts := RunOptions{ResultsPerVideo: cfg.ScrapeResultsPerVideo}

	switch cfg.ScrapeStrategy {
	case "", StrategyPoll:
		return NewPollStrategy(p, opts, cfg.ScrapePollInterval, cfg.ScrapePollBudget, cfg.ScrapeRecordSchema)
	case StrategyWebhook:
		return NewWebhookStrategy(p, opts, cfg.WebhookPublicURL, cfg.WebhookSecret)
	default:
		return nil, leads.Configurationf("unknown scrape strategy %q", cfg.ScrapeStrategy)
	}
}

// PollStrategy triggers a run and polls it until it finishes or the budget
// is spent. A spent budget is not an error: the video is retried on the
// next cycle.
type PollStrategy struct {
	provider Provider
	opts     RunOptions
	interval time.Duration
	budget   time.Duration
	schema   string
}

func NewPollStrategy(p Provider, opts RunOptions, interval, budget time.Duration, schema string) (*PollStrategy, error) {
	if budget <= 0 || budget >= MaxPollBudget {
		return nil, leads.Configurationf("poll budget %s must be within (0, %s)", budget, MaxPollBudget)
	}
	if interval <= 0 || interval >= budget {
		return nil, leads.Configurationf("poll interval %s must be positive and shorter than the budget %s", interval, budget)
	}
	if schema == "" {
		schema = SchemaAuto
	}
	return &PollStrategy{provider: p, opts: opts, interval: interval, budget: budget, schema: schema}, nil
}

func (s *PollStrategy) Name() string { return StrategyPoll }

func (s *PollStrategy) Scrape(ctx context.Context, video leads.TrackedVideo) (Outcome, error) {
	budgetCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	// timedOut is true only when our own budget, not the caller, ended the call.
	timedOut := func() bool {
		return budgetCtx.Err() != nil && ctx.Err() == nil
	}

	run, err := s.provider.TriggerRun(budgetCtx, video.SourceURL, s.opts, nil)
	if err != nil {
		if timedOut() {
			return Outcome{State: StateTimedOut}, nil
		}
		return Outcome{State: StateFailed}, err
	}
	out := Outcome{State: StatePolling, Run: run}
	slog.Debug("scrape run started", "video_id", video.ID, "run_id", run.ID)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for !run.Status.Terminal() {
		select {
		case <-budgetCtx.Done():
			if timedOut() {
				slog.Info("scrape poll budget spent", "video_id", video.ID, "run_id", run.ID, "budget", s.budget)
				out.State = StateTimedOut
				return out, nil
			}
			out.State = StateFailed
			return out, ctx.Err()
		case <-ticker.C:
		}

		next, err := s.provider.GetRunStatus(budgetCtx, run.ID)
		if err != nil {
			if timedOut() {
				out.State = StateTimedOut
				return out, nil
			}
			out.State = StateFailed
			return out, err
		}
		run.Status = next.Status
		if next.DatasetID != "" {
			run.DatasetID = next.DatasetID
		}
		out.Run = run
	}

	if run.Status != leads.RunSucceeded {
		out.State = StateFailed
		return out, fmt.Errorf("%w: run %s finished as %s", leads.ErrProviderUnavailable, run.ID, run.Status)
	}

	records, err := s.provider.FetchResultBatch(budgetCtx, run.DatasetID, s.opts.ResultsPerVideo)
	if err != nil {
		if timedOut() {
			out.State = StateTimedOut
			return out, nil
		}
		out.State = StateFailed
		return out, err
	}

	out.Comments, out.Skipped = Collect(records, video.ID, s.schema)
	out.State = StateSucceeded
	return out, nil
}

// WebhookStrategy only triggers the run. Results arrive later through the
// webhook receiver.
type WebhookStrategy struct {
	provider Provider
	opts     RunOptions
	url      string
	secret   string
}

func NewWebhookStrategy(p Provider, opts RunOptions, callbackURL, secret string) (*WebhookStrategy, error) {
	if callbackURL == "" {
		return nil, leads.Configurationf("webhook strategy needs a public callback url")
	}
	return &WebhookStrategy{provider: p, opts: opts, url: callbackURL, secret: secret}, nil
}

func (s *WebhookStrategy) Name() string { return StrategyWebhook }

func (s *WebhookStrategy) Scrape(ctx context.Context, video leads.TrackedVideo) (Outcome, error) {
	run, err := s.provider.TriggerRun(ctx, video.SourceURL, s.opts, &Callback{
		URL:      s.url,
		Secret:   s.secret,
		VideoID:  video.ID,
		VideoURL: video.SourceURL,
	})
	if err != nil {
		return Outcome{State: StateFailed}, err
	}
	return Outcome{State: StateTriggered, Run: run}, nil
}

var (
	_ Strategy = (*PollStrategy)(nil)
	_ Strategy = (*WebhookStrategy)(nil)
)
