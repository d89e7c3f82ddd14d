package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/registry"
	"thirdcoast.systems/leadwatch/internal/scrape"
)

// ErrIgnored means the delivery was valid but there is nothing to do.
var ErrIgnored = errors.New("completion ignored")

// Completion is a provider notification that a run has finished.
type Completion struct {
	RunID     string
	Status    leads.RunStatus
	DatasetID string
	VideoID   uuid.UUID
	VideoURL  string
}

// CompletionFromPayload converts the callback body. A malformed videoId is
// dropped so the lookup can fall back to the URL.
func CompletionFromPayload(p scrape.CallbackPayload) Completion {
	run := p.Run()
	id, _ := uuid.Parse(p.VideoID)
	return Completion{
		RunID:     run.ID,
		Status:    run.Status,
		DatasetID: run.DatasetID,
		VideoID:   id,
		VideoURL:  p.VideoURL,
	}
}

type Receiver struct {
	videos    registry.Finder
	provider  scrape.Provider
	processor *Processor
	schema    string
	limit     int
	now       func() time.Time
}

func NewReceiver(videos registry.Finder, provider scrape.Provider, processor *Processor, schema string, limit int) *Receiver {
	return &Receiver{
		videos:    videos,
		provider:  provider,
		processor: processor,
		schema:    schema,
		limit:     limit,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleCompletion processes the dataset of a finished run. Keywords always
// come from the registry, never from the payload. Redelivery is safe: the
// ledger turns repeated comments into duplicates.
func (r *Receiver) HandleCompletion(ctx context.Context, c Completion) (*leads.CycleReport, error) {
	log := slog.With("run_id", c.RunID, "dataset_id", c.DatasetID)

	// Failed runs often carry no dataset; they are acknowledged, not rejected.
	if c.Status != leads.RunSucceeded {
		log.Info("ignoring unsuccessful run", "status", c.Status)
		return nil, fmt.Errorf("%w: run finished as %s", ErrIgnored, c.Status)
	}
	if c.DatasetID == "" {
		return nil, fmt.Errorf("%w: completion without dataset id", leads.ErrInvalidPayload)
	}

	video, err := registry.Lookup(ctx, r.videos, c.VideoID, c.VideoURL)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			log.Warn("completion for untracked video", "video_id", c.VideoID, "video_url", c.VideoURL)
			return nil, fmt.Errorf("%w: %w", ErrIgnored, err)
		}
		return nil, fmt.Errorf("resolve video: %w", err)
	}
	if !video.Active {
		log.Info("completion for inactive video", "video_id", video.ID)
		return nil, fmt.Errorf("%w: video %s is inactive", ErrIgnored, video.ID)
	}

	report := leads.NewCycleReport(scrape.StrategyWebhook, r.now())
	vr := leads.VideoReport{VideoID: video.ID, SourceURL: video.SourceURL, RunID: c.RunID, State: string(scrape.StateDelivered)}

	records, err := r.provider.FetchResultBatch(ctx, c.DatasetID, r.limit)
	if err != nil {
		vr.State = string(scrape.StateFailed)
		vr.Error = err.Error()
		report.Add(vr, leads.NewItemError(video.ID, "", err))
		report.Finish(r.now())
		return report, err
	}

	comments, skipped := scrape.Collect(records, video.ID, r.schema)
	batch, err := r.processor.Process(ctx, video, comments)

	vr.Skipped = len(skipped)
	vr.CommentsEvaluated = batch.Evaluated
	vr.Matched = batch.Matched
	vr.LeadsCreated = batch.Created
	vr.Duplicates = batch.Duplicates
	if err != nil {
		vr.Error = err.Error()
	}
	report.Add(vr, append(skipped, batch.Errors...)...)
	report.Finish(r.now())

	if err != nil {
		log.Error("completion aborted", "video_id", video.ID, "error", err)
		return report, err
	}

	log.Info("completion processed", "video_id", video.ID, "summary", report.Summary())
	return report, nil
}
