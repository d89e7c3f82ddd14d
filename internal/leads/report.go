package leads

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// VideoReport summarises what happened to one video during a cycle or a
// webhook delivery.
type VideoReport struct {
	VideoID           uuid.UUID `json:"video_id"`
	SourceURL         string    `json:"source_url"`
	State             string    `json:"state"`
	RunID             string    `json:"run_id,omitempty"`
	CommentsEvaluated int       `json:"comments_evaluated"`
	Matched           int       `json:"matched"`
	LeadsCreated      int       `json:"leads_created"`
	Duplicates        int       `json:"duplicates"`
	Skipped           int       `json:"skipped"`
	Deferred          bool      `json:"deferred,omitempty"`
	Error             string    `json:"error,omitempty"`
}

// CycleReport is the aggregate result of one orchestration pass.
// Add is safe for concurrent use.
type CycleReport struct {
	mu sync.Mutex

	CycleID           uuid.UUID     `json:"cycle_id"`
	Strategy          string        `json:"strategy"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        time.Time     `json:"finished_at"`
	VideosScanned     int           `json:"videos_scanned"`
	VideosDeferred    int           `json:"videos_deferred"`
	RunsTriggered     int           `json:"runs_triggered"`
	CommentsEvaluated int           `json:"comments_evaluated"`
	LeadsCreated      int           `json:"leads_created"`
	Duplicates        int           `json:"duplicates"`
	Videos            []VideoReport `json:"videos"`
	Errors            []ItemError   `json:"errors"`
}

func NewCycleReport(strategy string, now time.Time) *CycleReport {
	return &CycleReport{
		CycleID:   uuid.New(),
		Strategy:  strategy,
		StartedAt: now,
		Videos:    []VideoReport{},
		Errors:    []ItemError{},
	}
}

// Add folds a video result and its item errors into the report.
func (r *CycleReport) Add(v VideoReport, errs ...ItemError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.Deferred {
		r.VideosDeferred++
	} else {
		r.VideosScanned++
	}
	if v.State == "TRIGGERED" {
		r.RunsTriggered++
	}
	r.CommentsEvaluated += v.CommentsEvaluated
	r.LeadsCreated += v.LeadsCreated
	r.Duplicates += v.Duplicates
	r.Videos = append(r.Videos, v)
	r.Errors = append(r.Errors, errs...)
}

func (r *CycleReport) Finish(now time.Time) {
	r.mu.Lock()
	r.FinishedAt = now
	r.mu.Unlock()
}

// Summary is a one-line human readable description used in logs.
func (r *CycleReport) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("%s videos, %s comments, %s new leads, %s errors in %s",
		humanize.Comma(int64(r.VideosScanned)),
		humanize.Comma(int64(r.CommentsEvaluated)),
		humanize.Comma(int64(r.LeadsCreated)),
		humanize.Comma(int64(len(r.Errors))),
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
	)
}
