package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/pkg/apify"
)

// SecretHeader carries the shared webhook secret on provider callbacks.
const SecretHeader = "X-Leadwatch-Secret"

// Provider is the scrape backend. Every call is one network round trip.
type Provider interface {
	TriggerRun(ctx context.Context, videoURL string, opts RunOptions, callback *Callback) (leads.ScrapeRun, error)
	GetRunStatus(ctx context.Context, runID string) (leads.ScrapeRun, error)
	FetchResultBatch(ctx context.Context, datasetID string, limit int) ([]Record, error)
}

type RunOptions struct {
	// ResultsPerVideo caps the comments the actor collects.
	ResultsPerVideo int
}

// Callback asks the provider to notify us when the run finishes.
type Callback struct {
	URL      string
	Secret   string
	VideoID  uuid.UUID
	VideoURL string
}

// CallbackPayload is the body the provider posts back. The resource and
// event fields are filled in by the provider, the video fields come from
// the template we registered with the run.
type CallbackPayload struct {
	EventType string `json:"eventType"`
	Resource  struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"resource"`
	VideoID  string `json:"videoId"`
	VideoURL string `json:"videoUrl"`
}

// Run reports the callback as a ScrapeRun.
func (p CallbackPayload) Run() leads.ScrapeRun {
	return leads.ScrapeRun{
		ID:        p.Resource.ID,
		Status:    runStatus(p.Resource.Status),
		DatasetID: p.Resource.DefaultDatasetID,
	}
}

var callbackEvents = []string{
	"ACTOR.RUN.SUCCEEDED",
	"ACTOR.RUN.FAILED",
	"ACTOR.RUN.TIMED_OUT",
	"ACTOR.RUN.ABORTED",
}

// ApifyProvider adapts pkg/apify to Provider.
type ApifyProvider struct {
	client  *apify.Client
	actorID string
}

func NewApifyProvider(client *apify.Client, actorID string) *ApifyProvider {
	return &ApifyProvider{client: client, actorID: actorID}
}

type actorInput struct {
	VideoURLs           []string `json:"videoUrls"`
	MaxCommentsPerVideo int      `json:"maxCommentsPerVideo,omitempty"`
}

func (p *ApifyProvider) TriggerRun(ctx context.Context, videoURL string, opts RunOptions, cb *Callback) (leads.ScrapeRun, error) {
	input := actorInput{VideoURLs: []string{videoURL}, MaxCommentsPerVideo: opts.ResultsPerVideo}

	var hooks []apify.Webhook
	if cb != nil {
		hook, err := webhookFor(cb)
		if err != nil {
			return leads.ScrapeRun{}, err
		}
		hooks = append(hooks, hook)
	}

	run, err := p.client.StartRun(ctx, p.actorID, input, hooks)
	if err != nil {
		return leads.ScrapeRun{}, providerErr("trigger run", err)
	}
	return toScrapeRun(run), nil
}

func (p *ApifyProvider) GetRunStatus(ctx context.Context, runID string) (leads.ScrapeRun, error) {
	run, err := p.client.GetRun(ctx, runID)
	if err != nil {
		return leads.ScrapeRun{}, providerErr("get run", err)
	}
	return toScrapeRun(run), nil
}

func (p *ApifyProvider) FetchResultBatch(ctx context.Context, datasetID string, limit int) ([]Record, error) {
	items, err := p.client.DatasetItems(ctx, datasetID, limit)
	if err != nil {
		return nil, providerErr("fetch dataset", err)
	}

	out := make([]Record, 0, len(items))
	for _, raw := range items {
		// Non-object items become empty records and are rejected by Resolve.
		r, _ := DecodeRecord(raw)
		out = append(out, r)
	}
	return out, nil
}

func webhookFor(cb *Callback) (apify.Webhook, error) {
	videoID, err := json.Marshal(cb.VideoID.String())
	if err != nil {
		return apify.Webhook{}, err
	}
	videoURL, err := json.Marshal(cb.VideoURL)
	if err != nil {
		return apify.Webhook{}, err
	}

	hook := apify.Webhook{
		EventTypes: callbackEvents,
		RequestURL: cb.URL,
		PayloadTemplate: fmt.Sprintf(`{"eventType": {{eventType}}, "eventData": {{eventData}}, "resource": {{resource}}, "videoId": %s, "videoUrl": %s}`,
			videoID, videoURL),
	}
	if cb.Secret != "" {
		headers, err := json.Marshal(map[string]string{SecretHeader: cb.Secret})
		if err != nil {
			return apify.Webhook{}, err
		}
		hook.HeadersTemplate = string(headers)
	}
	return hook, nil
}

func toScrapeRun(r *apify.Run) leads.ScrapeRun {
	return leads.ScrapeRun{ID: r.ID, Status: runStatus(r.Status), DatasetID: r.DefaultDatasetID}
}

func runStatus(s string) leads.RunStatus {
	switch s {
	case apify.StatusSucceeded:
		return leads.RunSucceeded
	case apify.StatusFailed, apify.StatusTimedOut, apify.StatusAborted:
		return leads.RunFailed
	case apify.StatusRunning, apify.StatusTimingOut, apify.StatusAborting:
		return leads.RunRunning
	default:
		return leads.RunPending
	}
}

// providerErr folds client failures into the error taxonomy. Context errors
// stay in the chain so callers can tell a spent budget from an outage.
func providerErr(op string, err error) error {
	var se *apify.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Temporary():
			return fmt.Errorf("%s: %w: %w", op, leads.ErrProviderUnavailable, err)
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", op, leads.ErrConfiguration, err)
		default:
			return fmt.Errorf("%s: %w: %w", op, leads.ErrInvalidPayload, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, leads.ErrProviderUnavailable, err)
}

var _ Provider = (*ApifyProvider)(nil)
