// Package registry stores the videos whose comments are watched.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/leadwatch/internal/keywords"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/videoid"
)

var ErrNotFound = errors.New("tracked video not found")

// Store is implemented by the Postgres and in-memory registries.
type Store interface {
	ListActive(ctx context.Context) ([]leads.TrackedVideo, error)
	List(ctx context.Context, limit int) ([]leads.TrackedVideo, error)
	Get(ctx context.Context, id uuid.UUID) (leads.TrackedVideo, error)
	GetBySourceURL(ctx context.Context, sourceURL string) (leads.TrackedVideo, error)
	Upsert(ctx context.Context, reg Registration) (leads.TrackedVideo, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	TouchLastChecked(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Finder is the read side needed to resolve a webhook delivery.
type Finder interface {
	Get(ctx context.Context, id uuid.UUID) (leads.TrackedVideo, error)
	GetBySourceURL(ctx context.Context, sourceURL string) (leads.TrackedVideo, error)
}

// Registration is a normalized video ready to be stored.
type Registration struct {
	ID        uuid.UUID
	SourceURL string
	Domain    string
	Keywords  []string
}

// NewRegistration expands shortlinks, normalizes the URL and derives the
// deterministic id. Keywords are trimmed and deduplicated case-insensitively.
func NewRegistration(ctx context.Context, rawURL string, kws []string) (Registration, error) {
	expanded, err := videoid.ExpandURL(ctx, rawURL)
	if err != nil {
		return Registration{}, fmt.Errorf("%w: %w", leads.ErrInvalidPayload, err)
	}
	normalized, domain, err := videoid.NormalizeSourceURL(expanded)
	if err != nil {
		return Registration{}, fmt.Errorf("%w: %w", leads.ErrInvalidPayload, err)
	}

	cleaned := keywords.Clean(kws)
	if len(cleaned) == 0 {
		return Registration{}, fmt.Errorf("%w: at least one keyword is required", leads.ErrInvalidPayload)
	}

	return Registration{
		ID:        videoid.TrackedVideoID(normalized, domain),
		SourceURL: normalized,
		Domain:    domain,
		Keywords:  cleaned,
	}, nil
}

// Register is NewRegistration followed by Upsert.
func Register(ctx context.Context, s Store, rawURL string, kws []string) (leads.TrackedVideo, error) {
	reg, err := NewRegistration(ctx, rawURL, kws)
	if err != nil {
		return leads.TrackedVideo{}, err
	}
	return s.Upsert(ctx, reg)
}

// Lookup finds a tracked video by id, falling back to its source URL. Used by
// the webhook receiver, which trusts neither field on its own.
func Lookup(ctx context.Context, s Finder, id uuid.UUID, sourceURL string) (leads.TrackedVideo, error) {
	if id != uuid.Nil {
		v, err := s.Get(ctx, id)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return v, err
		}
	}

	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return leads.TrackedVideo{}, ErrNotFound
	}
	normalized, _, err := videoid.NormalizeSourceURL(sourceURL)
	if err != nil {
		return leads.TrackedVideo{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return s.GetBySourceURL(ctx, normalized)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
