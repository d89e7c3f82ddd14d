package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"thirdcoast.systems/leadwatch/internal/db"
	"thirdcoast.systems/leadwatch/internal/leads"
)

type PostgresStore struct {
	q db.Querier
}

func NewPostgresStore(q db.Querier) *PostgresStore {
	return &PostgresStore{q: q}
}

func toVideo(r *db.TrackedVideo) leads.TrackedVideo {
	kws := r.Keywords
	if kws == nil {
		kws = []string{}
	}
	return leads.TrackedVideo{
		ID:            db.UUID(r.ID),
		SourceURL:     r.SourceURL,
		Keywords:      kws,
		Active:        r.IsActive,
		LastCheckedAt: db.NilTimePtr(r.LastCheckedAt),
		CreatedAt:     r.CreatedAt.Time,
	}
}

func toVideos(rows []*db.TrackedVideo) []leads.TrackedVideo {
	out := make([]leads.TrackedVideo, 0, len(rows))
	for _, r := range rows {
		out = append(out, toVideo(r))
	}
	return out
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]leads.TrackedVideo, error) {
	rows, err := s.q.ListActiveTrackedVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active videos: %w", err)
	}
	return toVideos(rows), nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]leads.TrackedVideo, error) {
	rows, err := s.q.ListTrackedVideos(ctx, int32(clampLimit(limit)))
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return toVideos(rows), nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (leads.TrackedVideo, error) {
	row, err := s.q.GetTrackedVideo(ctx, db.PgUUID(id))
	if err != nil {
		return leads.TrackedVideo{}, notFound(err)
	}
	return toVideo(row), nil
}

func (s *PostgresStore) GetBySourceURL(ctx context.Context, sourceURL string) (leads.TrackedVideo, error) {
	row, err := s.q.GetTrackedVideoBySourceURL(ctx, sourceURL)
	if err != nil {
		return leads.TrackedVideo{}, notFound(err)
	}
	return toVideo(row), nil
}

func (s *PostgresStore) Upsert(ctx context.Context, reg Registration) (leads.TrackedVideo, error) {
	row, err := s.q.UpsertTrackedVideo(ctx, &db.UpsertTrackedVideoParams{
		ID:              db.PgUUID(reg.ID),
		SourceURL:       reg.SourceURL,
		CanonicalDomain: reg.Domain,
		Keywords:        reg.Keywords,
	})
	if err != nil {
		return leads.TrackedVideo{}, fmt.Errorf("upsert video %s: %w", reg.SourceURL, err)
	}
	return toVideo(row), nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	n, err := s.q.DeactivateTrackedVideo(ctx, db.PgUUID(id))
	if err != nil {
		return fmt.Errorf("deactivate video %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) TouchLastChecked(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := s.q.TouchTrackedVideoLastChecked(ctx, &db.TouchTrackedVideoLastCheckedParams{
		ID:            db.PgUUID(id),
		LastCheckedAt: db.Timestamptz(at),
	})
	if err != nil {
		return fmt.Errorf("touch video %s: %w", id, err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
