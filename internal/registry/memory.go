package registry

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/leadwatch/internal/leads"
)

// MemoryStore is a process-local registry for STORE_DRIVER=memory and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	videos map[uuid.UUID]leads.TrackedVideo
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		videos: make(map[uuid.UUID]leads.TrackedVideo),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Put stores v as-is. Used to seed fixtures.
func (s *MemoryStore) Put(v leads.TrackedVideo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	s.videos[v.ID] = clone(v)
}

func clone(v leads.TrackedVideo) leads.TrackedVideo {
	v.Keywords = slices.Clone(v.Keywords)
	if v.LastCheckedAt != nil {
		t := *v.LastCheckedAt
		v.LastCheckedAt = &t
	}
	return v
}

func byCreated(a, b leads.TrackedVideo) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.SourceURL < b.SourceURL
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// byLastChecked puts never-checked videos first, then the stalest.
func byLastChecked(a, b leads.TrackedVideo) bool {
	switch {
	case a.LastCheckedAt == nil && b.LastCheckedAt == nil:
		return byCreated(a, b)
	case a.LastCheckedAt == nil:
		return true
	case b.LastCheckedAt == nil:
		return false
	case a.LastCheckedAt.Equal(*b.LastCheckedAt):
		return byCreated(a, b)
	default:
		return a.LastCheckedAt.Before(*b.LastCheckedAt)
	}
}

func (s *MemoryStore) sorted(filter func(leads.TrackedVideo) bool, less func(a, b leads.TrackedVideo) bool) []leads.TrackedVideo {
	s.mu.RLock()
	out := make([]leads.TrackedVideo, 0, len(s.videos))
	for _, v := range s.videos {
		if filter(v) {
			out = append(out, clone(v))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (s *MemoryStore) ListActive(ctx context.Context) ([]leads.TrackedVideo, error) {
	return s.sorted(func(v leads.TrackedVideo) bool { return v.Active }, byLastChecked), nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]leads.TrackedVideo, error) {
	out := s.sorted(func(leads.TrackedVideo) bool { return true }, byCreated)
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (leads.TrackedVideo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.videos[id]
	if !ok {
		return leads.TrackedVideo{}, ErrNotFound
	}
	return clone(v), nil
}

func (s *MemoryStore) GetBySourceURL(ctx context.Context, sourceURL string) (leads.TrackedVideo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.videos {
		if v.SourceURL == sourceURL {
			return clone(v), nil
		}
	}
	return leads.TrackedVideo{}, ErrNotFound
}

func (s *MemoryStore) Upsert(ctx context.Context, reg Registration) (leads.TrackedVideo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, v := range s.videos {
		if v.SourceURL == reg.SourceURL {
			v.Keywords = slices.Clone(reg.Keywords)
			v.Active = true
			s.videos[id] = v
			return clone(v), nil
		}
	}

	v := leads.TrackedVideo{
		ID:        reg.ID,
		SourceURL: reg.SourceURL,
		Keywords:  slices.Clone(reg.Keywords),
		Active:    true,
		CreatedAt: s.now(),
	}
	s.videos[v.ID] = v
	return clone(v), nil
}

func (s *MemoryStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return ErrNotFound
	}
	v.Active = false
	s.videos[id] = v
	return nil
}

func (s *MemoryStore) TouchLastChecked(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok {
		return ErrNotFound
	}
	v.LastCheckedAt = &at
	s.videos[id] = v
	return nil
}

var _ Store = (*MemoryStore)(nil)
