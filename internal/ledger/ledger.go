// Package ledger records which comments already produced a ticket.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/leadwatch/internal/db"
	"thirdcoast.systems/leadwatch/internal/leads"
)

// Ledger is the dedup store consulted before a ticket is issued.
// RecordLead returns leads.ErrDuplicateKey when the external id is taken.
type Ledger interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	RecordLead(ctx context.Context, lead leads.Lead) (uuid.UUID, error)
}

// Store adds the read side used by the operator API.
type Store interface {
	Ledger
	List(ctx context.Context, videoID uuid.UUID, limit int) ([]leads.Lead, error)
}

const DefaultListLimit = 100

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return DefaultListLimit
	}
	return limit
}

type PostgresLedger struct {
	q db.Querier
}

func NewPostgresLedger(q db.Querier) *PostgresLedger {
	return &PostgresLedger{q: q}
}

func (l *PostgresLedger) Exists(ctx context.Context, externalID string) (bool, error) {
	ok, err := l.q.LeadExists(ctx, externalID)
	if err != nil {
		return false, fmt.Errorf("lead exists %q: %w", externalID, err)
	}
	return ok, nil
}

func (l *PostgresLedger) RecordLead(ctx context.Context, lead leads.Lead) (uuid.UUID, error) {
	if lead.ExternalID == "" {
		return uuid.Nil, fmt.Errorf("%w: lead without external id", leads.ErrInvalidPayload)
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	id, err := l.q.InsertLead(ctx, &db.InsertLeadParams{
		ID:              db.PgUUID(lead.ID),
		ExternalID:      lead.ExternalID,
		VideoID:         db.PgUUID(lead.VideoID),
		Author:          lead.Author,
		CommentText:     lead.CommentText,
		MatchedKeywords: nonNil(lead.MatchedKeywords),
		TicketID:        lead.TicketID,
		CreatedAt:       db.Timestamptz(lead.CreatedAt),
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return uuid.Nil, fmt.Errorf("lead %q: %w", lead.ExternalID, leads.ErrDuplicateKey)
		}
		return uuid.Nil, fmt.Errorf("insert lead %q: %w", lead.ExternalID, err)
	}
	return db.UUID(id), nil
}

// List returns the newest leads first. videoID == uuid.Nil lists every video.
func (l *PostgresLedger) List(ctx context.Context, videoID uuid.UUID, limit int) ([]leads.Lead, error) {
	rows, err := l.q.ListLeads(ctx, &db.ListLeadsParams{
		VideoID: db.PgUUID(videoID),
		Limit:   int32(clampLimit(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	out := make([]leads.Lead, 0, len(rows))
	for _, r := range rows {
		out = append(out, leads.Lead{
			ID:              db.UUID(r.ID),
			ExternalID:      r.ExternalID,
			VideoID:         db.UUID(r.VideoID),
			Author:          r.Author,
			CommentText:     r.CommentText,
			MatchedKeywords: nonNil(r.MatchedKeywords),
			TicketID:        r.TicketID,
			CreatedAt:       r.CreatedAt.Time,
		})
	}
	return out, nil
}

// MemoryLedger keeps leads in process memory. Used by tests and STORE_DRIVER=memory.
type MemoryLedger struct {
	mu    sync.RWMutex
	byExt map[string]leads.Lead
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byExt: make(map[string]leads.Lead)}
}

func (l *MemoryLedger) Exists(ctx context.Context, externalID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.byExt[externalID]
	return ok, nil
}

func (l *MemoryLedger) RecordLead(ctx context.Context, lead leads.Lead) (uuid.UUID, error) {
	if lead.ExternalID == "" {
		return uuid.Nil, fmt.Errorf("%w: lead without external id", leads.ErrInvalidPayload)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byExt[lead.ExternalID]; ok {
		return uuid.Nil, fmt.Errorf("lead %q: %w", lead.ExternalID, leads.ErrDuplicateKey)
	}
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	lead.MatchedKeywords = slices.Clone(nonNil(lead.MatchedKeywords))
	l.byExt[lead.ExternalID] = lead
	return lead.ID, nil
}

func (l *MemoryLedger) List(ctx context.Context, videoID uuid.UUID, limit int) ([]leads.Lead, error) {
	l.mu.RLock()
	out := make([]leads.Lead, 0, len(l.byExt))
	for _, lead := range l.byExt {
		if videoID != uuid.Nil && lead.VideoID != videoID {
			continue
		}
		out = append(out, lead)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ExternalID < out[j].ExternalID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Len is the number of recorded leads.
func (l *MemoryLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byExt)
}

// IsDuplicate reports whether err means the lead was already recorded.
func IsDuplicate(err error) bool {
	return errors.Is(err, leads.ErrDuplicateKey)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var (
	_ Store = (*PostgresLedger)(nil)
	_ Store = (*MemoryLedger)(nil)
)
