package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/leadwatch/internal/db"
	"thirdcoast.systems/leadwatch/internal/leads"
)

type fakeQuerier struct {
	db.Querier

	insertErr error
	exists    bool
	inserted  []*db.InsertLeadParams
	listArg   *db.ListLeadsParams
	rows      []*db.Lead
}

func (f *fakeQuerier) LeadExists(ctx context.Context, externalID string) (bool, error) {
	return f.exists, nil
}

func (f *fakeQuerier) InsertLead(ctx context.Context, arg *db.InsertLeadParams) (pgtype.UUID, error) {
	if f.insertErr != nil {
		return pgtype.UUID{}, f.insertErr
	}
	f.inserted = append(f.inserted, arg)
	return arg.ID, nil
}

func (f *fakeQuerier) ListLeads(ctx context.Context, arg *db.ListLeadsParams) ([]*db.Lead, error) {
	f.listArg = arg
	return f.rows, nil
}

func TestPostgresLedger_RecordLead(t *testing.T) {
	fq := &fakeQuerier{}
	l := NewPostgresLedger(fq)

	vid := uuid.New()
	id, err := l.RecordLead(context.Background(), leads.Lead{ExternalID: "c1", VideoID: vid, TicketID: "42"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)
	require.Len(t, fq.inserted, 1)
	require.Equal(t, "c1", fq.inserted[0].ExternalID)
	require.Equal(t, db.PgUUID(vid), fq.inserted[0].VideoID)
	require.NotNil(t, fq.inserted[0].MatchedKeywords)
	require.True(t, fq.inserted[0].CreatedAt.Valid)
}

func TestPostgresLedger_UniqueViolationIsDuplicate(t *testing.T) {
	fq := &fakeQuerier{insertErr: &pgconn.PgError{Code: "23505", ConstraintName: "leads_external_id_key"}}
	l := NewPostgresLedger(fq)

	_, err := l.RecordLead(context.Background(), leads.Lead{ExternalID: "c1"})
	require.ErrorIs(t, err, leads.ErrDuplicateKey)
	require.True(t, IsDuplicate(err))
}

func TestPostgresLedger_OtherErrorsPassThrough(t *testing.T) {
	boom := errors.New("conn reset")
	l := NewPostgresLedger(&fakeQuerier{insertErr: boom})

	_, err := l.RecordLead(context.Background(), leads.Lead{ExternalID: "c1"})
	require.ErrorIs(t, err, boom)
	require.False(t, IsDuplicate(err))
}

func TestPostgresLedger_ListClampsLimit(t *testing.T) {
	now := time.Now().UTC()
	fq := &fakeQuerier{rows: []*db.Lead{{
		ID:         db.PgUUID(uuid.New()),
		ExternalID: "c9",
		TicketID:   "7",
		CreatedAt:  db.Timestamptz(now),
	}}}
	l := NewPostgresLedger(fq)

	out, err := l.List(context.Background(), uuid.Nil, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "c9", out[0].ExternalID)
	require.Equal(t, []string{}, out[0].MatchedKeywords)
	require.Equal(t, int32(DefaultListLimit), fq.listArg.Limit)
	require.False(t, fq.listArg.VideoID.Valid)
}

func TestMemoryLedger_RecordOnce(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	ok, err := l.Exists(ctx, "c1")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = l.RecordLead(ctx, leads.Lead{ExternalID: "c1", TicketID: "1"})
	require.NoError(t, err)

	ok, err = l.Exists(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = l.RecordLead(ctx, leads.Lead{ExternalID: "c1", TicketID: "2"})
	require.ErrorIs(t, err, leads.ErrDuplicateKey)
	require.Equal(t, 1, l.Len())

	_, err = l.RecordLead(ctx, leads.Lead{})
	require.ErrorIs(t, err, leads.ErrInvalidPayload)
}

func TestMemoryLedger_ConcurrentRecordSameID(t *testing.T) {
	l := NewMemoryLedger()

	var wins, dups atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.RecordLead(context.Background(), leads.Lead{ExternalID: "same"})
			switch {
			case err == nil:
				wins.Add(1)
			case IsDuplicate(err):
				dups.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	require.Equal(t, int32(31), dups.Load())
	require.Equal(t, 1, l.Len())
}

func TestMemoryLedger_ListFiltersAndOrders(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, ext := range []string{"a1", "a2", "b1"} {
		vid := a
		if ext == "b1" {
			vid = b
		}
		_, err := l.RecordLead(ctx, leads.Lead{ExternalID: ext, VideoID: vid, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	all, err := l.List(ctx, uuid.Nil, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"b1", "a2", "a1"}, externalIDs(all))

	onlyA, err := l.List(ctx, a, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"a2"}, externalIDs(onlyA))
}

func externalIDs(in []leads.Lead) []string {
	out := make([]string, 0, len(in))
	for _, l := range in {
		out = append(out, l.ExternalID)
	}
	return out
}
