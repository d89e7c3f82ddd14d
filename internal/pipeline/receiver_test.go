package pipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/ledger"
	"thirdcoast.systems/leadwatch/internal/registry"
	"thirdcoast.systems/leadwatch/internal/scrape"
)

type datasetProvider struct {
	scrape.Provider
	records []scrape.Record
	err     error
	fetched []string
}

func (d *datasetProvider) FetchResultBatch(ctx context.Context, datasetID string, limit int) ([]scrape.Record, error) {
	d.fetched = append(d.fetched, datasetID)
	return d.records, d.err
}

func newReceiverFixture(t *testing.T) (*Receiver, *datasetProvider, *fakeIssuer, leads.TrackedVideo) {
	t.Helper()
	store := registry.NewMemoryStore()
	v, err := registry.Register(context.Background(), store, "https://www.tiktok.com/@shop/video/7234567890123456789", []string{"price", "link"})
	require.NoError(t, err)

	prov := &datasetProvider{records: []scrape.Record{
		{"id": "c1", "text": "price?", "authorMeta": map[string]any{"uniqueId": "a"}},
		{"cid": "c2", "commentText": "send link", "uniqueId": "b"},
		{"id": "c3", "text": "cute"},
		{"text": "no id"},
	}}
	iss := newFakeIssuer()
	p, _ := newProcessor(ledger.NewMemoryLedger(), iss)
	return NewReceiver(store, prov, p, scrape.SchemaAuto, 50), prov, iss, v
}

func TestHandleCompletion_ProcessesDataset(t *testing.T) {
	r, prov, iss, v := newReceiverFixture(t)

	report, err := r.HandleCompletion(context.Background(), Completion{
		RunID: "run-1", Status: leads.RunSucceeded, DatasetID: "ds-1", VideoID: v.ID,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ds-1"}, prov.fetched)
	require.Equal(t, 2, report.LeadsCreated)
	require.Equal(t, 3, report.CommentsEvaluated)
	require.Len(t, report.Errors, 1)
	require.Equal(t, leads.KindInvalidPayload, report.Errors[0].Kind)
	require.Equal(t, "DELIVERED", report.Videos[0].State)
	require.Equal(t, 2, iss.total())
}

func TestHandleCompletion_RedeliveryIsIdempotent(t *testing.T) {
	r, _, iss, v := newReceiverFixture(t)
	c := Completion{RunID: "run-1", Status: leads.RunSucceeded, DatasetID: "ds-1", VideoID: v.ID}

	_, err := r.HandleCompletion(context.Background(), c)
	require.NoError(t, err)
	again, err := r.HandleCompletion(context.Background(), c)
	require.NoError(t, err)

	require.Zero(t, again.LeadsCreated)
	require.Equal(t, 2, again.Duplicates)
	require.Equal(t, 2, iss.total())
}

func TestHandleCompletion_FallsBackToURL(t *testing.T) {
	r, _, _, v := newReceiverFixture(t)

	report, err := r.HandleCompletion(context.Background(), Completion{
		Status:    leads.RunSucceeded,
		DatasetID: "ds-1",
		VideoID:   uuid.New(),
		VideoURL:  "https://m.tiktok.com/@shop/video/7234567890123456789?is_from_webapp=1",
	})
	require.NoError(t, err)
	require.Equal(t, v.ID, report.Videos[0].VideoID)
}

func TestHandleCompletion_Rejections(t *testing.T) {
	r, prov, _, v := newReceiverFixture(t)
	ctx := context.Background()

	_, err := r.HandleCompletion(ctx, Completion{Status: leads.RunSucceeded, VideoID: v.ID})
	require.ErrorIs(t, err, leads.ErrInvalidPayload)

	_, err = r.HandleCompletion(ctx, Completion{Status: leads.RunFailed, DatasetID: "ds-1", VideoID: v.ID})
	require.ErrorIs(t, err, ErrIgnored)

	// Failed runs usually come without a dataset.
	_, err = r.HandleCompletion(ctx, Completion{Status: leads.RunFailed, VideoID: v.ID})
	require.ErrorIs(t, err, ErrIgnored)
	require.NotErrorIs(t, err, leads.ErrInvalidPayload)

	_, err = r.HandleCompletion(ctx, Completion{Status: leads.RunSucceeded, DatasetID: "ds-1", VideoURL: "https://www.tiktok.com/@x/video/1"})
	require.ErrorIs(t, err, ErrIgnored)
	require.Empty(t, prov.fetched)
}

func TestHandleCompletion_InactiveVideoIgnored(t *testing.T) {
	store := registry.NewMemoryStore()
	v, err := registry.Register(context.Background(), store, "https://www.tiktok.com/@shop/video/1", []string{"price"})
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(context.Background(), v.ID))

	p, _ := newProcessor(ledger.NewMemoryLedger(), newFakeIssuer())
	r := NewReceiver(store, &datasetProvider{}, p, scrape.SchemaAuto, 10)

	_, err = r.HandleCompletion(context.Background(), Completion{Status: leads.RunSucceeded, DatasetID: "ds", VideoID: v.ID})
	require.ErrorIs(t, err, ErrIgnored)
}

func TestHandleCompletion_ProviderDown(t *testing.T) {
	r, prov, _, v := newReceiverFixture(t)
	prov.err = leads.ErrProviderUnavailable

	report, err := r.HandleCompletion(context.Background(), Completion{Status: leads.RunSucceeded, DatasetID: "ds-1", VideoID: v.ID})
	require.ErrorIs(t, err, leads.ErrProviderUnavailable)
	require.NotNil(t, report)
	require.Equal(t, "FAILED", report.Videos[0].State)
}

func TestHandleCompletion_HelpdeskAuthFailure(t *testing.T) {
	r, _, iss, v := newReceiverFixture(t)
	iss.failFor["c1"] = leads.Configurationf("helpdesk credentials rejected")

	report, err := r.HandleCompletion(context.Background(), Completion{Status: leads.RunSucceeded, DatasetID: "ds-1", VideoID: v.ID})
	require.ErrorIs(t, err, leads.ErrConfiguration)
	require.NotNil(t, report)
	require.Zero(t, report.LeadsCreated)
	require.Equal(t, 1, iss.total())
	require.NotEmpty(t, report.Videos[0].Error)
}

func TestCompletionFromPayload(t *testing.T) {
	var p scrape.CallbackPayload
	p.Resource.ID = "r1"
	p.Resource.Status = "SUCCEEDED"
	p.Resource.DefaultDatasetID = "d1"
	p.VideoID = "not-a-uuid"
	p.VideoURL = "https://www.tiktok.com/video/1"

	c := CompletionFromPayload(p)
	require.Equal(t, leads.RunSucceeded, c.Status)
	require.Equal(t, "d1", c.DatasetID)
	require.Equal(t, uuid.Nil, c.VideoID)
	require.Equal(t, "https://www.tiktok.com/video/1", c.VideoURL)
}
