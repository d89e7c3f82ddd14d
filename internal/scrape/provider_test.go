package scrape

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/pkg/apify"
)

func TestApifyProvider_TriggerRunAttachesCallback(t *testing.T) {
	videoID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := base64.StdEncoding.DecodeString(r.URL.Query().Get("webhooks"))
		require.NoError(t, err)

		var hooks []apify.Webhook
		require.NoError(t, json.Unmarshal(raw, &hooks))
		require.Len(t, hooks, 1)
		require.Contains(t, hooks[0].EventTypes, "ACTOR.RUN.SUCCEEDED")
		require.Contains(t, hooks[0].PayloadTemplate, `"videoId": "`+videoID.String()+`"`)
		require.Contains(t, hooks[0].PayloadTemplate, "{{resource}}")
		require.JSONEq(t, `{"X-Leadwatch-Secret":"s3cret"}`, hooks[0].HeadersTemplate)

		_, _ = w.Write([]byte(`{"data":{"id":"run-7","status":"RUNNING","defaultDatasetId":"ds-7"}}`))
	}))
	defer srv.Close()

	p := NewApifyProvider(apify.NewClient(srv.URL, "tok"), "apidojo~tiktok-comments-scraper")
	run, err := p.TriggerRun(context.Background(), "https://www.tiktok.com/video/1", RunOptions{ResultsPerVideo: 5}, &Callback{
		URL:      "https://hooks.example.com/api/webhook/apify",
		Secret:   "s3cret",
		VideoID:  videoID,
		VideoURL: "https://www.tiktok.com/video/1",
	})
	require.NoError(t, err)
	require.Equal(t, leads.ScrapeRun{ID: "run-7", Status: leads.RunRunning, DatasetID: "ds-7"}, run)
}

func TestApifyProvider_ErrorTaxonomy(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusBadGateway)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	p := NewApifyProvider(apify.NewClient(srv.URL, "tok"), "actor")

	_, err := p.GetRunStatus(context.Background(), "run-1")
	require.ErrorIs(t, err, leads.ErrProviderUnavailable)

	status.Store(http.StatusUnauthorized)
	_, err = p.GetRunStatus(context.Background(), "run-1")
	require.ErrorIs(t, err, leads.ErrConfiguration)

	status.Store(http.StatusNotFound)
	_, err = p.FetchResultBatch(context.Background(), "ds-1", 10)
	require.ErrorIs(t, err, leads.ErrInvalidPayload)
}

func TestApifyProvider_FetchResultBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"c1","text":"price"},"garbage",{"cid":7301234567890123456}]`))
	}))
	defer srv.Close()

	p := NewApifyProvider(apify.NewClient(srv.URL, "tok"), "actor")
	records, err := p.FetchResultBatch(context.Background(), "ds-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Nil(t, records[1])

	c, err := Resolve(records[2], SchemaAuto)
	require.NoError(t, err)
	require.Equal(t, "7301234567890123456", c.ExternalID)
}

func TestCallbackPayload_Run(t *testing.T) {
	var p CallbackPayload
	require.NoError(t, json.Unmarshal([]byte(`{"eventType":"ACTOR.RUN.SUCCEEDED","resource":{"id":"r1","status":"SUCCEEDED","defaultDatasetId":"d1"},"videoId":"x","videoUrl":"https://www.tiktok.com/video/1"}`), &p))
	require.Equal(t, leads.ScrapeRun{ID: "r1", Status: leads.RunSucceeded, DatasetID: "d1"}, p.Run())

	p.Resource.Status = "ABORTED"
	require.Equal(t, leads.RunFailed, p.Run().Status)
}
