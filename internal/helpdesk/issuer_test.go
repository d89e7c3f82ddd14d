package helpdesk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/leadwatch/internal/config"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/pkg/zendesk"
)

type fakeClient struct {
	got     []zendesk.Ticket
	created *zendesk.CreatedTicket
	err     error
}

func (f *fakeClient) CreateTicket(ctx context.Context, t zendesk.Ticket) (*zendesk.CreatedTicket, error) {
	f.got = append(f.got, t)
	return f.created, f.err
}

func fixture() (leads.Comment, leads.TrackedVideo) {
	posted := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	c := leads.Comment{
		ExternalID: "7301",
		Author:     "<b>buyer</b>",
		Text:       "where can I buy this? <script>alert(1)</script>",
		Likes:      12345,
		CreatedAt:  &posted,
	}
	v := leads.TrackedVideo{ID: uuid.New(), SourceURL: "https://www.tiktok.com/@shop/video/7234567890123456789"}
	return c, v
}

func TestCreateTicket_Payload(t *testing.T) {
	fc := &fakeClient{created: &zendesk.CreatedTicket{ID: 981}}
	iss := NewIssuer(fc, Options{
		Tags:         []string{"tiktok_campaign", "filtered_lead"},
		Type:         "incident",
		VideoFieldID: 360001,
	})
	iss.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	c, v := fixture()
	id, err := iss.CreateTicket(context.Background(), c, v, []string{"buy"})
	require.NoError(t, err)
	require.Equal(t, "981", id)
	require.Len(t, fc.got, 1)

	tk := fc.got[0]
	require.Equal(t, "Comment lead: @buyer", tk.Subject)
	require.Equal(t, "tiktok_7301", tk.ExternalID)
	require.Equal(t, []string{"tiktok_campaign", "filtered_lead"}, tk.Tags)
	require.Equal(t, "incident", tk.Type)
	require.Equal(t, []zendesk.CustomField{{ID: 360001, Value: v.SourceURL}}, tk.CustomFields)

	require.Contains(t, tk.Comment.Body, "User: @buyer")
	require.Contains(t, tk.Comment.Body, "Matched keywords: buy")
	require.Contains(t, tk.Comment.Body, "12,345 likes")
	require.Contains(t, tk.Comment.Body, "3 hours ago")
	require.NotContains(t, tk.Comment.Body, "<script")

	require.NotContains(t, tk.Comment.HTMLBody, "<script")
	require.Contains(t, tk.Comment.HTMLBody, "<blockquote>")
	require.Contains(t, tk.Comment.HTMLBody, "12,345")
}

func TestCreateTicket_UnknownAuthor(t *testing.T) {
	fc := &fakeClient{created: &zendesk.CreatedTicket{ID: 1}}
	iss := NewIssuer(fc, Options{ExternalIDPrefix: "tt"})

	_, err := iss.CreateTicket(context.Background(), leads.Comment{ExternalID: "c1", Text: "price"}, leads.TrackedVideo{}, []string{"price"})
	require.NoError(t, err)
	require.Equal(t, "Comment lead: @unknown", fc.got[0].Subject)
	require.Equal(t, "tt_c1", fc.got[0].ExternalID)
	require.Nil(t, fc.got[0].CustomFields)
}

func TestCreateTicket_ErrorTaxonomy(t *testing.T) {
	c, v := fixture()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"network", errors.New("dial tcp: connection refused"), leads.ErrProviderUnavailable},
		{"server", &zendesk.StatusError{StatusCode: 503}, leads.ErrProviderUnavailable},
		{"rate limit", &zendesk.StatusError{StatusCode: 429}, leads.ErrProviderUnavailable},
		{"rejected", &zendesk.StatusError{StatusCode: 422}, leads.ErrInvalidPayload},
		{"bad token", &zendesk.StatusError{StatusCode: 401}, leads.ErrConfiguration},
		{"forbidden", &zendesk.StatusError{StatusCode: 403}, leads.ErrConfiguration},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewIssuer(&fakeClient{err: tc.err}, Options{}).CreateTicket(context.Background(), c, v, []string{"buy"})
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := NewIssuer(&fakeClient{created: &zendesk.CreatedTicket{}}, Options{}).CreateTicket(context.Background(), c, v, nil)
	require.ErrorIs(t, err, leads.ErrInvalidPayload)

	_, err = NewIssuer(&fakeClient{}, Options{}).CreateTicket(context.Background(), leads.Comment{}, v, nil)
	require.ErrorIs(t, err, leads.ErrInvalidPayload)
}

func TestFromConfig_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "ops@example.com/token", user)
		require.Equal(t, "zd", pass)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ticket":{"id":77}}`))
	}))
	defer srv.Close()

	iss := FromConfig(config.Config{
		HelpdeskBaseURL:          srv.URL,
		HelpdeskAuth:             "basic",
		HelpdeskEmail:            "ops@example.com",
		HelpdeskAPIToken:         "zd",
		HelpdeskExternalIDPrefix: "tiktok",
	})
	c, v := fixture()
	id, err := iss.CreateTicket(context.Background(), c, v, []string{"buy"})
	require.NoError(t, err)
	require.Equal(t, "77", id)
}

func TestBuildTicket_LongAuthorIsCut(t *testing.T) {
	c, v := fixture()
	c.Author = strings.Repeat("a", 200)

	ticket := NewIssuer(&fakeClient{}, Options{}).BuildTicket(c, v, []string{"buy"})
	require.Equal(t, "Comment lead: @"+strings.Repeat("a", 61)+"...", ticket.Subject)
}
