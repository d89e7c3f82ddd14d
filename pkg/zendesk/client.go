// Package zendesk creates tickets through the Zendesk Support API.
package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	AuthBasic  = "basic"
	AuthBearer = "bearer"
)

// Credentials selects how requests are authenticated. Basic auth uses the
// API token form "{email}/token:{token}".
type Credentials struct {
	Mode  string
	Email string
	Token string
}

// StatusError is returned for non-2xx answers.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("zendesk: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Unauthorized reports whether the credentials were refused.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type Client struct {
	baseURL string
	creds   Credentials
	http    *http.Client
}

func NewClient(baseURL string, creds Credentials) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		creds:   creds,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type Comment struct {
	Body     string `json:"body,omitempty"`
	HTMLBody string `json:"html_body,omitempty"`
	Public   *bool  `json:"public,omitempty"`
}

type CustomField struct {
	ID    int64 `json:"id"`
	Value any   `json:"value"`
}

type Requester struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Ticket struct {
	Subject      string        `json:"subject"`
	Comment      Comment       `json:"comment"`
	ExternalID   string        `json:"external_id,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Type         string        `json:"type,omitempty"`
	Priority     string        `json:"priority,omitempty"`
	Requester    *Requester    `json:"requester,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// CreatedTicket is the subset of the ticket response we read back.
type CreatedTicket struct {
	ID         int64     `json:"id"`
	ExternalID string    `json:"external_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateTicket issues exactly one POST. It never retries.
func (c *Client) CreateTicket(ctx context.Context, t Ticket) (*CreatedTicket, error) {
	body, err := json.Marshal(struct {
		Ticket Ticket `json:"ticket"`
	}{t})
	if err != nil {
		return nil, fmt.Errorf("marshal ticket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/tickets.json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(b)),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var out struct {
		Ticket CreatedTicket `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("zendesk: decode ticket response: %w", err)
	}
	return &out.Ticket, nil
}

func (c *Client) authorize(req *http.Request) {
	switch c.creds.Mode {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	default:
		req.SetBasicAuth(c.creds.Email+"/token", c.creds.Token)
	}
}

func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
