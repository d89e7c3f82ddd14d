// Package helpdesk turns matched comments into helpdesk tickets.
package helpdesk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"thirdcoast.systems/leadwatch/internal/config"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/pkg/utils/format"
	"thirdcoast.systems/leadwatch/pkg/utils/markdown"
	"thirdcoast.systems/leadwatch/pkg/zendesk"
)

// Handles longer than this are cut so the subject stays readable.
const maxAuthorRunes = 64

type ticketCreator interface {
	CreateTicket(ctx context.Context, t zendesk.Ticket) (*zendesk.CreatedTicket, error)
}

type Options struct {
	ExternalIDPrefix string
	Tags             []string
	Type             string
	Priority         string
	// VideoFieldID is the custom field that receives the video URL. Zero disables it.
	VideoFieldID int64
}

type Issuer struct {
	client ticketCreator
	opts   Options
	now    func() time.Time
}

func NewIssuer(client ticketCreator, opts Options) *Issuer {
	if opts.ExternalIDPrefix == "" {
		opts.ExternalIDPrefix = "tiktok"
	}
	return &Issuer{client: client, opts: opts, now: time.Now}
}

// FromConfig wires a Zendesk client from the helpdesk settings.
func FromConfig(cfg config.Config) *Issuer {
	client := zendesk.NewClient(cfg.HelpdeskURL(), zendesk.Credentials{
		Mode:  cfg.HelpdeskAuth,
		Email: cfg.HelpdeskEmail,
		Token: cfg.HelpdeskAPIToken,
	})
	return NewIssuer(client, Options{
		ExternalIDPrefix: cfg.HelpdeskExternalIDPrefix,
		Tags:             cfg.HelpdeskTags,
		Type:             cfg.HelpdeskTicketType,
		Priority:         cfg.HelpdeskPriority,
		VideoFieldID:     cfg.HelpdeskVideoFieldID,
	})
}

// ExternalID is the helpdesk-side reference for a comment.
func (i *Issuer) ExternalID(commentID string) string {
	return i.opts.ExternalIDPrefix + "_" + commentID
}

// CreateTicket opens one ticket for comment and returns its id. Transport
// failures, 5xx and 429 wrap leads.ErrProviderUnavailable, 401 and 403 wrap
// leads.ErrConfiguration, every other rejection wraps leads.ErrInvalidPayload.
// Nothing is retried here.
func (i *Issuer) CreateTicket(ctx context.Context, comment leads.Comment, video leads.TrackedVideo, matched []string) (string, error) {
	if strings.TrimSpace(comment.ExternalID) == "" {
		return "", fmt.Errorf("%w: comment without external id", leads.ErrInvalidPayload)
	}

	created, err := i.client.CreateTicket(ctx, i.BuildTicket(comment, video, matched))
	if err != nil {
		var se *zendesk.StatusError
		if errors.As(err, &se) && se.Unauthorized() {
			return "", fmt.Errorf("create ticket for %s: %w: helpdesk credentials rejected: %w", comment.ExternalID, leads.ErrConfiguration, err)
		}
		if errors.As(err, &se) && !se.Temporary() {
			return "", fmt.Errorf("create ticket for %s: %w: %w", comment.ExternalID, leads.ErrInvalidPayload, err)
		}
		return "", fmt.Errorf("create ticket for %s: %w: %w", comment.ExternalID, leads.ErrProviderUnavailable, err)
	}
	if created == nil || created.ID == 0 {
		return "", fmt.Errorf("create ticket for %s: %w: response carried no ticket id", comment.ExternalID, leads.ErrInvalidPayload)
	}
	return strconv.FormatInt(created.ID, 10), nil
}

// BuildTicket assembles the ticket payload. Author and comment text are
// untrusted and stripped of markup before they reach either body.
func (i *Issuer) BuildTicket(comment leads.Comment, video leads.TrackedVideo, matched []string) zendesk.Ticket {
	author := format.Truncate(markdown.Strip(comment.Author), maxAuthorRunes)
	if author == "" {
		author = "unknown"
	}
	text := markdown.Strip(comment.Text)

	var plain strings.Builder
	fmt.Fprintf(&plain, "New comment lead\n\nUser: @%s\nComment: %q\n", author, text)
	fmt.Fprintf(&plain, "\n---\nMatched keywords: %s\nVideo: %s\n", strings.Join(matched, ", "), video.SourceURL)
	if extra := i.details(comment); extra != "" {
		plain.WriteString(extra + "\n")
	}

	var src strings.Builder
	fmt.Fprintf(&src, "**New comment lead** from **@%s**\n\n", markdown.Escape(author))
	fmt.Fprintf(&src, "> %s\n\n", markdown.Escape(text))
	src.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&src, "| Matched keywords | %s |\n", markdown.Escape(strings.Join(matched, ", ")))
	fmt.Fprintf(&src, "| Video | <%s> |\n", video.SourceURL)
	fmt.Fprintf(&src, "| Comment id | %s |\n", markdown.Escape(comment.ExternalID))
	if comment.Likes > 0 {
		fmt.Fprintf(&src, "| Likes | %s |\n", humanize.Comma(comment.Likes))
	}
	if comment.CreatedAt != nil {
		fmt.Fprintf(&src, "| Posted | %s |\n", humanize.RelTime(*comment.CreatedAt, i.now(), "ago", "from now"))
	}

	t := zendesk.Ticket{
		Subject: "Comment lead: @" + author,
		Comment: zendesk.Comment{
			Body:     plain.String(),
			HTMLBody: markdown.NewMarkdown(src.String()).Render(),
		},
		ExternalID: i.ExternalID(comment.ExternalID),
		Tags:       i.opts.Tags,
		Type:       i.opts.Type,
		Priority:   i.opts.Priority,
	}
	if i.opts.VideoFieldID > 0 {
		t.CustomFields = []zendesk.CustomField{{ID: i.opts.VideoFieldID, Value: video.SourceURL}}
	}
	return t
}

func (i *Issuer) details(c leads.Comment) string {
	var parts []string
	if c.Likes > 0 {
		parts = append(parts, humanize.Comma(c.Likes)+" likes")
	}
	if c.CreatedAt != nil {
		parts = append(parts, "posted "+humanize.RelTime(*c.CreatedAt, i.now(), "ago", "from now"))
	}
	return strings.Join(parts, ", ")
}
