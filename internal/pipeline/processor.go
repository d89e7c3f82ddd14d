// Package pipeline ties scraping, matching, the ledger and the helpdesk
// together.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/leadwatch/internal/events"
	"thirdcoast.systems/leadwatch/internal/keywords"
	"thirdcoast.systems/leadwatch/internal/leads"
	"thirdcoast.systems/leadwatch/internal/ledger"
	"thirdcoast.systems/leadwatch/pkg/utils/format"
)

// Issuer creates one helpdesk ticket per call and returns its id.
type Issuer interface {
	CreateTicket(ctx context.Context, comment leads.Comment, video leads.TrackedVideo, matched []string) (string, error)
}

// BatchResult counts what happened to one batch of comments.
type BatchResult struct {
	Evaluated  int
	Matched    int
	Created    int
	Duplicates int
	Leads      []leads.Lead
	Errors     []leads.ItemError
}

type Processor struct {
	matcher *keywords.Matcher
	ledger  ledger.Ledger
	claims  ledger.Claimer
	issuer  Issuer
	events  events.Publisher
	now     func() time.Time
}

func NewProcessor(m *keywords.Matcher, l ledger.Ledger, c ledger.Claimer, iss Issuer, pub events.Publisher) *Processor {
	if pub == nil {
		pub = events.Nop{}
	}
	if c == nil {
		c = ledger.NewLocalClaimer()
	}
	return &Processor{
		matcher: m,
		ledger:  l,
		claims:  c,
		issuer:  iss,
		events:  pub,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeDuplicate
	outcomeFailed
)

// Process evaluates comments against video's keywords and opens at most one
// ticket per comment. A lead is only recorded after its ticket exists, so a
// failed ticket leaves the comment eligible for the next cycle. A
// configuration error stops the batch and is returned, since every later
// comment would fail the same way.
func (p *Processor) Process(ctx context.Context, video leads.TrackedVideo, comments []leads.Comment) (BatchResult, error) {
	res := BatchResult{Leads: []leads.Lead{}, Errors: []leads.ItemError{}}

	for _, c := range comments {
		if err := ctx.Err(); err != nil {
			res.Errors = append(res.Errors, leads.NewItemError(video.ID, c.ExternalID, err))
			break
		}
		res.Evaluated++

		matched := p.matcher.Match(c.Text, video.Keywords)
		if len(matched) == 0 {
			continue
		}
		res.Matched++

		lead, oc, err := p.processOne(ctx, video, c, matched)
		switch oc {
		case outcomeCreated:
			res.Created++
			res.Leads = append(res.Leads, lead)
		case outcomeDuplicate:
			res.Duplicates++
		case outcomeFailed:
			res.Errors = append(res.Errors, leads.NewItemError(video.ID, c.ExternalID, err))
			if errors.Is(err, leads.ErrConfiguration) {
				return res, err
			}
		}
	}
	return res, nil
}

func (p *Processor) processOne(ctx context.Context, video leads.TrackedVideo, c leads.Comment, matched []string) (leads.Lead, outcome, error) {
	log := slog.With("video_id", video.ID, "external_id", c.ExternalID)

	seen, err := p.ledger.Exists(ctx, c.ExternalID)
	if err != nil {
		return leads.Lead{}, outcomeFailed, err
	}
	if seen {
		return leads.Lead{}, outcomeDuplicate, nil
	}

	release, ok, err := p.claims.Claim(ctx, c.ExternalID)
	if err != nil {
		return leads.Lead{}, outcomeFailed, err
	}
	if !ok {
		log.Debug("comment claimed by another worker")
		return leads.Lead{}, outcomeDuplicate, nil
	}
	defer release()

	// Another invocation may have finished between the first check and the claim.
	if seen, err = p.ledger.Exists(ctx, c.ExternalID); err != nil {
		return leads.Lead{}, outcomeFailed, err
	} else if seen {
		return leads.Lead{}, outcomeDuplicate, nil
	}

	ticketID, err := p.issuer.CreateTicket(ctx, c, video, matched)
	if err != nil {
		log.Warn("ticket creation failed", "error", err)
		return leads.Lead{}, outcomeFailed, err
	}

	lead := leads.Lead{
		ID:              uuid.New(),
		ExternalID:      c.ExternalID,
		VideoID:         video.ID,
		Author:          c.Author,
		CommentText:     c.Text,
		MatchedKeywords: matched,
		TicketID:        ticketID,
		CreatedAt:       p.now(),
	}
	if _, err := p.ledger.RecordLead(ctx, lead); err != nil {
		if ledger.IsDuplicate(err) {
			log.Warn("lead recorded concurrently after ticket was issued", "ticket_id", ticketID)
			return leads.Lead{}, outcomeDuplicate, nil
		}
		log.Error("ticket issued but lead not recorded", "ticket_id", ticketID, "error", err)
		return leads.Lead{}, outcomeFailed, err
	}
	log.Info("lead created", "ticket_id", ticketID, "keywords", matched, "comment", format.Preview(c.Text, 80))

	if err := p.events.LeadCreated(ctx, events.LeadCreated{Lead: lead, SourceURL: video.SourceURL}); err != nil {
		log.Warn("lead event not published", "error", err)
	}
	return lead, outcomeCreated, nil
}
