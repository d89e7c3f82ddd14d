package leads

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrProviderUnavailable covers network failures and 5xx/429 answers from
	// the scrape provider or the helpdesk. The item is retried next cycle.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidPayload marks malformed or incomplete provider data.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrDuplicateKey is returned by a ledger when a lead already exists for
	// the external id. Callers treat it as already handled.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConfiguration is fatal to a whole cycle.
	ErrConfiguration = errors.New("configuration error")
)

type ErrorKind string

const (
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindInvalidPayload      ErrorKind = "invalid_payload"
	KindDuplicateKey        ErrorKind = "duplicate_key"
	KindConfiguration       ErrorKind = "configuration"
	KindInternal            ErrorKind = "internal"
)

// Classify maps an error onto the taxonomy used in reports.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateKey):
		return KindDuplicateKey
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrInvalidPayload):
		return KindInvalidPayload
	case errors.Is(err, ErrProviderUnavailable):
		return KindProviderUnavailable
	default:
		return KindInternal
	}
}

// ItemError records a per-video or per-comment failure inside a report.
type ItemError struct {
	VideoID    uuid.UUID `json:"video_id"`
	ExternalID string    `json:"external_id,omitempty"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
}

func NewItemError(videoID uuid.UUID, externalID string, err error) ItemError {
	return ItemError{
		VideoID:    videoID,
		ExternalID: externalID,
		Kind:       Classify(err),
		Message:    err.Error(),
	}
}

func (e ItemError) Error() string {
	if e.ExternalID != "" {
		return fmt.Sprintf("video %s comment %s: %s: %s", e.VideoID, e.ExternalID, e.Kind, e.Message)
	}
	return fmt.Sprintf("video %s: %s: %s", e.VideoID, e.Kind, e.Message)
}

// Configurationf builds an ErrConfiguration with context.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
