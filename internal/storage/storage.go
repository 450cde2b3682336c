package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
)

// Package storage provides the local event persistence and query layer.

const (
	defaultRetention  = 7 * 24 * time.Hour
	defaultQueryLimit = 50
	maxQueryLimit     = 100
)

// Store persists canonical events with an upsert + retention policy and
// serves filtered reads. Upserting an identical event twice is safe.
type Store interface {
	Close() error
	// UpsertEvents writes events and returns the subset not seen before.
	UpsertEvents(events []domain.Event) ([]domain.Event, error)
	// PurgeOlderThan removes events scraped more than age ago, returning how many.
	PurgeOlderThan(age time.Duration) (int, error)
	// Query returns stored events matching the filter, newest first.
	Query(f domain.QueryFilter) ([]domain.Event, error)
	Stats() (domain.Stats, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	Retention time.Duration
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	if opts.Retention <= 0 {
		opts.Retention = defaultRetention
	}

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

type noopStore struct{}

func (noopStore) Close() error { return nil }
func (noopStore) UpsertEvents(events []domain.Event) ([]domain.Event, error) {
	return events, nil
}
func (noopStore) PurgeOlderThan(time.Duration) (int, error)        { return 0, nil }
func (noopStore) Query(domain.QueryFilter) ([]domain.Event, error) { return nil, nil }
func (noopStore) Stats() (domain.Stats, error)                     { return domain.Stats{}, nil }
