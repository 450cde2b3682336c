package sources

import (
	"context"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/httpclient"
)

// RawEvent is one adapter-specific extraction result: the fields a source
// could surface for a single event candidate, before normalization. Missing
// fields stay empty; the normalizer applies defaults.
type RawEvent struct {
	Title      string
	DateText   string
	Location   string
	TicketLink string
	// Coordinates is set when the source reported venue coordinates itself.
	Coordinates *domain.Coordinates
	// NeedsGeo asks the normalizer to geocode Location and apply the radius
	// policy. Adapters that already enforce the radius leave it false.
	NeedsGeo bool
}

// Adapter retrieves raw event payloads for one artist from one source.
// Transient per-artist failures (network, non-200, unparsable pages) are
// logged and reported as an error so callers can count them; they must never
// abort a whole run.
type Adapter interface {
	ID() string
	FetchRaw(ctx context.Context, cfg Source, artist string) ([]RawEvent, error)
}

// AdapterRegistry resolves the adapter implementation for a given source config.
type AdapterRegistry interface {
	AdapterFor(cfg Source) (Adapter, error)
}

// DistanceGauge reports great-circle distance from the home reference point,
// so adapters that pre-filter on venue coordinates use the same math and
// reference as the normalizer.
type DistanceGauge interface {
	FromReference(c domain.Coordinates) (km float64, ok bool)
}

// Logger is the logging surface adapters rely on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return log
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within sources.
type HTTPClient = httpclient.Client
