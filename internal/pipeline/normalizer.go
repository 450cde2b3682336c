package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/sources"
)

// Normalizer maps raw adapter payloads into canonical events and decides
// inclusion against the radius policy. It is a pure mapping apart from the
// geocode lookup, so it is unit-testable without network access.
type Normalizer struct {
	resolver PlaceResolver
	now      func() time.Time
}

// NewNormalizer builds a normalizer around the given resolver.
func NewNormalizer(resolver PlaceResolver) *Normalizer {
	return &Normalizer{resolver: resolver, now: time.Now}
}

// Normalize shapes one raw payload into a canonical event. ok=false means
// the event was dropped: it resolved to a location outside the source's
// radius. An unresolvable location keeps the event with absent coordinates —
// absence of proof of distance is not proof of exclusion. Payloads whose
// adapter already enforced the radius (NeedsGeo false) are only shaped and
// stamped.
func (n *Normalizer) Normalize(ctx context.Context, raw sources.RawEvent, artist string, cfg sources.Source) (domain.Event, bool) {
	title := raw.Title
	if title == "" {
		title = fmt.Sprintf("%s - Event", artist)
	}
	location := raw.Location
	if location == "" {
		location = "Unknown"
	}

	coords := raw.Coordinates
	if raw.NeedsGeo && n.resolver != nil {
		coords = nil
		if resolved, ok := n.resolver.Resolve(ctx, location); ok {
			within, known := n.resolver.WithinRadius(resolved, cfg.MaxRadiusKm)
			if known && !within {
				return domain.Event{}, false
			}
			if known {
				coords = &resolved
			}
		}
	}

	return domain.Event{
		Title:       title,
		Artist:      artist,
		DateText:    raw.DateText,
		Location:    location,
		Source:      cfg.ID,
		TicketLink:  raw.TicketLink,
		Coordinates: coords,
		ScrapedAt:   n.now().UTC(),
	}, true
}
