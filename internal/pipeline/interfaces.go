package pipeline

import (
	"context"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
)

// PlaceResolver geocodes free-text place names and measures distance from
// the home reference point.
type PlaceResolver interface {
	Resolve(ctx context.Context, place string) (domain.Coordinates, bool)
	WithinRadius(c domain.Coordinates, maxKm float64) (within, known bool)
}
