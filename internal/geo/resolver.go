package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/logger"
	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/httpclient"
)

const earthRadiusKm = 6371.0088

// Resolver turns free-text place names into coordinates via an external
// geocoding service and measures great-circle distance to a fixed reference
// point. Definitive resolutions (a match, or the service reporting no match)
// are cached for the process lifetime keyed by the normalized place string;
// transport failures are not cached so the next run can retry. A duplicate
// concurrent lookup of the same place is tolerated (last write wins).
type Resolver struct {
	client    httpclient.Client
	endpoint  string
	userAgent string
	reference domain.Coordinates

	mu    sync.RWMutex
	cache map[string]cachedPlace
}

type cachedPlace struct {
	coords domain.Coordinates
	ok     bool
}

// NewResolver builds a resolver against the given geocoding endpoint.
func NewResolver(client httpclient.Client, endpoint, userAgent string, reference domain.Coordinates) *Resolver {
	return &Resolver{
		client:    client,
		endpoint:  endpoint,
		userAgent: userAgent,
		reference: reference,
		cache:     make(map[string]cachedPlace),
	}
}

// Reference returns the fixed point distances are measured from.
func (r *Resolver) Reference() domain.Coordinates { return r.reference }

// Resolve looks up coordinates for a place name. Lookup failures of any kind
// (network error, no match, malformed name) report ok=false and never
// propagate an error to the caller.
func (r *Resolver) Resolve(ctx context.Context, place string) (domain.Coordinates, bool) {
	key := normalizePlace(place)
	if key == "" || key == "unknown" {
		return domain.Coordinates{}, false
	}

	r.mu.RLock()
	hit, found := r.cache[key]
	r.mu.RUnlock()
	if found {
		return hit.coords, hit.ok
	}

	coords, ok, definitive := r.lookup(ctx, place)
	if definitive {
		r.mu.Lock()
		r.cache[key] = cachedPlace{coords: coords, ok: ok}
		r.mu.Unlock()
	}

	return coords, ok
}

// lookup queries the geocoding service once. definitive=false marks transport
// failures (network error, non-200) whose outcome must not be cached.
func (r *Resolver) lookup(ctx context.Context, place string) (coords domain.Coordinates, ok, definitive bool) {
	if r.client == nil || strings.TrimSpace(r.endpoint) == "" {
		return domain.Coordinates{}, false, false
	}

	query := map[string]string{
		"q":      place,
		"format": "json",
		"limit":  "1",
	}
	headers := map[string]string{}
	if r.userAgent != "" {
		headers["User-Agent"] = r.userAgent
	}

	resp, err := r.client.Get(ctx, r.endpoint, query, headers)
	if err != nil {
		logger.WarnObj("geocode lookup failed", "geocode_error", map[string]any{
			"place": place,
			"error": err.Error(),
		})
		return domain.Coordinates{}, false, false
	}
	if resp.StatusCode() != http.StatusOK {
		logger.WarnObj("geocode lookup returned non-200", "geocode_error", map[string]any{
			"place":  place,
			"status": resp.StatusCode(),
		})
		return domain.Coordinates{}, false, false
	}

	coords, err = parseGeocodeResponse(resp.Body())
	if err != nil {
		logger.WarnObj("geocode response unusable", "geocode_error", map[string]any{
			"place": place,
			"error": err.Error(),
		})
		return domain.Coordinates{}, false, true
	}
	return coords, true, true
}

// geocodeResult models the subset of the Nominatim search response we read.
type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func parseGeocodeResponse(body []byte) (domain.Coordinates, error) {
	var results []geocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no match")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(results[0].Lat), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(results[0].Lon), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse longitude: %w", err)
	}

	coords := domain.Coordinates{Lat: lat, Lon: lon}
	if !coords.Valid() {
		return domain.Coordinates{}, fmt.Errorf("coordinates out of domain: (%v, %v)", lat, lon)
	}
	return coords, nil
}

// FromReference computes the great-circle distance in kilometers between the
// reference point and c. ok=false means the distance could not be computed
// (coordinates outside the valid domain) and callers should treat the pair
// as unresolvable.
func (r *Resolver) FromReference(c domain.Coordinates) (float64, bool) {
	return Distance(r.reference, c)
}

// WithinRadius reports whether c lies within maxKm of the reference point.
// known=false means the distance was not computable.
func (r *Resolver) WithinRadius(c domain.Coordinates, maxKm float64) (within, known bool) {
	km, ok := Distance(r.reference, c)
	if !ok {
		return false, false
	}
	return km <= maxKm, true
}

// Distance computes the haversine great-circle distance between two
// coordinate pairs in kilometers.
func Distance(a, b domain.Coordinates) (float64, bool) {
	if !a.Valid() || !b.Valid() {
		return 0, false
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	km := 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
	if math.IsNaN(km) {
		return 0, false
	}
	return km, true
}

func normalizePlace(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}
