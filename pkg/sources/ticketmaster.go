package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
)

const defaultCountryCodes = "PL,DE,CZ,SK"

// ticketmasterAdapter queries the Ticketmaster Discovery API. Without an API
// key it degrades to a no-op rather than an error, so the rest of the run is
// unaffected by the missing credential.
type ticketmasterAdapter struct {
	client HTTPClient
	gauge  DistanceGauge
	apiKey string
	log    Logger
}

// NewTicketmasterAdapter builds the adapter for ticketmaster sources.
func NewTicketmasterAdapter(client HTTPClient, gauge DistanceGauge, apiKey string, log Logger) Adapter {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &ticketmasterAdapter{
		client: client,
		gauge:  gauge,
		apiKey: strings.TrimSpace(apiKey),
		log:    ensureLogger(log),
	}
}

func (a *ticketmasterAdapter) ID() string { return TypeTicketmaster }

// FetchRaw queries the discovery API for one artist. Events whose venue
// coordinates resolve beyond the source's radius are dropped here; events
// without coordinates pass through with location data only.
func (a *ticketmasterAdapter) FetchRaw(ctx context.Context, cfg Source, artist string) ([]RawEvent, error) {
	if !strings.EqualFold(cfg.Type, TypeTicketmaster) {
		return nil, fmt.Errorf("ticketmaster adapter received incompatible source type %q", cfg.Type)
	}
	if a.apiKey == "" {
		a.log.DebugObj("ticketmaster adapter disabled (no api key)", "source_id", cfg.ID)
		return nil, nil
	}

	query := map[string]string{
		"apikey":             a.apiKey,
		"keyword":            artist,
		"size":               "100",
		"countryCode":        ConfigString(cfg, ConfigCountryCodesKey, defaultCountryCodes),
		"classificationName": "Music",
		"sort":               "date,asc",
	}

	resp, err := a.client.Get(ctx, cfg.SearchURL, query, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s events: %w", cfg.ID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s api returned status %d body: %s", cfg.ID, resp.StatusCode(), responseSnippet(resp.Body()))
	}

	var payload tmResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", cfg.ID, err)
	}

	return a.mapEvents(payload, cfg), nil
}

// mapEvents shapes API events into raw payloads, applying the coordinate
// pre-filter where venue coordinates are known.
func (a *ticketmasterAdapter) mapEvents(payload tmResponse, cfg Source) []RawEvent {
	if payload.Embedded == nil {
		return nil
	}

	raws := make([]RawEvent, 0, len(payload.Embedded.Events))
	for _, evt := range payload.Embedded.Events {
		raw := RawEvent{
			Title:      strings.TrimSpace(evt.Name),
			TicketLink: strings.TrimSpace(evt.URL),
			DateText:   strings.TrimSpace(evt.Dates.Start.LocalDate),
			Location:   "Unknown",
		}

		venue, ok := evt.firstVenue()
		if ok {
			city := strings.TrimSpace(venue.City.Name)
			cc := strings.TrimSpace(venue.Country.CountryCode)
			if city != "" || cc != "" {
				raw.Location = fmt.Sprintf("%s, %s", city, cc)
			}

			if coords, ok := venue.coordinates(); ok {
				if a.gauge != nil {
					if km, known := a.gauge.FromReference(coords); known {
						if km > cfg.MaxRadiusKm {
							a.log.DebugObj("venue beyond radius, skipping", "prefilter", map[string]any{
								"source_id":   cfg.ID,
								"location":    raw.Location,
								"distance_km": km,
							})
							continue
						}
						raw.Coordinates = &coords
					}
				}
			}
		}

		raws = append(raws, raw)
	}
	return raws
}

// tmResponse models the subset of the discovery API response we read.
type tmResponse struct {
	Embedded *tmEmbedded `json:"_embedded"`
}

type tmEmbedded struct {
	Events []tmEvent `json:"events"`
}

type tmEvent struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Dates struct {
		Start struct {
			LocalDate string `json:"localDate"`
		} `json:"start"`
	} `json:"dates"`
	Embedded *struct {
		Venues []tmVenue `json:"venues"`
	} `json:"_embedded"`
}

type tmVenue struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	Country struct {
		CountryCode string `json:"countryCode"`
	} `json:"country"`
	Location *struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"location"`
}

func (e tmEvent) firstVenue() (tmVenue, bool) {
	if e.Embedded == nil || len(e.Embedded.Venues) == 0 {
		return tmVenue{}, false
	}
	return e.Embedded.Venues[0], true
}

func (v tmVenue) coordinates() (domain.Coordinates, bool) {
	if v.Location == nil {
		return domain.Coordinates{}, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(v.Location.Latitude), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(v.Location.Longitude), 64)
	if errLat != nil || errLon != nil || (lat == 0 && lon == 0) {
		return domain.Coordinates{}, false
	}
	coords := domain.Coordinates{Lat: lat, Lon: lon}
	if !coords.Valid() {
		return domain.Coordinates{}, false
	}
	return coords, true
}
