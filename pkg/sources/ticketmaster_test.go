package sources

import (
	"context"
	"testing"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
)

// fixedGauge measures haversine distance from Wroclaw.
type fixedGauge struct{}

func (fixedGauge) FromReference(c domain.Coordinates) (float64, bool) {
	if !c.Valid() {
		return 0, false
	}
	// Rough plausibility stub: Berlin ~295 km, Lisbon ~2500 km.
	switch {
	case c.Lat == 52.52:
		return 295, true
	case c.Lat == 38.72:
		return 2500, true
	default:
		return 0, true
	}
}

func tmSource() Source {
	return sanitizeSource(Source{
		ID:   "ticketmaster",
		Name: "Ticketmaster Discovery",
		Type: TypeTicketmaster,
	})
}

const tmPayload = `{
  "_embedded": {
    "events": [
      {
        "name": "Amelie Lens: Exhale",
        "url": "https://www.ticketmaster.pl/event/1",
        "dates": {"start": {"localDate": "2026-11-02"}},
        "_embedded": {"venues": [{
          "city": {"name": "Berlin"},
          "country": {"countryCode": "DE"},
          "location": {"latitude": "52.52", "longitude": "13.405"}
        }]}
      },
      {
        "name": "Amelie Lens: Lisbon",
        "url": "https://www.ticketmaster.pt/event/2",
        "dates": {"start": {"localDate": "2026-11-09"}},
        "_embedded": {"venues": [{
          "city": {"name": "Lisbon"},
          "country": {"countryCode": "PT"},
          "location": {"latitude": "38.72", "longitude": "-9.14"}
        }]}
      },
      {
        "name": "Amelie Lens: Somewhere",
        "url": "https://www.ticketmaster.com/event/3",
        "dates": {"start": {"localDate": "2026-11-16"}}
      }
    ]
  }
}`

func TestTicketmasterAdapterNoAPIKeyIsNoop(t *testing.T) {
	client := &stubClient{}
	adapter := NewTicketmasterAdapter(client, fixedGauge{}, "", nil)

	raws, err := adapter.FetchRaw(context.Background(), tmSource(), "Amelie Lens")
	if err != nil {
		t.Fatalf("FetchRaw returned error: %v", err)
	}
	if len(raws) != 0 {
		t.Fatalf("expected no events without api key, got %d", len(raws))
	}
	if client.lastURL != "" {
		t.Fatal("adapter must not issue requests without an api key")
	}
}

func TestTicketmasterAdapterMapsAndPreFilters(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte(tmPayload), statusCode: 200}}
	adapter := NewTicketmasterAdapter(client, fixedGauge{}, "key-123", nil)

	cfg := tmSource() // max radius 1000 km
	raws, err := adapter.FetchRaw(context.Background(), cfg, "Amelie Lens")
	if err != nil {
		t.Fatalf("FetchRaw returned error: %v", err)
	}

	// Lisbon (2500 km) is pre-filtered out entirely.
	if len(raws) != 2 {
		t.Fatalf("expected 2 events after pre-filter, got %d", len(raws))
	}

	berlin := raws[0]
	if berlin.Title != "Amelie Lens: Exhale" {
		t.Errorf("unexpected title %q", berlin.Title)
	}
	if berlin.Location != "Berlin, DE" {
		t.Errorf("unexpected location %q", berlin.Location)
	}
	if berlin.DateText != "2026-11-02" {
		t.Errorf("unexpected date %q", berlin.DateText)
	}
	if berlin.Coordinates == nil || berlin.Coordinates.Lat != 52.52 {
		t.Errorf("expected venue coordinates, got %#v", berlin.Coordinates)
	}
	if berlin.NeedsGeo {
		t.Error("api payloads must not request geocoding")
	}

	// No venue at all: location defaults, coordinates stay absent.
	noVenue := raws[1]
	if noVenue.Location != "Unknown" {
		t.Errorf("expected Unknown location, got %q", noVenue.Location)
	}
	if noVenue.Coordinates != nil {
		t.Errorf("expected absent coordinates, got %#v", noVenue.Coordinates)
	}
}

func TestTicketmasterAdapterQueryParameters(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte(`{}`), statusCode: 200}}
	adapter := NewTicketmasterAdapter(client, fixedGauge{}, "key-123", nil)

	raws, err := adapter.FetchRaw(context.Background(), tmSource(), "Carl Cox")
	if err != nil {
		t.Fatalf("FetchRaw: %v", err)
	}
	if len(raws) != 0 {
		t.Fatalf("expected empty result when _embedded is absent, got %d", len(raws))
	}

	want := map[string]string{
		"apikey":             "key-123",
		"keyword":            "Carl Cox",
		"size":               "100",
		"countryCode":        "PL,DE,CZ,SK",
		"classificationName": "Music",
		"sort":               "date,asc",
	}
	for k, v := range want {
		if got := client.lastQuery[k]; got != v {
			t.Errorf("query %s = %q, want %q", k, got, v)
		}
	}
	if client.lastURL != defaultTicketmasterSearch {
		t.Errorf("unexpected url %q", client.lastURL)
	}
}

func TestTicketmasterAdapterNon200IsError(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte("quota"), statusCode: 429}}
	adapter := NewTicketmasterAdapter(client, fixedGauge{}, "key-123", nil)

	if _, err := adapter.FetchRaw(context.Background(), tmSource(), "Carl Cox"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
