package domain

import "time"

// Domain contains the canonical models shared across the pipeline.

// Coordinates is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the pair lies inside the coordinate domain.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Event is the canonical record every source adapter is normalized into.
// Instances are created once at normalization time and never mutated.
type Event struct {
	Title       string       `json:"title"`
	Artist      string       `json:"artist"`
	DateText    string       `json:"date_text"`
	Location    string       `json:"location"`
	Source      string       `json:"source"`
	TicketLink  string       `json:"ticket_link"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	ScrapedAt   time.Time    `json:"scraped_at"`
}

// QueryFilter narrows stored events. Artist and Location are matched as
// case-insensitive substrings; empty values match everything.
type QueryFilter struct {
	Artist   string
	Location string
	Limit    int
}

// Stats summarizes the stored event set.
type Stats struct {
	TotalEvents      int `json:"total_events"`
	UniqueArtists    int `json:"unique_artists"`
	UniqueLocations  int `json:"unique_locations"`
	MonitoredArtists int `json:"monitored_artists"`
}
