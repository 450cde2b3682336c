package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Package sources contains pluggable event source configs (YAML/JSON) and
// the adapters that fetch raw event payloads from them.

const (
	// Supported source types.
	TypeHTMLSearch   = "html_search"
	TypeTicketmaster = "ticketmaster"

	defaultRequestDelayMs     = 1000
	defaultHTMLRadiusKm       = 700
	defaultAPIRadiusKm        = 1000
	defaultMaxCandidates      = 5
	queryPlaceholder          = "{query}"
	defaultTicketmasterSearch = "https://app.ticketmaster.com/discovery/v2/events"
)

// Source describes one external event source.
type Source struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	// SearchURL is the search endpoint. For html_search sources it is a
	// template containing {query}, substituted with the +-separated artist name.
	SearchURL string `json:"search_url" yaml:"search_url"`
	// Domain prefixes ticket links that start with "/".
	Domain         string         `json:"domain" yaml:"domain"`
	MaxRadiusKm    float64        `json:"max_radius_km" yaml:"max_radius_km"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	Config         map[string]any `json:"config" yaml:"config"`
}

// RequestDelay returns the pacing interval between artist requests for this source.
func (s Source) RequestDelay() time.Duration {
	if s.RequestDelayMs <= 0 {
		return defaultRequestDelayMs * time.Millisecond
	}
	return time.Duration(s.RequestDelayMs) * time.Millisecond
}

// registryFile is the on-disk shape of the sources file.
type registryFile struct {
	Artists []string `json:"artists" yaml:"artists"`
	Sources []Source `json:"sources" yaml:"sources"`
}

// Registry holds the monitored artist list and source definitions loaded
// from a config file.
type Registry struct {
	artists []string
	sources []Source
	idx     map[string]Source
}

// LoadRegistry loads the artist list and source registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	return ParseRegistry(raw, filepath.Ext(path))
}

// ParseRegistry decodes a registry document from raw YAML or JSON bytes.
func ParseRegistry(raw []byte, ext string) (*Registry, error) {
	reg, err := parseRegistryFile(raw, ext)
	if err != nil {
		return nil, err
	}

	artists := make([]string, 0, len(reg.Artists))
	for _, a := range reg.Artists {
		if trimmed := strings.TrimSpace(a); trimmed != "" {
			artists = append(artists, trimmed)
		}
	}
	if len(artists) == 0 {
		return nil, errors.New("sources file contains no artists entries")
	}
	if len(reg.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	idx := make(map[string]Source, len(reg.Sources))
	for i := range reg.Sources {
		s := sanitizeSource(reg.Sources[i])
		if err := validateSource(s); err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}
		if _, exists := idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		reg.Sources[i] = s
		idx[s.ID] = s
	}

	return &Registry{artists: artists, sources: reg.Sources, idx: idx}, nil
}

func parseRegistryFile(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registryFile
		if err := d.fn(data, &reg); err != nil {
			return registryFile{}, fmt.Errorf("decode %s sources: %w", d.name, err)
		}
		return reg, nil
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func sanitizeSource(s Source) Source {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	s.SearchURL = strings.TrimSpace(s.SearchURL)
	s.Domain = strings.TrimSuffix(strings.TrimSpace(s.Domain), "/")

	if s.Config == nil {
		s.Config = map[string]any{}
	}
	if s.RequestDelayMs <= 0 {
		s.RequestDelayMs = defaultRequestDelayMs
	}
	if s.MaxRadiusKm <= 0 {
		switch s.Type {
		case TypeTicketmaster:
			s.MaxRadiusKm = defaultAPIRadiusKm
		default:
			s.MaxRadiusKm = defaultHTMLRadiusKm
		}
	}
	if s.Type == TypeTicketmaster && s.SearchURL == "" {
		s.SearchURL = defaultTicketmasterSearch
	}

	return s
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("name is required for source %q", s.ID)
	}
	switch s.Type {
	case TypeHTMLSearch:
		if s.SearchURL == "" {
			return fmt.Errorf("search_url is required for source %q", s.ID)
		}
		if !strings.Contains(s.SearchURL, queryPlaceholder) {
			return fmt.Errorf("search_url for source %q must contain %s", s.ID, queryPlaceholder)
		}
		if s.Domain == "" {
			return fmt.Errorf("domain is required for source %q", s.ID)
		}
	case TypeTicketmaster:
		// search_url defaulted during sanitize
	case "":
		return fmt.Errorf("type is required for source %q", s.ID)
	default:
		return fmt.Errorf("unsupported type %q for source %q", s.Type, s.ID)
	}
	return nil
}

// Artists returns a copy of the monitored artist list, in declaration order.
func (r *Registry) Artists() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.artists))
	copy(out, r.artists)
	return out
}

// All returns a copy of the loaded source definitions.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// ByID returns the source entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Source, bool) {
	if r == nil || r.idx == nil {
		return Source{}, false
	}
	s, ok := r.idx[strings.TrimSpace(id)]
	return s, ok
}
