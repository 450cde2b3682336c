package sources

import (
	"context"
	"strings"
	"testing"

	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/httpclient"
)

// stubResponse implements httpclient.Response.
type stubResponse struct {
	body       []byte
	statusCode int
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.statusCode }

// stubClient records the last request and returns a canned response.
type stubClient struct {
	lastURL     string
	lastQuery   map[string]string
	lastHeaders map[string]string
	resp        stubResponse
	err         error
}

func (s *stubClient) Get(_ context.Context, url string, query, headers map[string]string) (httpclient.Response, error) {
	s.lastURL = url
	s.lastQuery = query
	s.lastHeaders = headers
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func (s *stubClient) Close() {}

func htmlSource() Source {
	return sanitizeSource(Source{
		ID:        "eventim.pl",
		Name:      "Eventim Poland",
		Type:      TypeHTMLSearch,
		SearchURL: "https://www.eventim.pl/search/?term={query}",
		Domain:    "https://www.eventim.pl",
	})
}

const searchPage = `<html><body>
<div class="event-listing">
  <h3 class="event-title">Amelie Lens - Exhale Tour</h3>
  <span class="event-date">2026-10-12</span>
  <span class="event-location">Berlin</span>
  <a href="/tickets/12345">Buy</a>
</div>
<article class="result-card">
  <a href="https://tickets.example.com/67890">Buy</a>
</article>
<div class="navigation">
  <span>unrelated</span>
</div>
</body></html>`

func TestHTMLSearchAdapterExtractsCandidates(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte(searchPage), statusCode: 200}}
	adapter := NewHTMLSearchAdapter(client, nil)

	raws, err := adapter.FetchRaw(context.Background(), htmlSource(), "Amelie Lens")
	if err != nil {
		t.Fatalf("FetchRaw returned error: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(raws))
	}

	first := raws[0]
	if first.Title != "Amelie Lens - Exhale Tour" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.DateText != "2026-10-12" {
		t.Errorf("unexpected date %q", first.DateText)
	}
	if first.Location != "Berlin" {
		t.Errorf("unexpected location %q", first.Location)
	}
	if first.TicketLink != "https://www.eventim.pl/tickets/12345" {
		t.Errorf("relative link not resolved: %q", first.TicketLink)
	}
	if !first.NeedsGeo {
		t.Error("html candidates must request geocoding")
	}

	// Second candidate has no title/date/location elements; fields stay
	// empty for the normalizer to default.
	second := raws[1]
	if second.Title != "" || second.DateText != "" || second.Location != "" {
		t.Errorf("expected empty fields, got %#v", second)
	}
	if second.TicketLink != "https://tickets.example.com/67890" {
		t.Errorf("absolute link mangled: %q", second.TicketLink)
	}
}

func TestHTMLSearchAdapterBuildsSearchURL(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte("<html></html>"), statusCode: 200}}
	adapter := NewHTMLSearchAdapter(client, nil)

	if _, err := adapter.FetchRaw(context.Background(), htmlSource(), "Amelie Lens"); err != nil {
		t.Fatalf("FetchRaw: %v", err)
	}
	if client.lastURL != "https://www.eventim.pl/search/?term=Amelie+Lens" {
		t.Fatalf("unexpected search url %q", client.lastURL)
	}
	if ua := client.lastHeaders["User-Agent"]; !strings.Contains(ua, "Mozilla") {
		t.Fatalf("expected browser-like user agent, got %q", ua)
	}
}

func TestHTMLSearchAdapterCapsCandidates(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 10; i++ {
		b.WriteString(`<div class="event-item"><span class="location">Berlin</span></div>`)
	}
	b.WriteString("</body></html>")

	client := &stubClient{resp: stubResponse{body: []byte(b.String()), statusCode: 200}}
	adapter := NewHTMLSearchAdapter(client, nil)

	raws, err := adapter.FetchRaw(context.Background(), htmlSource(), "Carl Cox")
	if err != nil {
		t.Fatalf("FetchRaw: %v", err)
	}
	if len(raws) != defaultMaxCandidates {
		t.Fatalf("expected cap at %d candidates, got %d", defaultMaxCandidates, len(raws))
	}
}

func TestHTMLSearchAdapterNon200IsError(t *testing.T) {
	client := &stubClient{resp: stubResponse{body: []byte("blocked"), statusCode: 403}}
	adapter := NewHTMLSearchAdapter(client, nil)

	if _, err := adapter.FetchRaw(context.Background(), htmlSource(), "Carl Cox"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestHTMLSearchAdapterRejectsIncompatibleSource(t *testing.T) {
	adapter := NewHTMLSearchAdapter(&stubClient{}, nil)

	_, err := adapter.FetchRaw(context.Background(), Source{ID: "tm", Type: TypeTicketmaster}, "Carl Cox")
	if err == nil {
		t.Fatal("expected error for mismatched source type")
	}
}

func TestResolveTicketLink(t *testing.T) {
	if got := resolveTicketLink("/a/b", "https://example.com"); got != "https://example.com/a/b" {
		t.Fatalf("resolveTicketLink got %q", got)
	}
	if got := resolveTicketLink("https://other.com/x", "https://example.com"); got != "https://other.com/x" {
		t.Fatalf("absolute link changed: %q", got)
	}
	if got := resolveTicketLink("", "https://example.com"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
