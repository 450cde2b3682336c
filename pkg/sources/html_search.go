package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// Structural heuristics for locating event data in arbitrary search-result
// markup. Fragile against redesigns on purpose: extraction is best-effort
// and every field has a fallback.
var (
	candidateClassPattern = regexp.MustCompile(`(?i)event|item|card`)
	titleClassPattern     = regexp.MustCompile(`(?i)title|name|heading`)
	dateClassPattern      = regexp.MustCompile(`(?i)date|time`)
	locationClassPattern  = regexp.MustCompile(`(?i)location|venue|city`)
)

// htmlSearchAdapter scrapes a site's search-result page for event candidates.
type htmlSearchAdapter struct {
	client HTTPClient
	log    Logger
}

// NewHTMLSearchAdapter builds the adapter for html_search sources.
func NewHTMLSearchAdapter(client HTTPClient, log Logger) Adapter {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &htmlSearchAdapter{client: client, log: ensureLogger(log)}
}

func (a *htmlSearchAdapter) ID() string { return TypeHTMLSearch }

// FetchRaw fetches the search page for one artist and extracts up to
// defaultMaxCandidates raw event payloads. Fetch and parse failures are
// returned for the caller to count; they are never fatal to a run.
func (a *htmlSearchAdapter) FetchRaw(ctx context.Context, cfg Source, artist string) ([]RawEvent, error) {
	if !strings.EqualFold(cfg.Type, TypeHTMLSearch) {
		return nil, fmt.Errorf("html search adapter received incompatible source type %q", cfg.Type)
	}
	if strings.TrimSpace(cfg.SearchURL) == "" {
		return nil, fmt.Errorf("source %q search_url is empty", cfg.ID)
	}

	searchURL := buildSearchURL(cfg.SearchURL, artist)

	resp, err := a.client.Get(ctx, searchURL, nil, Headers(cfg))
	if err != nil {
		return nil, fmt.Errorf("fetch %s search page: %w", cfg.ID, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s search returned status %d body: %s", cfg.ID, resp.StatusCode(), responseSnippet(resp.Body()))
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	raws, err := parseSearchResults(body, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s search page: %w", cfg.ID, err)
	}

	a.log.DebugObj("search page scraped", "scrape_result", map[string]any{
		"source_id":  cfg.ID,
		"artist":     artist,
		"candidates": len(raws),
	})
	return raws, nil
}

// buildSearchURL substitutes the artist into the search template, with
// spaces folded to the URL-safe + separator.
func buildSearchURL(template, artist string) string {
	term := strings.ReplaceAll(strings.TrimSpace(artist), " ", "+")
	return strings.ReplaceAll(template, queryPlaceholder, term)
}

// parseSearchResults extracts candidate events from the page. Candidates are
// div/article elements whose class matches the event/item/card pattern,
// capped to bound load on the remote site.
func parseSearchResults(body []byte, cfg Source) ([]RawEvent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	raws := make([]RawEvent, 0, defaultMaxCandidates)
	doc.Find("div, article").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, ok := sel.Attr("class")
		if !ok || !candidateClassPattern.MatchString(class) {
			return true
		}
		raws = append(raws, extractCandidate(sel, cfg))
		return len(raws) < defaultMaxCandidates
	})

	return raws, nil
}

// extractCandidate pulls (title, date, location, link) out of one candidate
// element. Missing sub-elements stay empty; the normalizer applies defaults.
func extractCandidate(sel *goquery.Selection, cfg Source) RawEvent {
	raw := RawEvent{NeedsGeo: true}

	raw.Title = textByClass(sel, "h1, h2, h3, h4", titleClassPattern)
	raw.DateText = textByClass(sel, "time, span, div", dateClassPattern)
	raw.Location = textByClass(sel, "span, div", locationClassPattern)

	if href, ok := sel.Find("a[href]").First().Attr("href"); ok {
		raw.TicketLink = resolveTicketLink(href, cfg.Domain)
	}

	return raw
}

// textByClass returns the trimmed text of the first matching tag whose class
// attribute matches the pattern, or "".
func textByClass(sel *goquery.Selection, tags string, pattern *regexp.Regexp) string {
	var out string
	sel.Find(tags).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		class, ok := node.Attr("class")
		if !ok || !pattern.MatchString(class) {
			return true
		}
		out = strings.TrimSpace(node.Text())
		return false
	})
	return out
}

// resolveTicketLink absolutizes site-relative hrefs against the source domain.
func resolveTicketLink(href, domain string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/") && domain != "" {
		return domain + href
	}
	return href
}
