package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/logger"
	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/httpclient"
	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/sources"
)

const defaultSourceBudget = 2 * time.Minute

// Aggregate is the outcome of one pipeline run: every surviving event plus
// per-source diagnostics. Events from different sources carry no ordering
// guarantee; within one source they follow artist declaration order.
type Aggregate struct {
	Events []domain.Event
	// Counts holds surviving events per source id.
	Counts map[string]int
	// Errors holds fetch/adapter failure counts per source id.
	Errors map[string]int
}

// TotalErrors sums failure counts across sources.
func (a *Aggregate) TotalErrors() int {
	total := 0
	for _, n := range a.Errors {
		total += n
	}
	return total
}

// Service orchestrates one aggregation pass: each configured source runs in
// its own goroutine under a per-source timeout budget, feeding raw payloads
// through the normalizer. One source's failure never aborts the others.
// The service owns the shared HTTP client and releases it on Close.
type Service struct {
	registry sources.AdapterRegistry
	norm     *Normalizer
	client   httpclient.Client
	budget   time.Duration
}

// NewService wires the pipeline with an adapter registry, normalizer, and
// the HTTP client the adapters were built around.
func NewService(reg sources.AdapterRegistry, norm *Normalizer, client httpclient.Client, budget time.Duration) *Service {
	if budget <= 0 {
		budget = defaultSourceBudget
	}
	return &Service{registry: reg, norm: norm, client: client, budget: budget}
}

// Run executes one aggregation pass over all configured sources. Only a
// setup failure is fatal; adapter failures are isolated and reported in the
// aggregate. Cancellation of ctx discards partial results.
func (s *Service) Run(ctx context.Context, artists []string, cfgs []sources.Source) (*Aggregate, error) {
	if s == nil || s.registry == nil || s.norm == nil {
		return nil, fmt.Errorf("pipeline service is not initialized")
	}
	if len(artists) == 0 {
		return nil, fmt.Errorf("no artists configured")
	}
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no sources configured")
	}

	agg := &Aggregate{
		Counts: make(map[string]int, len(cfgs)),
		Errors: make(map[string]int, len(cfgs)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, cfg := range cfgs {
		wg.Add(1)
		go func(cfg sources.Source) {
			defer wg.Done()
			events, errCount := s.runSource(ctx, cfg, artists)

			mu.Lock()
			agg.Events = append(agg.Events, events...)
			agg.Counts[cfg.ID] = len(events)
			agg.Errors[cfg.ID] = errCount
			mu.Unlock()
		}(cfg)
	}
	wg.Wait()

	// A cancelled run persists nothing; partial results are discarded.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return agg, nil
}

// runSource walks the artist list for one source under its timeout budget,
// pacing requests and normalizing every payload. Per-artist failures are
// logged and counted, never propagated.
func (s *Service) runSource(parent context.Context, cfg sources.Source, artists []string) ([]domain.Event, int) {
	ctx, cancel := context.WithTimeout(parent, s.budget)
	defer cancel()

	adapter, err := s.registry.AdapterFor(cfg)
	if err != nil {
		logger.ErrorObj("source adapter unavailable", "source_error", map[string]any{
			"source_id": cfg.ID,
			"error":     err.Error(),
		})
		return nil, 1
	}

	gate := newIntervalGate(cfg.RequestDelay())
	var out []domain.Event
	errCount := 0

	for _, artist := range artists {
		if err := gate.Wait(ctx); err != nil {
			logger.WarnObj("source run cut short", "source_state", map[string]any{
				"source_id": cfg.ID,
				"reason":    err.Error(),
			})
			return out, errCount
		}

		raws, err := adapter.FetchRaw(ctx, cfg, artist)
		if err != nil {
			errCount++
			logger.WarnObj("artist fetch failed", "fetch_error", map[string]any{
				"source_id": cfg.ID,
				"artist":    artist,
				"error":     err.Error(),
			})
			continue
		}

		for _, raw := range raws {
			if evt, ok := s.norm.Normalize(ctx, raw, artist, cfg); ok {
				out = append(out, evt)
			}
		}
	}

	return out, errCount
}

// Close releases the shared HTTP client's pooled connections.
func (s *Service) Close() {
	if s == nil || s.client == nil {
		return
	}
	s.client.Close()
}
