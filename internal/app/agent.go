package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/config"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/geo"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/logger"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/pipeline"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/storage"
	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/httpclient"
	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/notify"
	"github.com/ravewatch-hq/ravewatch-event-agent/pkg/sources"
)

// Agent is the event-agent runtime. It wires the source registry, geo
// resolver, pipeline, storage, and notifier fanout, and runs aggregation
// passes on a fixed interval.
type Agent struct {
	cfg      *config.Config
	registry *sources.Registry
	svc      *pipeline.Service
	store    storage.Store
	fanout   *notify.Fanout
	interval time.Duration
	log      logger.Logger
}

// NewAgent builds the agent runtime from config files.
func NewAgent(ctx context.Context, cfg *config.Config, log logger.Logger) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	registry, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	sourceList := registry.All()
	sourceIDs := make([]string, 0, len(sourceList))
	for _, s := range sourceList {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"artists_count": len(registry.Artists()),
		"sources_count": len(sourceIDs),
		"ids":           sourceIDs,
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		Retention: cfg.StorageRetention,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":              cfg.StorageType,
		"path":              cfg.BBoltPath,
		"retention_seconds": int(cfg.StorageRetention.Seconds()),
	})

	client := httpclient.NewRestyClient(cfg.RequestTimeout)
	resolver := geo.NewResolver(client, cfg.GeocodeURL, cfg.GeocodeUserAgent, domain.Coordinates{
		Lat: cfg.HomeLat,
		Lon: cfg.HomeLon,
	})
	adapterReg := sources.DefaultAdapterRegistry(client, resolver, cfg.TicketmasterAPIKey, log)
	svc := pipeline.NewService(adapterReg, pipeline.NewNormalizer(resolver), client, cfg.SourceBudget)

	return &Agent{
		cfg:      cfg,
		registry: registry,
		svc:      svc,
		store:    store,
		fanout:   fanout,
		interval: cfg.ScrapeInterval,
		log:      log,
	}, nil
}

// buildFanout wires the configured notifiers, falling back to the log sink
// when no notifiers file is configured.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*notify.Fanout, error) {
	if cfg.NotifiersFile == "" {
		return notify.NewFanout([]notify.Notifier{notify.NewLogNotifier("default-log", log)}), nil
	}

	notifierReg, err := notify.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}

	enabled := notifierReg.Enabled()
	clients, err := notify.BuildAll(ctx, notify.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, n := range enabled {
		summaries = append(summaries, map[string]string{"id": n.ID, "type": n.Type})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})

	return notify.NewFanout(clients), nil
}

// Run executes an initial aggregation pass and then repeats on the scrape
// interval until the context is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	if a == nil || a.svc == nil {
		return fmt.Errorf("agent is not initialized")
	}
	defer a.closeStore()
	defer a.svc.Close()

	a.log.InfoObj("agent loop starting", "agent_state", map[string]any{
		"artists_count":   len(a.registry.Artists()),
		"sources_count":   len(a.registry.All()),
		"notifiers_count": a.fanout.Size(),
		"scrape_interval": a.interval.String(),
	})

	if err := a.runOnce(ctx); err != nil {
		a.log.ErrorObj("initial aggregation failed", "error", err.Error())
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.InfoObj("agent loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := a.runOnce(ctx); err != nil {
				a.log.ErrorObj("scheduled aggregation failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs one full aggregation pass: pipeline run, retention purge,
// upsert, and a notice for every newly discovered event.
func (a *Agent) runOnce(ctx context.Context) error {
	start := time.Now()
	artists := a.registry.Artists()
	srcs := a.registry.All()

	agg, err := a.svc.Run(ctx, artists, srcs)
	if err != nil {
		return err
	}

	purged, err := a.store.PurgeOlderThan(a.cfg.StorageRetention)
	if err != nil {
		a.log.WarnObj("retention purge failed", "error", err.Error())
	}

	fresh, err := a.store.UpsertEvents(agg.Events)
	if err != nil {
		return fmt.Errorf("persist events: %w", err)
	}

	notified := 0
	for _, evt := range fresh {
		name := evt.Source
		if src, ok := a.registry.ByID(evt.Source); ok {
			name = src.Name
		}
		if _, err := a.fanout.Send(ctx, notify.NewNotice(evt.Source, name, evt)); err != nil {
			a.log.WarnObj("notice fanout incomplete", "notify_error", map[string]any{
				"source_id": evt.Source,
				"artist":    evt.Artist,
				"error":     err.Error(),
			})
		} else {
			notified++
		}
	}

	if stats, err := a.store.Stats(); err == nil {
		stats.MonitoredArtists = len(artists)
		a.log.InfoObj("store snapshot", "store_stats", stats)
	}

	a.log.InfoObj("aggregation completed", "run_summary", map[string]any{
		"events_total": len(agg.Events),
		"events_new":   len(fresh),
		"notified":     notified,
		"purged":       purged,
		"counts":       agg.Counts,
		"errors":       agg.Errors,
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return nil
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (a *Agent) closeStore() {
	if a == nil || a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
