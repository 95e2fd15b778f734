package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	natsadapter "github.com/calorsos/calorsos/internal/adapters/nats"
	"github.com/calorsos/calorsos/internal/adapters/postgres"
	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/config"
	"github.com/calorsos/calorsos/internal/pkg/logging"
	"github.com/calorsos/calorsos/internal/pkg/metrics"
	"github.com/calorsos/calorsos/internal/pkg/telemetry"
)

// Manifest lists the GeoJSON sources to import.
type Manifest struct {
	Source  string        `json:"source"`
	Sources []SourceEntry `json:"sources"`
}

// SourceEntry is one GeoJSON file or URL holding locations of one kind.
type SourceEntry struct {
	Name string              `json:"name"`
	Kind domain.LocationKind `json:"kind"`
	// URL may be http(s) or a local path.
	URL string `json:"url"`
	// Category applies to cool zones without a "type" property.
	Category string `json:"category,omitempty"`
}

func main() {
	cfg, err := config.Load("calorsos-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 8)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewLocationRepo(db.Pool)

	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	// Optional CLI arg: comma-separated source names
	only := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			only[strings.TrimSpace(s)] = true
		}
	}

	slog.Info("CalorSOS location ingestor", "sources", len(manifest.Sources), "manifest", manifest.Source)

	client := &http.Client{Timeout: 60 * time.Second}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		touched = map[domain.LocationKind]bool{}
	)
	sem := make(chan struct{}, 4) // max 4 concurrent sources

	for _, src := range manifest.Sources {
		if len(only) > 0 && !only[src.Name] {
			continue
		}
		if !src.Kind.Valid() {
			slog.Error("skipping source with unknown kind", "source", src.Name, "kind", src.Kind)
			continue
		}

		wg.Add(1)
		go func(s SourceEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			n, err := ingestSource(ctx, repo, client, s)
			if err != nil {
				slog.Error("ingest failed", "source", s.Name, "error", err)
				return
			}
			if n > 0 {
				mu.Lock()
				touched[s.Kind] = true
				mu.Unlock()
			}
		}(src)
	}
	wg.Wait()

	notifyChanged(ctx, cfg.NATS.URL, touched)
	slog.Info("ingestion complete")
}

func ingestSource(ctx context.Context, repo *postgres.LocationRepo, client *http.Client, src SourceEntry) (n int, err error) {
	ctx, span := telemetry.Start(ctx, telemetry.SpanIngest,
		attribute.String("source", src.Name),
		attribute.String("kind", string(src.Kind)))
	defer func() { telemetry.End(span, err) }()

	raw, err := fetch(ctx, client, src.URL)
	if err != nil {
		return 0, err
	}

	locs, skipped, err := parseLocations(raw, src, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if skipped > 0 {
		slog.Warn("features skipped", "source", src.Name, "count", skipped)
	}

	if err := repo.CreateBatch(ctx, locs); err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	metrics.LocationsImported.WithLabelValues(string(src.Kind)).Add(float64(len(locs)))
	slog.Info("source imported", "source", src.Name, "kind", src.Kind, "locations", len(locs))
	return len(locs), nil
}

func fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return os.ReadFile(url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// notifyChanged tells running API instances to drop their cached lists.
func notifyChanged(ctx context.Context, url string, kinds map[domain.LocationKind]bool) {
	if len(kinds) == 0 {
		return
	}
	pub, err := natsadapter.NewPublisher(url)
	if err != nil {
		slog.Warn("nats unavailable, caches expire on their own", "error", err)
		return
	}
	defer pub.Close()
	for kind := range kinds {
		if err := pub.PublishLocationsChanged(ctx, kind); err != nil {
			slog.Warn("publish locations changed", "kind", kind, "error", err)
		}
	}
}
