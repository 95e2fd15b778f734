// Command preview renders the home page map headlessly and prints the
// resulting scene as GeoJSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/facebookgo/clock"
	"github.com/paulmach/orb/geojson"

	"github.com/calorsos/calorsos/internal/adapters/calorapi"
	"github.com/calorsos/calorsos/internal/adapters/postgres"
	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/usecases"
	"github.com/calorsos/calorsos/internal/mapview"
	"github.com/calorsos/calorsos/internal/pkg/config"
	"github.com/calorsos/calorsos/internal/pkg/logging"
	"github.com/calorsos/calorsos/internal/ui/home"
)

func main() {
	var (
		apiURL = flag.String("api", "", "CalorSOS API base URL; empty reads the database directly")
		token  = flag.String("token", "", "bearer token for -api")
		lat    = flag.Float64("lat", 0, "user latitude; 0 leaves the user unlocated")
		lon    = flag.Float64("lon", 0, "user longitude")
		target = flag.String("nearest", "", "route to the nearest zone or point")
		mini   = flag.Bool("mini", false, "render the embedded mini map")
		width  = flag.Int("width", 1024, "viewport width in pixels")
		height = flag.Int("height", 768, "viewport height in pixels")
		out    = flag.String("o", "-", "output file")
	)
	flag.Parse()

	cfg, err := config.Load("calorsos-preview")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var catalog home.Catalog
	if *apiURL != "" {
		catalog = calorapi.NewClient(*apiURL, 10*time.Second, calorapi.WithToken(*token))
	} else {
		db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		catalog = usecases.NewLocationService(postgres.NewLocationRepo(db.Pool), nil, nil)
	}

	var locator mapview.Geolocator
	if *lat != 0 || *lon != 0 {
		locator = mapview.FixedLocator{Point: domain.GeoPoint{Lat: *lat, Lon: *lon}}
	}

	fc, err := render(ctx, catalog, locator, options{
		width: *width, height: *height, mini: *mini, nearest: *target, logger: logger,
	})
	if err != nil {
		log.Fatalf("preview: %v", err)
	}

	var w io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		log.Fatalf("write: %v", err)
	}
}

type options struct {
	width, height int
	mini          bool
	nearest       string
	logger        *slog.Logger
}

// render drives a page and controller over an in-memory scene. Timers run on
// a mock clock that is advanced past every pending delay before export.
func render(ctx context.Context, catalog home.Catalog, locator mapview.Geolocator, opts options) (*geojson.FeatureCollection, error) {
	scene := mapview.NewScene(opts.width, opts.height)
	clk := clock.NewMock()

	ctrl, err := mapview.New(scene, mapview.Config{
		Clock:      clk,
		Geolocator: locator,
		Logger:     opts.logger,
	})
	if err != nil {
		return nil, err
	}
	defer ctrl.Close()

	page := home.New(catalog, locator, ctrl, opts.logger)
	page.SetMini(opts.mini)
	if err := page.Load(ctx); err != nil {
		opts.logger.Warn("catalog partially loaded", "error", err)
	}
	if locator != nil {
		if err := page.Locate(ctx); err != nil {
			opts.logger.Warn("user not located", "error", err)
		}
	}

	var preview *domain.RoutePreview
	switch opts.nearest {
	case "":
	case "zone":
		preview, err = page.GoToNearestZone()
	case "point":
		preview, err = page.GoToNearestPoint()
	default:
		return nil, fmt.Errorf("unknown -nearest %q, want zone or point", opts.nearest)
	}
	if err != nil {
		return nil, err
	}
	if preview != nil {
		opts.logger.Info("route preview",
			"target", preview.Target.Name,
			"distance", preview.Target.DistanceLabel,
			"walking_time", preview.WalkingTime)
	}

	clk.Add(5 * time.Second)
	if n := page.Notice(); n != "" {
		opts.logger.Info("notice", "message", n)
	}
	return scene.FeatureCollection(), nil
}
