package mapview

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/facebookgo/clock"
)

// ViscosityNone selects bounds that do not resist panning.
const ViscosityNone = -1.0

// Config is the fixed setup of a controller. Zero fields take the values of
// DefaultConfig.
type Config struct {
	Center        domain.GeoPoint
	Zoom          int
	SelectionZoom int
	MinZoom       int
	MaxZoom       int

	MaxBounds domain.Bounds
	// MaxBoundsViscosity is how strongly panning past MaxBounds is resisted,
	// from 0 (not at all) to 1 (solid edge). Zero takes the default; use
	// ViscosityNone for bounds that do not resist.
	MaxBoundsViscosity float64

	RouteFit FitOptions
	ResetFit FitOptions

	// ResizeDelay is how long after mount the surface is asked to measure
	// itself. Size-dependent operations wait for it.
	ResizeDelay time.Duration
	// PopupDelay defers opening the highlighted marker's popup.
	PopupDelay time.Duration

	WatchOptions PositionOptions

	Clock      clock.Clock
	Geolocator Geolocator
	ResetBus   *ResetBus
	Logger     *slog.Logger

	OnMarkerActivated func(Activation)
	OnExpand          func()
	OnLocationError   func(error)
}

// DefaultConfig returns the setup for the Cartagena service area.
func DefaultConfig() Config {
	return Config{
		Center:        domain.GeoPoint{Lat: 10.391, Lon: -75.479},
		Zoom:          13,
		SelectionZoom: 16,
		MinZoom:       12,
		MaxZoom:       18,
		MaxBounds: domain.Bounds{
			MinLat: 10.30, MinLon: -75.60,
			MaxLat: 10.50, MaxLon: -75.35,
		},
		MaxBoundsViscosity: 0.8,
		RouteFit:           FitOptions{Padding: [2]int{80, 80}, MaxZoom: 15, Animate: true},
		ResetFit:           FitOptions{Padding: [2]int{50, 50}, MaxZoom: 14, Animate: true},
		ResizeDelay:        200 * time.Millisecond,
		PopupDelay:         500 * time.Millisecond,
		WatchOptions:       DefaultPositionOptions(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Center == (domain.GeoPoint{}) {
		c.Center = d.Center
	}
	if c.Zoom == 0 {
		c.Zoom = d.Zoom
	}
	if c.SelectionZoom == 0 {
		c.SelectionZoom = d.SelectionZoom
	}
	if c.MinZoom == 0 {
		c.MinZoom = d.MinZoom
	}
	if c.MaxZoom == 0 {
		c.MaxZoom = d.MaxZoom
	}
	if c.MaxBounds == (domain.Bounds{}) {
		c.MaxBounds = d.MaxBounds
	}
	switch c.MaxBoundsViscosity {
	case 0:
		c.MaxBoundsViscosity = d.MaxBoundsViscosity
	case ViscosityNone:
		c.MaxBoundsViscosity = 0
	}
	if c.RouteFit == (FitOptions{}) {
		c.RouteFit = d.RouteFit
	}
	if c.ResetFit == (FitOptions{}) {
		c.ResetFit = d.ResetFit
	}
	if c.ResizeDelay == 0 {
		c.ResizeDelay = d.ResizeDelay
	}
	if c.PopupDelay == 0 {
		c.PopupDelay = d.PopupDelay
	}
	if c.WatchOptions == (PositionOptions{}) {
		c.WatchOptions = d.WatchOptions
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Validate checks that the configuration is coherent.
func (c Config) Validate() error {
	var errs []string

	if c.MinZoom < 0 || c.MinZoom > c.MaxZoom {
		errs = append(errs, fmt.Sprintf("zoom range %d-%d is empty", c.MinZoom, c.MaxZoom))
	}
	for name, z := range map[string]int{
		"zoom":           c.Zoom,
		"selection_zoom": c.SelectionZoom,
		"route_fit.max":  c.RouteFit.MaxZoom,
		"reset_fit.max":  c.ResetFit.MaxZoom,
	} {
		if z < c.MinZoom || z > c.MaxZoom {
			errs = append(errs, fmt.Sprintf("%s %d outside zoom range %d-%d", name, z, c.MinZoom, c.MaxZoom))
		}
	}
	b := c.MaxBounds
	if b.MinLat >= b.MaxLat || b.MinLon >= b.MaxLon {
		errs = append(errs, "max_bounds must have positive extent")
	} else if !b.Contains(c.Center) {
		errs = append(errs, "center must lie inside max_bounds")
	}
	if !c.Center.Valid() {
		errs = append(errs, "center coordinates out of range")
	}
	if c.MaxBoundsViscosity < 0 || c.MaxBoundsViscosity > 1 {
		errs = append(errs, "max_bounds_viscosity must be within 0-1")
	}
	for name, p := range map[string][2]int{"route_fit": c.RouteFit.Padding, "reset_fit": c.ResetFit.Padding} {
		if p[0] < 0 || p[1] < 0 {
			errs = append(errs, name+" padding must not be negative")
		}
	}
	if c.ResizeDelay < 0 || c.PopupDelay < 0 {
		errs = append(errs, "delays must not be negative")
	}

	if len(errs) > 0 {
		// map iteration above is unordered
		slices.Sort(errs)
		return fmt.Errorf("map config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
