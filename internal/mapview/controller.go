package mapview

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/geospatial"
)

// viewRequest is the last viewport change the controller asked for.
type viewRequest struct {
	fit    bool
	center domain.GeoPoint
	zoom   int
	bounds domain.Bounds
	opts   FitOptions
}

// State is a snapshot of what the controller currently shows.
type State struct {
	Ready         bool
	Closed        bool
	Mini          bool
	UserLocation  *domain.GeoPoint
	LocationError error
	Selection     string
	Highlighted   string
	Route         []domain.GeoPoint
	Markers       int
}

// Controller synchronises one Surface with page Props.
//
// All surface calls happen with mu held, so a Surface only ever sees one
// caller at a time. Callbacks into the page run without mu.
type Controller struct {
	mu      sync.Mutex
	cfg     Config
	surface Surface
	log     *slog.Logger
	tasks   *tasks
	markers *registry

	props     Props
	rendered  bool
	ready     bool
	closed    bool
	pending   func()
	lastView  *viewRequest
	selection *target
	highlight string
	// popupWanted is a popup to open as soon as its marker exists.
	popupWanted string

	route        []domain.GeoPoint
	routeOverlay Overlay

	user      *domain.GeoPoint
	locErr    error
	stopWatch func()
	unsub     func()
}

// New mounts a controller on surface. It starts the resize task, the reset
// subscription and the position watch.
func New(surface Surface, cfg Config) (*Controller, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:     cfg,
		surface: surface,
		log:     cfg.Logger.With("component", "mapview"),
		markers: newRegistry(),
	}
	c.tasks = newTasks(&c.mu, cfg.Clock)

	c.mu.Lock()
	surface.SetZoomRange(cfg.MinZoom, cfg.MaxZoom)
	surface.SetMaxBounds(cfg.MaxBounds, cfg.MaxBoundsViscosity)
	surface.SetInteraction(interactionFor(false))
	surface.SetView(cfg.Center, cfg.Zoom, false)
	c.lastView = &viewRequest{center: cfg.Center, zoom: cfg.Zoom}
	c.tasks.schedule(taskResize, cfg.ResizeDelay, c.becomeReady)
	c.mu.Unlock()

	if cfg.ResetBus != nil {
		c.unsub = cfg.ResetBus.Subscribe(c.resetFromBus)
	}

	if cfg.Geolocator != nil {
		stop := cfg.Geolocator.Watch(cfg.WatchOptions, c.onFix, c.onLocationError)
		c.mu.Lock()
		c.stopWatch = stop
		c.mu.Unlock()
	}

	return c, nil
}

// Update renders p. Calling it again with equal props changes nothing.
func (c *Controller) Update(p Props) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	prev := c.props
	first := !c.rendered
	c.props = p
	c.rendered = true

	if first || p.Mini != prev.Mini {
		c.surface.SetInteraction(interactionFor(p.Mini))
	}

	c.syncLocations(MarkerZone, p.Zones)
	c.syncLocations(MarkerHydration, p.HydrationPoints)
	c.syncReports(p.Reports)
	c.syncSelectionMarker(prev.SelectionMarker, p.SelectionMarker)

	c.applySelection(p.selection())
	c.applyHighlight(p.highlightKey())
	c.applyRoute(p.Route)

	if p.ResetSignal != 0 && p.ResetSignal != prev.ResetSignal {
		c.resetView()
	}
}

// ExpandRequested handles the "view full map" button. It only exists on a
// mini map that shows it.
func (c *Controller) ExpandRequested() {
	c.mu.Lock()
	ok := !c.closed && c.props.Mini && c.props.ShowExpandButton
	fn := c.cfg.OnExpand
	c.mu.Unlock()

	if ok && fn != nil {
		fn()
	}
}

// ResetRequested handles the "reset view" button of the full map. With a
// reset bus the request goes through the bus so every listener sees it.
func (c *Controller) ResetRequested() {
	c.mu.Lock()
	if c.closed || c.props.Mini {
		c.mu.Unlock()
		return
	}
	bus := c.cfg.ResetBus
	if bus == nil {
		c.resetView()
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	bus.Emit()
}

// MapClicked forwards a click on empty map when selection is enabled.
func (c *Controller) MapClicked(at domain.GeoPoint) {
	c.mu.Lock()
	ok := !c.closed && c.props.SelectionEnabled
	c.mu.Unlock()

	if ok {
		c.activate(Activation{Point: at})
	}
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		Ready:         c.ready,
		Closed:        c.closed,
		Mini:          c.props.Mini,
		LocationError: c.locErr,
		Highlighted:   c.highlight,
		Route:         slices.Clone(c.route),
		Markers:       c.markers.len(),
	}
	if c.user != nil {
		u := *c.user
		s.UserLocation = &u
	}
	if c.selection != nil {
		s.Selection = c.selection.key
	}
	return s
}

// Close unmounts the controller. Pending tasks are cancelled, the position
// watch is stopped and later callbacks are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.tasks.cancelAll()
	c.pending = nil
	if c.routeOverlay != nil {
		c.routeOverlay.Remove()
		c.routeOverlay = nil
	}
	c.markers.clear()
	stop, unsub := c.stopWatch, c.unsub
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if stop != nil {
		stop()
	}
}

func (c *Controller) becomeReady() {
	if c.closed {
		return
	}
	c.surface.InvalidateSize()
	c.ready = true
	if op := c.pending; op != nil {
		c.pending = nil
		op()
	}
}

// view runs a size-dependent operation now, or once the surface is ready.
// Only the latest deferred operation survives.
func (c *Controller) view(op func()) {
	if c.ready {
		op()
		return
	}
	c.pending = op
}

func (c *Controller) setView(center domain.GeoPoint, zoom int) {
	req := viewRequest{
		center: c.cfg.MaxBounds.Clamp(center),
		zoom:   min(max(zoom, c.cfg.MinZoom), c.cfg.MaxZoom),
	}
	c.view(func() {
		if c.lastView != nil && *c.lastView == req {
			return
		}
		c.surface.SetView(req.center, req.zoom, true)
		c.lastView = &req
	})
}

// fitBounds fits the viewport to points. Unless force is set, a fit equal
// to the last applied view is skipped so re-renders do not jitter the map.
func (c *Controller) fitBounds(points []domain.GeoPoint, opts FitOptions, force bool) {
	b, ok := geospatial.BoundsOf(points)
	if !ok {
		return
	}
	req := viewRequest{fit: true, bounds: b, opts: opts}
	c.view(func() {
		if !force && c.lastView != nil && *c.lastView == req {
			return
		}
		c.surface.FitBounds(req.bounds, req.opts)
		c.lastView = &req
	})
}

func (c *Controller) resetView() {
	c.surface.ClosePopups()
	// Forced: the user may have panned away from the last fit.
	c.fitBounds(c.props.catalogPositions(), c.cfg.ResetFit, true)
}

func (c *Controller) resetFromBus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.resetView()
}

func (c *Controller) applySelection(sel *target) {
	if sel == nil {
		if c.selection != nil && c.popupWanted == c.selection.key {
			c.popupWanted = ""
		}
		c.selection = nil
		return
	}
	if c.selection != nil && *c.selection == *sel {
		return
	}
	c.selection = sel
	c.setView(sel.at, c.cfg.SelectionZoom)
	c.openPopup(sel.key)
}

func (c *Controller) applyHighlight(key string) {
	if key == c.highlight {
		return
	}
	if c.highlight != "" {
		c.markers.setHighlighted(c.highlight, false)
		if c.popupWanted == c.highlight {
			c.popupWanted = ""
		}
		if c.selection == nil || c.selection.key != c.highlight {
			c.markers.close(c.highlight)
		}
	}
	c.tasks.cancel(taskPopup)
	c.highlight = key
	if key == "" {
		return
	}

	c.markers.setHighlighted(key, true)
	c.tasks.schedule(taskPopup, c.cfg.PopupDelay, func() {
		if c.closed || c.highlight != key {
			return
		}
		c.openPopup(key)
	})
}

// openPopup opens key's popup, or remembers it until the marker is created.
func (c *Controller) openPopup(key string) {
	if c.markers.open(key) {
		c.popupWanted = ""
		return
	}
	c.log.Debug("popup target not on map yet", "key", key)
	c.popupWanted = key
}

func (c *Controller) applyRoute(route []domain.GeoPoint) {
	if len(route) < 2 {
		route = nil
	}
	if slices.Equal(route, c.route) {
		return
	}

	if c.routeOverlay != nil {
		c.routeOverlay.Remove()
		c.routeOverlay = nil
	}
	c.route = slices.Clone(route)
	if c.route == nil {
		return
	}

	c.routeOverlay = c.surface.AddPolyline(c.route)
	c.fitBounds(c.route, c.cfg.RouteFit, false)
}

func (c *Controller) syncLocations(kind MarkerKind, locs []domain.Location) {
	want := make(map[string]struct{}, len(locs))
	for i := range locs {
		loc := locs[i]
		key := loc.Key()
		want[key] = struct{}{}
		c.upsert(key, kind, loc.GeoPoint, locationPopup(loc, c.distanceLabel(loc.GeoPoint)), func() MarkerSpec {
			return MarkerSpec{
				OnClick: func() { c.activate(Activation{Location: &loc, Point: loc.GeoPoint}) },
			}
		})
	}
	c.dropMissing(kind, want)
}

func (c *Controller) syncReports(reports []domain.Report) {
	want := make(map[string]struct{}, len(reports))
	for i := range reports {
		r := reports[i]
		key := r.Key()
		want[key] = struct{}{}
		c.upsert(key, MarkerReport, r.GeoPoint, reportPopup(r), func() MarkerSpec {
			return MarkerSpec{
				OnClick: func() { c.activate(Activation{Report: &r, Point: r.GeoPoint}) },
			}
		})
	}
	c.dropMissing(MarkerReport, want)
}

func (c *Controller) syncSelectionMarker(prev, next *domain.GeoPoint) {
	if next == nil {
		c.markers.drop(selectionKey)
		return
	}
	c.upsert(selectionKey, MarkerSelection, *next, selectionPopup(*next), func() MarkerSpec {
		return MarkerSpec{
			Draggable: true,
			OnDragEnd: func(at domain.GeoPoint) { c.activate(Activation{Point: at}) },
		}
	})
	if prev == nil || *prev != *next {
		c.setView(*next, c.cfg.SelectionZoom)
	}
}

// upsert creates the marker for key or updates only what changed on it.
func (c *Controller) upsert(key string, kind MarkerKind, at domain.GeoPoint, popup Popup, spec func() MarkerSpec) {
	if h, ok := c.markers.get(key); ok {
		if h.at != at {
			h.marker.SetPosition(at)
			h.at = at
		}
		if !h.popup.equal(popup) {
			h.marker.SetPopup(popup)
			h.popup = popup
		}
		return
	}

	s := spec()
	s.Key, s.Kind, s.Position, s.Popup = key, kind, at, popup
	c.markers.put(key, &handle{marker: c.surface.AddMarker(s), kind: kind, at: at, popup: popup})

	if key == c.highlight {
		c.markers.setHighlighted(key, true)
	}
	if key == c.popupWanted && !c.tasks.scheduled(taskPopup) {
		c.openPopup(key)
	}
}

func (c *Controller) dropMissing(kind MarkerKind, want map[string]struct{}) {
	for _, key := range c.markers.keysOf(kind) {
		if _, ok := want[key]; !ok {
			c.markers.drop(key)
		}
	}
}

func (c *Controller) activate(a Activation) {
	if fn := c.cfg.OnMarkerActivated; fn != nil {
		fn(a)
	}
}

func (c *Controller) distanceLabel(at domain.GeoPoint) string {
	if c.user == nil {
		return ""
	}
	km := geospatial.DistanceKm(*c.user, at)
	return geospatial.FormatDistance(km) + " (" + geospatial.EstimateWalkingTime(km) + " a pie)"
}

func (c *Controller) onFix(at domain.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.user = &at
	c.locErr = nil
	c.upsert(userKey, MarkerUser, at, userPopup, func() MarkerSpec { return MarkerSpec{} })

	// distance labels follow the user
	c.syncLocations(MarkerZone, c.props.Zones)
	c.syncLocations(MarkerHydration, c.props.HydrationPoints)
}

func (c *Controller) onLocationError(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.locErr = err
	fn := c.cfg.OnLocationError
	c.mu.Unlock()

	c.log.Warn("geolocation unavailable", "error", err)
	if fn != nil {
		fn(err)
	}
}
