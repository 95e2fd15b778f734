// Package home is the view-model of the landing page: it loads the catalog,
// locates the user, and tells the map what to show.
package home

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/mapview"
	"github.com/calorsos/calorsos/internal/pkg/geospatial"
)

var (
	// ErrNoLocation is returned when a nearest search runs before the user
	// has been located.
	ErrNoLocation = errors.New("user location unknown")
	// ErrNoCandidates is returned when there is nothing of the requested kind.
	ErrNoCandidates = errors.New("no locations available")
)

const (
	noticeNoLocation = "No se pudo obtener tu ubicación"
	noticeDenied     = "Permiso de ubicación denegado"
	noticeLoadFailed = "No se pudieron cargar algunos datos del mapa"
)

// Catalog lists published locations.
type Catalog interface {
	ListLocations(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error)
}

// View renders map props, typically a *mapview.Controller.
type View interface {
	Update(p mapview.Props)
}

// Page holds the landing page state.
type Page struct {
	catalog Catalog
	locator mapview.Geolocator
	view    View
	log     *slog.Logger

	mu          sync.Mutex
	zones       []domain.Location
	points      []domain.Location
	user        *domain.GeoPoint
	notice      string
	route       []domain.GeoPoint
	highlighted *domain.Location
	selected    *domain.Location
	resetSignal int
	mini        bool
}

// New creates a page. locator may be nil when positioning is unavailable.
func New(catalog Catalog, locator mapview.Geolocator, view View, logger *slog.Logger) *Page {
	if logger == nil {
		logger = slog.Default()
	}
	return &Page{
		catalog: catalog,
		locator: locator,
		view:    view,
		log:     logger.With("component", "home"),
	}
}

// SetMini switches the embedded map between mini and full display.
func (p *Page) SetMini(mini bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mini = mini
	p.push()
}

// Load fetches active zones and hydration points in parallel. A failed fetch
// leaves that list empty; the page still renders what arrived and the first
// error is returned.
func (p *Page) Load(ctx context.Context) error {
	var (
		g             errgroup.Group
		zones, points []domain.Location
	)
	g.Go(func() error {
		var err error
		zones, err = p.catalog.ListLocations(ctx, domain.KindCoolZone, domain.StatusActive)
		if err != nil {
			return fmt.Errorf("load cool zones: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		points, err = p.catalog.ListLocations(ctx, domain.KindHydrationPoint, domain.StatusActive)
		if err != nil {
			return fmt.Errorf("load hydration points: %w", err)
		}
		return nil
	})
	err := g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.zones, p.points = zones, points
	if err != nil {
		p.log.Warn("catalog load degraded", "error", err)
		p.notice = noticeLoadFailed
	}
	p.push()
	return err
}

// Locate asks for a single position fix. Failure is kept as a notice and
// returned; the page keeps working without a user position.
func (p *Page) Locate(ctx context.Context) error {
	if p.locator == nil {
		p.setNotice(noticeNoLocation)
		return ErrNoLocation
	}

	at, err := p.locator.CurrentPosition(ctx, mapview.DefaultPositionOptions())
	if err != nil {
		if errors.Is(err, mapview.ErrPermissionDenied) {
			p.setNotice(noticeDenied)
		} else {
			p.setNotice(noticeNoLocation)
		}
		p.log.Info("user not located", "error", err)
		return fmt.Errorf("locate user: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = &at
	p.notice = ""
	return nil
}

// GoToNearestZone routes the map to the closest cool zone.
func (p *Page) GoToNearestZone() (*domain.RoutePreview, error) {
	return p.goToNearest(domain.KindCoolZone)
}

// GoToNearestPoint routes the map to the closest hydration point.
func (p *Page) GoToNearestPoint() (*domain.RoutePreview, error) {
	return p.goToNearest(domain.KindHydrationPoint)
}

func (p *Page) goToNearest(kind domain.LocationKind) (*domain.RoutePreview, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.user == nil {
		p.notice = noticeNoLocation
		return nil, ErrNoLocation
	}
	candidates := p.zones
	if kind == domain.KindHydrationPoint {
		candidates = p.points
	}
	nearest := geospatial.Nearest(p.user, candidates)
	if nearest == nil {
		return nil, ErrNoCandidates
	}

	preview := geospatial.PreviewRoute(*p.user, *nearest)
	target := nearest.Item
	p.route = preview.Route
	p.highlighted = &target
	p.selected = &target
	p.push()
	return &preview, nil
}

// Select records a marker picked on the map.
func (p *Page) Select(a mapview.Activation) {
	if a.Location == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	loc := *a.Location
	p.selected = &loc
	p.push()
}

// ClearSelection drops the route, highlight and selection and asks the map
// to frame the whole catalog again.
func (p *Page) ClearSelection() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.route = nil
	p.highlighted = nil
	p.selected = nil
	p.resetSignal++
	p.push()
}

// Notice returns the message to show the user, if any.
func (p *Page) Notice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notice
}

// Props returns what the map should currently show.
func (p *Page) Props() mapview.Props {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.props()
}

func (p *Page) setNotice(msg string) {
	p.mu.Lock()
	p.notice = msg
	p.mu.Unlock()
}

func (p *Page) props() mapview.Props {
	props := mapview.Props{
		Zones:            p.zones,
		HydrationPoints:  p.points,
		ResetSignal:      p.resetSignal,
		Highlighted:      p.highlighted,
		Route:            p.route,
		Mini:             p.mini,
		ShowExpandButton: p.mini,
	}
	if p.selected != nil {
		if p.selected.Kind == domain.KindCoolZone {
			props.SelectedZone = p.selected
		} else {
			props.SelectedPoint = p.selected
		}
	}
	return props
}

// push must be called with mu held.
func (p *Page) push() {
	if p.view != nil {
		p.view.Update(p.props())
	}
}
