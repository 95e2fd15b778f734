package mapview_test

import (
	"context"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/mapview"
)

// recordingSurface counts what the controller asks of the map.
type recordingSurface struct {
	views       []viewCall
	fits        []fitCall
	invalidates int
	closeAll    int
	interaction mapview.Interaction
	maxBounds   domain.Bounds
	viscosity   float64
	minZoom     int
	maxZoom     int
	added       int
	markers     map[string]*recordingMarker
	lines       []*recordingLine
}

type viewCall struct {
	center  domain.GeoPoint
	zoom    int
	animate bool
}

type fitCall struct {
	bounds domain.Bounds
	opts   mapview.FitOptions
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{markers: make(map[string]*recordingMarker)}
}

func (s *recordingSurface) SetView(center domain.GeoPoint, zoom int, animate bool) {
	s.views = append(s.views, viewCall{center: center, zoom: zoom, animate: animate})
}

func (s *recordingSurface) FitBounds(b domain.Bounds, opts mapview.FitOptions) {
	s.fits = append(s.fits, fitCall{bounds: b, opts: opts})
}

func (s *recordingSurface) InvalidateSize()                         { s.invalidates++ }
func (s *recordingSurface) SetInteraction(i mapview.Interaction)    { s.interaction = i }
func (s *recordingSurface) SetZoomRange(min, max int)               { s.minZoom, s.maxZoom = min, max }
func (s *recordingSurface) ClosePopups()                            { s.closeAll++ }
func (s *recordingSurface) SetMaxBounds(b domain.Bounds, v float64) { s.maxBounds, s.viscosity = b, v }

func (s *recordingSurface) AddMarker(spec mapview.MarkerSpec) mapview.Marker {
	s.added++
	m := &recordingMarker{spec: spec, surface: s}
	s.markers[spec.Key] = m
	return m
}

func (s *recordingSurface) AddPolyline(points []domain.GeoPoint) mapview.Overlay {
	l := &recordingLine{points: points}
	s.lines = append(s.lines, l)
	return l
}

func (s *recordingSurface) liveLines() int {
	n := 0
	for _, l := range s.lines {
		if !l.removed {
			n++
		}
	}
	return n
}

type recordingMarker struct {
	surface     *recordingSurface
	spec        mapview.MarkerSpec
	open        bool
	highlighted bool
	removed     bool
	moves       int
	popups      int
}

func (m *recordingMarker) OpenPopup()             { m.open = true }
func (m *recordingMarker) ClosePopup()            { m.open = false }
func (m *recordingMarker) SetHighlighted(on bool) { m.highlighted = on }

func (m *recordingMarker) SetPosition(p domain.GeoPoint) {
	m.spec.Position = p
	m.moves++
}

func (m *recordingMarker) SetPopup(p mapview.Popup) {
	m.spec.Popup = p
	m.popups++
}

func (m *recordingMarker) Remove() {
	m.removed = true
	if m.surface.markers[m.spec.Key] == m {
		delete(m.surface.markers, m.spec.Key)
	}
}

type recordingLine struct {
	points  []domain.GeoPoint
	removed bool
}

func (l *recordingLine) Remove() { l.removed = true }

// manualLocator hands the test control over position delivery.
type manualLocator struct {
	onFix func(domain.GeoPoint)
	onErr func(error)
	stops int
}

func (l *manualLocator) CurrentPosition(_ context.Context, _ mapview.PositionOptions) (domain.GeoPoint, error) {
	return domain.GeoPoint{}, mapview.ErrPositionUnavailable
}

func (l *manualLocator) Watch(_ mapview.PositionOptions, onFix func(domain.GeoPoint), onErr func(error)) func() {
	l.onFix, l.onErr = onFix, onErr
	return func() { l.stops++ }
}
