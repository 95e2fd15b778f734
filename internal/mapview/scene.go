package mapview

import (
	"math"
	"sort"
	"sync"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/geospatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const tileSize = 256.0

// MarkerInfo describes a marker on a Scene.
type MarkerInfo struct {
	Key         string
	Kind        MarkerKind
	Position    domain.GeoPoint
	Popup       Popup
	Open        bool
	Highlighted bool
	Draggable   bool
}

// Scene is an in-memory Surface. It keeps the viewport, markers and lines a
// real map would show and can export them as GeoJSON.
type Scene struct {
	mu sync.Mutex

	width, height    int
	center           domain.GeoPoint
	zoom             int
	minZoom, maxZoom int
	maxBounds        *domain.Bounds
	viscosity        float64
	interaction      Interaction
	sized            bool

	seq     int
	markers map[string]*sceneMarker
	lines   map[int]*sceneLine
}

// NewScene creates a scene of the given pixel size.
func NewScene(width, height int) *Scene {
	return &Scene{
		width:   width,
		height:  height,
		minZoom: 0,
		maxZoom: 19,
		markers: make(map[string]*sceneMarker),
		lines:   make(map[int]*sceneLine),
	}
}

func (s *Scene) SetView(center domain.GeoPoint, zoom int, _ bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.center = s.constrain(center)
	s.zoom = s.clampZoom(zoom)
}

func (s *Scene) FitBounds(b domain.Bounds, opts FitOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zoom := s.maxZoom
	if opts.MaxZoom > 0 {
		zoom = min(zoom, opts.MaxZoom)
	}
	dx, dy := projectedSpan(b)
	availW := math.Max(float64(s.width-2*opts.Padding[0]), 1)
	availH := math.Max(float64(s.height-2*opts.Padding[1]), 1)
	if dx > 0 || dy > 0 {
		fit := math.Inf(1)
		if dx > 0 {
			fit = math.Log2(availW / dx)
		}
		if dy > 0 {
			fit = math.Min(fit, math.Log2(availH/dy))
		}
		zoom = min(zoom, int(math.Floor(fit)))
	}

	s.center = s.constrain(b.Center())
	s.zoom = s.clampZoom(zoom)
}

func (s *Scene) InvalidateSize() {
	s.mu.Lock()
	s.sized = true
	s.mu.Unlock()
}

func (s *Scene) SetInteraction(i Interaction) {
	s.mu.Lock()
	s.interaction = i
	s.mu.Unlock()
}

func (s *Scene) SetMaxBounds(b domain.Bounds, viscosity float64) {
	s.mu.Lock()
	s.maxBounds = &b
	s.viscosity = viscosity
	s.mu.Unlock()
}

func (s *Scene) SetZoomRange(minZoom, maxZoom int) {
	s.mu.Lock()
	s.minZoom, s.maxZoom = minZoom, maxZoom
	s.zoom = s.clampZoom(s.zoom)
	s.mu.Unlock()
}

func (s *Scene) AddMarker(spec MarkerSpec) Marker {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	m := &sceneMarker{scene: s, seq: s.seq, spec: spec}
	s.markers[spec.Key] = m
	return m
}

func (s *Scene) AddPolyline(points []domain.GeoPoint) Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	l := &sceneLine{scene: s, seq: s.seq, points: append([]domain.GeoPoint(nil), points...)}
	s.lines[l.seq] = l
	return l
}

func (s *Scene) ClosePopups() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.markers {
		m.open = false
	}
}

// Pan moves the view as a user drag would. Outside the max bounds the move
// is pulled back by the viscosity.
func (s *Scene) Pan(to domain.GeoPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxBounds == nil || s.maxBounds.Contains(to) {
		s.center = to
		return
	}
	in := s.maxBounds.Clamp(to)
	slack := 1 - s.viscosity
	s.center = domain.GeoPoint{
		Lat: in.Lat + (to.Lat-in.Lat)*slack,
		Lon: in.Lon + (to.Lon-in.Lon)*slack,
	}
}

// Viewport returns the current center and zoom.
func (s *Scene) Viewport() (domain.GeoPoint, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center, s.zoom
}

// Sized reports whether InvalidateSize has been called.
func (s *Scene) Sized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sized
}

// Interaction returns the accepted gestures.
func (s *Scene) Interaction() Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interaction
}

// Marker returns the marker drawn for key.
func (s *Scene) Marker(key string) (MarkerInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[key]
	if !ok {
		return MarkerInfo{}, false
	}
	return m.info(), true
}

// Markers returns every marker in creation order.
func (s *Scene) Markers() []MarkerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := make([]*sceneMarker, 0, len(s.markers))
	for _, m := range s.markers {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].seq < ms[j].seq })

	out := make([]MarkerInfo, len(ms))
	for i, m := range ms {
		out[i] = m.info()
	}
	return out
}

// Lines returns every drawn polyline in creation order.
func (s *Scene) Lines() [][]domain.GeoPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls := make([]*sceneLine, 0, len(s.lines))
	for _, l := range s.lines {
		ls = append(ls, l)
	}
	sort.Slice(ls, func(i, j int) bool { return ls[i].seq < ls[j].seq })

	out := make([][]domain.GeoPoint, len(ls))
	for i, l := range ls {
		out[i] = append([]domain.GeoPoint(nil), l.points...)
	}
	return out
}

// Click simulates a tap on the marker for key.
func (s *Scene) Click(key string) bool {
	s.mu.Lock()
	m, ok := s.markers[key]
	var fn func()
	if ok {
		m.open = true
		fn = m.spec.OnClick
	}
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return ok
}

// Drag simulates dropping a draggable marker at to.
func (s *Scene) Drag(key string, to domain.GeoPoint) bool {
	s.mu.Lock()
	m, ok := s.markers[key]
	if !ok || !m.spec.Draggable {
		s.mu.Unlock()
		return false
	}
	m.spec.Position = to
	fn := m.spec.OnDragEnd
	s.mu.Unlock()

	if fn != nil {
		fn(to)
	}
	return true
}

// FeatureCollection exports markers and lines as GeoJSON.
func (s *Scene) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range s.Markers() {
		f := geojson.NewFeature(geospatial.ToOrb(m.Position))
		f.ID = m.Key
		f.Properties["kind"] = m.Kind.String()
		f.Properties["title"] = m.Popup.Title
		f.Properties["open"] = m.Open
		f.Properties["highlighted"] = m.Highlighted
		fc.Append(f)
	}
	for _, line := range s.Lines() {
		ls := make(orb.LineString, len(line))
		for i, p := range line {
			ls[i] = geospatial.ToOrb(p)
		}
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = "route"
		fc.Append(f)
	}
	return fc
}

func (s *Scene) constrain(p domain.GeoPoint) domain.GeoPoint {
	if s.maxBounds == nil {
		return p
	}
	return s.maxBounds.Clamp(p)
}

func (s *Scene) clampZoom(z int) int {
	return min(max(z, s.minZoom), s.maxZoom)
}

// projectedSpan returns the Web Mercator size of b in pixels at zoom 0.
func projectedSpan(b domain.Bounds) (dx, dy float64) {
	x1, y1 := mercator(b.MinLat, b.MinLon)
	x2, y2 := mercator(b.MaxLat, b.MaxLon)
	return math.Abs(x2-x1) * tileSize, math.Abs(y2-y1) * tileSize
}

func mercator(lat, lon float64) (x, y float64) {
	sin := math.Sin(lat * math.Pi / 180)
	return (lon + 180) / 360, 0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)
}

type sceneMarker struct {
	scene       *Scene
	seq         int
	spec        MarkerSpec
	open        bool
	highlighted bool
}

func (m *sceneMarker) info() MarkerInfo {
	return MarkerInfo{
		Key:         m.spec.Key,
		Kind:        m.spec.Kind,
		Position:    m.spec.Position,
		Popup:       m.spec.Popup,
		Open:        m.open,
		Highlighted: m.highlighted,
		Draggable:   m.spec.Draggable,
	}
}

func (m *sceneMarker) OpenPopup() {
	m.scene.mu.Lock()
	m.open = true
	m.scene.mu.Unlock()
}

func (m *sceneMarker) ClosePopup() {
	m.scene.mu.Lock()
	m.open = false
	m.scene.mu.Unlock()
}

func (m *sceneMarker) SetPosition(p domain.GeoPoint) {
	m.scene.mu.Lock()
	m.spec.Position = p
	m.scene.mu.Unlock()
}

func (m *sceneMarker) SetPopup(p Popup) {
	m.scene.mu.Lock()
	m.spec.Popup = p
	m.scene.mu.Unlock()
}

func (m *sceneMarker) SetHighlighted(on bool) {
	m.scene.mu.Lock()
	m.highlighted = on
	m.scene.mu.Unlock()
}

func (m *sceneMarker) Remove() {
	m.scene.mu.Lock()
	if cur, ok := m.scene.markers[m.spec.Key]; ok && cur == m {
		delete(m.scene.markers, m.spec.Key)
	}
	m.scene.mu.Unlock()
}

type sceneLine struct {
	scene  *Scene
	seq    int
	points []domain.GeoPoint
}

func (l *sceneLine) Remove() {
	l.scene.mu.Lock()
	delete(l.scene.lines, l.seq)
	l.scene.mu.Unlock()
}
