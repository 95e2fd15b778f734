// Package mapview drives an interactive map surface from page state: marker
// lifecycle, selection and route framing, reset requests and the live user
// position.
package mapview

import "github.com/calorsos/calorsos/internal/core/domain"

// MarkerKind selects the icon a surface draws for a marker.
type MarkerKind int

const (
	MarkerZone MarkerKind = iota
	MarkerHydration
	MarkerReport
	MarkerUser
	MarkerSelection
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerZone:
		return "cool_zone"
	case MarkerHydration:
		return "hydration_point"
	case MarkerReport:
		return "report"
	case MarkerUser:
		return "user"
	case MarkerSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// Popup is the text shown when a marker is opened.
type Popup struct {
	Title string
	Lines []string
}

func (p Popup) equal(o Popup) bool {
	if p.Title != o.Title || len(p.Lines) != len(o.Lines) {
		return false
	}
	for i := range p.Lines {
		if p.Lines[i] != o.Lines[i] {
			return false
		}
	}
	return true
}

// MarkerSpec describes a marker to create. OnClick and OnDragEnd are invoked
// by the surface when the user interacts with the marker.
type MarkerSpec struct {
	Key       string
	Kind      MarkerKind
	Position  domain.GeoPoint
	Popup     Popup
	Draggable bool
	OnClick   func()
	OnDragEnd func(domain.GeoPoint)
}

// FitOptions control a bounds fit. Padding is in pixels (x, y).
type FitOptions struct {
	Padding [2]int
	MaxZoom int
	Animate bool
}

// Interaction lists the gestures a surface accepts.
type Interaction struct {
	Dragging        bool
	TouchZoom       bool
	ScrollWheelZoom bool
	DoubleClickZoom bool
	BoxZoom         bool
	Keyboard        bool
}

// interactionFor returns the gesture set for the display mode. The mini map
// only pans.
func interactionFor(mini bool) Interaction {
	full := !mini
	return Interaction{
		Dragging:        true,
		TouchZoom:       full,
		ScrollWheelZoom: full,
		DoubleClickZoom: full,
		BoxZoom:         full,
		Keyboard:        full,
	}
}

// Marker is a handle to a marker drawn on a surface.
type Marker interface {
	OpenPopup()
	ClosePopup()
	SetPosition(p domain.GeoPoint)
	SetPopup(p Popup)
	SetHighlighted(on bool)
	Remove()
}

// Overlay is a handle to a drawn shape.
type Overlay interface {
	Remove()
}

// Surface is the interactive map the controller drives. Implementations are
// called from one goroutine at a time.
type Surface interface {
	SetView(center domain.GeoPoint, zoom int, animate bool)
	FitBounds(b domain.Bounds, opts FitOptions)
	InvalidateSize()
	SetInteraction(i Interaction)
	SetMaxBounds(b domain.Bounds, viscosity float64)
	SetZoomRange(min, max int)
	AddMarker(spec MarkerSpec) Marker
	AddPolyline(points []domain.GeoPoint) Overlay
	ClosePopups()
}
