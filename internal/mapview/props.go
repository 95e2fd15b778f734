package mapview

import (
	"fmt"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// Props is the page state rendered by the controller. Slices are treated as
// read-only.
type Props struct {
	Zones           []domain.Location
	HydrationPoints []domain.Location
	Reports         []domain.Report

	SelectedZone  *domain.Location
	SelectedPoint *domain.Location

	// ResetSignal refits the view to every zone and hydration point each
	// time it changes to a non-zero value.
	ResetSignal int
	Highlighted *domain.Location
	// Route is drawn and framed when it has at least two points.
	Route []domain.GeoPoint
	// SelectionMarker places a draggable marker used to pick a position.
	SelectionMarker *domain.GeoPoint

	Mini             bool
	ShowExpandButton bool
	SelectionEnabled bool
}

// Activation is what the user picked on the map. Exactly one of Location and
// Report is set for a marker click; neither is set for a dragged selection
// marker or a plain map click.
type Activation struct {
	Location *domain.Location
	Report   *domain.Report
	Point    domain.GeoPoint
}

// target is the entity the view should center on.
type target struct {
	key string
	at  domain.GeoPoint
}

// selection resolves which entity, if any, the view centers on. A selected
// zone wins over a selected point, which wins over the first report.
func (p Props) selection() *target {
	switch {
	case p.SelectedZone != nil:
		return &target{key: p.SelectedZone.Key(), at: p.SelectedZone.GeoPoint}
	case p.SelectedPoint != nil:
		return &target{key: p.SelectedPoint.Key(), at: p.SelectedPoint.GeoPoint}
	case len(p.Reports) > 0:
		return &target{key: p.Reports[0].Key(), at: p.Reports[0].GeoPoint}
	}
	return nil
}

func (p Props) highlightKey() string {
	if p.Highlighted == nil {
		return ""
	}
	return p.Highlighted.Key()
}

func (p Props) catalogPositions() []domain.GeoPoint {
	out := make([]domain.GeoPoint, 0, len(p.Zones)+len(p.HydrationPoints))
	for _, z := range p.Zones {
		out = append(out, z.GeoPoint)
	}
	for _, h := range p.HydrationPoints {
		out = append(out, h.GeoPoint)
	}
	return out
}

func locationPopup(l domain.Location, distance string) Popup {
	p := Popup{Title: l.Name}
	if l.Description != "" {
		p.Lines = append(p.Lines, "Descripción: "+l.Description)
	}
	p.Lines = append(p.Lines, "Estado: "+string(l.Status))
	if distance != "" {
		p.Lines = append(p.Lines, "Distancia: "+distance)
	}
	return p
}

func reportPopup(r domain.Report) Popup {
	name := r.Name
	if name == "" {
		name = "Sin nombre"
	}
	p := Popup{
		Title: "Reporte: " + name,
		Lines: []string{"Tipo: " + string(r.Kind), "Estado: " + string(r.Status)},
	}
	if r.Description != "" {
		p.Lines = append(p.Lines, "Descripción: "+r.Description)
	}
	if !r.SubmittedAt.IsZero() {
		p.Lines = append(p.Lines, "Fecha: "+r.SubmittedAt.Format("2006-01-02 15:04"))
	}
	return p
}

func selectionPopup(at domain.GeoPoint) Popup {
	return Popup{
		Title: "Ubicación seleccionada",
		Lines: []string{fmt.Sprintf("Lat: %.5f", at.Lat), fmt.Sprintf("Lng: %.5f", at.Lon)},
	}
}

var userPopup = Popup{Title: "Tu ubicación"}
