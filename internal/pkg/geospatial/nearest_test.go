package geospatial_test

import (
	"strings"
	"testing"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/geospatial"
)

type place struct {
	name string
	at   domain.GeoPoint
}

func (p place) Position() domain.GeoPoint { return p.at }

func TestNearest_AbsentInput(t *testing.T) {
	origin := &domain.GeoPoint{Lat: 10.391, Lon: -75.479}
	if got := geospatial.Nearest[place](origin, nil); got != nil {
		t.Errorf("expected nil for empty candidates, got %+v", got)
	}
	if got := geospatial.Nearest(nil, []place{{name: "a"}}); got != nil {
		t.Errorf("expected nil for nil origin, got %+v", got)
	}
}

func TestNearest_HydrationPoints(t *testing.T) {
	origin := &domain.GeoPoint{Lat: 10.391, Lon: -75.479}
	points := []place{
		{name: "Plaza", at: domain.GeoPoint{Lat: 10.40, Lon: -75.48}},
		{name: "Fuente", at: domain.GeoPoint{Lat: 10.392, Lon: -75.4795}},
	}

	got := geospatial.Nearest(origin, points)
	if got == nil {
		t.Fatal("expected a result")
	}
	if got.Item.name != "Fuente" {
		t.Fatalf("expected Fuente, got %s", got.Item.name)
	}
	if got.DistanceKm < 0.1 || got.DistanceKm > 0.15 {
		t.Errorf("expected roughly 0.12 km, got %f", got.DistanceKm)
	}
	if !strings.HasSuffix(got.DistanceLabel, " m") {
		t.Errorf("expected a label in metres, got %q", got.DistanceLabel)
	}
}

func TestNearest_TieKeepsFirst(t *testing.T) {
	origin := &domain.GeoPoint{Lat: 10.391, Lon: -75.479}
	same := domain.GeoPoint{Lat: 10.395, Lon: -75.479}
	got := geospatial.Nearest(origin, []place{
		{name: "far", at: domain.GeoPoint{Lat: 10.45, Lon: -75.50}},
		{name: "first", at: same},
		{name: "second", at: same},
	})
	if got.Item.name != "first" {
		t.Fatalf("expected the first of two equidistant candidates, got %s", got.Item.name)
	}
}

func TestAnnotateByDistance(t *testing.T) {
	origin := &domain.GeoPoint{Lat: 10.391, Lon: -75.479}
	same := domain.GeoPoint{Lat: 10.395, Lon: -75.479}
	candidates := []place{
		{name: "far", at: domain.GeoPoint{Lat: 10.45, Lon: -75.50}},
		{name: "tie-a", at: same},
		{name: "here", at: *origin},
		{name: "tie-b", at: same},
	}

	got := geospatial.AnnotateByDistance(origin, candidates)
	if len(got) != len(candidates) {
		t.Fatalf("expected %d results, got %d", len(candidates), len(got))
	}

	want := []string{"here", "tie-a", "tie-b", "far"}
	for i, name := range want {
		if got[i].Item.name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, got[i].Item.name)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Fatalf("results not sorted at %d", i)
		}
	}
	if got[0].DistanceLabel != "0 m" {
		t.Errorf("expected \"0 m\" for the origin itself, got %q", got[0].DistanceLabel)
	}

	if res := geospatial.AnnotateByDistance[place](origin, nil); len(res) != 0 {
		t.Errorf("expected empty result, got %d", len(res))
	}
}

func TestAnnotate_Location(t *testing.T) {
	origin := &domain.GeoPoint{Lat: 10.391, Lon: -75.479}
	zones := []domain.Location{
		{ID: "z1", Kind: domain.KindCoolZone, Name: "Parque Centenario", GeoPoint: domain.GeoPoint{Lat: 10.4225, Lon: -75.5466}},
	}
	r := geospatial.Nearest(origin, zones)
	a := geospatial.Annotate(*r)
	if a.ID != "z1" || a.DistanceLabel != r.DistanceLabel {
		t.Fatalf("unexpected annotation: %+v", a)
	}
}
