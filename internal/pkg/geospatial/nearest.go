package geospatial

import (
	"sort"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// Positioned is anything that can be placed on the map.
type Positioned interface {
	Position() domain.GeoPoint
}

// Ranked decorates an item with its distance from an origin.
type Ranked[T Positioned] struct {
	Item          T
	DistanceKm    float64
	DistanceLabel string
}

func rank[T Positioned](origin domain.GeoPoint, item T) Ranked[T] {
	d := DistanceKm(origin, item.Position())
	return Ranked[T]{Item: item, DistanceKm: d, DistanceLabel: FormatDistance(d)}
}

// Nearest returns the candidate closest to origin, or nil when origin is nil
// or there are no candidates. Ties go to the earliest candidate.
func Nearest[T Positioned](origin *domain.GeoPoint, candidates []T) *Ranked[T] {
	if origin == nil || len(candidates) == 0 {
		return nil
	}

	best := 0
	bestKm := DistanceKm(*origin, candidates[0].Position())
	for i := 1; i < len(candidates); i++ {
		if d := DistanceKm(*origin, candidates[i].Position()); d < bestKm {
			best, bestKm = i, d
		}
	}

	r := Ranked[T]{Item: candidates[best], DistanceKm: bestKm, DistanceLabel: FormatDistance(bestKm)}
	return &r
}

// AnnotateByDistance returns every candidate with its distance from origin,
// closest first. Equidistant candidates keep their input order.
func AnnotateByDistance[T Positioned](origin *domain.GeoPoint, candidates []T) []Ranked[T] {
	if origin == nil || len(candidates) == 0 {
		return nil
	}

	out := make([]Ranked[T], len(candidates))
	for i, c := range candidates {
		out[i] = rank(*origin, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Annotate converts a ranked location into its wire form.
func Annotate(r Ranked[domain.Location]) domain.AnnotatedLocation {
	return domain.AnnotatedLocation{
		Location:      r.Item,
		DistanceKm:    r.DistanceKm,
		DistanceLabel: r.DistanceLabel,
	}
}
