package geospatial

import (
	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/paulmach/orb"
)

// ToOrb converts a point to orb's lon/lat order.
func ToOrb(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb point back to a GeoPoint.
func FromOrb(p orb.Point) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat(), Lon: p.Lon()}
}

// BoundsOf returns the smallest box containing every point.
// ok is false when points is empty.
func BoundsOf(points []domain.GeoPoint) (b domain.Bounds, ok bool) {
	if len(points) == 0 {
		return domain.Bounds{}, false
	}

	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = ToOrb(p)
	}
	bound := mp.Bound()

	return domain.Bounds{
		MinLat: bound.Min.Lat(),
		MinLon: bound.Min.Lon(),
		MaxLat: bound.Max.Lat(),
		MaxLon: bound.Max.Lon(),
	}, true
}

// PositionsOf collects the coordinates of every item.
func PositionsOf[T Positioned](items ...[]T) []domain.GeoPoint {
	var out []domain.GeoPoint
	for _, list := range items {
		for _, it := range list {
			out = append(out, it.Position())
		}
	}
	return out
}
