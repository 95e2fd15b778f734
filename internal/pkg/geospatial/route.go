package geospatial

import "github.com/calorsos/calorsos/internal/core/domain"

// PreviewRoute builds the straight walking leg from origin to target.
func PreviewRoute(origin domain.GeoPoint, target Ranked[domain.Location]) domain.RoutePreview {
	route := []domain.GeoPoint{origin, target.Item.GeoPoint}
	bounds, _ := BoundsOf(route)

	return domain.RoutePreview{
		Target:      Annotate(target),
		Route:       route,
		Polyline:    EncodeRoute(route),
		Bounds:      bounds,
		WalkingTime: EstimateWalkingTime(target.DistanceKm),
	}
}
