package geospatial

import (
	"fmt"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/twpayne/go-polyline"
)

// EncodeRoute encodes points as a Google encoded polyline.
func EncodeRoute(points []domain.GeoPoint) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodeRoute decodes a Google encoded polyline.
func DecodeRoute(encoded string) ([]domain.GeoPoint, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}

	points := make([]domain.GeoPoint, len(coords))
	for i, c := range coords {
		points[i] = domain.GeoPoint{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}
