package geospatial_test

import (
	"testing"

	"github.com/calorsos/calorsos/internal/pkg/geospatial"
)

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0, "0 m"},
		{0.25, "250 m"},
		{0.999, "999 m"},
		{0.1239, "124 m"},
		{1, "1.00 km"},
		{1.5, "1.50 km"},
		{12.3456, "12.35 km"},
	}
	for _, tt := range tests {
		if got := geospatial.FormatDistance(tt.km); got != tt.want {
			t.Errorf("FormatDistance(%v) = %q, want %q", tt.km, got, tt.want)
		}
	}
}

func TestEstimateWalkingTime(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0, "Menos de 1 min"},
		{0.04, "Menos de 1 min"},
		{0.05, "1 min"},
		{0.4, "5 min"},
		{4.9, "59 min"},
		{5, "1h"},
		{5.5, "1h 6min"},
		{10, "2h"},
	}
	for _, tt := range tests {
		if got := geospatial.EstimateWalkingTime(tt.km); got != tt.want {
			t.Errorf("EstimateWalkingTime(%v) = %q, want %q", tt.km, got, tt.want)
		}
	}
}
