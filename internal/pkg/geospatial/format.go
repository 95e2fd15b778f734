package geospatial

import (
	"fmt"
	"math"
)

// walkingSpeedKmh is the pace assumed for walking-time estimates.
const walkingSpeedKmh = 5.0

// FormatDistance renders km for display: whole metres below one kilometre,
// two decimals above.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.2f km", km)
}

// EstimateWalkingTime renders how long walking km takes at 5 km/h.
func EstimateWalkingTime(km float64) string {
	minutes := int(math.Round(km / walkingSpeedKmh * 60))
	switch {
	case minutes < 1:
		return "Menos de 1 min"
	case minutes < 60:
		return fmt.Sprintf("%d min", minutes)
	}

	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dmin", hours, rest)
}
