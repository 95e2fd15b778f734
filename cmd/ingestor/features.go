package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// importNamespace seeds deterministic ids so re-importing a source is a no-op.
var importNamespace = uuid.MustParse("6f1c7d0e-3b5a-4c38-9d7e-2f0a8c51b9e4")

// parseLocations converts the point features of a GeoJSON FeatureCollection
// into locations of src.Kind. Features without a point geometry or a usable
// name are counted as skipped.
func parseLocations(raw []byte, src SourceEntry, now time.Time) ([]domain.Location, int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("parse geojson: %w", err)
	}

	locs := make([]domain.Location, 0, len(fc.Features))
	skipped := 0
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			skipped++
			continue
		}
		name := firstString(f.Properties, "name", "nombre")
		if name == "" {
			skipped++
			continue
		}

		loc := domain.Location{
			ID:          featureID(src, f, i),
			Kind:        src.Kind,
			Name:        name,
			Description: firstString(f.Properties, "description", "descripcion"),
			Status:      domain.StatusActive,
			GeoPoint:    domain.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()},
			Source:      src.Name,
			CreatedAt:   now,
		}
		if status := domain.LocationStatus(firstString(f.Properties, "status", "estado")); status.Valid() {
			loc.Status = status
		}
		if src.Kind == domain.KindCoolZone {
			loc.Category = firstString(f.Properties, "type", "tipo")
			if loc.Category == "" {
				loc.Category = src.Category
			}
		}
		if err := loc.Validate(); err != nil {
			skipped++
			continue
		}
		locs = append(locs, loc)
	}
	return locs, skipped, nil
}

func featureID(src SourceEntry, f *geojson.Feature, index int) string {
	key := fmt.Sprintf("%s/%d", src.Name, index)
	if f.ID != nil {
		key = fmt.Sprintf("%s/%v", src.Name, f.ID)
	}
	return uuid.NewSHA1(importNamespace, []byte(key)).String()
}

func firstString(props geojson.Properties, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(props.MustString(k, "")); v != "" {
			return v
		}
	}
	return ""
}
