package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-kml/v2"
	"golang.org/x/sync/errgroup"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/geospatial"
)

const kmlContentType = "application/vnd.google-earth.kml+xml"

var kindFolderNames = map[domain.LocationKind]string{
	domain.KindCoolZone:       "Zonas frescas",
	domain.KindHydrationPoint: "Puntos de hidratación",
}

// activeCatalog loads both active catalogs concurrently.
func activeCatalog(c *fiber.Ctx, deps *Dependencies) (zones, points []domain.Location, err error) {
	g, ctx := errgroup.WithContext(c.UserContext())
	g.Go(func() error {
		var err error
		zones, err = deps.Locations.List(ctx, domain.KindCoolZone, domain.StatusActive)
		return err
	})
	g.Go(func() error {
		var err error
		points, err = deps.Locations.List(ctx, domain.KindHydrationPoint, domain.StatusActive)
		return err
	})
	return zones, points, g.Wait()
}

// locationFeature renders a location as a GeoJSON point feature. A non-nil
// origin adds distance properties.
func locationFeature(l domain.Location, origin *domain.GeoPoint) *geojson.Feature {
	f := geojson.NewFeature(geospatial.ToOrb(l.GeoPoint))
	f.ID = l.Key()
	f.Properties["id"] = l.ID
	f.Properties["kind"] = string(l.Kind)
	f.Properties["name"] = l.Name
	if l.Description != "" {
		f.Properties["description"] = l.Description
	}
	if l.Category != "" {
		f.Properties["type"] = l.Category
	}
	if origin != nil {
		km := geospatial.DistanceKm(*origin, l.GeoPoint)
		f.Properties["distance_km"] = km
		f.Properties["distance_label"] = geospatial.FormatDistance(km)
	}
	return f
}

// MapGeoJSONHandler exports every active location as a GeoJSON
// FeatureCollection. Passing lat/lon annotates features with distances.
func MapGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var origin *domain.GeoPoint
		if c.Query("lat") != "" || c.Query("lon") != "" {
			p, err := originFromQuery(c)
			if err != nil {
				return fromError(c, err)
			}
			origin = &p
		}

		zones, points, err := activeCatalog(c, deps)
		if err != nil {
			return fromError(c, err)
		}

		fc := geojson.NewFeatureCollection()
		for _, l := range zones {
			fc.Append(locationFeature(l, origin))
		}
		for _, l := range points {
			fc.Append(locationFeature(l, origin))
		}

		body, err := fc.MarshalJSON()
		if err != nil {
			return fromError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(body)
	}
}

func kmlFolder(kind domain.LocationKind, locs []domain.Location) kml.Element {
	children := []kml.Element{kml.Name(kindFolderNames[kind])}
	for _, l := range locs {
		placemark := []kml.Element{
			kml.Name(l.Name),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: l.Lon, Lat: l.Lat})),
		}
		if l.Description != "" {
			placemark = append(placemark, kml.Description(l.Description))
		}
		children = append(children, kml.Placemark(placemark...))
	}
	return kml.Folder(children...)
}

// MapKMLHandler exports every active location as a KML document with one
// folder per kind.
func MapKMLHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, points, err := activeCatalog(c, deps)
		if err != nil {
			return fromError(c, err)
		}

		doc := kml.KML(kml.Document(
			kml.Name("CalorSOS"),
			kmlFolder(domain.KindCoolZone, zones),
			kmlFolder(domain.KindHydrationPoint, points),
		))

		var buf bytes.Buffer
		if err := doc.WriteIndent(&buf, "", "  "); err != nil {
			return fromError(c, err)
		}
		c.Set(fiber.HeaderContentType, kmlContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="calorsos.kml"`)
		return c.Send(buf.Bytes())
	}
}
