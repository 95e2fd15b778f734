package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// locationRequest is the body accepted when creating or updating a location.
type locationRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Source      string   `json:"source"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func (r locationRequest) apply(loc *domain.Location) error {
	if r.Latitude == nil || r.Longitude == nil {
		return fmt.Errorf("%w: latitude and longitude are required", domain.ErrInvalidInput)
	}
	loc.Name = strings.TrimSpace(r.Name)
	loc.Description = strings.TrimSpace(r.Description)
	if r.Type != "" {
		loc.Category = r.Type
	}
	loc.Status = domain.LocationStatus(r.Status)
	if r.Source != "" {
		loc.Source = r.Source
	}
	loc.GeoPoint = domain.GeoPoint{Lat: *r.Latitude, Lon: *r.Longitude}
	return nil
}

// originFromQuery parses the required lat/lon query parameters.
func originFromQuery(c *fiber.Ctx) (domain.GeoPoint, error) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: lat is required", domain.ErrInvalidInput)
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: lon is required", domain.ErrInvalidInput)
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return domain.GeoPoint{}, fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
	}
	return p, nil
}

// kindFromQuery reads ?type=, defaulting to cool zones.
func kindFromQuery(c *fiber.Ctx) (domain.LocationKind, error) {
	switch c.Query("type") {
	case "", "zone", string(domain.KindCoolZone):
		return domain.KindCoolZone, nil
	case "point", string(domain.KindHydrationPoint):
		return domain.KindHydrationPoint, nil
	default:
		return "", fmt.Errorf("%w: unknown type %q", domain.ErrInvalidInput, c.Query("type"))
	}
}

// ListLocationsHandler lists locations of kind. ?status= filters, defaulting
// to active; status=all lists everything.
func ListLocationsHandler(deps *Dependencies, kind domain.LocationKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := domain.LocationStatus(c.Query("status", string(domain.StatusActive)))
		if status == "all" {
			status = ""
		}
		locs, err := deps.Locations.List(c.UserContext(), kind, status)
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(paginate(c, locs, pageParams(c)))
	}
}

// GetLocationHandler returns one location.
func GetLocationHandler(deps *Dependencies, kind domain.LocationKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, err := deps.Locations.Get(c.UserContext(), kind, c.Params("id"))
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(loc)
	}
}

// CreateLocationHandler stores a new location. Admin only.
func CreateLocationHandler(deps *Dependencies, kind domain.LocationKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		loc := domain.Location{Kind: kind}
		if err := req.apply(&loc); err != nil {
			return fromError(c, err)
		}
		if err := deps.Locations.Create(c.UserContext(), &loc); err != nil {
			return fromError(c, err)
		}
		c.Location(c.Path() + "/" + loc.ID)
		return c.Status(fiber.StatusCreated).JSON(loc)
	}
}

// UpdateLocationHandler replaces the editable fields of a location. Admin only.
func UpdateLocationHandler(deps *Dependencies, kind domain.LocationKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		loc, err := deps.Locations.Get(c.UserContext(), kind, c.Params("id"))
		if err != nil {
			return fromError(c, err)
		}
		if req.Status == "" {
			req.Status = string(loc.Status)
		}
		if err := req.apply(loc); err != nil {
			return fromError(c, err)
		}
		if err := deps.Locations.Update(c.UserContext(), loc); err != nil {
			return fromError(c, err)
		}
		return c.JSON(loc)
	}
}

// DeleteLocationHandler removes a location. Admin only.
func DeleteLocationHandler(deps *Dependencies, kind domain.LocationKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Locations.Delete(c.UserContext(), kind, c.Params("id")); err != nil {
			return fromError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// NearestLocationHandler returns the active location closest to lat/lon.
func NearestLocationHandler(deps *Dependencies, kind domain.LocationKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, err := originFromQuery(c)
		if err != nil {
			return fromError(c, err)
		}
		nearest, err := deps.Locations.Nearest(c.UserContext(), kind, origin)
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(nearest)
	}
}

// RankedLocationsHandler returns active locations sorted by distance from lat/lon.
func RankedLocationsHandler(deps *Dependencies, kind domain.LocationKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, err := originFromQuery(c)
		if err != nil {
			return fromError(c, err)
		}
		limit := c.QueryInt("limit", 0)
		if limit < 0 {
			return errBadRequest(c, "limit must not be negative")
		}
		ranked, err := deps.Locations.Ranked(c.UserContext(), kind, origin, limit)
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(ranked)
	}
}

// NearbyLocationsHandler returns active locations within ?radius= meters of lat/lon.
func NearbyLocationsHandler(deps *Dependencies, kind domain.LocationKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, err := originFromQuery(c)
		if err != nil {
			return fromError(c, err)
		}
		radius := c.QueryFloat("radius", 2000)
		if radius <= 0 || radius > 20000 {
			return errBadRequest(c, "radius must be between 1 and 20000 meters")
		}
		nearby, err := deps.Locations.Nearby(c.UserContext(), kind, origin, radius, c.QueryInt("limit", 50))
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(nearby)
	}
}

// RoutePreviewHandler returns the walking leg to the nearest location of ?type=.
func RoutePreviewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin, err := originFromQuery(c)
		if err != nil {
			return fromError(c, err)
		}
		kind, err := kindFromQuery(c)
		if err != nil {
			return fromError(c, err)
		}
		preview, err := deps.Locations.RoutePreview(c.UserContext(), kind, origin)
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(preview)
	}
}

// WeatherHandler returns current conditions for the configured city.
func WeatherHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		w, err := deps.Alerts.CurrentWeather(c.UserContext())
		if err != nil {
			return fromError(c, err)
		}
		return c.JSON(w)
	}
}

// registerLocationRoutes mounts the catalog endpoints of one kind on r.
// Reads are public; writes require the admin role.
func registerLocationRoutes(r fiber.Router, deps *Dependencies, kind domain.LocationKind, admin []fiber.Handler) {
	r.Get("/", withTimeout(ListLocationsHandler(deps, kind)))
	r.Get("/nearest", withTimeout(NearestLocationHandler(deps, kind)))
	r.Get("/by-distance", withTimeout(RankedLocationsHandler(deps, kind)))
	r.Get("/nearby", withTimeout(NearbyLocationsHandler(deps, kind)))
	r.Get("/:id", withTimeout(GetLocationHandler(deps, kind)))

	r.Post("/", chain(admin, withTimeout(CreateLocationHandler(deps, kind)))...)
	r.Put("/:id", chain(admin, withTimeout(UpdateLocationHandler(deps, kind)))...)
	r.Delete("/:id", chain(admin, withTimeout(DeleteLocationHandler(deps, kind)))...)
}
