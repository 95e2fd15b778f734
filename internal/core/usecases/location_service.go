package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/ports"
	"github.com/calorsos/calorsos/internal/pkg/geospatial"
)

const (
	locationListTTL = 300
	locationItemTTL = 600

	defaultZoneCategory    = "urbana"
	defaultHydrationSource = "reporte ciudadano"
)

// LocationService handles cool zones and hydration points.
type LocationService struct {
	locations ports.LocationRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewLocationService creates a new LocationService. cache and publisher may be nil.
func NewLocationService(locations ports.LocationRepository, cache ports.CacheService, publisher ports.EventPublisher) *LocationService {
	return &LocationService{locations: locations, cache: cache, publisher: publisher}
}

func listKey(kind domain.LocationKind, status domain.LocationStatus) string {
	if status == "" {
		status = "all"
	}
	return fmt.Sprintf("locations:%s:%s", kind, status)
}

func itemKey(kind domain.LocationKind, id string) string {
	return fmt.Sprintf("locations:%s:id:%s", kind, id)
}

// List returns the locations of kind. An empty status lists every status.
func (s *LocationService) List(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown location kind %q", domain.ErrInvalidInput, kind)
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return cached(ctx, s.cache, listKey(kind, status), locationListTTL, func() ([]domain.Location, error) {
		return s.locations.List(ctx, kind, status)
	})
}

// ListLocations lets the service act as the home page catalog.
func (s *LocationService) ListLocations(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error) {
	return s.List(ctx, kind, status)
}

// Get returns a single location.
func (s *LocationService) Get(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error) {
	return cached(ctx, s.cache, itemKey(kind, id), locationItemTTL, func() (*domain.Location, error) {
		return s.locations.GetByID(ctx, kind, id)
	})
}

// Create stores a new location, filling id, status and per-kind defaults.
func (s *LocationService) Create(ctx context.Context, loc *domain.Location) error {
	if err := prepareLocation(loc); err != nil {
		return err
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	s.changed(ctx, loc.Kind, "")
	return nil
}

// prepareLocation fills the defaults of a new location and validates it.
func prepareLocation(loc *domain.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.Status == "" {
		loc.Status = domain.StatusActive
	}
	switch loc.Kind {
	case domain.KindCoolZone:
		if loc.Category == "" {
			loc.Category = defaultZoneCategory
		}
	case domain.KindHydrationPoint:
		if loc.Source == "" {
			loc.Source = defaultHydrationSource
		}
	}
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now().UTC()
	}
	return loc.Validate()
}

// Update replaces the editable fields of an existing location.
func (s *LocationService) Update(ctx context.Context, loc *domain.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	if err := s.locations.Update(ctx, loc); err != nil {
		return fmt.Errorf("update location %s: %w", loc.ID, err)
	}
	s.changed(ctx, loc.Kind, loc.ID)
	return nil
}

// Delete removes a location.
func (s *LocationService) Delete(ctx context.Context, kind domain.LocationKind, id string) error {
	if err := s.locations.Delete(ctx, kind, id); err != nil {
		return fmt.Errorf("delete location %s: %w", id, err)
	}
	s.changed(ctx, kind, id)
	return nil
}

// Nearest returns the active location of kind closest to origin.
func (s *LocationService) Nearest(ctx context.Context, kind domain.LocationKind, origin domain.GeoPoint) (*domain.AnnotatedLocation, error) {
	ranked, err := s.nearest(ctx, kind, origin)
	if err != nil {
		return nil, err
	}
	out := geospatial.Annotate(*ranked)
	return &out, nil
}

// Ranked returns active locations of kind ordered by distance from origin.
// A positive limit truncates the result.
func (s *LocationService) Ranked(ctx context.Context, kind domain.LocationKind, origin domain.GeoPoint, limit int) ([]domain.AnnotatedLocation, error) {
	if !origin.Valid() {
		return nil, fmt.Errorf("%w: origin out of range", domain.ErrInvalidInput)
	}
	locs, err := s.List(ctx, kind, domain.StatusActive)
	if err != nil {
		return nil, err
	}

	ranked := geospatial.AnnotateByDistance(&origin, locs)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]domain.AnnotatedLocation, len(ranked))
	for i, r := range ranked {
		out[i] = geospatial.Annotate(r)
	}
	return out, nil
}

// Nearby returns active locations of kind within radiusMeters of origin.
func (s *LocationService) Nearby(ctx context.Context, kind domain.LocationKind, origin domain.GeoPoint, radiusMeters float64, limit int) ([]domain.AnnotatedLocation, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown location kind %q", domain.ErrInvalidInput, kind)
	}
	if !origin.Valid() {
		return nil, fmt.Errorf("%w: origin out of range", domain.ErrInvalidInput)
	}
	if radiusMeters <= 0 || radiusMeters > 20000 {
		radiusMeters = 2000
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	// Uncached: per-origin keys cannot be dropped when a location changes.
	locs, err := s.locations.FindNearby(ctx, kind, origin, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	ranked := geospatial.AnnotateByDistance(&origin, locs)
	out := make([]domain.AnnotatedLocation, len(ranked))
	for i, r := range ranked {
		out[i] = geospatial.Annotate(r)
	}
	return out, nil
}

// RoutePreview builds the walking leg from origin to the nearest active
// location of kind.
func (s *LocationService) RoutePreview(ctx context.Context, kind domain.LocationKind, origin domain.GeoPoint) (*domain.RoutePreview, error) {
	ranked, err := s.nearest(ctx, kind, origin)
	if err != nil {
		return nil, err
	}
	preview := geospatial.PreviewRoute(origin, *ranked)
	return &preview, nil
}

func (s *LocationService) nearest(ctx context.Context, kind domain.LocationKind, origin domain.GeoPoint) (*geospatial.Ranked[domain.Location], error) {
	if !origin.Valid() {
		return nil, fmt.Errorf("%w: origin out of range", domain.ErrInvalidInput)
	}
	locs, err := s.List(ctx, kind, domain.StatusActive)
	if err != nil {
		return nil, err
	}
	ranked := geospatial.Nearest(&origin, locs)
	if ranked == nil {
		return nil, fmt.Errorf("%w: no active %s", domain.ErrNotFound, kind)
	}
	return ranked, nil
}

// Invalidate drops the cached lists of kind. It is also driven by
// locations.changed events from other instances.
func (s *LocationService) Invalidate(ctx context.Context, kind domain.LocationKind) {
	if s.cache == nil {
		return
	}
	keys := []string{listKey(kind, ""), listKey(kind, domain.StatusActive), listKey(kind, domain.StatusInactive)}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		slog.Warn("cache invalidation failed", "kind", kind, "error", err)
	}
}

func (s *LocationService) changed(ctx context.Context, kind domain.LocationKind, id string) {
	s.Invalidate(ctx, kind)
	if s.cache != nil && id != "" {
		_ = s.cache.Delete(ctx, itemKey(kind, id))
	}
	if s.publisher != nil {
		if err := s.publisher.PublishLocationsChanged(ctx, kind); err != nil {
			slog.Warn("publish locations changed", "kind", kind, "error", err)
		}
	}
}
