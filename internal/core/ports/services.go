package ports

import (
	"context"
	"errors"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// ErrCacheMiss is returned by CacheService.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishReportSubmitted(ctx context.Context, r *domain.Report) error
	PublishReportReviewed(ctx context.Context, r *domain.Report) error
	PublishAlert(ctx context.Context, a *domain.HeatAlert) error
	PublishLocationsChanged(ctx context.Context, kind domain.LocationKind) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeReports(ctx context.Context, handler func(ctx context.Context, r *domain.Report) error) error
	SubscribeAlerts(ctx context.Context, handler func(ctx context.Context, a *domain.HeatAlert) error) error
	SubscribeLocationsChanged(ctx context.Context, handler func(ctx context.Context, kind domain.LocationKind) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, keys ...string) error
}

// WeatherProvider reports current conditions for a city.
type WeatherProvider interface {
	Current(ctx context.Context, city string) (*domain.Weather, error)
}
