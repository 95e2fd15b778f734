package mapview

import (
	"context"
	"errors"
	"time"

	"github.com/calorsos/calorsos/internal/core/domain"
)

var (
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrPositionTimeout     = errors.New("position request timed out")
)

// PositionOptions tune a position request.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// DefaultPositionOptions asks for a coarse fix within 5s, accepting a fix up
// to 30s old.
func DefaultPositionOptions() PositionOptions {
	return PositionOptions{HighAccuracy: false, Timeout: 5 * time.Second, MaximumAge: 30 * time.Second}
}

// Geolocator is the platform position source.
type Geolocator interface {
	// CurrentPosition returns a single fix.
	CurrentPosition(ctx context.Context, opts PositionOptions) (domain.GeoPoint, error)
	// Watch delivers fixes until stop is called. Callbacks may arrive on any
	// goroutine, including the caller's.
	Watch(opts PositionOptions, onFix func(domain.GeoPoint), onErr func(error)) (stop func())
}

// FixedLocator reports a fixed position, or Err if set. Watch delivers once,
// synchronously.
type FixedLocator struct {
	Point domain.GeoPoint
	Err   error
}

func (f FixedLocator) CurrentPosition(ctx context.Context, _ PositionOptions) (domain.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeoPoint{}, err
	}
	if f.Err != nil {
		return domain.GeoPoint{}, f.Err
	}
	return f.Point, nil
}

func (f FixedLocator) Watch(_ PositionOptions, onFix func(domain.GeoPoint), onErr func(error)) func() {
	if f.Err != nil {
		onErr(f.Err)
	} else {
		onFix(f.Point)
	}
	return func() {}
}
