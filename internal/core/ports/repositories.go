package ports

import (
	"context"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// LocationRepository persists cool zones and hydration points.
type LocationRepository interface {
	Create(ctx context.Context, loc *domain.Location) error
	CreateBatch(ctx context.Context, locs []domain.Location) error
	Update(ctx context.Context, loc *domain.Location) error
	Delete(ctx context.Context, kind domain.LocationKind, id string) error
	GetByID(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error)
	// List returns locations of kind, restricted to status when it is non-empty.
	List(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error)
	// FindNearby returns active locations of kind within radiusMeters, closest first.
	FindNearby(ctx context.Context, kind domain.LocationKind, at domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Location, error)
}

// ReportRepository persists community reports.
type ReportRepository interface {
	Create(ctx context.Context, r *domain.Report) error
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error)
	SetStatus(ctx context.Context, id string, status domain.ReportStatus) error
	// Accept marks a pending report validated and stores loc in the same
	// transaction. It returns domain.ErrConflict when the report is no
	// longer pending.
	Accept(ctx context.Context, id string, loc *domain.Location) error
	Delete(ctx context.Context, id string) error
}

// AlertRepository persists heat alerts.
type AlertRepository interface {
	Create(ctx context.Context, a *domain.HeatAlert) error
	GetByID(ctx context.Context, id string) (*domain.HeatAlert, error)
	Latest(ctx context.Context) (*domain.HeatAlert, error)
	List(ctx context.Context, limit int) ([]domain.HeatAlert, error)
	Delete(ctx context.Context, id string) error
}
