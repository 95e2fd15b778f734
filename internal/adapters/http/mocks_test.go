package http_test

import (
	"context"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// ---- Mock repositories ----

type mockLocationRepo struct {
	createFn     func(ctx context.Context, loc *domain.Location) error
	updateFn     func(ctx context.Context, loc *domain.Location) error
	deleteFn     func(ctx context.Context, kind domain.LocationKind, id string) error
	getByIDFn    func(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error)
	listFn       func(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error)
	findNearbyFn func(ctx context.Context, kind domain.LocationKind, at domain.GeoPoint, radius float64, limit int) ([]domain.Location, error)
}

func (m *mockLocationRepo) CreateBatch(ctx context.Context, locs []domain.Location) error { return nil }

func (m *mockLocationRepo) Create(ctx context.Context, loc *domain.Location) error {
	if m.createFn != nil {
		return m.createFn(ctx, loc)
	}
	return nil
}
func (m *mockLocationRepo) Update(ctx context.Context, loc *domain.Location) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, loc)
	}
	return nil
}
func (m *mockLocationRepo) Delete(ctx context.Context, kind domain.LocationKind, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, kind, id)
	}
	return nil
}
func (m *mockLocationRepo) GetByID(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, kind, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockLocationRepo) List(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error) {
	if m.listFn != nil {
		return m.listFn(ctx, kind, status)
	}
	return nil, nil
}
func (m *mockLocationRepo) FindNearby(ctx context.Context, kind domain.LocationKind, at domain.GeoPoint, radius float64, limit int) ([]domain.Location, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, kind, at, radius, limit)
	}
	return nil, nil
}

type mockReportRepo struct {
	createFn    func(ctx context.Context, r *domain.Report) error
	getByIDFn   func(ctx context.Context, id string) (*domain.Report, error)
	listFn      func(ctx context.Context, f domain.ReportFilter) ([]domain.Report, error)
	setStatusFn func(ctx context.Context, id string, status domain.ReportStatus) error
	acceptFn    func(ctx context.Context, id string, loc *domain.Location) error
}

func (m *mockReportRepo) Delete(ctx context.Context, id string) error { return nil }

func (m *mockReportRepo) Create(ctx context.Context, r *domain.Report) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	return nil
}
func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockReportRepo) List(ctx context.Context, f domain.ReportFilter) ([]domain.Report, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}
func (m *mockReportRepo) SetStatus(ctx context.Context, id string, status domain.ReportStatus) error {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status)
	}
	return nil
}
func (m *mockReportRepo) Accept(ctx context.Context, id string, loc *domain.Location) error {
	if m.acceptFn != nil {
		return m.acceptFn(ctx, id, loc)
	}
	return nil
}

type mockAlertRepo struct {
	createFn func(ctx context.Context, a *domain.HeatAlert) error
	latestFn func(ctx context.Context) (*domain.HeatAlert, error)
	listFn   func(ctx context.Context, limit int) ([]domain.HeatAlert, error)
}

func (m *mockAlertRepo) Create(ctx context.Context, a *domain.HeatAlert) error {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	return nil
}
func (m *mockAlertRepo) GetByID(ctx context.Context, id string) (*domain.HeatAlert, error) {
	return nil, domain.ErrNotFound
}
func (m *mockAlertRepo) Latest(ctx context.Context) (*domain.HeatAlert, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx)
	}
	return nil, domain.ErrNotFound
}
func (m *mockAlertRepo) List(ctx context.Context, limit int) ([]domain.HeatAlert, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}
func (m *mockAlertRepo) Delete(ctx context.Context, id string) error { return nil }

type mockWeather struct {
	currentFn func(ctx context.Context, city string) (*domain.Weather, error)
}

func (m *mockWeather) Current(ctx context.Context, city string) (*domain.Weather, error) {
	return m.currentFn(ctx, city)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }
