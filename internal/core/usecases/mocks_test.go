package usecases_test

import (
	"context"
	"sync"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/ports"
)

// --- Mock LocationRepository ---

type mockLocationRepo struct {
	createFn     func(ctx context.Context, loc *domain.Location) error
	updateFn     func(ctx context.Context, loc *domain.Location) error
	deleteFn     func(ctx context.Context, kind domain.LocationKind, id string) error
	getByIDFn    func(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error)
	listFn       func(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error)
	findNearbyFn func(ctx context.Context, kind domain.LocationKind, at domain.GeoPoint, radius float64, limit int) ([]domain.Location, error)
}

func (m *mockLocationRepo) CreateBatch(context.Context, []domain.Location) error { return nil }

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

// --- Mock ReportRepository ---

type mockReportRepo struct {
	createFn    func(ctx context.Context, r *domain.Report) error
	getByIDFn   func(ctx context.Context, id string) (*domain.Report, error)
	listFn      func(ctx context.Context, f domain.ReportFilter) ([]domain.Report, error)
	setStatusFn func(ctx context.Context, id string, status domain.ReportStatus) error
	acceptFn    func(ctx context.Context, id string, loc *domain.Location) error
}

func (m *mockReportRepo) Delete(context.Context, string) error { return nil }

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

// --- Mock AlertRepository ---

type mockAlertRepo struct {
	created []domain.HeatAlert
	latest  *domain.HeatAlert
}

func (m *mockAlertRepo) Create(_ context.Context, a *domain.HeatAlert) error {
	m.created = append(m.created, *a)
	return nil
}

func (m *mockAlertRepo) GetByID(context.Context, string) (*domain.HeatAlert, error) {
	return nil, domain.ErrNotFound
}

func (m *mockAlertRepo) Latest(context.Context) (*domain.HeatAlert, error) {
	if m.latest == nil {
		return nil, domain.ErrNotFound
	}
	return m.latest, nil
}

func (m *mockAlertRepo) List(_ context.Context, limit int) ([]domain.HeatAlert, error) {
	if len(m.created) > limit {
		return m.created[:limit], nil
	}
	return m.created, nil
}

func (m *mockAlertRepo) Delete(context.Context, string) error { return nil }

// --- Mock CacheService ---

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, ports.ErrCacheMiss
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	submitted []string
	reviewed  []domain.ReportStatus
	alerts    []string
	changed   []domain.LocationKind
	err       error
}

func (p *mockPublisher) PublishReportSubmitted(_ context.Context, r *domain.Report) error {
	p.submitted = append(p.submitted, r.ID)
	return p.err
}

func (p *mockPublisher) PublishReportReviewed(_ context.Context, r *domain.Report) error {
	p.reviewed = append(p.reviewed, r.Status)
	return p.err
}

func (p *mockPublisher) PublishAlert(_ context.Context, a *domain.HeatAlert) error {
	p.alerts = append(p.alerts, a.ID)
	return p.err
}

func (p *mockPublisher) PublishLocationsChanged(_ context.Context, kind domain.LocationKind) error {
	p.changed = append(p.changed, kind)
	return p.err
}

// --- Mock WeatherProvider ---

type mockWeather struct {
	calls int
	w     domain.Weather
	err   error
}

func (m *mockWeather) Current(_ context.Context, city string) (*domain.Weather, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	w := m.w
	w.City = city
	return &w, nil
}
