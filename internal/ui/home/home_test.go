package home_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/mapview"
	"github.com/calorsos/calorsos/internal/ui/home"
)

type mockCatalog struct {
	ListLocationsFn func(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error)
}

func (m *mockCatalog) ListLocations(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error) {
	return m.ListLocationsFn(ctx, kind, status)
}

type recordingView struct {
	mu      sync.Mutex
	updates []mapview.Props
}

func (v *recordingView) Update(p mapview.Props) {
	v.mu.Lock()
	v.updates = append(v.updates, p)
	v.mu.Unlock()
}

func (v *recordingView) last() mapview.Props {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.updates[len(v.updates)-1]
}

var (
	user    = domain.GeoPoint{Lat: 10.3910, Lon: -75.4794}
	parque  = domain.Location{ID: "1", Kind: domain.KindCoolZone, Name: "Parque Centenario", GeoPoint: domain.GeoPoint{Lat: 10.4236, Lon: -75.5478}}
	plaza   = domain.Location{ID: "2", Kind: domain.KindCoolZone, Name: "Plaza Bolívar", GeoPoint: domain.GeoPoint{Lat: 10.3920, Lon: -75.4790}}
	fuente  = domain.Location{ID: "1", Kind: domain.KindHydrationPoint, Name: "Fuente Plaza", GeoPoint: domain.GeoPoint{Lat: 10.3920, Lon: -75.4800}}
	catalog = &mockCatalog{
		ListLocationsFn: func(_ context.Context, kind domain.LocationKind, _ domain.LocationStatus) ([]domain.Location, error) {
			if kind == domain.KindCoolZone {
				return []domain.Location{parque, plaza}, nil
			}
			return []domain.Location{fuente}, nil
		},
	}
)

func loadedPage(t *testing.T, locator mapview.Geolocator) (*home.Page, *recordingView) {
	t.Helper()
	view := &recordingView{}
	page := home.New(catalog, locator, view, nil)
	require.NoError(t, page.Load(context.Background()))
	return page, view
}

func TestLoad_FetchesActiveCatalogs(t *testing.T) {
	var statuses []domain.LocationStatus
	var mu sync.Mutex
	c := &mockCatalog{
		ListLocationsFn: func(_ context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error) {
			mu.Lock()
			statuses = append(statuses, status)
			mu.Unlock()
			return catalog.ListLocationsFn(context.Background(), kind, status)
		},
	}
	view := &recordingView{}
	page := home.New(c, nil, view, nil)

	require.NoError(t, page.Load(context.Background()))

	assert.Equal(t, []domain.LocationStatus{domain.StatusActive, domain.StatusActive}, statuses)
	p := view.last()
	assert.Len(t, p.Zones, 2)
	assert.Len(t, p.HydrationPoints, 1)
	assert.Empty(t, page.Notice())
}

func TestLoad_KeepsPartialResults(t *testing.T) {
	boom := errors.New("db down")
	c := &mockCatalog{
		ListLocationsFn: func(_ context.Context, kind domain.LocationKind, _ domain.LocationStatus) ([]domain.Location, error) {
			if kind == domain.KindHydrationPoint {
				return nil, boom
			}
			return []domain.Location{parque}, nil
		},
	}
	view := &recordingView{}
	page := home.New(c, nil, view, nil)

	err := page.Load(context.Background())

	require.ErrorIs(t, err, boom)
	p := view.last()
	assert.Len(t, p.Zones, 1)
	assert.Empty(t, p.HydrationPoints)
	assert.NotEmpty(t, page.Notice())
}

func TestGoToNearest_WithoutLocation(t *testing.T) {
	page, _ := loadedPage(t, nil)

	_, err := page.GoToNearestZone()

	assert.ErrorIs(t, err, home.ErrNoLocation)
	assert.NotEmpty(t, page.Notice())
}

func TestGoToNearestZone(t *testing.T) {
	page, view := loadedPage(t, mapview.FixedLocator{Point: user})
	require.NoError(t, page.Locate(context.Background()))

	preview, err := page.GoToNearestZone()

	require.NoError(t, err)
	assert.Equal(t, "2", preview.Target.ID)
	assert.Equal(t, []domain.GeoPoint{user, plaza.GeoPoint}, preview.Route)
	assert.NotEmpty(t, preview.Polyline)

	p := view.last()
	require.NotNil(t, p.SelectedZone)
	assert.Equal(t, "2", p.SelectedZone.ID)
	assert.Nil(t, p.SelectedPoint)
	require.NotNil(t, p.Highlighted)
	assert.Equal(t, plaza.Key(), p.Highlighted.Key())
	assert.Len(t, p.Route, 2)
}

func TestGoToNearestPoint(t *testing.T) {
	page, view := loadedPage(t, mapview.FixedLocator{Point: user})
	require.NoError(t, page.Locate(context.Background()))

	preview, err := page.GoToNearestPoint()

	require.NoError(t, err)
	assert.Equal(t, "Fuente Plaza", preview.Target.Name)
	assert.Equal(t, "124 m", preview.Target.DistanceLabel)
	assert.Equal(t, "1 min", preview.WalkingTime)
	require.NotNil(t, view.last().SelectedPoint)
}

func TestGoToNearest_NoCandidates(t *testing.T) {
	empty := &mockCatalog{
		ListLocationsFn: func(context.Context, domain.LocationKind, domain.LocationStatus) ([]domain.Location, error) {
			return nil, nil
		},
	}
	page := home.New(empty, mapview.FixedLocator{Point: user}, nil, nil)
	require.NoError(t, page.Load(context.Background()))
	require.NoError(t, page.Locate(context.Background()))

	_, err := page.GoToNearestPoint()

	assert.ErrorIs(t, err, home.ErrNoCandidates)
}

func TestLocate_PermissionDenied(t *testing.T) {
	page, _ := loadedPage(t, mapview.FixedLocator{Err: mapview.ErrPermissionDenied})

	err := page.Locate(context.Background())

	assert.ErrorIs(t, err, mapview.ErrPermissionDenied)
	assert.Equal(t, "Permiso de ubicación denegado", page.Notice())
}

func TestClearSelection_BumpsReset(t *testing.T) {
	page, view := loadedPage(t, mapview.FixedLocator{Point: user})
	require.NoError(t, page.Locate(context.Background()))
	_, err := page.GoToNearestZone()
	require.NoError(t, err)

	page.ClearSelection()
	page.ClearSelection()

	p := view.last()
	assert.Equal(t, 2, p.ResetSignal)
	assert.Nil(t, p.Route)
	assert.Nil(t, p.Highlighted)
	assert.Nil(t, p.SelectedZone)
}

func TestSelect_FromMap(t *testing.T) {
	page, view := loadedPage(t, nil)

	page.Select(mapview.Activation{Location: &fuente})
	page.Select(mapview.Activation{Report: &domain.Report{ID: "r1"}})

	p := view.last()
	require.NotNil(t, p.SelectedPoint)
	assert.Equal(t, "Fuente Plaza", p.SelectedPoint.Name)
}

func TestSetMini(t *testing.T) {
	page, view := loadedPage(t, nil)

	page.SetMini(true)

	p := view.last()
	assert.True(t, p.Mini)
	assert.True(t, p.ShowExpandButton)
}

func TestPage_DrivesMapController(t *testing.T) {
	scene := mapview.NewScene(800, 600)
	cfg := mapview.DefaultConfig()
	ctrl, err := mapview.New(scene, cfg)
	require.NoError(t, err)
	defer ctrl.Close()

	page := home.New(catalog, mapview.FixedLocator{Point: user}, ctrl, nil)
	require.NoError(t, page.Load(context.Background()))

	_, ok := scene.Marker(fuente.Key())
	assert.True(t, ok)
	assert.Len(t, scene.Markers(), 3)
}
