package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/usecases"
)

var (
	userAt = domain.GeoPoint{Lat: 10.3910, Lon: -75.4794}
	zones  = []domain.Location{
		{ID: "z1", Kind: domain.KindCoolZone, Name: "Parque Centenario", Status: domain.StatusActive, GeoPoint: domain.GeoPoint{Lat: 10.4236, Lon: -75.5478}},
		{ID: "z2", Kind: domain.KindCoolZone, Name: "Plaza Bolívar", Status: domain.StatusActive, GeoPoint: domain.GeoPoint{Lat: 10.3920, Lon: -75.4790}},
	}
)

func zoneRepo(calls *int) *mockLocationRepo {
	return &mockLocationRepo{
		listFn: func(_ context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error) {
			if calls != nil {
				*calls++
			}
			if kind != domain.KindCoolZone || status != domain.StatusActive {
				return nil, nil
			}
			return zones, nil
		},
	}
}

func TestLocationService_List_Cached(t *testing.T) {
	calls := 0
	cache := newMemCache()
	svc := usecases.NewLocationService(zoneRepo(&calls), cache, nil)

	for i := 0; i < 3; i++ {
		locs, err := svc.List(context.Background(), domain.KindCoolZone, domain.StatusActive)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(locs) != 2 {
			t.Fatalf("expected 2 zones, got %d", len(locs))
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
}

func TestLocationService_List_UnknownKind(t *testing.T) {
	svc := usecases.NewLocationService(&mockLocationRepo{}, nil, nil)
	_, err := svc.List(context.Background(), "park", "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLocationService_Create_DefaultsAndInvalidates(t *testing.T) {
	var stored *domain.Location
	repo := &mockLocationRepo{
		createFn: func(_ context.Context, loc *domain.Location) error {
			stored = loc
			return nil
		},
	}
	cache := newMemCache()
	pub := &mockPublisher{}
	svc := usecases.NewLocationService(repo, cache, pub)

	loc := &domain.Location{Kind: domain.KindCoolZone, Name: "Biblioteca", GeoPoint: userAt}
	if err := svc.Create(context.Background(), loc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
	if stored.Status != domain.StatusActive {
		t.Errorf("expected active status, got %s", stored.Status)
	}
	if stored.Category != "urbana" {
		t.Errorf("expected default category urbana, got %q", stored.Category)
	}
	if len(pub.changed) != 1 || pub.changed[0] != domain.KindCoolZone {
		t.Errorf("expected one locations.changed event, got %v", pub.changed)
	}
	if len(cache.deleted) == 0 {
		t.Error("expected cached lists to be invalidated")
	}
}

func TestLocationService_Create_Invalid(t *testing.T) {
	svc := usecases.NewLocationService(&mockLocationRepo{}, nil, nil)
	err := svc.Create(context.Background(), &domain.Location{Kind: domain.KindHydrationPoint, GeoPoint: userAt})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing name, got %v", err)
	}
}

func TestLocationService_Nearest(t *testing.T) {
	svc := usecases.NewLocationService(zoneRepo(nil), nil, nil)

	got, err := svc.Nearest(context.Background(), domain.KindCoolZone, userAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "z2" {
		t.Errorf("expected Plaza Bolívar, got %s", got.Name)
	}
	if got.DistanceLabel != "119 m" {
		t.Errorf("expected label 119 m, got %s", got.DistanceLabel)
	}
}

func TestLocationService_Nearest_Empty(t *testing.T) {
	svc := usecases.NewLocationService(zoneRepo(nil), nil, nil)
	_, err := svc.Nearest(context.Background(), domain.KindHydrationPoint, userAt)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocationService_Ranked_Limit(t *testing.T) {
	svc := usecases.NewLocationService(zoneRepo(nil), nil, nil)

	got, err := svc.Ranked(context.Background(), domain.KindCoolZone, userAt, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "z2" {
		t.Fatalf("expected only the closest zone, got %+v", got)
	}
}

func TestLocationService_Ranked_InvalidOrigin(t *testing.T) {
	svc := usecases.NewLocationService(zoneRepo(nil), nil, nil)
	_, err := svc.Ranked(context.Background(), domain.KindCoolZone, domain.GeoPoint{Lat: 95}, 0)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLocationService_Nearby_ClampsArguments(t *testing.T) {
	repo := &mockLocationRepo{
		findNearbyFn: func(_ context.Context, _ domain.LocationKind, _ domain.GeoPoint, radius float64, limit int) ([]domain.Location, error) {
			if radius != 2000 {
				t.Errorf("expected default radius 2000, got %.0f", radius)
			}
			if limit != 50 {
				t.Errorf("expected limit clamped to 50, got %d", limit)
			}
			return zones, nil
		},
	}
	svc := usecases.NewLocationService(repo, nil, nil)

	got, err := svc.Nearby(context.Background(), domain.KindCoolZone, userAt, -1, 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "z2" {
		t.Errorf("expected results sorted by distance, got %+v", got)
	}
}

func TestLocationService_Nearby_SeesDeletes(t *testing.T) {
	stored := append([]domain.Location(nil), zones...)
	repo := &mockLocationRepo{
		findNearbyFn: func(context.Context, domain.LocationKind, domain.GeoPoint, float64, int) ([]domain.Location, error) {
			return stored, nil
		},
		deleteFn: func(_ context.Context, _ domain.LocationKind, id string) error {
			for i, l := range stored {
				if l.ID == id {
					stored = append(stored[:i:i], stored[i+1:]...)
					return nil
				}
			}
			return domain.ErrNotFound
		},
	}
	svc := usecases.NewLocationService(repo, newMemCache(), nil)
	ctx := context.Background()

	got, err := svc.Nearby(ctx, domain.KindCoolZone, userAt, 5000, 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("expected 2 nearby zones, got %d (err %v)", len(got), err)
	}
	if err := svc.Delete(ctx, domain.KindCoolZone, "z2"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err = svc.Nearby(ctx, domain.KindCoolZone, userAt, 5000, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "z1" {
		t.Errorf("expected the deleted zone to be gone, got %+v", got)
	}
}

func TestLocationService_RoutePreview(t *testing.T) {
	svc := usecases.NewLocationService(zoneRepo(nil), nil, nil)

	preview, err := svc.RoutePreview(context.Background(), domain.KindCoolZone, userAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(preview.Route) != 2 || preview.Route[0] != userAt {
		t.Errorf("expected route to start at the user, got %v", preview.Route)
	}
	if preview.Polyline == "" {
		t.Error("expected an encoded polyline")
	}
	if preview.WalkingTime != "1 min" {
		t.Errorf("expected 1 min, got %s", preview.WalkingTime)
	}
}

func TestLocationService_Delete_PropagatesError(t *testing.T) {
	repo := &mockLocationRepo{
		deleteFn: func(context.Context, domain.LocationKind, string) error { return domain.ErrNotFound },
	}
	pub := &mockPublisher{}
	svc := usecases.NewLocationService(repo, nil, pub)

	err := svc.Delete(context.Background(), domain.KindCoolZone, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(pub.changed) != 0 {
		t.Error("no event expected after a failed delete")
	}
}
