package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/calorsos/calorsos/internal/adapters/postgres"
	"github.com/calorsos/calorsos/internal/core/domain"
)

var locationCols = []string{"id", "kind", "name", "description", "status", "category", "lat", "lon", "source", "validated_by", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestLocationRepo_CreateAndGet(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewLocationRepo(mock)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	loc := &domain.Location{
		ID: "z1", Kind: domain.KindCoolZone, Name: "Parque Centenario", Status: domain.StatusActive,
		Category: "urbana", GeoPoint: domain.GeoPoint{Lat: 10.4236, Lon: -75.5478}, CreatedAt: created,
	}
	mock.ExpectExec(`INSERT INTO locations`).
		WithArgs("z1", domain.KindCoolZone, "Parque Centenario", "", domain.StatusActive, "urbana", -75.5478, 10.4236, "", "", created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := repo.Create(context.Background(), loc); err != nil {
		t.Fatalf("create: %v", err)
	}

	mock.ExpectQuery(`SELECT id, kind, name, .* FROM locations WHERE kind = \$1 AND id = \$2`).
		WithArgs(domain.KindCoolZone, "z1").
		WillReturnRows(pgxmock.NewRows(locationCols).
			AddRow("z1", domain.KindCoolZone, "Parque Centenario", "", domain.StatusActive, "urbana", 10.4236, -75.5478, "", "", created))

	got, err := repo.GetByID(context.Background(), domain.KindCoolZone, "z1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Parque Centenario" || got.Lat != 10.4236 || got.Lon != -75.5478 {
		t.Errorf("unexpected location %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocationRepo_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewLocationRepo(mock)

	mock.ExpectQuery(`FROM locations WHERE kind`).
		WithArgs(domain.KindHydrationPoint, "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), domain.KindHydrationPoint, "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocationRepo_List(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewLocationRepo(mock)
	now := time.Now()

	mock.ExpectQuery(`FROM locations\s+WHERE kind = \$1 AND \(\$2 = '' OR status = \$2\)`).
		WithArgs(domain.KindHydrationPoint, "active").
		WillReturnRows(pgxmock.NewRows(locationCols).
			AddRow("p1", domain.KindHydrationPoint, "Fuente Plaza", "", domain.StatusActive, "", 10.392, -75.48, "reporte ciudadano", "", now).
			AddRow("p2", domain.KindHydrationPoint, "Fuente Parque", "", domain.StatusActive, "", 10.41, -75.54, "", "", now))

	got, err := repo.List(context.Background(), domain.KindHydrationPoint, domain.StatusActive)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Source != "reporte ciudadano" {
		t.Errorf("unexpected locations %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocationRepo_FindNearby_PassesLonLat(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewLocationRepo(mock)

	mock.ExpectQuery(`ST_DWithin`).
		WithArgs(domain.KindCoolZone, -75.479, 10.391, 1500.0, 10).
		WillReturnRows(pgxmock.NewRows(locationCols))

	got, err := repo.FindNearby(context.Background(), domain.KindCoolZone, domain.GeoPoint{Lat: 10.391, Lon: -75.479}, 1500, 10)
	if err != nil {
		t.Fatalf("find nearby: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected an empty, non-nil slice, got %#v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLocationRepo_UpdateDelete_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewLocationRepo(mock)

	mock.ExpectExec(`UPDATE locations`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := repo.Update(context.Background(), &domain.Location{ID: "x", Kind: domain.KindCoolZone})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec(`DELETE FROM locations`).WithArgs(domain.KindCoolZone, "z1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := repo.Delete(context.Background(), domain.KindCoolZone, "z1"); err != nil {
		t.Errorf("delete: %v", err)
	}
}

func TestReportRepo_ListFilter(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewReportRepo(mock)

	mock.ExpectQuery(`FROM reports WHERE user_id = \$1 AND status = \$2 ORDER BY submitted_at DESC`).
		WithArgs("u1", domain.ReportPending).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "kind", "name", "description", "status", "lat", "lon", "photo_url", "submitted_at"}).
			AddRow("r1", "u1", domain.KindCoolZone, "Árbol grande", "", domain.ReportPending, 10.4, -75.5, "", time.Now()))

	got, err := repo.List(context.Background(), domain.ReportFilter{UserID: "u1", Status: domain.ReportPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Kind != domain.KindCoolZone {
		t.Errorf("unexpected reports %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReportRepo_SetStatus(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewReportRepo(mock)

	mock.ExpectExec(`UPDATE reports SET status`).WithArgs("r1", domain.ReportRejected).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := repo.SetStatus(context.Background(), "r1", domain.ReportRejected); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func acceptedLocation() *domain.Location {
	return &domain.Location{
		ID: "z9", Kind: domain.KindCoolZone, Name: "Reporte ciudadano", Status: domain.StatusActive,
		Category: "urbana", GeoPoint: domain.GeoPoint{Lat: 10.41, Lon: -75.53},
		Source: "reporte ciudadano", ValidatedBy: "admin-1",
		CreatedAt: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
	}
}

func TestReportRepo_Accept(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewReportRepo(mock)
	loc := acceptedLocation()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reports SET status = \$2 WHERE id = \$1 AND status = \$3`).
		WithArgs("r1", domain.ReportValidated, domain.ReportPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO locations`).
		WithArgs("z9", domain.KindCoolZone, "Reporte ciudadano", "", domain.StatusActive, "urbana",
			-75.53, 10.41, "reporte ciudadano", "admin-1", loc.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Accept(context.Background(), "r1", loc); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReportRepo_Accept_NotPending(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewReportRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reports SET status`).
		WithArgs("r1", domain.ReportValidated, domain.ReportPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Accept(context.Background(), "r1", acceptedLocation())
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReportRepo_Accept_InsertFailureRollsBack(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewReportRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reports SET status`).
		WithArgs("r1", domain.ReportValidated, domain.ReportPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO locations`).WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	if err := repo.Accept(context.Background(), "r1", acceptedLocation()); err == nil {
		t.Fatal("expected an error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAlertRepo_Latest(t *testing.T) {
	mock := newMock(t)
	repo := postgres.NewAlertRepo(mock)
	issued := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM heat_alerts ORDER BY issued_at DESC LIMIT 1`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "temperature", "humidity", "uv_index", "heat_index", "risk_level", "source", "issued_at"}).
			AddRow("a1", 34.0, 70.0, 10.0, 45.0, domain.RiskExtreme, "OpenWeatherMap", issued))

	a, err := repo.Latest(context.Background())
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if a.RiskLevel != domain.RiskExtreme || !a.IssuedAt.Equal(issued) {
		t.Errorf("unexpected alert %+v", a)
	}

	mock.ExpectQuery(`FROM heat_alerts ORDER BY`).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.Latest(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
