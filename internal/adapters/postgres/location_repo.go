package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/calorsos/calorsos/internal/core/domain"
)

const locationColumns = `id, kind, name, COALESCE(description, ''), status, COALESCE(category, ''),
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       COALESCE(source, ''), COALESCE(validated_by, ''), created_at`

const insertLocation = `
		INSERT INTO locations (id, kind, name, description, status, category, location, source, validated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography, $9, $10, $11)`

// LocationRepo implements ports.LocationRepository with pgx and PostGIS.
type LocationRepo struct {
	db Querier
}

// NewLocationRepo creates a new LocationRepo.
func NewLocationRepo(db Querier) *LocationRepo {
	return &LocationRepo{db: db}
}

func locationArgs(l *domain.Location) []any {
	return []any{l.ID, l.Kind, l.Name, l.Description, l.Status, l.Category,
		l.Lon, l.Lat, l.Source, l.ValidatedBy, l.CreatedAt}
}

// Create inserts a location.
func (r *LocationRepo) Create(ctx context.Context, l *domain.Location) error {
	_, err := r.db.Exec(ctx, insertLocation, locationArgs(l)...)
	return err
}

// CreateBatch inserts many locations using pgx.Batch. Existing ids are left untouched.
func (r *LocationRepo) CreateBatch(ctx context.Context, locs []domain.Location) error {
	batch := &pgx.Batch{}
	for i := range locs {
		batch.Queue(insertLocation+` ON CONFLICT (id) DO NOTHING`, locationArgs(&locs[i])...)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range locs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Update rewrites the editable fields of a location.
func (r *LocationRepo) Update(ctx context.Context, l *domain.Location) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE locations
		SET name = $3, description = $4, status = $5, category = $6,
		    location = ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography
		WHERE kind = $1 AND id = $2
	`, l.Kind, l.ID, l.Name, l.Description, l.Status, l.Category, l.Lon, l.Lat)
	return affected(tag, err, "location", l.ID)
}

// Delete removes a location.
func (r *LocationRepo) Delete(ctx context.Context, kind domain.LocationKind, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE kind = $1 AND id = $2`, kind, id)
	return affected(tag, err, "location", id)
}

// GetByID returns a location of kind by id.
func (r *LocationRepo) GetByID(ctx context.Context, kind domain.LocationKind, id string) (*domain.Location, error) {
	row := r.db.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE kind = $1 AND id = $2`, kind, id)
	l, err := scanLocation(row)
	if err != nil {
		return nil, notFound(err, "location", id)
	}
	return l, nil
}

// List returns locations of kind ordered by name. An empty status matches all.
func (r *LocationRepo) List(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) ([]domain.Location, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+locationColumns+`
		FROM locations
		WHERE kind = $1 AND ($2 = '' OR status = $2)
		ORDER BY name, id
	`, kind, string(status))
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// FindNearby returns active locations within radiusMeters using PostGIS ST_DWithin.
func (r *LocationRepo) FindNearby(ctx context.Context, kind domain.LocationKind, at domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Location, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+locationColumns+`
		FROM locations
		WHERE kind = $1 AND status = 'active'
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography)
		LIMIT $5
	`, kind, at.Lon, at.Lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

func scanLocation(row pgx.Row) (*domain.Location, error) {
	var l domain.Location
	if err := row.Scan(
		&l.ID, &l.Kind, &l.Name, &l.Description, &l.Status, &l.Category,
		&l.Lat, &l.Lon, &l.Source, &l.ValidatedBy, &l.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLocations(rows pgx.Rows) ([]domain.Location, error) {
	defer rows.Close()

	locs := []domain.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locs = append(locs, *l)
	}
	return locs, rows.Err()
}
