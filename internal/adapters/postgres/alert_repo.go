package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/calorsos/calorsos/internal/core/domain"
)

const alertColumns = `id, temperature, humidity, uv_index, heat_index, risk_level, source, issued_at`

// AlertRepo implements ports.AlertRepository with pgx.
type AlertRepo struct {
	db Querier
}

// NewAlertRepo creates a new AlertRepo.
func NewAlertRepo(db Querier) *AlertRepo {
	return &AlertRepo{db: db}
}

// Create inserts an alert.
func (r *AlertRepo) Create(ctx context.Context, a *domain.HeatAlert) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO heat_alerts (id, temperature, humidity, uv_index, heat_index, risk_level, source, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.Temperature, a.Humidity, a.UVIndex, a.HeatIndex, a.RiskLevel, a.Source, a.IssuedAt)
	return err
}

// GetByID returns an alert by id.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*domain.HeatAlert, error) {
	a, err := scanAlert(r.db.QueryRow(ctx, `SELECT `+alertColumns+` FROM heat_alerts WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "alert", id)
	}
	return a, nil
}

// Latest returns the most recently issued alert.
func (r *AlertRepo) Latest(ctx context.Context) (*domain.HeatAlert, error) {
	a, err := scanAlert(r.db.QueryRow(ctx, `SELECT `+alertColumns+` FROM heat_alerts ORDER BY issued_at DESC LIMIT 1`))
	if err != nil {
		return nil, notFound(err, "alert", "latest")
	}
	return a, nil
}

// List returns up to limit alerts, newest first.
func (r *AlertRepo) List(ctx context.Context, limit int) ([]domain.HeatAlert, error) {
	rows, err := r.db.Query(ctx, `SELECT `+alertColumns+` FROM heat_alerts ORDER BY issued_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := []domain.HeatAlert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

// Delete removes an alert.
func (r *AlertRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM heat_alerts WHERE id = $1`, id)
	return affected(tag, err, "alert", id)
}

func scanAlert(row pgx.Row) (*domain.HeatAlert, error) {
	var a domain.HeatAlert
	if err := row.Scan(&a.ID, &a.Temperature, &a.Humidity, &a.UVIndex, &a.HeatIndex, &a.RiskLevel, &a.Source, &a.IssuedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
