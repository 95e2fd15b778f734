package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/calorsos/calorsos/internal/core/domain"
)

const reportColumns = `id, COALESCE(user_id, ''), kind, COALESCE(name, ''), COALESCE(description, ''), status,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       COALESCE(photo_url, ''), submitted_at`

// ReportRepo implements ports.ReportRepository with pgx.
type ReportRepo struct {
	db Querier
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(db Querier) *ReportRepo {
	return &ReportRepo{db: db}
}

// Create inserts a report.
func (r *ReportRepo) Create(ctx context.Context, rep *domain.Report) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO reports (id, user_id, kind, name, description, status, location, photo_url, submitted_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography, NULLIF($9, ''), $10)
	`, rep.ID, rep.UserID, rep.Kind, rep.Name, rep.Description, rep.Status,
		rep.Lon, rep.Lat, rep.PhotoURL, rep.SubmittedAt)
	return err
}

// GetByID returns a report by id.
func (r *ReportRepo) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	rep, err := scanReport(row)
	if err != nil {
		return nil, notFound(err, "report", id)
	}
	return rep, nil
}

// List returns reports matching f, newest first.
func (r *ReportRepo) List(ctx context.Context, f domain.ReportFilter) ([]domain.Report, error) {
	var (
		where []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.UserID != "" {
		add("user_id", f.UserID)
	}
	if f.Kind != "" {
		add("kind", f.Kind)
	}
	if f.Status != "" {
		add("status", f.Status)
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY submitted_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rep)
	}
	return reports, rows.Err()
}

// SetStatus updates the moderation status of a report.
func (r *ReportRepo) SetStatus(ctx context.Context, id string, status domain.ReportStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE reports SET status = $2 WHERE id = $1`, id, status)
	return affected(tag, err, "report", id)
}

// Accept validates a pending report and inserts the location it becomes.
func (r *ReportRepo) Accept(ctx context.Context, id string, loc *domain.Location) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `UPDATE reports SET status = $2 WHERE id = $1 AND status = $3`,
		id, domain.ReportValidated, domain.ReportPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report %s is not pending: %w", id, domain.ErrConflict)
	}
	if _, err = tx.Exec(ctx, insertLocation, locationArgs(loc)...); err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return tx.Commit(ctx)
}

// Delete removes a report.
func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	return affected(tag, err, "report", id)
}

func scanReport(row pgx.Row) (*domain.Report, error) {
	var rep domain.Report
	if err := row.Scan(
		&rep.ID, &rep.UserID, &rep.Kind, &rep.Name, &rep.Description, &rep.Status,
		&rep.Lat, &rep.Lon, &rep.PhotoURL, &rep.SubmittedAt,
	); err != nil {
		return nil, err
	}
	return &rep, nil
}
