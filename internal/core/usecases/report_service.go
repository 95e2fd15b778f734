package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/ports"
)

// ReportService handles community reports and their moderation.
type ReportService struct {
	reports   ports.ReportRepository
	locations *LocationService
	publisher ports.EventPublisher
}

// NewReportService creates a new ReportService. publisher may be nil.
func NewReportService(reports ports.ReportRepository, locations *LocationService, publisher ports.EventPublisher) *ReportService {
	return &ReportService{reports: reports, locations: locations, publisher: publisher}
}

// Submit stores a new pending report.
func (s *ReportService) Submit(ctx context.Context, r *domain.Report) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	switch {
	case !r.Kind.Valid():
		return fmt.Errorf("%w: unknown report type %q", domain.ErrInvalidInput, r.Kind)
	case !r.GeoPoint.Valid():
		return fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
	case r.Description == "" && r.Name == "":
		return fmt.Errorf("%w: name or description is required", domain.ErrInvalidInput)
	}

	r.ID = uuid.NewString()
	r.Status = domain.ReportPending
	r.SubmittedAt = time.Now().UTC()

	if err := s.reports.Create(ctx, r); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	s.publish(ctx, r, s.publisherSubmitted)
	return nil
}

// List returns reports matching filter, newest first.
func (s *ReportService) List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown report type %q", domain.ErrInvalidInput, filter.Kind)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown report status %q", domain.ErrInvalidInput, filter.Status)
	}
	return s.reports.List(ctx, filter)
}

// Get returns a single report.
func (s *ReportService) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.reports.GetByID(ctx, id)
}

// Validate accepts a pending report and publishes it as an active location
// of the matching kind. The status change and the new location are stored
// together or not at all.
func (s *ReportService) Validate(ctx context.Context, id, reviewer string) (*domain.Location, error) {
	r, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	name := r.Name
	if name == "" {
		name = "Reporte ciudadano"
	}
	loc := &domain.Location{
		Kind:        r.Kind,
		Name:        name,
		Description: r.Description,
		Status:      domain.StatusActive,
		GeoPoint:    r.GeoPoint,
		Source:      "reporte ciudadano",
		ValidatedBy: reviewer,
	}
	if err := prepareLocation(loc); err != nil {
		return nil, err
	}
	if err := s.reports.Accept(ctx, id, loc); err != nil {
		return nil, fmt.Errorf("validate report %s: %w", id, err)
	}
	if s.locations != nil {
		s.locations.changed(ctx, loc.Kind, "")
	}

	r.Status = domain.ReportValidated
	s.publish(ctx, r, s.publisherReviewed)
	return loc, nil
}

// Reject marks a pending report as rejected.
func (s *ReportService) Reject(ctx context.Context, id string) (*domain.Report, error) {
	r, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.reports.SetStatus(ctx, id, domain.ReportRejected); err != nil {
		return nil, fmt.Errorf("reject report %s: %w", id, err)
	}
	r.Status = domain.ReportRejected
	s.publish(ctx, r, s.publisherReviewed)
	return r, nil
}

// Delete removes a report.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	return s.reports.Delete(ctx, id)
}

func (s *ReportService) pending(ctx context.Context, id string) (*domain.Report, error) {
	r, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReportPending {
		return nil, fmt.Errorf("%w: report %s is already %s", domain.ErrConflict, id, r.Status)
	}
	return r, nil
}

func (s *ReportService) publisherSubmitted(ctx context.Context, r *domain.Report) error {
	return s.publisher.PublishReportSubmitted(ctx, r)
}

func (s *ReportService) publisherReviewed(ctx context.Context, r *domain.Report) error {
	return s.publisher.PublishReportReviewed(ctx, r)
}

// publish is best effort; the report is already stored.
func (s *ReportService) publish(ctx context.Context, r *domain.Report, send func(context.Context, *domain.Report) error) {
	if s.publisher == nil {
		return
	}
	if err := send(ctx, r); err != nil {
		slog.Warn("publish report event", "report_id", r.ID, "status", r.Status, "error", err)
	}
}
