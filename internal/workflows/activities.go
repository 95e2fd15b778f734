package workflows

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/usecases"
	"github.com/calorsos/calorsos/internal/pkg/metrics"
	"github.com/calorsos/calorsos/internal/pkg/telemetry"
)

// HeatAlertActivities holds the activity implementations for the heat
// alert workflow.
type HeatAlertActivities struct {
	Alerts *usecases.AlertService
}

// FetchWeather returns the current observation for the configured city.
func (a *HeatAlertActivities) FetchWeather(ctx context.Context) (domain.Weather, error) {
	w, err := a.Alerts.CurrentWeather(ctx)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("fetch weather: %w", err)
	}
	return *w, nil
}

// IssueAlert evaluates w and stores the resulting alert.
func (a *HeatAlertActivities) IssueAlert(ctx context.Context, w domain.Weather, source string) (alert domain.HeatAlert, err error) {
	ctx, span := telemetry.Start(ctx, telemetry.SpanAlertIssue,
		attribute.String("city", w.City),
		attribute.Float64("temperature", w.Temperature))
	defer func() { telemetry.End(span, err) }()

	issued, err := a.Alerts.IssueFromWeather(ctx, &w, source)
	if err != nil {
		return domain.HeatAlert{}, fmt.Errorf("issue alert: %w", err)
	}
	metrics.AlertsIssued.WithLabelValues(string(issued.RiskLevel)).Inc()
	span.SetAttributes(attribute.String("risk", string(issued.RiskLevel)))
	return *issued, nil
}

// BroadcastAlert pushes alert to subscribers when its risk reaches the
// configured level. It reports whether anything was sent.
func (a *HeatAlertActivities) BroadcastAlert(ctx context.Context, alert domain.HeatAlert) (bool, error) {
	return a.Alerts.Broadcast(ctx, &alert)
}
