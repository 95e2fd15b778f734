package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/core/ports"
)

const weatherTTL = 600

// Heat index thresholds in °C.
const (
	heatIndexMedium  = 27.0
	heatIndexHigh    = 32.0
	heatIndexExtreme = 41.0

	extremeUV = 11.0
)

// AlertService issues and serves heat alerts.
type AlertService struct {
	alerts    ports.AlertRepository
	weather   ports.WeatherProvider
	cache     ports.CacheService
	publisher ports.EventPublisher

	city           string
	broadcastLevel domain.RiskLevel
}

// AlertOptions tunes an AlertService.
type AlertOptions struct {
	City string
	// BroadcastLevel is the lowest risk that is pushed to subscribers.
	BroadcastLevel domain.RiskLevel
}

// NewAlertService creates a new AlertService. cache and publisher may be nil.
func NewAlertService(alerts ports.AlertRepository, weather ports.WeatherProvider, cache ports.CacheService, publisher ports.EventPublisher, opts AlertOptions) *AlertService {
	if opts.BroadcastLevel == "" {
		opts.BroadcastLevel = domain.RiskHigh
	}
	return &AlertService{
		alerts:         alerts,
		weather:        weather,
		cache:          cache,
		publisher:      publisher,
		city:           opts.City,
		broadcastLevel: opts.BroadcastLevel,
	}
}

// List returns the most recent alerts.
func (s *AlertService) List(ctx context.Context, limit int) ([]domain.HeatAlert, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.alerts.List(ctx, limit)
}

// Current returns the latest alert.
func (s *AlertService) Current(ctx context.Context) (*domain.HeatAlert, error) {
	return s.alerts.Latest(ctx)
}

// Get returns a single alert.
func (s *AlertService) Get(ctx context.Context, id string) (*domain.HeatAlert, error) {
	return s.alerts.GetByID(ctx, id)
}

// Create stores a manually issued alert. A missing risk level is derived
// from the readings.
func (s *AlertService) Create(ctx context.Context, a *domain.HeatAlert) error {
	if a.Humidity < 0 || a.Humidity > 100 {
		return fmt.Errorf("%w: humidity must be within 0-100", domain.ErrInvalidInput)
	}
	hi, level := EvaluateRisk(a.Temperature, a.Humidity, a.UVIndex)
	if a.RiskLevel == "" {
		a.RiskLevel = level
	} else if !a.RiskLevel.Valid() {
		return fmt.Errorf("%w: unknown risk level %q", domain.ErrInvalidInput, a.RiskLevel)
	}
	if a.HeatIndex == 0 {
		a.HeatIndex = hi
	}
	if a.Source == "" {
		a.Source = "manual"
	}
	return s.store(ctx, a)
}

// Delete removes an alert.
func (s *AlertService) Delete(ctx context.Context, id string) error {
	return s.alerts.Delete(ctx, id)
}

// CurrentWeather returns the observation for the configured city.
func (s *AlertService) CurrentWeather(ctx context.Context) (*domain.Weather, error) {
	if s.weather == nil {
		return nil, fmt.Errorf("%w: no weather provider configured", domain.ErrNotFound)
	}
	return cached(ctx, s.cache, "weather:"+s.city, weatherTTL, func() (*domain.Weather, error) {
		w, err := s.weather.Current(ctx, s.city)
		if err != nil {
			return nil, fmt.Errorf("fetch weather for %s: %w", s.city, err)
		}
		return w, nil
	})
}

// IssueFromWeather evaluates w and stores the resulting alert.
func (s *AlertService) IssueFromWeather(ctx context.Context, w *domain.Weather, source string) (*domain.HeatAlert, error) {
	hi, level := EvaluateRisk(w.Temperature, w.Humidity, w.UVIndex)
	a := &domain.HeatAlert{
		Temperature: w.Temperature,
		Humidity:    w.Humidity,
		UVIndex:     w.UVIndex,
		HeatIndex:   hi,
		RiskLevel:   level,
		Source:      source,
	}
	if err := s.store(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Broadcast publishes a when its risk reaches the broadcast level. It
// reports whether the alert was sent.
func (s *AlertService) Broadcast(ctx context.Context, a *domain.HeatAlert) (bool, error) {
	if s.publisher == nil || !a.RiskLevel.AtLeast(s.broadcastLevel) {
		return false, nil
	}
	if err := s.publisher.PublishAlert(ctx, a); err != nil {
		return false, fmt.Errorf("publish alert %s: %w", a.ID, err)
	}
	slog.Info("heat alert broadcast", "alert_id", a.ID, "risk", a.RiskLevel)
	return true, nil
}

func (s *AlertService) store(ctx context.Context, a *domain.HeatAlert) error {
	a.ID = uuid.NewString()
	if a.IssuedAt.IsZero() {
		a.IssuedAt = time.Now().UTC()
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// EvaluateRisk returns the heat index in °C and its risk level. An extreme
// UV index raises the level to at least high.
func EvaluateRisk(tempC, humidity, uv float64) (float64, domain.RiskLevel) {
	hi := HeatIndex(tempC, humidity)

	level := domain.RiskLow
	switch {
	case hi >= heatIndexExtreme:
		level = domain.RiskExtreme
	case hi >= heatIndexHigh:
		level = domain.RiskHigh
	case hi >= heatIndexMedium:
		level = domain.RiskMedium
	}
	if uv >= extremeUV && !level.AtLeast(domain.RiskHigh) {
		level = domain.RiskHigh
	}
	return hi, level
}

// HeatIndex is the NWS apparent temperature (Rothfusz regression with the
// Steadman fallback), in °C.
func HeatIndex(tempC, humidity float64) float64 {
	t := tempC*9/5 + 32
	rh := humidity

	hi := 0.5 * (t + 61 + (t-68)*1.2 + rh*0.094)
	if (hi+t)/2 >= 80 {
		hi = -42.379 + 2.04901523*t + 10.14333127*rh -
			0.22475541*t*rh - 0.00683783*t*t -
			0.05481717*rh*rh + 0.00122874*t*t*rh +
			0.00085282*t*rh*rh - 0.00000199*t*t*rh*rh

		switch {
		case rh < 13 && t >= 80 && t <= 112:
			hi -= (13 - rh) / 4 * math.Sqrt((17-math.Abs(t-95))/17)
		case rh > 85 && t >= 80 && t <= 87:
			hi += (rh - 85) / 10 * (87 - t) / 5
		}
	}
	return math.Round((hi-32)*5/9*10) / 10
}
