// Package openweather implements ports.WeatherProvider on the OpenWeatherMap API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/metrics"
	"github.com/calorsos/calorsos/internal/pkg/telemetry"
)

// DefaultBaseURL is the public API host.
const DefaultBaseURL = "https://api.openweathermap.org"

var (
	ErrMissingAPIKey = errors.New("openweather: missing API key")
	ErrRateLimited   = errors.New("openweather: rate limit exceeded")
	ErrUnauthorized  = errors.New("openweather: invalid API key")
)

// Client queries current conditions by city name.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Current returns the weather in city. The UV index comes from the One Call
// endpoint; when that is unavailable it is left at zero.
func (c *Client) Current(ctx context.Context, city string) (w *domain.Weather, err error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	ctx, span := telemetry.Start(ctx, telemetry.SpanWeatherFetch, attribute.String("city", city))
	start := time.Now()
	defer func() {
		metrics.WeatherFetchDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.WeatherFetchErrors.Inc()
		}
		telemetry.End(span, err)
	}()

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	params.Set("lang", "es")

	var current currentResponse
	if err := c.get(ctx, "/data/2.5/weather", params, &current); err != nil {
		return nil, err
	}

	w = &domain.Weather{
		City:        current.Name,
		Temperature: current.Main.Temp,
		FeelsLike:   current.Main.FeelsLike,
		Humidity:    current.Main.Humidity,
		ObservedAt:  c.now().UTC(),
	}
	if current.Dt > 0 {
		w.ObservedAt = time.Unix(current.Dt, 0).UTC()
	}
	if len(current.Weather) > 0 {
		w.Condition = current.Weather[0].Description
	}

	uv, err := c.uvIndex(ctx, current.Coord.Lat, current.Coord.Lon)
	if err != nil {
		slog.Warn("uv index unavailable", "city", city, "error", err)
	} else {
		w.UVIndex = uv
	}
	return w, nil
}

func (c *Client) uvIndex(ctx context.Context, lat, lon float64) (float64, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.6f", lat))
	params.Set("lon", fmt.Sprintf("%.6f", lon))
	params.Set("appid", c.apiKey)
	params.Set("exclude", "minutely,hourly,daily,alerts")
	params.Set("units", "metric")

	var resp oneCallResponse
	if err := c.get(ctx, "/data/3.0/onecall", params, &resp); err != nil {
		return 0, err
	}
	return resp.Current.UVI, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	case resp.StatusCode >= 400:
		var apiErr struct {
			Message string `json:"message"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("openweather %d: %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("openweather %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type currentResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
}

type oneCallResponse struct {
	Current struct {
		UVI float64 `json:"uvi"`
	} `json:"current"`
}
