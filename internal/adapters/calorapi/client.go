// Package calorapi is a client for the CalorSOS REST API. It lets the home
// page and the preview CLI run against a remote deployment.
package calorapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/calorsos/calorsos/internal/core/domain"
	"github.com/calorsos/calorsos/internal/pkg/telemetry"
)

// pageSize is the largest page the API serves.
const pageSize = 200

var ErrRateLimited = errors.New("calorapi: rate limit exceeded")

// APIError is the error envelope returned by the server.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calorapi %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the envelope onto the domain sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	case http.StatusConflict:
		return domain.ErrConflict
	}
	return nil
}

// Client talks to one CalorSOS deployment.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func collectionPath(kind domain.LocationKind) (string, error) {
	switch kind {
	case domain.KindCoolZone:
		return "/v1/zones", nil
	case domain.KindHydrationPoint:
		return "/v1/hydration-points", nil
	}
	return "", fmt.Errorf("%w: unknown location kind %q", domain.ErrInvalidInput, kind)
}

// ListLocations fetches every location of kind, following pages until the
// reported total is reached. An empty status lists all statuses.
func (c *Client) ListLocations(ctx context.Context, kind domain.LocationKind, status domain.LocationStatus) (out []domain.Location, err error) {
	path, err := collectionPath(kind)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.Start(ctx, telemetry.SpanCatalogFetch, attribute.String("kind", string(kind)))
	defer func() { telemetry.End(span, err) }()

	statusParam := string(status)
	if statusParam == "" {
		statusParam = "all"
	}

	out = []domain.Location{}
	for offset := 0; ; {
		params := url.Values{}
		params.Set("status", statusParam)
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(pageSize))

		var page struct {
			Data       []domain.Location `json:"data"`
			Pagination struct {
				Total int `json:"total"`
			} `json:"pagination"`
		}
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		offset += len(page.Data)
		if len(page.Data) == 0 || offset >= page.Pagination.Total {
			return out, nil
		}
	}
}

// Nearest asks the server for the active location of kind closest to origin.
func (c *Client) Nearest(ctx context.Context, kind domain.LocationKind, origin domain.GeoPoint) (*domain.AnnotatedLocation, error) {
	path, err := collectionPath(kind)
	if err != nil {
		return nil, err
	}
	var out domain.AnnotatedLocation
	if err := c.get(ctx, path+"/nearest", originParams(origin), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RoutePreview fetches the walking leg from origin to the nearest location of kind.
func (c *Client) RoutePreview(ctx context.Context, kind domain.LocationKind, origin domain.GeoPoint) (*domain.RoutePreview, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown location kind %q", domain.ErrInvalidInput, kind)
	}
	params := originParams(origin)
	params.Set("type", string(kind))
	var out domain.RoutePreview
	if err := c.get(ctx, "/v1/route-preview", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentAlert returns the latest heat alert.
func (c *Client) CurrentAlert(ctx context.Context) (*domain.HeatAlert, error) {
	var out domain.HeatAlert
	if err := c.get(ctx, "/v1/alerts/current", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func originParams(origin domain.GeoPoint) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(origin.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(origin.Lon, 'f', -1, 64))
	return params
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Message == "" {
			apiErr.Code = "unknown"
			apiErr.Message = string(body)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
