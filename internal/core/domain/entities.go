package domain

import (
	"fmt"
	"time"
)

// LocationKind distinguishes the two catalogs shown on the map.
type LocationKind string

const (
	KindCoolZone       LocationKind = "cool_zone"
	KindHydrationPoint LocationKind = "hydration_point"
)

// Valid reports whether k is a known kind.
func (k LocationKind) Valid() bool {
	return k == KindCoolZone || k == KindHydrationPoint
}

// LocationStatus is the publication state of a location.
type LocationStatus string

const (
	StatusActive   LocationStatus = "active"
	StatusInactive LocationStatus = "inactive"
)

// Valid reports whether s is a known status. The empty status is not valid;
// callers that accept "any status" check for it first.
func (s LocationStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Location is a cool zone or a hydration point (e.g. a shaded park, a public fountain).
type Location struct {
	ID          string         `json:"id"`
	Kind        LocationKind   `json:"kind"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      LocationStatus `json:"status"`
	Category    string         `json:"type"`
	GeoPoint
	Source      string    `json:"source,omitempty"`
	ValidatedBy string    `json:"validated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Position returns the coordinate of the location.
func (l Location) Position() GeoPoint { return l.GeoPoint }

// Key identifies the location across both catalogs.
func (l Location) Key() string { return string(l.Kind) + ":" + l.ID }

// Validate checks the fields every stored location must carry.
func (l *Location) Validate() error {
	switch {
	case !l.Kind.Valid():
		return fmt.Errorf("%w: unknown location kind %q", ErrInvalidInput, l.Kind)
	case l.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case !l.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, l.Status)
	case !l.GeoPoint.Valid():
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	return nil
}

// AnnotatedLocation is a location decorated with its distance from an origin.
type AnnotatedLocation struct {
	Location
	DistanceKm    float64 `json:"distance_km"`
	DistanceLabel string  `json:"distance_label"`
}

// ReportStatus tracks the moderation state of a community report.
type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportValidated ReportStatus = "validated"
	ReportRejected  ReportStatus = "rejected"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	return s == ReportPending || s == ReportValidated || s == ReportRejected
}

// Report is a community-submitted candidate cool zone or hydration point.
type Report struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id,omitempty"`
	Kind        LocationKind `json:"type"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	Status      ReportStatus `json:"status"`
	GeoPoint
	PhotoURL    string    `json:"photo_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Position returns the reported coordinate.
func (r Report) Position() GeoPoint { return r.GeoPoint }

// Key identifies the report marker on the map.
func (r Report) Key() string { return "report:" + r.ID }

// ReportFilter narrows report listings. Empty fields match everything.
type ReportFilter struct {
	UserID string
	Kind   LocationKind
	Status ReportStatus
}

// RiskLevel grades the heat risk of an alert.
type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

var riskRank = map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2, RiskExtreme: 3}

// Valid reports whether r is a known level.
func (r RiskLevel) Valid() bool {
	_, ok := riskRank[r]
	return ok
}

// AtLeast reports whether r is as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank() >= other.rank()
}

func (r RiskLevel) rank() int {
	if n, ok := riskRank[r]; ok {
		return n
	}
	return -1
}

// HeatAlert records the heat risk evaluated from a weather observation.
type HeatAlert struct {
	ID          string    `json:"id"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	UVIndex     float64   `json:"uv_index"`
	HeatIndex   float64   `json:"heat_index"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Source      string    `json:"source"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Message renders the broadcast text for the alert.
func (a HeatAlert) Message() string {
	return fmt.Sprintf("Alerta de calor %s: %.1f°C, humedad %.0f%%, UV %.1f", a.RiskLevel, a.Temperature, a.Humidity, a.UVIndex)
}

// Weather is a current-conditions observation for a city.
type Weather struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    float64   `json:"humidity"`
	UVIndex     float64   `json:"uv_index"`
	Condition   string    `json:"condition"`
	ObservedAt  time.Time `json:"observed_at"`
}

// RoutePreview is the straight walking leg from a user to the nearest location.
type RoutePreview struct {
	Target      AnnotatedLocation `json:"target"`
	Route       []GeoPoint        `json:"route"`
	Polyline    string            `json:"polyline"`
	Bounds      Bounds            `json:"bounds"`
	WalkingTime string            `json:"walking_time"`
}
