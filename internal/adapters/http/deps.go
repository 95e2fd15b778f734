package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/calorsos/calorsos/internal/core/usecases"
)

// Pinger is a backing service that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Locations *usecases.LocationService
	Reports   *usecases.ReportService
	Alerts    *usecases.AlertService
	Auth      AuthConfig
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger
}
