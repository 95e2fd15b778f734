package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// Subjects carried by the CALORSOS stream.
const (
	SubjectReportSubmitted  = "calorsos.reports.submitted"
	SubjectReportReviewed   = "calorsos.reports.reviewed"
	SubjectAlertPrefix      = "calorsos.alerts."
	SubjectLocationsChanged = "calorsos.locations.changed"

	subjectReports = "calorsos.reports.>"
	subjectAlerts  = "calorsos.alerts.>"
)

// Streams returns the JetStream layout the adapters rely on.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "CALORSOS_REPORTS",
			Subjects:  []string{subjectReports},
			Retention: nats.InterestPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "CALORSOS_ALERTS",
			Subjects:  []string{subjectAlerts},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "CALORSOS_LOCATIONS",
			Subjects:  []string{SubjectLocationsChanged},
			Retention: nats.LimitsPolicy,
			MaxAge:    time.Hour,
			Storage:   nats.MemoryStorage,
		},
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	for _, cfg := range Streams() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) publishJSON(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishReportSubmitted(ctx context.Context, r *domain.Report) error {
	return p.publishJSON(ctx, SubjectReportSubmitted, r)
}

func (p *Publisher) PublishReportReviewed(ctx context.Context, r *domain.Report) error {
	return p.publishJSON(ctx, SubjectReportReviewed, r)
}

func (p *Publisher) PublishAlert(ctx context.Context, a *domain.HeatAlert) error {
	return p.publishJSON(ctx, AlertSubject(a.RiskLevel), a)
}

func (p *Publisher) PublishLocationsChanged(ctx context.Context, kind domain.LocationKind) error {
	_, err := p.js.Publish(SubjectLocationsChanged, []byte(kind), nats.Context(ctx))
	return err
}

// AlertSubject is the subject an alert of level is published on.
func AlertSubject(level domain.RiskLevel) string {
	return SubjectAlertPrefix + string(level)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection (e.g. for the WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("calorsos"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
