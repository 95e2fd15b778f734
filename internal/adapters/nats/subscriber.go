package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/calorsos/calorsos/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber connects to NATS. durable prefixes the consumer names so
// that separate services keep separate cursors.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// subscribe acks after handle succeeds and naks otherwise.
func (s *Subscriber) subscribe(subject, name string, handle func(data []byte) error) error {
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handle(msg.Data); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable+"-"+name),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeReports(ctx context.Context, handler func(ctx context.Context, r *domain.Report) error) error {
	return s.subscribe(subjectReports, "reports", func(data []byte) error {
		var r domain.Report
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		return handler(ctx, &r)
	})
}

func (s *Subscriber) SubscribeAlerts(ctx context.Context, handler func(ctx context.Context, a *domain.HeatAlert) error) error {
	return s.subscribe(subjectAlerts, "alerts", func(data []byte) error {
		var a domain.HeatAlert
		if err := json.Unmarshal(data, &a); err != nil {
			return err
		}
		return handler(ctx, &a)
	})
}

func (s *Subscriber) SubscribeLocationsChanged(ctx context.Context, handler func(ctx context.Context, kind domain.LocationKind) error) error {
	return s.subscribe(SubjectLocationsChanged, "locations", func(data []byte) error {
		return handler(ctx, domain.LocationKind(data))
	})
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
