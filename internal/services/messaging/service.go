package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"redaction-worker-go/internal/config"
)

// Service is the event fabric of the worker: redaction events and chunk
// metadata go out on it, window focus events come in. While the connection
// is down NATS buffers publishes client-side and the window monitor simply
// sees no focus changes, so the redaction loop itself never depends on it.
type Service struct {
	conn *nats.Conn
	cfg  *config.Config
}

func NewService(cfg *config.Config) (*Service, error) {
	opts := []nats.Option{
		nats.Name(fmt.Sprintf("redaction-worker-%s", cfg.WorkerID)),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS connection lost, redaction events and window focus signal suspended")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.NatsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NatsURL, err)
	}

	log.Info().
		Str("url", cfg.NatsURL).
		Str("events_subject", cfg.EventsSubject).
		Str("window_subject", cfg.WindowSubject).
		Msg("NATS connection established")

	return &Service{
		conn: conn,
		cfg:  cfg,
	}, nil
}

// Publish marshals the event and publishes it on the subject.
func (s *Service) Publish(subject string, event interface{}) error {
	if s.conn == nil {
		return fmt.Errorf("nats connection is not established")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}
	return s.conn.Publish(subject, payload)
}

// Subscribe delivers the raw payload of every message on the subject to the
// handler. Used by the window monitor; every worker instance needs its own
// copy of each focus event, so there is no queue group.
func (s *Service) Subscribe(subject string, handler func([]byte)) (*nats.Subscription, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("nats connection is not established")
	}

	return s.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	// Drain flushes any buffered redaction events before closing.
	if err := s.conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("Failed to drain NATS connection gracefully, closing immediately")
		s.conn.Close()
	}
	return nil
}
