package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// PublisherConfig holds configuration for the NATS event mirror.
type PublisherConfig struct {
	URL           string
	SubjectPrefix string // events go to "<prefix>.<game_code>"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultPublisherConfig returns default NATS mirror configuration.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "mafia.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Publisher mirrors public game events onto a NATS subject per game so
// external tooling can observe running games. It is optional: the server is
// fully functional without a broker.
type Publisher struct {
	nc     *nats.Conn
	prefix string
}

// NewPublisher connects to NATS.
func NewPublisher(config PublisherConfig) (*Publisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &Publisher{nc: nc, prefix: config.SubjectPrefix}, nil
}

// Publish mirrors one event. Failures are logged, never propagated: the
// mirror must not affect game delivery.
func (p *Publisher) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", string(ev.Type)).Msg("failed to marshal event for mirror")
		return
	}
	subject := p.prefix + "." + ev.GameCode
	if err := p.nc.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("failed to mirror event")
	}
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain NATS connection")
	}
}
