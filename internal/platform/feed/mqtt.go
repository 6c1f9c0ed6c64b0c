// Package feed subscribes to the MQTT topic on which the upstream system
// publishes tracking board snapshots and hands each payload to a Handler.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	connectTimeout    = 10 * time.Second
	handleTimeout     = 15 * time.Second
	disconnectQuiesce = 250 // milliseconds
)

// Handler consumes one message payload.
type Handler func(ctx context.Context, topic string, payload []byte) error

type Config struct {
	BrokerURL string
	ClientID  string
	Topic     string
	Username  string
	Password  string
	QoS       byte
}

// Stats counts processed messages.
type Stats struct {
	Received   int       `json:"received"`
	Failed     int       `json:"failed"`
	LastIngest time.Time `json:"last_ingest,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// Subscriber keeps a subscription open across reconnects.
type Subscriber struct {
	cfg     Config
	handler Handler
	logger  zerolog.Logger
	now     func() time.Time

	mu     sync.Mutex
	client mqtt.Client
	stats  Stats
}

func NewSubscriber(cfg Config, handler Handler, logger zerolog.Logger) (*Subscriber, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("feed: broker url is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("feed: topic is required")
	}
	if handler == nil {
		return nil, errors.New("feed: handler is required")
	}
	return &Subscriber{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With().Str("component", "feed").Str("topic", cfg.Topic).Logger(),
		now:     time.Now,
	}, nil
}

func (s *Subscriber) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.BrokerURL)
	opts.SetClientID(s.cfg.ClientID)
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	opts.OnConnect = s.onConnect
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.logger.Warn().Err(err).Msg("mqtt connection lost")
	}
	opts.OnReconnecting = func(mqtt.Client, *mqtt.ClientOptions) {
		s.logger.Info().Msg("mqtt reconnecting")
	}
	return opts
}

// onConnect subscribes on every (re)connect since the session is clean.
func (s *Subscriber) onConnect(c mqtt.Client) {
	s.logger.Info().Str("broker", s.cfg.BrokerURL).Msg("connected to mqtt broker")
	token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, s.HandleMessage)
	go func() {
		if !token.WaitTimeout(connectTimeout) {
			s.logger.Error().Msg("mqtt subscribe timed out")
			return
		}
		if err := token.Error(); err != nil {
			s.logger.Error().Err(err).Msg("mqtt subscribe failed")
			return
		}
		s.logger.Info().Uint8("qos", s.cfg.QoS).Msg("subscribed to snapshot topic")
	}()
}

// Start connects to the broker. With connect-retry enabled the client keeps
// trying in the background, so a broker that is down at startup is logged
// rather than fatal.
func (s *Subscriber) Start(ctx context.Context) error {
	client := mqtt.NewClient(s.options())
	token := client.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("connect mqtt %s: %w", s.cfg.BrokerURL, err)
		}
	case <-time.After(connectTimeout):
		s.logger.Warn().Msg("mqtt broker not reachable yet, retrying in background")
	case <-ctx.Done():
		client.Disconnect(disconnectQuiesce)
		return ctx.Err()
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	return nil
}

// Stop disconnects from the broker.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()
	if client != nil {
		client.Disconnect(disconnectQuiesce)
		s.logger.Info().Msg("mqtt subscriber stopped")
	}
}

// HandleMessage is the paho message callback.
func (s *Subscriber) HandleMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	err := s.handler(ctx, msg.Topic(), msg.Payload())

	s.mu.Lock()
	s.stats.Received++
	if err != nil {
		s.stats.Failed++
		s.stats.LastError = err.Error()
	} else {
		s.stats.LastIngest = s.now()
		s.stats.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Int("bytes", len(msg.Payload())).Msg("snapshot rejected")
		return
	}
	s.logger.Debug().Int("bytes", len(msg.Payload())).Msg("snapshot ingested")
}

func (s *Subscriber) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
