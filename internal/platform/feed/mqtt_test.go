package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

var testCfg = Config{BrokerURL: "tcp://localhost:1883", ClientID: "test", Topic: "trackboard/snapshot", QoS: 1}

func TestNewSubscriber_Validation(t *testing.T) {
	noop := func(context.Context, string, []byte) error { return nil }
	tests := []struct {
		name    string
		cfg     Config
		handler Handler
	}{
		{"no broker", Config{Topic: "t"}, noop},
		{"no topic", Config{BrokerURL: "tcp://x:1883"}, noop},
		{"no handler", testCfg, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSubscriber(tt.cfg, tt.handler, zerolog.Nop()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSubscriber_HandleMessage(t *testing.T) {
	var gotTopic string
	var gotPayload []byte
	s, err := NewSubscriber(testCfg, func(_ context.Context, topic string, payload []byte) error {
		gotTopic, gotPayload = topic, payload
		return nil
	}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	s.HandleMessage(nil, fakeMessage{topic: "trackboard/snapshot", payload: []byte(`[]`)})

	if gotTopic != "trackboard/snapshot" || string(gotPayload) != "[]" {
		t.Errorf("handler got %q %q", gotTopic, gotPayload)
	}
	st := s.Stats()
	if st.Received != 1 || st.Failed != 0 || !st.LastIngest.Equal(at) {
		t.Errorf("stats = %+v", st)
	}
}

func TestSubscriber_HandleMessageFailure(t *testing.T) {
	s, _ := NewSubscriber(testCfg, func(context.Context, string, []byte) error {
		return errors.New("bad snapshot")
	}, zerolog.Nop())

	s.HandleMessage(nil, fakeMessage{topic: "trackboard/snapshot", payload: []byte(`{`)})

	st := s.Stats()
	if st.Received != 1 || st.Failed != 1 || st.LastError != "bad snapshot" {
		t.Errorf("stats = %+v", st)
	}
	if !st.LastIngest.IsZero() {
		t.Error("a failed message must not count as an ingest")
	}
}

func TestSubscriber_Options(t *testing.T) {
	cfg := testCfg
	cfg.Username = "board"
	cfg.Password = "secret"
	s, _ := NewSubscriber(cfg, func(context.Context, string, []byte) error { return nil }, zerolog.Nop())

	opts := s.options()
	if len(opts.Servers) != 1 || opts.Servers[0].Host != "localhost:1883" {
		t.Errorf("servers = %v", opts.Servers)
	}
	if opts.ClientID != "test" || opts.Username != "board" || opts.Password != "secret" {
		t.Errorf("client=%q user=%q", opts.ClientID, opts.Username)
	}
	if !opts.AutoReconnect || !opts.ConnectRetry {
		t.Error("expected auto reconnect and connect retry")
	}
}

func TestSubscriber_StopWithoutStart(t *testing.T) {
	s, _ := NewSubscriber(testCfg, func(context.Context, string, []byte) error { return nil }, zerolog.Nop())
	s.Stop()
}
