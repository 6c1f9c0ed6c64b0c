package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogSender writes messages to the log instead of a provider. It is used
// when no SMS provider is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) SendSMS(_ context.Context, to, body string) (string, error) {
	ref := "log-" + uuid.New().String()
	s.Logger.Info().Str("to", to).Str("ref", ref).Str("body", body).Msg("sms (not sent, no provider configured)")
	return ref, nil
}

func (s LogSender) PlaceCall(_ context.Context, to, message string) (string, error) {
	ref := "log-" + uuid.New().String()
	s.Logger.Info().Str("to", to).Str("ref", ref).Str("message", message).Msg("voice call (not placed, no provider configured)")
	return ref, nil
}
