// Package notification dispatches SMS and voice notifications to clinical
// staff and patients, keeping an in-memory record of every attempt so failed
// sends can be inspected and retried.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepoint/trackboard/internal/platform/clock"
)

// ErrNotFound is returned when a notification or template does not exist.
var ErrNotFound = errors.New("notification: not found")

// ErrNotRetryable is returned when retrying a notification that did not fail.
var ErrNotRetryable = errors.New("notification: not in failed status")

// Channel is the medium used to deliver a notification.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Notification is a single outbound message and its delivery state.
type Notification struct {
	ID           string            `json:"id"`
	Channel      Channel           `json:"channel"`
	Recipient    string            `json:"recipient"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	TemplateData map[string]string `json:"template_data,omitempty"`
	Status       Status            `json:"status"`
	ProviderRef  string            `json:"provider_ref,omitempty"`
	Attempts     int               `json:"attempts"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// SMSSender sends a text message and returns the provider's message reference.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// VoiceCaller places a call that reads message aloud and returns the
// provider's call reference.
type VoiceCaller interface {
	PlaceCall(ctx context.Context, to, message string) (string, error)
}

// Template is a reusable message body with {{key}} placeholders.
type Template struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

// TemplateEngine stores templates and renders them.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]Template)}
	for _, t := range builtInTemplates {
		e.templates[t.ID] = t
	}
	return e
}

var builtInTemplates = []Template{
	{
		ID:      "sla-breach",
		Name:    "Response Target Exceeded",
		Body:    "{{section}}: {{patient_name}} ({{room}}) waiting {{wait}}, target {{target}}.",
		Channel: ChannelSMS,
	},
	{
		ID:      "sla-breach-voice",
		Name:    "Response Target Exceeded (voice)",
		Body:    "Attention. {{patient_name}} in {{section}} has been waiting {{wait}}.",
		Channel: ChannelVoice,
	},
	{
		ID:      "results-ready",
		Name:    "Results Ready",
		Body:    "Hi {{patient_name}}, your {{test}} results are ready. A physician will follow up shortly.",
		Channel: ChannelSMS,
	},
	{
		ID:      "callback",
		Name:    "Patient Callback",
		Body:    "Hello {{patient_name}}, this is {{clinic}} returning your message. Please call us back at {{callback_number}}.",
		Channel: ChannelVoice,
	},
}

func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t
}

func (e *TemplateEngine) Get(id string) (Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.templates[id]
	return t, ok
}

// Render replaces {{key}} placeholders in the template body with data.
// Placeholders without a value are left as-is.
func (e *TemplateEngine) Render(id string, data map[string]string) (Template, string, error) {
	t, ok := e.Get(id)
	if !ok {
		return Template{}, "", fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	body := t.Body
	for k, v := range data {
		body = strings.ReplaceAll(body, "{{"+k+"}}", v)
	}
	return t, body, nil
}

// Manager sends notifications over the configured channels and records them.
type Manager struct {
	sms       SMSSender
	voice     VoiceCaller
	templates *TemplateEngine
	clock     clock.Clock
	logger    zerolog.Logger

	mu            sync.RWMutex
	notifications map[string]*Notification
}

func NewManager(sms SMSSender, voice VoiceCaller, tpl *TemplateEngine, clk clock.Clock, logger zerolog.Logger) *Manager {
	if tpl == nil {
		tpl = NewTemplateEngine()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		sms:           sms,
		voice:         voice,
		templates:     tpl,
		clock:         clk,
		logger:        logger.With().Str("component", "notification").Logger(),
		notifications: make(map[string]*Notification),
	}
}

// Send delivers n and stores it. The stored record is kept even when
// delivery fails, in which case the delivery error is returned.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.Recipient == "" {
		return errors.New("notification: recipient is required")
	}
	if n.Body == "" {
		return errors.New("notification: body is required")
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = m.clock.Now().UTC()
	n.Status = StatusPending

	m.mu.Lock()
	m.notifications[n.ID] = n
	m.mu.Unlock()

	return m.deliver(ctx, n)
}

// SendFromTemplate renders templateID with data and sends it to recipient on
// the template's channel.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	tpl, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	n := &Notification{
		Channel:      tpl.Channel,
		Recipient:    recipient,
		Body:         body,
		TemplateID:   templateID,
		TemplateData: data,
	}
	return n, m.Send(ctx, n)
}

func (m *Manager) deliver(ctx context.Context, n *Notification) error {
	var (
		ref string
		err error
	)
	switch n.Channel {
	case ChannelSMS:
		if m.sms == nil {
			err = errors.New("sms channel not configured")
		} else {
			ref, err = m.sms.SendSMS(ctx, n.Recipient, n.Body)
		}
	case ChannelVoice:
		if m.voice == nil {
			err = errors.New("voice channel not configured")
		} else {
			ref, err = m.voice.PlaceCall(ctx, n.Recipient, n.Body)
		}
	default:
		err = fmt.Errorf("unsupported channel %q", n.Channel)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n.Attempts++
	if err != nil {
		n.Status = StatusFailed
		n.Error = err.Error()
		m.logger.Error().Err(err).Str("notification_id", n.ID).Str("channel", string(n.Channel)).Msg("delivery failed")
		return fmt.Errorf("deliver %s %s: %w", n.Channel, n.ID, err)
	}
	sentAt := m.clock.Now().UTC()
	n.Status = StatusSent
	n.SentAt = &sentAt
	n.ProviderRef = ref
	n.Error = ""
	m.logger.Info().Str("notification_id", n.ID).Str("channel", string(n.Channel)).Str("provider_ref", ref).Msg("notification sent")
	return nil
}

// Get returns a copy of the notification with id.
func (m *Manager) Get(_ context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification %q: %w", id, ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

// ListByRecipient returns up to limit notifications for recipient, newest
// first.
func (m *Manager) ListByRecipient(_ context.Context, recipient string, limit int) []*Notification {
	m.mu.RLock()
	var out []*Notification
	for _, n := range m.notifications {
		if n.Recipient == recipient {
			cp := *n
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Retry re-sends a failed notification. The notification is claimed as
// pending before delivery, so concurrent retries send it at most once.
func (m *Manager) Retry(ctx context.Context, id string) (*Notification, error) {
	m.mu.Lock()
	n, ok := m.notifications[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("notification %q: %w", id, ErrNotFound)
	}
	if n.Status != StatusFailed {
		status := n.Status
		m.mu.Unlock()
		return nil, fmt.Errorf("notification %q is %s: %w", id, status, ErrNotRetryable)
	}
	n.Status = StatusPending
	m.mu.Unlock()

	err := m.deliver(ctx, n)
	got, _ := m.Get(ctx, id)
	return got, err
}

// Stats counts stored notifications by status.
func (m *Manager) Stats(_ context.Context) map[Status]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[Status]int)
	for _, n := range m.notifications {
		stats[n.Status]++
	}
	return stats
}
