package trackboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/trackboard/internal/platform/notification"
)

// SLABreachTemplate is the notification template used for pages.
const SLABreachTemplate = "sla-breach"

// AlertDispatcher sends a templated notification to one recipient.
type AlertDispatcher interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// SLAWatcher pages on-call staff once when a record first passes its
// section's response target. A breach that reached no recipient is paged
// again on the next observation.
type SLAWatcher struct {
	dispatcher AlertDispatcher
	recipients []string
	logger     zerolog.Logger

	mu    sync.Mutex
	paged map[string]time.Time
}

func NewSLAWatcher(dispatcher AlertDispatcher, recipients []string, logger zerolog.Logger) *SLAWatcher {
	return &SLAWatcher{
		dispatcher: dispatcher,
		recipients: recipients,
		logger:     logger,
		paged:      make(map[string]time.Time),
	}
}

func pageKey(v PatientView) string {
	return string(v.Section) + "/" + v.ID
}

// Observe pages for newly urgent records on board and forgets records that
// are no longer urgent. It returns the number of pages sent.
func (w *SLAWatcher) Observe(ctx context.Context, board *Board) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]struct{})
	sent := 0
	for _, v := range board.Urgent() {
		key := pageKey(v)
		current[key] = struct{}{}
		if _, done := w.paged[key]; done {
			continue
		}

		data := map[string]string{
			"patient_name": v.Name,
			"section":      sectionTitles[v.Section],
			"wait":         v.Wait.Label,
			"target":       SLATarget(v.Section),
			"room":         v.Room,
		}
		delivered := 0
		for _, to := range w.recipients {
			if _, err := w.dispatcher.SendFromTemplate(ctx, SLABreachTemplate, data, to); err != nil {
				w.logger.Error().Err(err).Str("patient_id", v.ID).Str("recipient", to).Msg("sla page failed")
				continue
			}
			delivered++
		}
		sent += delivered
		w.logger.Warn().
			Str("patient_id", v.ID).
			Str("section", string(v.Section)).
			Str("wait", v.Wait.Label).
			Int("pages", delivered).
			Msg("response target exceeded")

		// nobody was reached: page again on the next refresh
		if delivered == 0 {
			continue
		}
		w.paged[key] = board.LastUpdate
	}

	for key := range w.paged {
		if _, ok := current[key]; !ok {
			delete(w.paged, key)
		}
	}
	return sent
}

// Pending returns how many records are currently paged.
func (w *SLAWatcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paged)
}
