package trackboard

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/trackboard/internal/platform/websocket"
)

const (
	// BoardTopic is the websocket topic refreshed boards are published on.
	BoardTopic         = "trackboard"
	BoardRefreshedType = "trackboard.refreshed"

	DefaultRefreshInterval = 30 * time.Second
)

// Refresher periodically recomputes the board, records the refresh time and
// pushes the result to websocket subscribers and the SLA watcher.
type Refresher struct {
	svc       *Service
	interval  time.Duration
	publisher websocket.EventPublisher
	watcher   *SLAWatcher
	logger    zerolog.Logger

	// refreshMu serializes refresh cycles from the ticker and the feed.
	refreshMu sync.Mutex

	mu         sync.RWMutex
	lastUpdate time.Time
}

func NewRefresher(svc *Service, interval time.Duration, logger zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{svc: svc, interval: interval, logger: logger}
}

func (r *Refresher) SetPublisher(p websocket.EventPublisher) { r.publisher = p }

func (r *Refresher) SetWatcher(w *SLAWatcher) { r.watcher = w }

// LastUpdate returns the time of the last successful refresh.
func (r *Refresher) LastUpdate() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastUpdate
}

// Run refreshes immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("board refresher started")
	_ = r.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("board refresher stopped")
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}

// Refresh runs a single refresh cycle. Concurrent calls run one at a time,
// so boards are published in the order they were computed.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	board, err := r.svc.Board(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("board refresh failed")
		return err
	}

	r.mu.Lock()
	if board.LastUpdate.After(r.lastUpdate) {
		r.lastUpdate = board.LastUpdate
	}
	r.mu.Unlock()

	if r.publisher != nil {
		data, err := json.Marshal(board)
		if err != nil {
			r.logger.Error().Err(err).Msg("encode board")
			return err
		}
		if err := r.publisher.Publish(ctx, websocket.Event{
			Type:         BoardRefreshedType,
			Topic:        BoardTopic,
			ResourceType: "TrackingBoard",
			Timestamp:    board.LastUpdate,
			Data:         data,
		}); err != nil {
			r.logger.Warn().Err(err).Msg("publish board")
		}
	}

	if r.watcher != nil {
		r.watcher.Observe(ctx, board)
	}

	r.logger.Debug().
		Int("urgent", len(board.Urgent())).
		Time("last_update", board.LastUpdate).
		Msg("board refreshed")
	return nil
}
