package trackboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is the feed payload: the complete current patient list. A bare
// JSON array of records is accepted as well.
type Snapshot struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Patients    []*PatientRecord `json:"patients"`
}

// DecodeSnapshot parses a snapshot payload.
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty snapshot")
	}
	if trimmed[0] == '[' {
		var records []*PatientRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		return &Snapshot{Patients: records}, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Patients == nil {
		return nil, errors.New("snapshot has no patients field")
	}
	return &snap, nil
}

// SnapshotIngester replaces the in-memory patient list with each snapshot
// received from the feed and triggers an immediate board refresh.
type SnapshotIngester struct {
	repo      *MemoryRepo
	refresher *Refresher
	logger    zerolog.Logger
}

func NewSnapshotIngester(repo *MemoryRepo, refresher *Refresher, logger zerolog.Logger) *SnapshotIngester {
	return &SnapshotIngester{repo: repo, refresher: refresher, logger: logger}
}

// Ingest matches feed.Handler.
func (i *SnapshotIngester) Ingest(ctx context.Context, topic string, payload []byte) error {
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		return err
	}
	if err := i.repo.Replace(snap.Patients); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	i.logger.Info().
		Str("topic", topic).
		Int("patients", len(snap.Patients)).
		Time("generated_at", snap.GeneratedAt).
		Msg("patient snapshot replaced")

	if i.refresher != nil {
		return i.refresher.Refresh(ctx)
	}
	return nil
}
