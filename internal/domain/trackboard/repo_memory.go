package trackboard

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// MemoryRepo holds the patient list in memory. The list is replaced
// wholesale; there is no per-record mutation path.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []*PatientRecord
}

func NewMemoryRepo(records []*PatientRecord) *MemoryRepo {
	return &MemoryRepo{records: slices.Clone(records)}
}

// List returns a copy of the current snapshot.
func (r *MemoryRepo) List(_ context.Context) ([]*PatientRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records), nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (*PatientRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.records {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Replace swaps in a new snapshot after validating every record. On error
// the previous snapshot is kept.
func (r *MemoryRepo) Replace(records []*PatientRecord) error {
	seen := make(map[string]struct{}, len(records))
	for _, p := range records {
		if p == nil {
			return fmt.Errorf("nil patient record in snapshot")
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate patient id %s in snapshot", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	r.mu.Lock()
	r.records = slices.Clone(records)
	r.mu.Unlock()
	return nil
}

// Len returns the number of records in the snapshot.
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
