package trackboard

import (
	"context"
)

// PatientRepository supplies the current snapshot of active visits.
type PatientRepository interface {
	List(ctx context.Context) ([]*PatientRecord, error)
	GetByID(ctx context.Context, id string) (*PatientRecord, error)
}
