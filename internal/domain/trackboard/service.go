package trackboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/carepoint/trackboard/internal/platform/clock"
)

type Service struct {
	repo   PatientRepository
	clock  clock.Clock
	logger zerolog.Logger
}

func NewService(repo PatientRepository, clk clock.Clock, logger zerolog.Logger) *Service {
	if clk == nil {
		clk = clock.New()
	}
	return &Service{repo: repo, clock: clk, logger: logger.With().Str("component", "trackboard").Logger()}
}

// Now returns the service clock's current instant.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Board reads the current snapshot and assembles it from scratch.
func (s *Service) Board(ctx context.Context) (*Board, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	board := Assemble(records, s.clock.Now())
	if len(board.Dropped) > 0 {
		s.logger.Warn().
			Strs("patient_ids", board.Dropped).
			Msg("records with unknown section left off the board")
	}
	return board, nil
}

func (s *Service) Section(ctx context.Context, section Section) (*SectionView, error) {
	if !section.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	board, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}
	sv, _ := board.Section(section)
	return sv, nil
}

func (s *Service) Patient(ctx context.Context, id string) (*PatientView, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v := NewPatientView(p, s.clock.Now())
	return &v, nil
}
