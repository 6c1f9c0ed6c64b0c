package trackboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type patientRepoPG struct{ db queryable }

// NewPatientRepoPG reads the board snapshot from the tracking_board_patient table.
func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{db: pool} }

const patientCols = `id, name, age, gender, complaint, entry_method, room, arrival_time,
	status, physician_seen, family, section, acuity, triage_time,
	test_description, expected_test_completion, results,
	blood_pressure, heart_rate, temperature, oxygen_saturation, pain_scale, respiratory_rate,
	message_type`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*PatientRecord, error) {
	var (
		p           PatientRecord
		family      *string
		msgType     *string
		testDesc    *string
		testDone    *time.Time
		v           Vitals
		entryMethod string
		section     string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.Complaint, &entryMethod, &p.Room, &p.ArrivalTimestamp,
		&p.Status, &p.PhysicianSeen, &family, &section, &p.Acuity, &p.TriageTimestamp,
		&testDesc, &testDone, &p.Results,
		&v.BloodPressure, &v.HeartRate, &v.Temperature, &v.OxygenSaturation, &v.PainScale, &v.RespiratoryRate,
		&msgType)
	if err != nil {
		return nil, err
	}

	p.EntryMethod = EntryMethod(entryMethod)
	p.Section = Section(section)
	if family != nil {
		p.Family = *family
	}
	if msgType != nil {
		p.MessageType = MessageType(*msgType)
	}
	if testDesc != nil || testDone != nil {
		p.Test = &TestOrder{ExpectedTestCompletion: testDone}
		if testDesc != nil {
			p.Test.Description = *testDesc
		}
	}
	if v != (Vitals{}) {
		p.Vitals = &v
	}
	return &p, nil
}

func (r *patientRepoPG) List(ctx context.Context) ([]*PatientRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT `+patientCols+` FROM tracking_board_patient WHERE discharged_at IS NULL ORDER BY arrival_time`)
	if err != nil {
		return nil, fmt.Errorf("query tracking board: %w", err)
	}
	defer rows.Close()

	var items []*PatientRecord
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking board: %w", err)
	}
	return items, nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id string) (*PatientRecord, error) {
	p, err := r.scanPatient(r.db.QueryRow(ctx, `SELECT `+patientCols+` FROM tracking_board_patient WHERE id = $1 AND discharged_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, err
}
