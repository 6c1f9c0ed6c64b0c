package trackboard

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound       = errors.New("patient not found")
	ErrUnknownSection = errors.New("unknown section")
)

// Section is the tracking-board queue a record is placed in.
type Section string

const (
	SectionUntriaged       Section = "untriaged"
	SectionTriagedAwaiting Section = "triaged-awaiting"
	SectionTestsOrdered    Section = "tests-ordered"
	SectionResultsReady    Section = "results-ready"
	SectionConcierge       Section = "concierge"
)

// Sections lists the board sections in display order.
var Sections = []Section{
	SectionUntriaged,
	SectionTriagedAwaiting,
	SectionTestsOrdered,
	SectionResultsReady,
	SectionConcierge,
}

// ParseSection returns the Section named by s or ErrUnknownSection.
func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, s)
}

// Known reports whether s is one of the five board sections.
func (s Section) Known() bool {
	_, ok := sectionRules[s]
	return ok
}

type EntryMethod string

const (
	EntryApp       EntryMethod = "app"
	EntryPhone     EntryMethod = "phone"
	EntryWalkIn    EntryMethod = "walk-in"
	EntryAmbulance EntryMethod = "ambulance"
	EntryMessage   EntryMethod = "message"
)

type MessageType string

const (
	MessageRequest  MessageType = "request"
	MessageQuestion MessageType = "question"
	MessageConcern  MessageType = "concern"
)

// Vitals holds the most recent vital signs; every field is optional.
type Vitals struct {
	BloodPressure    *string  `json:"bloodPressure,omitempty" yaml:"blood_pressure,omitempty"`
	HeartRate        *int     `json:"heartRate,omitempty" yaml:"heart_rate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	OxygenSaturation *int     `json:"oxygenSaturation,omitempty" yaml:"oxygen_saturation,omitempty"`
	PainScale        *int     `json:"painScale,omitempty" yaml:"pain_scale,omitempty"`
	RespiratoryRate  *int     `json:"respiratoryRate,omitempty" yaml:"respiratory_rate,omitempty"`
}

// TestOrder describes an ordered diagnostic and when its result is expected.
type TestOrder struct {
	Description            string     `json:"description"`
	ExpectedTestCompletion *time.Time `json:"expectedTestCompletion,omitempty"`
}

// PatientRecord is one active patient visit on the tracking board.
type PatientRecord struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Age              int         `json:"age"`
	Gender           string      `json:"gender"`
	Complaint        string      `json:"complaint"`
	EntryMethod      EntryMethod `json:"entryMethod"`
	Room             string      `json:"room"`
	ArrivalTimestamp time.Time   `json:"arrivalTimestamp"`
	Status           string      `json:"status"`
	PhysicianSeen    bool        `json:"physicianSeen"`
	Family           string      `json:"family,omitempty"`
	Section          Section     `json:"section"`
	Acuity           *int        `json:"acuity,omitempty"`
	Test             *TestOrder  `json:"test,omitempty"`
	Results          *string     `json:"results,omitempty"`
	TriageTimestamp  *time.Time  `json:"triageTimestamp,omitempty"`
	Vitals           *Vitals     `json:"vitals,omitempty"`
	MessageType      MessageType `json:"messageType,omitempty"`
}

// ExpectedTestCompletion returns the test completion instant, if any.
func (p *PatientRecord) ExpectedTestCompletion() *time.Time {
	if p.Test == nil {
		return nil
	}
	return p.Test.ExpectedTestCompletion
}

// Validate checks the record invariants. The classifiers and sorter assume
// records that pass it; stores and the snapshot feed call it on intake.
func (p *PatientRecord) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.ArrivalTimestamp.IsZero() {
		return fmt.Errorf("patient %s: arrivalTimestamp is required", p.ID)
	}
	if p.Acuity != nil && (*p.Acuity < 1 || *p.Acuity > 5) {
		return fmt.Errorf("patient %s: acuity must be between 1 and 5, got %d", p.ID, *p.Acuity)
	}
	if p.Vitals != nil && p.Vitals.PainScale != nil {
		if ps := *p.Vitals.PainScale; ps < 0 || ps > 10 {
			return fmt.Errorf("patient %s: painScale must be between 0 and 10, got %d", p.ID, ps)
		}
	}
	return nil
}
