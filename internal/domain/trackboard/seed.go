package trackboard

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed files give times as offsets from load time so that a demo board
// always shows live-looking waits.
type seedFile struct {
	Patients []seedPatient `yaml:"patients"`
}

type seedPatient struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Age           int            `yaml:"age"`
	Gender        string         `yaml:"gender"`
	Complaint     string         `yaml:"complaint"`
	EntryMethod   EntryMethod    `yaml:"entry_method"`
	Room          string         `yaml:"room"`
	ArrivedAgo    time.Duration  `yaml:"arrived_ago"`
	Status        string         `yaml:"status"`
	PhysicianSeen bool           `yaml:"physician_seen"`
	Family        string         `yaml:"family"`
	Section       Section        `yaml:"section"`
	Acuity        *int           `yaml:"acuity"`
	TriagedAgo    *time.Duration `yaml:"triaged_ago"`
	Test          *seedTest      `yaml:"test"`
	Results       *string        `yaml:"results"`
	Vitals        *Vitals        `yaml:"vitals"`
	MessageType   MessageType    `yaml:"message_type"`
}

type seedTest struct {
	Description string         `yaml:"description"`
	CompletesIn *time.Duration `yaml:"completes_in"`
}

// LoadSeed decodes a YAML seed and resolves its offsets against now.
func LoadSeed(data []byte, now time.Time) ([]*PatientRecord, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	records := make([]*PatientRecord, 0, len(f.Patients))
	for _, sp := range f.Patients {
		p := &PatientRecord{
			ID:               sp.ID,
			Name:             sp.Name,
			Age:              sp.Age,
			Gender:           sp.Gender,
			Complaint:        sp.Complaint,
			EntryMethod:      sp.EntryMethod,
			Room:             sp.Room,
			ArrivalTimestamp: now.Add(-sp.ArrivedAgo),
			Status:           sp.Status,
			PhysicianSeen:    sp.PhysicianSeen,
			Family:           sp.Family,
			Section:          sp.Section,
			Acuity:           sp.Acuity,
			Results:          sp.Results,
			Vitals:           sp.Vitals,
			MessageType:      sp.MessageType,
		}
		if p.Room == "" {
			p.Room = "N/A"
		}
		if sp.TriagedAgo != nil {
			t := now.Add(-*sp.TriagedAgo)
			p.TriageTimestamp = &t
		}
		if sp.Test != nil {
			p.Test = &TestOrder{Description: sp.Test.Description}
			if sp.Test.CompletesIn != nil {
				t := now.Add(*sp.Test.CompletesIn)
				p.Test.ExpectedTestCompletion = &t
			}
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		records = append(records, p)
	}
	return records, nil
}

// LoadSeedFile reads a seed from path, or the built-in seed when path is empty.
func LoadSeedFile(path string, now time.Time) ([]*PatientRecord, error) {
	if path == "" {
		return LoadSeed(defaultSeed, now)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return LoadSeed(data, now)
}
