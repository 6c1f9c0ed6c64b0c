package trackboard

import (
	"time"

	"github.com/samber/lo"
)

var sectionTitles = map[Section]string{
	SectionUntriaged:       "Untriaged",
	SectionTriagedAwaiting: "Triaged - Awaiting Physician",
	SectionTestsOrdered:    "Tests Ordered",
	SectionResultsReady:    "Results Ready",
	SectionConcierge:       "Concierge Messages",
}

// PatientView is a record with its derived wait and vitals assessment.
type PatientView struct {
	*PatientRecord
	Wait        WaitAssessment   `json:"wait"`
	VitalStatus VitalsAssessment `json:"vitalStatus"`
}

// NewPatientView classifies p as seen at now.
func NewPatientView(p *PatientRecord, now time.Time) PatientView {
	return PatientView{
		PatientRecord: p,
		Wait:          ClassifyWait(p.ArrivalTimestamp, p.Section, now),
		VitalStatus:   AssessVitals(p.Vitals),
	}
}

// SectionView is one ordered board section with its aggregate counts.
type SectionView struct {
	Section        Section       `json:"section"`
	Title          string        `json:"title"`
	SLATarget      string        `json:"slaTarget,omitempty"`
	Total          int           `json:"total"`
	NeedsAttention int           `json:"needsAttention"`
	Patients       []PatientView `json:"patients"`
}

// Board is the render-ready tracking board.
type Board struct {
	Sections   []SectionView `json:"sections"`
	LastUpdate time.Time     `json:"lastUpdate"`
	// Dropped holds the ids of records whose section is not one of the
	// five known sections. They appear in no partition.
	Dropped []string `json:"-"`
}

// Section returns the view for s.
func (b *Board) Section(s Section) (*SectionView, bool) {
	for i := range b.Sections {
		if b.Sections[i].Section == s {
			return &b.Sections[i], true
		}
	}
	return nil, false
}

// Urgent returns every flagged patient across the board.
func (b *Board) Urgent() []PatientView {
	return lo.FlatMap(b.Sections, func(sv SectionView, _ int) []PatientView {
		return lo.Filter(sv.Patients, func(v PatientView, _ int) bool { return v.Wait.Urgent })
	})
}

// Assemble partitions records into the five sections, orders each with its
// section rule and classifies every record as seen at now. It never mutates
// records and never fails: empty sections are returned with no patients.
func Assemble(records []*PatientRecord, now time.Time) *Board {
	records = lo.Compact(records)
	groups := lo.GroupBy(records, func(p *PatientRecord) Section { return p.Section })

	board := &Board{
		Sections:   make([]SectionView, 0, len(Sections)),
		LastUpdate: now,
		Dropped: lo.FilterMap(records, func(p *PatientRecord, _ int) (string, bool) {
			return p.ID, !p.Section.Known()
		}),
	}

	for _, sec := range Sections {
		sorted, _ := SortSection(sec, groups[sec])
		views := lo.Map(sorted, func(p *PatientRecord, _ int) PatientView {
			return NewPatientView(p, now)
		})
		board.Sections = append(board.Sections, SectionView{
			Section:        sec,
			Title:          sectionTitles[sec],
			SLATarget:      SLATarget(sec),
			Total:          len(views),
			NeedsAttention: lo.CountBy(views, func(v PatientView) bool { return v.Wait.Urgent }),
			Patients:       views,
		})
	}
	return board
}
