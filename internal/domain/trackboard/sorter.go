package trackboard

import (
	"cmp"
	"slices"
	"time"
)

// DefaultAcuity stands in for a missing acuity when ordering records; it is
// the least severe level.
const DefaultAcuity = 5

// Comparator orders two records of the same section. It returns a negative
// number when a sorts before b.
type Comparator func(a, b *PatientRecord) int

// sectionRules is the closed set of per-section orderings. Adding a Section
// without an entry here makes Known report false and the record is dropped.
var sectionRules = map[Section]Comparator{
	SectionUntriaged:       byArrival,
	SectionTriagedAwaiting: byAcuityThenTriage,
	SectionTestsOrdered:    byExpectedCompletion,
	SectionResultsReady:    byAcuityThenArrival,
	SectionConcierge:       byArrival,
}

// ComparatorFor returns the ordering used for section.
func ComparatorFor(section Section) (Comparator, bool) {
	c, ok := sectionRules[section]
	return c, ok
}

// SortSection returns a new slice with records ordered by the section's rule.
// The sort is stable, so records the rule considers equal keep their input
// order. The input slice is not modified.
func SortSection(section Section, records []*PatientRecord) ([]*PatientRecord, error) {
	cmpFn, ok := sectionRules[section]
	if !ok {
		return nil, ErrUnknownSection
	}
	out := slices.Clone(records)
	slices.SortStableFunc(out, cmpFn)
	return out, nil
}

func acuityOf(p *PatientRecord) int {
	if p.Acuity == nil {
		return DefaultAcuity
	}
	return *p.Acuity
}

func triageTimeOf(p *PatientRecord) time.Time {
	if p.TriageTimestamp == nil {
		return p.ArrivalTimestamp
	}
	return *p.TriageTimestamp
}

// byArrival puts the longest wait first.
func byArrival(a, b *PatientRecord) int {
	return a.ArrivalTimestamp.Compare(b.ArrivalTimestamp)
}

func byAcuityThenTriage(a, b *PatientRecord) int {
	if c := cmp.Compare(acuityOf(a), acuityOf(b)); c != 0 {
		return c
	}
	return triageTimeOf(a).Compare(triageTimeOf(b))
}

func byAcuityThenArrival(a, b *PatientRecord) int {
	if c := cmp.Compare(acuityOf(a), acuityOf(b)); c != 0 {
		return c
	}
	return byArrival(a, b)
}

// byExpectedCompletion orders by expected test completion. Records with a
// completion time come before records without one; records without one are
// ordered by arrival.
func byExpectedCompletion(a, b *PatientRecord) int {
	ac, bc := a.ExpectedTestCompletion(), b.ExpectedTestCompletion()
	switch {
	case ac != nil && bc != nil:
		return ac.Compare(*bc)
	case ac != nil:
		return -1
	case bc != nil:
		return 1
	default:
		return byArrival(a, b)
	}
}
