package trackboard

import (
	"errors"
	"testing"
	"time"
)

func TestSortSection_UntriagedLongestWaitFirst(t *testing.T) {
	records := []*PatientRecord{
		patient("one", SectionUntriaged, 1*time.Minute),
		patient("ten", SectionUntriaged, 10*time.Minute),
		patient("five", SectionUntriaged, 5*time.Minute),
	}
	got, err := SortSection(SectionUntriaged, records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"ten", "five", "one"}; !equalIDs(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestSortSection_TriagedByAcuityThenTriageTime(t *testing.T) {
	low := patient("acuity4", SectionTriagedAwaiting, 90*time.Minute)
	low.Acuity = intPtr(4)
	high := patient("acuity2", SectionTriagedAwaiting, 5*time.Minute)
	high.Acuity = intPtr(2)

	got, _ := SortSection(SectionTriagedAwaiting, []*PatientRecord{low, high})
	if want := []string{"acuity2", "acuity4"}; !equalIDs(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}

	early := patient("early", SectionTriagedAwaiting, time.Hour)
	early.Acuity = intPtr(3)
	early.TriageTimestamp = timePtr(ago(30 * time.Minute))
	late := patient("late", SectionTriagedAwaiting, 2*time.Hour)
	late.Acuity = intPtr(3)
	late.TriageTimestamp = timePtr(ago(10 * time.Minute))

	got, _ = SortSection(SectionTriagedAwaiting, []*PatientRecord{late, early})
	if want := []string{"early", "late"}; !equalIDs(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestSortSection_MissingAcuityIsLeastSevere(t *testing.T) {
	none := patient("none", SectionResultsReady, 3*time.Hour)
	five := patient("five", SectionResultsReady, time.Hour)
	five.Acuity = intPtr(5)
	four := patient("four", SectionResultsReady, 10*time.Minute)
	four.Acuity = intPtr(4)

	got, _ := SortSection(SectionResultsReady, []*PatientRecord{none, five, four})
	// none and five tie on acuity, so the earlier arrival wins
	if want := []string{"four", "none", "five"}; !equalIDs(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestSortSection_ResultsReadyEqualAcuityByArrival(t *testing.T) {
	recent := patient("recent", SectionResultsReady, 15*time.Minute)
	recent.Acuity = intPtr(3)
	waiting := patient("waiting", SectionResultsReady, 90*time.Minute)
	waiting.Acuity = intPtr(3)
	urgent := patient("urgent", SectionResultsReady, 5*time.Minute)
	urgent.Acuity = intPtr(1)

	got, _ := SortSection(SectionResultsReady, []*PatientRecord{recent, urgent, waiting})
	if want := []string{"urgent", "waiting", "recent"}; !equalIDs(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestSortSection_TriagedMissingTriageTimeUsesArrival(t *testing.T) {
	a := patient("no-triage", SectionTriagedAwaiting, 20*time.Minute)
	a.Acuity = intPtr(2)
	b := patient("triaged", SectionTriagedAwaiting, time.Hour)
	b.Acuity = intPtr(2)
	b.TriageTimestamp = timePtr(ago(10 * time.Minute))

	got, _ := SortSection(SectionTriagedAwaiting, []*PatientRecord{b, a})
	if want := []string{"no-triage", "triaged"}; !equalIDs(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestSortSection_TestsOrdered(t *testing.T) {
	soon := patient("soon", SectionTestsOrdered, 10*time.Minute)
	soon.Test = &TestOrder{Description: "Troponin", ExpectedTestCompletion: timePtr(testNow.Add(5 * time.Minute))}
	later := patient("later", SectionTestsOrdered, time.Hour)
	later.Test = &TestOrder{Description: "CT", ExpectedTestCompletion: timePtr(testNow.Add(45 * time.Minute))}
	pendingOld := patient("pending-old", SectionTestsOrdered, 2*time.Hour)
	pendingOld.Test = &TestOrder{Description: "Culture"}
	pendingNew := patient("pending-new", SectionTestsOrdered, 30*time.Minute)

	got, _ := SortSection(SectionTestsOrdered, []*PatientRecord{pendingNew, later, pendingOld, soon})
	want := []string{"soon", "later", "pending-old", "pending-new"}
	if !equalIDs(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestSortSection_StableAndNonMutating(t *testing.T) {
	same := ago(5 * time.Minute)
	records := []*PatientRecord{
		{ID: "c", Section: SectionConcierge, ArrivalTimestamp: same},
		{ID: "a", Section: SectionConcierge, ArrivalTimestamp: same},
		{ID: "b", Section: SectionConcierge, ArrivalTimestamp: same},
		{ID: "old", Section: SectionConcierge, ArrivalTimestamp: ago(time.Hour)},
	}
	before := ids(records)

	first, _ := SortSection(SectionConcierge, records)
	second, _ := SortSection(SectionConcierge, records)

	if want := []string{"old", "c", "a", "b"}; !equalIDs(ids(first), want) {
		t.Errorf("got %v, want %v", ids(first), want)
	}
	if !equalIDs(ids(first), ids(second)) {
		t.Errorf("sorting twice differs: %v vs %v", ids(first), ids(second))
	}
	if !equalIDs(ids(records), before) {
		t.Errorf("input was reordered: %v", ids(records))
	}
}

func TestSortSection_Empty(t *testing.T) {
	got, err := SortSection(SectionResultsReady, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %v", ids(got))
	}
}

func TestSortSection_UnknownSection(t *testing.T) {
	if _, err := SortSection("hallway", nil); !errors.Is(err, ErrUnknownSection) {
		t.Errorf("expected ErrUnknownSection, got %v", err)
	}
}
