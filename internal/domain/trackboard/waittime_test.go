package trackboard

import (
	"testing"
	"time"
)

func TestClassifyWait_UntriagedBoundary(t *testing.T) {
	tests := []struct {
		name       string
		wait       time.Duration
		wantUrgent bool
		wantSev    Severity
		wantLabel  string
	}{
		{"just arrived", 0, false, SeverityLow, "0m"},
		{"2m59s", 2*time.Minute + 59*time.Second, false, SeverityLow, "2m"},
		{"3m", 3 * time.Minute, false, SeverityMedium, "3m"},
		{"5m", 5 * time.Minute, false, SeverityHigh, "5m"},
		{"6.99m", time.Duration(6.99 * float64(time.Minute)), false, SeverityHigh, "6m"},
		{"7m", 7 * time.Minute, true, SeverityCritical, "7m"},
		{"75m", 75 * time.Minute, true, SeverityCritical, "1h 15m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ClassifyWait(ago(tt.wait), SectionUntriaged, testNow)
			if w.Urgent != tt.wantUrgent {
				t.Errorf("urgent = %v, want %v (minutes %.3f)", w.Urgent, tt.wantUrgent, w.Minutes)
			}
			if w.Severity != tt.wantSev {
				t.Errorf("severity = %s, want %s", w.Severity, tt.wantSev)
			}
			if w.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", w.Label, tt.wantLabel)
			}
		})
	}
}

func TestClassifyWait_ConciergeBoundary(t *testing.T) {
	tests := []struct {
		name       string
		wait       time.Duration
		wantUrgent bool
		wantSev    Severity
		wantLabel  string
	}{
		{"30m", 30 * time.Minute, false, SeverityNormal, "0h"},
		{"17h", 17 * time.Hour, false, SeverityNormal, "17h"},
		{"18h", 18 * time.Hour, false, SeverityHigh, "18h"},
		{"23.99h", time.Duration(23.99 * float64(time.Hour)), false, SeverityHigh, "23h"},
		{"24h", 24 * time.Hour, true, SeverityCritical, "1d 0h"},
		{"50h", 50 * time.Hour, true, SeverityCritical, "2d 2h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ClassifyWait(ago(tt.wait), SectionConcierge, testNow)
			if w.Urgent != tt.wantUrgent {
				t.Errorf("urgent = %v, want %v (hours %.3f)", w.Urgent, tt.wantUrgent, w.Hours)
			}
			if w.Severity != tt.wantSev {
				t.Errorf("severity = %s, want %s", w.Severity, tt.wantSev)
			}
			if w.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", w.Label, tt.wantLabel)
			}
		})
	}
}

func TestClassifyWait_OtherSectionsNeverUrgent(t *testing.T) {
	for _, s := range []Section{SectionTriagedAwaiting, SectionTestsOrdered, SectionResultsReady} {
		w := ClassifyWait(ago(10*time.Hour), s, testNow)
		if w.Urgent {
			t.Errorf("%s: expected no urgency flag", s)
		}
		if w.Severity != SeverityNormal {
			t.Errorf("%s: expected normal severity, got %s", s, w.Severity)
		}
		if w.Label != "10h 0m" {
			t.Errorf("%s: expected label 10h 0m, got %q", s, w.Label)
		}
	}
}

func TestClassifyWait_FutureArrivalIsZero(t *testing.T) {
	w := ClassifyWait(testNow.Add(5*time.Minute), SectionUntriaged, testNow)
	if w.Minutes != 0 {
		t.Errorf("expected 0 minutes, got %f", w.Minutes)
	}
	if w.Urgent || w.Label != "0m" {
		t.Errorf("unexpected assessment for future arrival: %+v", w)
	}
}

func TestSLATarget(t *testing.T) {
	want := map[Section]string{
		SectionUntriaged:       "<7 min",
		SectionTriagedAwaiting: "",
		SectionTestsOrdered:    "",
		SectionResultsReady:    "",
		SectionConcierge:       "<24 hrs",
	}
	for s, label := range want {
		if got := SLATarget(s); got != label {
			t.Errorf("SLATarget(%s) = %q, want %q", s, got, label)
		}
	}
}
