package clock

import (
	"testing"
	"time"
)

func TestNew_ReturnsWallTime(t *testing.T) {
	before := time.Now()
	got := New().Now()
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("expected wall time between %v and %v, got %v", before, after, got)
	}
}

func TestManagedClock_Advance(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewManaged(start)

	if !c.Now().Equal(start) {
		t.Fatalf("expected %v, got %v", start, c.Now())
	}

	got := c.Advance(7 * time.Minute)
	if !got.Equal(start.Add(7 * time.Minute)) {
		t.Errorf("expected start+7m, got %v", got)
	}
	if !c.Now().Equal(got) {
		t.Errorf("Now() should match the advanced instant")
	}
}

func TestManagedClock_IgnoresNegativeAdvance(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c := NewManaged(start)
	c.Advance(-time.Hour)
	if !c.Now().Equal(start) {
		t.Errorf("clock moved backwards: %v", c.Now())
	}
}
