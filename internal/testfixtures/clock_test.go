package testfixtures

import (
	"testing"
	"time"
)

func TestClock_DefaultsToReferenceTime(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Time{})
	if got := clock.Now(); !got.Equal(ReferenceTime()) {
		t.Fatalf("expected %v, got %v", ReferenceTime(), got)
	}
}

func TestClock_AdvanceAndSet(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if want := start.Add(90 * time.Minute); !updated.Equal(want) {
		t.Fatalf("expected %v, got %v", want, updated)
	}
	if !clock.Now().Equal(updated) {
		t.Errorf("Now should track the advanced time")
	}

	reset := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(reset)
	if !clock.Now().Equal(reset) {
		t.Errorf("Set should replace the tracked time")
	}
}

func TestClock_NowFuncNilReceiver(t *testing.T) {
	t.Parallel()

	var clock *Clock
	fn := clock.NowFunc()
	if fn == nil {
		t.Fatal("expected a usable fallback function")
	}
	if fn().IsZero() {
		t.Errorf("fallback should return wall-clock time")
	}
}
