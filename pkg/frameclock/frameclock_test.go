package frameclock

import (
	"testing"
	"time"
)

const interval = 10 * time.Millisecond

func TestNoIntervalPresentsImmediately(t *testing.T) {
	c := New(0, false)
	c.Presented(100 * time.Millisecond)

	now := 123 * time.Millisecond
	if got := c.NextPresentationTime(now); got != now {
		t.Fatalf("expected now %v, got %v", now, got)
	}
}

func TestNoHistoryPresentsImmediately(t *testing.T) {
	c := New(interval, false)

	now := 42 * time.Millisecond
	if got := c.NextPresentationTime(now); got != now {
		t.Fatalf("expected now %v, got %v", now, got)
	}
}

func TestNextPresentationOnGrid(t *testing.T) {
	c := New(interval, false)
	c.Presented(100 * time.Millisecond)

	cases := []struct {
		now    time.Duration
		expect time.Duration
	}{
		{103 * time.Millisecond, 110 * time.Millisecond},
		{109 * time.Millisecond, 110 * time.Millisecond},
		{115 * time.Millisecond, 120 * time.Millisecond},
		// Missed frames skip to the next grid slot.
		{125 * time.Millisecond, 130 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := c.NextPresentationTime(tc.now); got != tc.expect {
			t.Fatalf("at %v: expected %v, got %v", tc.now, tc.expect, got)
		}
	}
}

func TestEarlyVBlank(t *testing.T) {
	c := New(interval, false)
	c.Presented(100 * time.Millisecond)

	// One frame early.
	if got := c.NextPresentationTime(95 * time.Millisecond); got != 110*time.Millisecond {
		t.Fatalf("expected 110ms, got %v", got)
	}

	// More than one frame early resynchronizes against the last
	// presentation.
	if got := c.NextPresentationTime(80 * time.Millisecond); got != 120*time.Millisecond {
		t.Fatalf("expected 120ms, got %v", got)
	}
}

func TestVRRPresentsMissedFramesImmediately(t *testing.T) {
	c := New(interval, true)
	c.Presented(100 * time.Millisecond)

	// Within the current frame VRR still quantizes.
	if got := c.NextPresentationTime(105 * time.Millisecond); got != 110*time.Millisecond {
		t.Fatalf("expected 110ms, got %v", got)
	}

	// A full interval has elapsed; present right away.
	now := 125 * time.Millisecond
	if got := c.NextPresentationTime(now); got != now {
		t.Fatalf("expected now %v, got %v", now, got)
	}
}

func TestSetVRRDropsHistory(t *testing.T) {
	c := New(interval, false)
	c.Presented(100 * time.Millisecond)

	c.SetVRR(true)
	now := 103 * time.Millisecond
	if got := c.NextPresentationTime(now); got != now {
		t.Fatalf("expected history dropped, got %v", got)
	}
}

func TestZeroPresentationIgnored(t *testing.T) {
	c := New(interval, false)
	c.Presented(100 * time.Millisecond)
	c.Presented(0)

	if got := c.NextPresentationTime(103 * time.Millisecond); got != 110*time.Millisecond {
		t.Fatalf("expected earlier history kept, got %v", got)
	}
}
