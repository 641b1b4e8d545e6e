package conflict

import (
	"math/rand"
	"testing"
	"time"
)

func ts(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"disjoint before", ts(9, 0), ts(10, 0), ts(10, 30), ts(11, 0), false},
		{"disjoint after", ts(11, 0), ts(12, 0), ts(9, 0), ts(10, 0), false},
		{"touching endpoints do not overlap", ts(9, 0), ts(10, 0), ts(10, 0), ts(11, 0), false},
		{"partial overlap", ts(9, 0), ts(10, 30), ts(10, 0), ts(11, 0), true},
		{"contained", ts(9, 0), ts(12, 0), ts(10, 0), ts(11, 0), true},
		{"containing", ts(10, 0), ts(11, 0), ts(9, 0), ts(12, 0), true},
		{"identical", ts(9, 0), ts(10, 0), ts(9, 0), ts(10, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps(%v, %v, %v, %v) = %v, want %v",
					tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, got, tt.want)
			}
		})
	}
}

func TestOverlapsZeroDuration(t *testing.T) {
	point := ts(10, 0)

	if Overlaps(point, point, ts(9, 0), ts(11, 0)) {
		t.Error("zero-duration candidate must never overlap")
	}
	if Overlaps(ts(9, 0), ts(11, 0), point, point) {
		t.Error("zero-duration existing must never overlap")
	}
	if Overlaps(point, point, point, point) {
		t.Error("zero-duration interval must not overlap itself")
	}
}

// Property check against random intervals: Overlaps is symmetric and
// equivalent to max(start) < min(end).
func TestOverlapsProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := ts(0, 0)

	randInterval := func() (time.Time, time.Time) {
		start := base.Add(time.Duration(rng.Intn(10000)) * time.Minute)
		if rng.Intn(10) == 0 {
			// Degenerate interval: empty, overlaps nothing.
			return start, start
		}
		return start, start.Add(time.Duration(1+rng.Intn(600)) * time.Minute)
	}

	for i := 0; i < 2000; i++ {
		a1, a2 := randInterval()
		b1, b2 := randInterval()

		got := Overlaps(a1, a2, b1, b2)

		if sym := Overlaps(b1, b2, a1, a2); got != sym {
			t.Fatalf("symmetry violated for a=[%v,%v) b=[%v,%v)", a1, a2, b1, b2)
		}

		maxStart := a1
		if b1.After(a1) {
			maxStart = b1
		}
		minEnd := a2
		if b2.Before(a2) {
			minEnd = b2
		}
		if want := maxStart.Before(minEnd); got != want {
			t.Fatalf("max/min equivalence violated for a=[%v,%v) b=[%v,%v): got %v want %v",
				a1, a2, b1, b2, got, want)
		}
	}
}
