package workers

import (
	"os"
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	os.Unsetenv("TEST_WORKERS")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound task (1.0x multiplier)",
			multiplier: 1.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "I/O-bound task (2.0x multiplier)",
			multiplier: 2.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "With limit lower than calculated",
			multiplier: 2.0,
			limit:      2,
			minExpect:  1,
			maxExpect:  2,
		},
		{
			name:       "Very low multiplier floors at one",
			multiplier: 0.01,
			limit:      0,
			minExpect:  1,
			maxExpect:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count("TEST_WORKERS", tt.multiplier, tt.limit)
			if got < tt.minExpect {
				t.Errorf("Count = %d, expected >= %d", got, tt.minExpect)
			}
			if got > tt.maxExpect {
				t.Errorf("Count = %d, expected <= %d", got, tt.maxExpect)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	t.Setenv("TEST_WORKERS", "7")

	if got := Count("TEST_WORKERS", 1.0, 0); got != 7 {
		t.Errorf("Count with override = %d, want 7", got)
	}
	if got := Count("TEST_WORKERS", 1.0, 3); got != 3 {
		t.Errorf("Count with override and limit = %d, want 3", got)
	}
}

func TestCountOverrideInvalid(t *testing.T) {
	t.Setenv("TEST_WORKERS", "not-a-number")

	got := Count("TEST_WORKERS", 1.0, 0)
	if got < 1 {
		t.Errorf("Count with invalid override = %d, want >= 1", got)
	}
}

func TestForPreviews(t *testing.T) {
	os.Unsetenv("PREVIEW_WORKERS")
	if got := ForPreviews(4); got < 1 || got > 4 {
		t.Errorf("ForPreviews(4) = %d, want within [1, 4]", got)
	}
}
