package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	tm := New()
	require.Equal(t, 5*time.Second, tm.Timeout())
	require.Equal(t, 100*time.Millisecond, tm.PollInterval())
	require.Equal(t, 50, tm.IterationBudget())
	require.InDelta(t, 5.0, tm.TimeoutSeconds(), 0.0001)
}

func TestIterationBudget(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		interval time.Duration
		expected int
	}{
		{name: "Exact", timeout: time.Second, interval: 100 * time.Millisecond, expected: 10},
		{name: "RoundsUp", timeout: 250 * time.Millisecond, interval: 100 * time.Millisecond, expected: 3},
		{name: "SubInterval", timeout: time.Millisecond, interval: 100 * time.Millisecond, expected: 1},
		{name: "Zero", timeout: 0, interval: 100 * time.Millisecond, expected: 0},
		{name: "Negative", timeout: -time.Second, interval: 100 * time.Millisecond, expected: 0},
		{name: "Fine", timeout: 2 * time.Second, interval: time.Millisecond, expected: 2000},
		{name: "SubMicrosecondInterval", timeout: time.Millisecond, interval: time.Nanosecond, expected: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := &Timer{timeout: tt.timeout, pollInterval: tt.interval}
			require.Equal(t, tt.expected, tm.IterationBudget())
		})
	}
}

func TestBudgetFollowsSetters(t *testing.T) {
	tm := New()
	tm.SetTimeoutSeconds(1)
	require.Equal(t, 10, tm.IterationBudget())

	tm.SetPollInterval(50 * time.Millisecond)
	require.Equal(t, 20, tm.IterationBudget())

	tm.SetTimeout(3 * time.Second)
	require.Equal(t, 60, tm.IterationBudget())

	tm.SetPollInterval(0)
	require.Equal(t, DefaultPollInterval, tm.PollInterval())
	require.Equal(t, 30, tm.IterationBudget())
}

func TestTickSleeps(t *testing.T) {
	tm := New()
	tm.SetPollInterval(20 * time.Millisecond)

	start := time.Now()
	tm.Tick()
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
