package timer

import (
	"time"
)

const (
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// Timer turns a timeout into a number of fixed-length poll ticks.
type Timer struct {
	timeout      time.Duration
	pollInterval time.Duration
}

func New() *Timer {
	return &Timer{
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
	}
}

func (t *Timer) Timeout() time.Duration {
	return t.timeout
}

func (t *Timer) SetTimeout(timeout time.Duration) {
	t.timeout = timeout
}

func (t *Timer) TimeoutSeconds() float64 {
	return t.timeout.Seconds()
}

func (t *Timer) SetTimeoutSeconds(seconds float64) {
	t.timeout = time.Duration(seconds * float64(time.Second))
}

func (t *Timer) PollInterval() time.Duration {
	return t.pollInterval
}

// SetPollInterval sets the tick length. Non-positive values restore the default.
func (t *Timer) SetPollInterval(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	t.pollInterval = interval
}

// IterationBudget is ceil(timeout / pollInterval) computed in whole
// microseconds. It is derived on every call so setters take effect immediately.
func (t *Timer) IterationBudget() int {
	timeout := t.timeout.Microseconds()
	interval := t.pollInterval.Microseconds()
	if timeout <= 0 {
		return 0
	}
	if interval <= 0 {
		interval = 1
	}
	return int((timeout + interval - 1) / interval)
}

// Tick blocks for one poll interval.
func (t *Timer) Tick() {
	time.Sleep(t.pollInterval)
}
