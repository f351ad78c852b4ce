package timer

import (
	"fmt"
	"time"
)

// Timespan accumulates running time across start/stop cycles.
//
// The accumulated value only changes on Stop and Reset. Each stop adds the
// running interval truncated to whole seconds.
type Timespan struct {
	clock        Clock
	elapsed      time.Duration
	runningSince time.Time
	running      bool
}

// NewTimespan returns a stopped, empty Timespan reading time from clock.
// A nil clock means SystemClock.
func NewTimespan(clock Clock) *Timespan {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Timespan{clock: clock}
}

// Start begins a running interval. No-op if already running.
func (t *Timespan) Start() {
	if t.running {
		return
	}
	t.runningSince = t.clock.Now()
	t.running = true
}

// Stop closes the running interval and adds its whole seconds to the
// accumulated time. No-op if stopped.
func (t *Timespan) Stop() {
	if !t.running {
		return
	}
	t.elapsed += t.since().Truncate(time.Second)
	t.runningSince = time.Time{}
	t.running = false
}

// Toggle starts a stopped Timespan and stops a running one.
func (t *Timespan) Toggle() {
	if t.running {
		t.Stop()
	} else {
		t.Start()
	}
}

// Reset zeroes the accumulated time and discards any running interval.
func (t *Timespan) Reset() {
	t.elapsed = 0
	t.runningSince = time.Time{}
	t.running = false
}

// ElapsedNow returns the accumulated time plus the current running interval,
// untruncated.
func (t *Timespan) ElapsedNow() time.Duration {
	if !t.running {
		return t.elapsed
	}
	return t.elapsed + t.since()
}

// Elapsed returns the accumulated time only, ignoring a running interval.
func (t *Timespan) Elapsed() time.Duration { return t.elapsed }

// IsRunning reports whether an interval is open.
func (t *Timespan) IsRunning() bool { return t.running }

// Restore sets the accumulated time and leaves the Timespan stopped.
// Sub-second parts of d are dropped.
func (t *Timespan) Restore(d time.Duration) {
	t.Reset()
	if d > 0 {
		t.elapsed = d.Truncate(time.Second)
	}
}

// since saturates at zero if the clock reports an instant before the start.
func (t *Timespan) since() time.Duration {
	d := t.clock.Now().Sub(t.runningSince)
	if d < 0 {
		return 0
	}
	return d
}

// ToDisplay renders d as MM:SS. Minutes wrap at one hour.
func ToDisplay(d time.Duration) string {
	secs := wholeSeconds(d)
	return fmt.Sprintf("%02d:%02d", (secs/60)%60, secs%60)
}

// ToDisplayHMS renders d as 03h42m22s, or 12m56s under one hour.
func ToDisplayHMS(d time.Duration) string {
	secs := wholeSeconds(d)
	if secs >= 3600 {
		return fmt.Sprintf("%02dh%02dm%02ds", secs/3600, (secs/60)%60, secs%60)
	}
	return fmt.Sprintf("%02dm%02ds", (secs/60)%60, secs%60)
}

func wholeSeconds(d time.Duration) int64 {
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
