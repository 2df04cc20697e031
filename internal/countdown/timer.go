package countdown

import (
	"fmt"
	"sync"
	"time"
)

const defaultWarningThreshold = 60 * time.Second

// Timer counts down a seat-hold window and invokes OnExpire exactly once
// per activation when the window runs out.
//
// Remaining time is derived from wall-clock deltas against the activation
// instant, never from per-tick decrements, so a throttled or delayed ticker
// cannot stretch the countdown. Every Start begins a fresh countdown;
// elapsed time is deliberately never persisted or resumed.
type Timer struct {
	duration         time.Duration
	warningThreshold time.Duration
	warningEnabled   bool
	tickInterval     time.Duration
	onExpire         func()

	mu         sync.Mutex
	active     bool
	startedAt  time.Time
	expireOnce *sync.Once
	stopCh     chan struct{}

	now func() time.Time
}

// Option configures a Timer
type Option func(*Timer)

// WithWarningThreshold overrides the remaining-time threshold below which
// Warning reports true.
func WithWarningThreshold(d time.Duration) Option {
	return func(t *Timer) { t.warningThreshold = d }
}

// WithoutWarning suppresses the warning state entirely.
func WithoutWarning() Option {
	return func(t *Timer) { t.warningEnabled = false }
}

// WithTickInterval overrides how often the timer checks for expiry.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) { t.tickInterval = d }
}

// New creates an inactive timer. onExpire may be nil.
func New(duration time.Duration, onExpire func(), opts ...Option) *Timer {
	t := &Timer{
		duration:         duration,
		warningThreshold: defaultWarningThreshold,
		warningEnabled:   true,
		tickInterval:     250 * time.Millisecond,
		onExpire:         onExpire,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins a fresh countdown from the full configured duration. If the
// timer is already running, the running countdown is discarded and a new
// one begins.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.stopCh != nil {
		close(t.stopCh)
	}
	t.active = true
	t.startedAt = t.now()
	t.expireOnce = &sync.Once{}
	stop := make(chan struct{})
	t.stopCh = stop
	t.mu.Unlock()

	go t.run(stop)
}

// Stop halts the countdown. A stopped timer advances no further and its
// expiry callback does not fire.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
}

// Active reports whether a countdown is currently running.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Remaining returns the time left in the current countdown, or zero when
// the timer is inactive.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked()
}

func (t *Timer) remainingLocked() time.Duration {
	if !t.active {
		return 0
	}
	rem := t.duration - t.now().Sub(t.startedAt)
	if rem < 0 {
		return 0
	}
	return rem
}

// Display returns the remaining time formatted as "MM:SS".
func (t *Timer) Display() string {
	return FormatRemaining(t.Remaining())
}

// Warning reports whether the countdown has entered its warning window
// (remaining time at or below the threshold while still active).
func (t *Timer) Warning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.warningEnabled || !t.active {
		return false
	}
	return t.remainingLocked() <= t.warningThreshold
}

func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if t.tick() {
				return
			}
		}
	}
}

// tick checks for expiry and returns true when the countdown is finished.
func (t *Timer) tick() bool {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return true
	}
	if t.now().Sub(t.startedAt) < t.duration {
		t.mu.Unlock()
		return false
	}
	t.active = false
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
	once := t.expireOnce
	cb := t.onExpire
	t.mu.Unlock()

	if cb != nil {
		once.Do(cb)
	}
	return true
}

// FormatRemaining renders a duration as "MM:SS", rounding partial seconds
// up so the display never reads 00:00 while time is actually left.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
