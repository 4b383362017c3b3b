// Package download tracks the per-view state of guide download buttons.
package download

import (
	"errors"
	"sync"
	"time"

	"github.com/procyborg2222/SAFETAG/internal/guide"
	"github.com/procyborg2222/SAFETAG/internal/observability"
)

// DefaultLinger is how long a button stays in Downloading after the preparation settles.
const DefaultLinger = time.Second

// ErrInFlight is returned when a preparation is triggered while one is already running.
var ErrInFlight = errors.New("download: preparation already in flight")

// State is the rendered state of a download button.
type State int

const (
	Idle State = iota
	Downloading
)

func (s State) String() string {
	if s == Downloading {
		return "downloading"
	}
	return "idle"
}

// Result reports how a preparation settled.
type Result int

const (
	ResultNone Result = iota
	Succeeded
	Failed
)

func (r Result) String() string {
	switch r {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Outcome is the settled value of a preparation call.
type Outcome struct {
	Result   Result
	Artifact guide.Artifact
	Err      error
}

// Snapshot is a point-in-time view of a button.
type Snapshot struct {
	State      State
	LastResult Result
	SettledAt  time.Time
}

type stopper interface {
	Stop() bool
}

type afterFunc func(time.Duration, func()) stopper

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Button is the Idle/Downloading state machine behind one download control.
type Button struct {
	mu        sync.Mutex
	state     State
	last      Outcome
	settledAt time.Time
	pending   *guide.Artifact
	touched   time.Time
	timer     stopper
	closed    bool

	linger time.Duration
	after  afterFunc
	now    func() time.Time
}

func newButton(linger time.Duration, after afterFunc, now func() time.Time) *Button {
	if linger < 0 {
		linger = 0
	}
	return &Button{linger: linger, after: after, now: now, touched: now()}
}

// NewButton returns an idle button that lingers for the given duration after settlement.
func NewButton(linger time.Duration) *Button {
	return newButton(linger, realAfterFunc, time.Now)
}

// Start moves the button from Idle to Downloading.
func (b *Button) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Downloading {
		return ErrInFlight
	}
	b.state = Downloading
	b.pending = nil
	b.touched = b.now()
	observability.DownloadsInFlight.Inc()
	return nil
}

// Settle records the outcome and schedules the return to Idle after the linger.
// Failures are not surfaced as a separate state.
func (b *Button) Settle(o Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Downloading || b.timer != nil {
		return
	}
	b.last = o
	b.settledAt = b.now()
	b.touched = b.settledAt
	if o.Result == Succeeded {
		art := o.Artifact
		b.pending = &art
	}
	if b.closed {
		b.toIdleLocked()
		return
	}
	b.timer = b.after(b.linger, b.release)
}

func (b *Button) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Downloading {
		b.toIdleLocked()
	}
}

func (b *Button) toIdleLocked() {
	b.state = Idle
	b.timer = nil
	observability.DownloadsInFlight.Dec()
}

// Snapshot returns the current state.
func (b *Button) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touched = b.now()
	return Snapshot{State: b.state, LastResult: b.last.Result, SettledAt: b.settledAt}
}

// LastOutcome returns the most recent settled outcome.
func (b *Button) LastOutcome() Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// TakeArtifact hands out the artifact of the last successful preparation once.
func (b *Button) TakeArtifact() (guide.Artifact, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return guide.Artifact{}, false
	}
	art := *b.pending
	b.pending = nil
	return art, true
}

// Close stops a pending linger timer and returns the button to Idle.
func (b *Button) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.toIdleLocked()
	}
}

func (b *Button) touch() {
	b.mu.Lock()
	b.touched = b.now()
	b.mu.Unlock()
}

func (b *Button) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == Idle && b.touched.Before(cutoff)
}
