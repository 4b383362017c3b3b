package download

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/procyborg2222/SAFETAG/internal/guide"
	"github.com/procyborg2222/SAFETAG/internal/observability"
)

// Key identifies one view instance of a download control.
type Key struct {
	Session string
	Output  string
}

// PrepareFunc performs the guide preparation for a triggered download.
type PrepareFunc func(ctx context.Context) (guide.Artifact, error)

// Option configures a Registry.
type Option func(*Registry)

// WithLinger overrides the Downloading linger after settlement.
func WithLinger(d time.Duration) Option {
	return func(r *Registry) {
		r.linger = d
	}
}

// WithTimeout bounds each preparation run.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger attaches a logger for settlement events.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = observability.OrNop(logger)
	}
}

// WithClock overrides the clock used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func withAfterFunc(fn afterFunc) Option {
	return func(r *Registry) {
		r.after = fn
	}
}

// Registry owns the buttons of all live view instances and runs their preparations.
type Registry struct {
	mu      sync.Mutex
	buttons map[Key]*Button
	wg      sync.WaitGroup

	linger  time.Duration
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
	after   afterFunc
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		buttons: make(map[Key]*Button),
		linger:  DefaultLinger,
		timeout: 2 * time.Minute,
		logger:  zap.NewNop(),
		now:     time.Now,
		after:   realAfterFunc,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Button returns the button for key, creating an idle one when needed. Either way the
// button counts as touched, so Prune keeps it.
func (r *Registry) Button(key Key) *Button {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buttonLocked(key)
}

func (r *Registry) buttonLocked(key Key) *Button {
	b, ok := r.buttons[key]
	if !ok {
		b = newButton(r.linger, r.after, r.now)
		r.buttons[key] = b
		return b
	}
	b.touch()
	return b
}

// start moves the button for key to Downloading while holding the registry lock, so
// Prune cannot drop it between lookup and start.
func (r *Registry) start(key Key) (*Button, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.buttonLocked(key)
	return b, b.Start()
}

// Lookup returns the button for key without creating it.
func (r *Registry) Lookup(key Key) (*Button, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buttons[key]
	return b, ok
}

// Len reports the number of tracked buttons.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buttons)
}

// Trigger starts a preparation for key. The preparation runs detached from ctx's
// cancellation and is bounded by the registry timeout. It returns ErrInFlight without
// calling prepare when the button is already Downloading.
func (r *Registry) Trigger(ctx context.Context, key Key, prepare PrepareFunc) (*Button, error) {
	if prepare == nil {
		return nil, errors.New("download: prepare func is required")
	}
	b, err := r.start(key)
	if err != nil {
		return b, err
	}
	runCtx := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		b.Settle(r.run(runCtx, key, prepare))
	}()
	return b, nil
}

func (r *Registry) run(ctx context.Context, key Key, prepare PrepareFunc) (out Outcome) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logger := r.logger.With(zap.String("output", key.Output))
	defer func() {
		if v := recover(); v != nil {
			logger.Error("guide preparation panicked", zap.Any("panic", v))
			out = Outcome{Result: Failed, Err: errors.New("download: preparation panicked")}
		}
	}()

	art, err := prepare(ctx)
	if err != nil {
		logger.Error("guide preparation failed", zap.Error(err))
		return Outcome{Result: Failed, Err: err}
	}
	logger.Info("guide prepared",
		zap.String("artifact", art.ID),
		zap.Int64("bytes", art.Size),
	)
	return Outcome{Result: Succeeded, Artifact: art}
}

// Prune drops idle buttons not touched within idleTTL and reports how many were removed.
func (r *Registry) Prune(idleTTL time.Duration) int {
	cutoff := r.now().Add(-idleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for key, b := range r.buttons {
		if b.idleSince(cutoff) {
			delete(r.buttons, key)
			removed++
		}
	}
	return removed
}

// Wait blocks until running preparations have settled or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops all linger timers.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.buttons {
		b.Close()
	}
}
