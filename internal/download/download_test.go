package download

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/procyborg2222/SAFETAG/internal/guide"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTimer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	return true
}

func (t *fakeTimer) fire() {
	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if !stopped {
		t.fn()
	}
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) after(d time.Duration, fn func()) stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) last(t *testing.T) *fakeTimer {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.timers)
	return s.timers[len(s.timers)-1]
}

func TestButtonLingersAfterSettlement(t *testing.T) {
	sched := &fakeScheduler{}
	b := newButton(time.Second, sched.after, time.Now)

	require.Equal(t, Idle, b.Snapshot().State)
	require.NoError(t, b.Start())
	assert.Equal(t, Downloading, b.Snapshot().State)

	b.Settle(Outcome{Result: Succeeded, Artifact: guide.Artifact{ID: "a1"}})
	timer := sched.last(t)
	assert.Equal(t, time.Second, timer.d)
	assert.Equal(t, Downloading, b.Snapshot().State, "still downloading during linger")

	timer.fire()
	snap := b.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, Succeeded, snap.LastResult)
}

func TestButtonRejectsReentry(t *testing.T) {
	sched := &fakeScheduler{}
	b := newButton(time.Second, sched.after, time.Now)

	require.NoError(t, b.Start())
	assert.ErrorIs(t, b.Start(), ErrInFlight)

	b.Settle(Outcome{Result: Failed, Err: errors.New("boom")})
	assert.ErrorIs(t, b.Start(), ErrInFlight, "retrigger blocked until linger passes")

	sched.last(t).fire()
	assert.NoError(t, b.Start())
	b.Close()
}

func TestButtonFailureStillClears(t *testing.T) {
	sched := &fakeScheduler{}
	b := newButton(time.Second, sched.after, time.Now)

	require.NoError(t, b.Start())
	b.Settle(Outcome{Result: Failed, Err: errors.New("render failed")})
	sched.last(t).fire()

	snap := b.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, Failed, snap.LastResult)
	_, ok := b.TakeArtifact()
	assert.False(t, ok)
}

func TestButtonDeliversArtifactOnce(t *testing.T) {
	sched := &fakeScheduler{}
	b := newButton(0, sched.after, time.Now)

	require.NoError(t, b.Start())
	b.Settle(Outcome{Result: Succeeded, Artifact: guide.Artifact{ID: "a1", Key: "full-guide/a1.html"}})

	art, ok := b.TakeArtifact()
	require.True(t, ok)
	assert.Equal(t, "a1", art.ID)
	_, ok = b.TakeArtifact()
	assert.False(t, ok)
	sched.last(t).fire()
}

func TestButtonCloseStopsTimer(t *testing.T) {
	sched := &fakeScheduler{}
	b := newButton(time.Second, sched.after, time.Now)

	require.NoError(t, b.Start())
	b.Settle(Outcome{Result: Succeeded})
	timer := sched.last(t)

	b.Close()
	assert.True(t, timer.stopped)
	assert.Equal(t, Idle, b.Snapshot().State)
}

func TestButtonRealLinger(t *testing.T) {
	const linger = 80 * time.Millisecond
	b := NewButton(linger)

	require.NoError(t, b.Start())
	settled := time.Now()
	b.Settle(Outcome{Result: Succeeded})

	require.Eventually(t, func() bool {
		return b.Snapshot().State == Idle
	}, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(settled), linger)
}

func TestRegistryTriggerRunsOnce(t *testing.T) {
	sched := &fakeScheduler{}
	reg := NewRegistry(withAfterFunc(sched.after), WithTimeout(time.Second))
	key := Key{Session: "s1", Output: "full-guide"}

	release := make(chan struct{})
	var calls atomic.Int32
	prepare := func(ctx context.Context) (guide.Artifact, error) {
		calls.Add(1)
		<-release
		return guide.Artifact{ID: "a1", OutputID: "full-guide"}, nil
	}

	b, err := reg.Trigger(context.Background(), key, prepare)
	require.NoError(t, err)
	assert.Equal(t, Downloading, b.Snapshot().State)

	_, err = reg.Trigger(context.Background(), key, prepare)
	assert.ErrorIs(t, err, ErrInFlight)

	close(release)
	require.NoError(t, reg.Wait(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	art, ok := b.TakeArtifact()
	require.True(t, ok)
	assert.Equal(t, "a1", art.ID)

	sched.last(t).fire()
	assert.Equal(t, Idle, b.Snapshot().State)
}

func TestRegistryIsolatesViewInstances(t *testing.T) {
	reg := NewRegistry(WithLinger(0))
	a := reg.Button(Key{Session: "a", Output: "full-guide"})
	b := reg.Button(Key{Session: "b", Output: "full-guide"})
	c := reg.Button(Key{Session: "a", Output: "custom-guide"})

	require.NoError(t, a.Start())
	assert.NoError(t, b.Start())
	assert.NoError(t, c.Start())
	assert.Same(t, a, reg.Button(Key{Session: "a", Output: "full-guide"}))
	reg.Close()
}

func TestRegistryDetachesFromRequestContext(t *testing.T) {
	sched := &fakeScheduler{}
	reg := NewRegistry(withAfterFunc(sched.after))
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	var sawCancel atomic.Bool
	b, err := reg.Trigger(ctx, Key{Session: "s", Output: "full-guide"}, func(ctx context.Context) (guide.Artifact, error) {
		close(started)
		time.Sleep(10 * time.Millisecond)
		sawCancel.Store(ctx.Err() != nil)
		return guide.Artifact{ID: "x"}, nil
	})
	require.NoError(t, err)
	<-started
	cancel()

	require.NoError(t, reg.Wait(context.Background()))
	assert.False(t, sawCancel.Load())
	assert.Equal(t, Succeeded, b.LastOutcome().Result)
	reg.Close()
}

func TestRegistryRecoversPanics(t *testing.T) {
	sched := &fakeScheduler{}
	reg := NewRegistry(withAfterFunc(sched.after))

	b, err := reg.Trigger(context.Background(), Key{Session: "s", Output: "full-guide"}, func(context.Context) (guide.Artifact, error) {
		panic("kaboom")
	})
	require.NoError(t, err)
	require.NoError(t, reg.Wait(context.Background()))

	out := b.LastOutcome()
	assert.Equal(t, Failed, out.Result)
	assert.Error(t, out.Err)
	sched.last(t).fire()
	assert.Equal(t, Idle, b.Snapshot().State)
}

func TestRegistryPrune(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := NewRegistry(WithClock(clock), WithLinger(0))

	reg.Button(Key{Session: "old", Output: "full-guide"})
	busy := reg.Button(Key{Session: "busy", Output: "full-guide"})
	require.NoError(t, busy.Start())

	now = now.Add(time.Hour)
	reg.Button(Key{Session: "fresh", Output: "full-guide"})

	removed := reg.Prune(30 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, reg.Len())
	_, ok := reg.Lookup(Key{Session: "old", Output: "full-guide"})
	assert.False(t, ok)
	reg.Close()
}

func TestRegistryButtonRefreshesIdleTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := NewRegistry(WithClock(clock), WithLinger(0))
	defer reg.Close()
	key := Key{Session: "s1", Output: "full-guide"}

	first := reg.Button(key)
	now = now.Add(2 * time.Hour)
	again := reg.Button(key)
	require.Same(t, first, again)

	assert.Equal(t, 0, reg.Prune(time.Hour), "a fetched button is not idle")
	got, ok := reg.Lookup(key)
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestRegistryTriggerKeepsLongIdleButton(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	reg := NewRegistry(WithClock(clock), WithLinger(0))
	defer reg.Close()
	key := Key{Session: "s1", Output: "full-guide"}

	idle := reg.Button(key)
	now = now.Add(2 * time.Hour)

	release := make(chan struct{})
	b, err := reg.Trigger(context.Background(), key, func(context.Context) (guide.Artifact, error) {
		<-release
		return guide.Artifact{ID: "a1"}, nil
	})
	require.NoError(t, err)
	require.Same(t, idle, b)

	assert.Equal(t, 0, reg.Prune(time.Hour))
	got, ok := reg.Lookup(key)
	require.True(t, ok)
	assert.Same(t, b, got, "status reads the button the run settles")

	close(release)
	require.NoError(t, reg.Wait(context.Background()))
	art, ok := got.TakeArtifact()
	require.True(t, ok)
	assert.Equal(t, "a1", art.ID)
}
