package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/notify"
	"github.com/lazyvibe/axial/internal/service"
	"github.com/lazyvibe/axial/internal/store"
	"github.com/lazyvibe/axial/internal/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu         sync.Mutex
	startErr   error
	stopErr    error
	startGate  chan struct{}
	holdStart  bool
	startCalls int
	stopCalls  int
	stoppedIDs []string
	lastConfig model.SessionConfig
}

func (f *fakeAPI) Start(ctx context.Context, cfg model.SessionConfig) (service.StartResponse, error) {
	f.mu.Lock()
	f.startCalls++
	f.lastConfig = cfg
	gate, hold, err := f.startGate, f.holdStart, f.startErr
	f.mu.Unlock()

	if gate != nil && hold {
		<-gate
	} else if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return service.StartResponse{}, ctx.Err()
		}
	}
	if err != nil {
		return service.StartResponse{}, err
	}
	return service.StartResponse{SessionID: "s-1", StartTime: time.Now()}, nil
}

func (f *fakeAPI) Stop(_ context.Context, sessionID string) (service.StopResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	f.stoppedIDs = append(f.stoppedIDs, sessionID)
	if f.stopErr != nil {
		return service.StopResponse{}, f.stopErr
	}
	return service.StopResponse{SessionID: sessionID, EndTime: time.Now(), Duration: 12}, nil
}

func (f *fakeAPI) counts() (start, stop int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.startCalls, f.stopCalls
}

type fakeConn struct {
	events     chan model.StreamEvent
	errs       chan error
	closes     atomic.Int32
	closeOnce  sync.Once
	eventsOnce sync.Once
	closed     chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan model.StreamEvent, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Events() <-chan model.StreamEvent { return c.events }
func (c *fakeConn) Err() <-chan error                { return c.errs }

func (c *fakeConn) Close() error {
	c.closes.Add(1)
	c.closeOnce.Do(func() { close(c.closed) })
	c.endEvents()
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) push(ev model.StreamEvent) { c.events <- ev }

// fail mimics a dropped socket: one terminal error, then the event channel ends.
func (c *fakeConn) fail(err error) {
	c.errs <- err
	c.endEvents()
}

func (c *fakeConn) endEvents() {
	c.eventsOnce.Do(func() { close(c.events) })
}

type fakeDialer struct {
	mu         sync.Mutex
	err        error
	conns      []*fakeConn
	overlapped bool
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (stream.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	for _, c := range d.conns {
		if !c.isClosed() {
			d.overlapped = true
		}
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

type harness struct {
	c        *Controller
	api      *fakeAPI
	dialer   *fakeDialer
	warnings *notify.PersistentStore
	toasts   *notify.Broker
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		api:      &fakeAPI{},
		dialer:   &fakeDialer{},
		warnings: notify.NewPersistentStore(),
		toasts:   notify.NewBroker(nil),
	}
	h.c = NewController(h.api, h.dialer, h.warnings, h.toasts, opts...)
	t.Cleanup(func() { _ = h.c.Close(context.Background()) })
	return h
}

func postureWarning(sec int) model.StreamEvent {
	return model.StreamEvent{Type: model.EventPostureWarning, Status: "prolonged_bad", BadDurationSec: sec}
}

func TestStartStopLifecycle(t *testing.T) {
	records, err := store.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	h := newHarness(t, WithRecords(records))
	ctx := context.Background()

	require.NoError(t, h.c.Start(ctx))
	st := h.c.State()
	assert.Equal(t, model.PhaseActive, st.Phase)
	assert.Equal(t, "s-1", st.SessionID)
	assert.False(t, st.StartTime.IsZero())
	assert.Equal(t, 1, h.dialer.count())

	h.dialer.last().push(postureWarning(30))
	require.Eventually(t, func() bool { return h.warnings.Posture() != nil }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.c.Stop(ctx))
	st = h.c.State()
	assert.Equal(t, model.PhaseIdle, st.Phase)
	assert.Empty(t, st.SessionID)
	assert.Empty(t, st.LastError)
	assert.Nil(t, h.warnings.Posture())
	assert.Equal(t, int32(1), h.dialer.last().closes.Load())

	rec, err := records.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, rec.Duration)
	assert.True(t, rec.Config.Posture)
}

func TestStartPassesCurrentConfig(t *testing.T) {
	h := newHarness(t)
	cfg := model.SessionConfig{EyeStrain: true}
	require.True(t, h.c.UpdateConfig(cfg))

	require.NoError(t, h.c.Start(context.Background()))
	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	assert.Equal(t, cfg, h.api.lastConfig)
}

func TestStopFromIdle(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.c.Stop(context.Background()), ErrNoActiveSession)
	_, stops := h.api.counts()
	assert.Zero(t, stops)
}

func TestStopFailureStillReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.c.Start(ctx))

	h.dialer.last().push(postureWarning(30))
	h.dialer.last().push(model.StreamEvent{Type: model.EventBlinkWarning, Status: "low", LowDurationSec: 40})
	require.Eventually(t, func() bool {
		return h.warnings.Posture() != nil && h.warnings.Blink() != nil
	}, time.Second, 5*time.Millisecond)

	h.api.mu.Lock()
	h.api.stopErr = errors.New("service unavailable")
	h.api.mu.Unlock()

	assert.Error(t, h.c.Stop(ctx))
	st := h.c.State()
	assert.Equal(t, model.PhaseIdle, st.Phase)
	assert.Contains(t, st.LastError, "failed to stop session")
	assert.Nil(t, h.warnings.Posture())
	assert.Nil(t, h.warnings.Blink())
	assert.True(t, h.dialer.last().isClosed())
}

func TestStartFailure(t *testing.T) {
	h := newHarness(t)
	h.api.startErr = errors.New("connection refused")

	assert.Error(t, h.c.Start(context.Background()))
	st := h.c.State()
	assert.Equal(t, model.PhaseIdle, st.Phase)
	assert.Contains(t, st.LastError, "failed to start session")
	assert.Zero(t, h.dialer.count())
}

func TestStartClearsPreviousError(t *testing.T) {
	h := newHarness(t)
	h.api.startErr = errors.New("connection refused")
	require.Error(t, h.c.Start(context.Background()))

	h.api.mu.Lock()
	h.api.startErr = nil
	h.api.mu.Unlock()
	require.NoError(t, h.c.Start(context.Background()))
	assert.Empty(t, h.c.State().LastError)
}

func TestDialFailureStopsRemoteSession(t *testing.T) {
	h := newHarness(t)
	h.dialer.err = errors.New("handshake failed")

	assert.Error(t, h.c.Start(context.Background()))
	st := h.c.State()
	assert.Equal(t, model.PhaseIdle, st.Phase)
	assert.Contains(t, st.LastError, "failed to open stream")

	_, stops := h.api.counts()
	assert.Equal(t, 1, stops)
}

func TestToggleWhileStartingIsNoop(t *testing.T) {
	h := newHarness(t)
	gate := make(chan struct{})
	h.api.startGate = gate

	done := make(chan error, 1)
	go func() { done <- h.c.Toggle(context.Background()) }()
	require.Eventually(t, func() bool { return h.c.State().Phase == model.PhaseStarting }, time.Second, 5*time.Millisecond)

	assert.NoError(t, h.c.Toggle(context.Background()))
	assert.NoError(t, h.c.Start(context.Background()))

	close(gate)
	require.NoError(t, <-done)

	starts, _ := h.api.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, h.dialer.count())
	assert.Equal(t, model.PhaseActive, h.c.State().Phase)
}

func TestStopDuringStartCancels(t *testing.T) {
	h := newHarness(t)
	h.api.startGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.c.Start(context.Background()) }()
	require.Eventually(t, func() bool { return h.c.State().Phase == model.PhaseStarting }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.c.Stop(context.Background()))
	assert.ErrorIs(t, <-done, ErrStartAborted)

	st := h.c.State()
	assert.Equal(t, model.PhaseIdle, st.Phase)
	assert.Empty(t, st.LastError)
	assert.Zero(t, h.dialer.count())
}

func TestCloseDuringStartAbandonsRemoteSession(t *testing.T) {
	h := newHarness(t)
	gate := make(chan struct{})
	h.api.startGate = gate
	h.api.holdStart = true

	done := make(chan error, 1)
	go func() { done <- h.c.Start(context.Background()) }()
	require.Eventually(t, func() bool { return h.c.State().Phase == model.PhaseStarting }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.c.Close(context.Background()))
	close(gate)
	assert.ErrorIs(t, <-done, ErrStartAborted)

	assert.Equal(t, model.PhaseIdle, h.c.State().Phase)
	assert.Zero(t, h.dialer.count())
	_, stops := h.api.counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, []string{"s-1"}, h.api.stoppedIDs)
	assert.ErrorIs(t, h.c.Start(context.Background()), ErrClosed)
}

func TestToggleNeverOverlapsConnections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, h.c.Toggle(ctx))
	}
	assert.Equal(t, 3, h.dialer.count())
	assert.False(t, h.dialer.overlapped)
	for _, c := range h.dialer.conns {
		assert.Equal(t, int32(1), c.closes.Load())
	}
}

func TestLateFramesAreDiscarded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.c.Start(ctx))

	h.c.mu.Lock()
	oldGen := h.c.gen
	h.c.mu.Unlock()

	require.NoError(t, h.c.Stop(ctx))
	h.c.deliver(oldGen, postureWarning(30))
	assert.Nil(t, h.warnings.Posture())

	// A frame from the previous connection must not leak into the next session.
	require.NoError(t, h.c.Start(ctx))
	h.c.deliver(oldGen, postureWarning(30))
	assert.Nil(t, h.warnings.Posture())
}

func TestUpdateConfigIgnoredWhileActive(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start(context.Background()))

	assert.False(t, h.c.UpdateConfig(model.SessionConfig{Distractions: true}))
	assert.Equal(t, model.DefaultSessionConfig(), h.c.Config())
}

func TestStreamFailureClearsWarnings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.c.Start(ctx))

	conn := h.dialer.last()
	conn.push(postureWarning(30))
	require.Eventually(t, func() bool { return h.warnings.Posture() != nil }, time.Second, 5*time.Millisecond)

	conn.fail(errors.New("connection reset"))
	require.Eventually(t, func() bool { return h.c.State().LastError != "" }, time.Second, 5*time.Millisecond)

	st := h.c.State()
	assert.Contains(t, st.LastError, "stream connection lost")
	assert.Equal(t, model.PhaseActive, st.Phase)
	assert.Nil(t, h.warnings.Posture())

	require.NoError(t, h.c.Stop(ctx))
	assert.Equal(t, int32(1), conn.closes.Load())
	assert.Equal(t, 1, h.dialer.count())
}

func TestResolvedEventAddsToast(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start(context.Background()))

	conn := h.dialer.last()
	conn.push(postureWarning(30))
	conn.push(model.StreamEvent{Type: model.EventPostureResolved, Status: "resolved"})

	require.Eventually(t, func() bool { return h.toasts.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Nil(t, h.warnings.Posture())
	assert.Equal(t, "Great job!", h.toasts.List()[0].Title)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.c.Start(ctx))
	h.toasts.FocusAlert("stay on task", 50)

	require.NoError(t, h.c.Close(ctx))
	require.NoError(t, h.c.Close(ctx))

	assert.Equal(t, int32(1), h.dialer.last().closes.Load())
	_, stops := h.api.counts()
	assert.Equal(t, 1, stops)
	assert.Zero(t, h.toasts.Len())
	assert.ErrorIs(t, h.c.Start(ctx), ErrClosed)
}

func TestChangesSignalled(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Start(context.Background()))

	select {
	case <-h.c.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
}
