// Package session drives the monitoring session lifecycle and routes live
// stream events into the notification stores.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/notify"
	"github.com/lazyvibe/axial/internal/service"
	"github.com/lazyvibe/axial/internal/store"
	"github.com/lazyvibe/axial/internal/stream"
	"github.com/rs/zerolog"
)

var (
	// ErrNoActiveSession is returned by Stop when nothing is running.
	ErrNoActiveSession = errors.New("no active session")
	// ErrStartAborted is returned by Start when Stop or Close interrupted it.
	ErrStartAborted = errors.New("session start aborted")
	// ErrClosed is returned after the controller has been shut down.
	ErrClosed = errors.New("session controller closed")
)

// cleanupTimeout bounds the best-effort remote stop issued after an aborted
// or half-completed start.
const cleanupTimeout = 5 * time.Second

// Controller owns the session state and the live stream handle. All state
// changes go through its methods.
type Controller struct {
	mu sync.Mutex

	api      service.API
	dialer   stream.Dialer
	warnings *notify.PersistentStore
	toasts   *notify.Broker
	records  store.RecordStore
	log      zerolog.Logger
	change   *notify.Signal

	phase     model.SessionPhase
	config    model.SessionConfig
	sessionID string
	startTime time.Time
	lastError string

	conn stream.Conn
	// gen is bumped whenever the current stream handle is invalidated;
	// frames tagged with an older generation are discarded.
	gen           uint64
	startCancel   context.CancelFunc
	stopRequested bool
	closed        bool
	pumps         sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithRecords persists a record of every successfully stopped session.
func WithRecords(rs store.RecordStore) Option {
	return func(c *Controller) { c.records = rs }
}

// WithConfig sets the initial channel selection.
func WithConfig(cfg model.SessionConfig) Option {
	return func(c *Controller) { c.config = cfg }
}

// NewController creates an idle controller.
func NewController(api service.API, dialer stream.Dialer, warnings *notify.PersistentStore, toasts *notify.Broker, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		dialer:   dialer,
		warnings: warnings,
		toasts:   toasts,
		log:      zerolog.Nop(),
		change:   notify.NewSignal(),
		phase:    model.PhaseIdle,
		config:   model.DefaultSessionConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the session state.
func (c *Controller) State() model.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.SessionState{
		Phase:     c.phase,
		SessionID: c.sessionID,
		StartTime: c.startTime,
		Config:    c.config,
		LastError: c.lastError,
	}
}

// Config returns the current channel selection.
func (c *Controller) Config() model.SessionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// Changes is signalled after every state change.
func (c *Controller) Changes() <-chan struct{} {
	return c.change.C()
}

// UpdateConfig replaces the channel selection. It is ignored unless the
// controller is idle, and reports whether it was applied.
func (c *Controller) UpdateConfig(cfg model.SessionConfig) bool {
	c.mu.Lock()
	if phase := c.phase; phase != model.PhaseIdle || c.closed {
		c.mu.Unlock()
		c.log.Debug().Str("phase", string(phase)).Msg("config change ignored while session is running")
		return false
	}
	c.config = cfg
	c.mu.Unlock()
	c.change.Notify()
	return true
}

// Toggle stops an active session or starts a new one. It does nothing while
// a start or stop is already in flight.
func (c *Controller) Toggle(ctx context.Context) error {
	c.mu.Lock()
	phase := c.phase
	c.mu.Unlock()

	switch phase {
	case model.PhaseActive:
		err := c.Stop(ctx)
		if errors.Is(err, ErrNoActiveSession) {
			return nil
		}
		return err
	case model.PhaseIdle:
		return c.Start(ctx)
	default:
		c.log.Debug().Str("phase", string(phase)).Msg("toggle ignored, request in flight")
		return nil
	}
}

// Start asks the service to begin a session and opens the live stream. It is
// a no-op unless the controller is idle.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.phase != model.PhaseIdle {
		c.mu.Unlock()
		return nil
	}
	startCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.phase = model.PhaseStarting
	c.lastError = ""
	c.stopRequested = false
	c.startCancel = cancel
	cfg := c.config
	c.mu.Unlock()
	c.change.Notify()

	c.log.Info().
		Bool("posture", cfg.Posture).
		Bool("eye_strain", cfg.EyeStrain).
		Bool("distractions", cfg.Distractions).
		Msg("starting session")

	resp, err := c.api.Start(startCtx, cfg)
	if err != nil {
		c.mu.Lock()
		aborted := c.stopRequested
		c.phase = model.PhaseIdle
		c.startCancel = nil
		if !aborted {
			c.lastError = fmt.Sprintf("failed to start session: %v", err)
		}
		c.mu.Unlock()
		c.change.Notify()

		if aborted {
			c.log.Info().Msg("session start aborted")
			return ErrStartAborted
		}
		c.log.Error().Err(err).Msg("session start failed")
		return err
	}

	var conn stream.Conn
	if !c.isStopRequested() {
		conn, err = c.dialer.Dial(startCtx, resp.SessionID)
	}

	c.mu.Lock()
	aborted := c.stopRequested
	if aborted || err != nil {
		c.phase = model.PhaseIdle
		c.startCancel = nil
		if !aborted {
			c.lastError = fmt.Sprintf("failed to open stream: %v", err)
		}
		c.mu.Unlock()

		if conn != nil {
			_ = conn.Close()
		}
		c.abandonRemote(resp.SessionID)
		c.change.Notify()

		if aborted {
			c.log.Info().Str("session_id", resp.SessionID).Msg("session start aborted")
			return ErrStartAborted
		}
		c.log.Error().Err(err).Str("session_id", resp.SessionID).Msg("stream open failed")
		return fmt.Errorf("open stream: %w", err)
	}

	c.gen++
	gen := c.gen
	c.conn = conn
	c.phase = model.PhaseActive
	c.sessionID = resp.SessionID
	c.startTime = resp.StartTime
	c.startCancel = nil
	c.pumps.Add(1)
	c.mu.Unlock()
	c.change.Notify()

	go c.pump(gen, conn)

	c.log.Info().Str("session_id", resp.SessionID).Time("start_time", resp.StartTime).Msg("session active")
	return nil
}

// Stop ends the session. The stream is closed and both warning slots are
// cleared before the remote call is made, so the local state always returns
// to idle even if the service rejects the request. Stop during a pending
// start cancels that start. Stop with no session returns ErrNoActiveSession.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	switch c.phase {
	case model.PhaseIdle:
		c.mu.Unlock()
		return ErrNoActiveSession
	case model.PhaseStopping:
		c.mu.Unlock()
		return nil
	case model.PhaseStarting:
		c.stopRequested = true
		c.lastError = ""
		cancel := c.startCancel
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		c.change.Notify()
		return nil
	}

	c.phase = model.PhaseStopping
	c.lastError = ""
	conn := c.detachLocked()
	sessionID := c.sessionID
	startTime := c.startTime
	cfg := c.config
	c.mu.Unlock()
	c.change.Notify()

	if conn != nil {
		if err := conn.Close(); err != nil {
			c.log.Debug().Err(err).Msg("stream close")
		}
	}

	resp, err := c.api.Stop(ctx, sessionID)

	c.mu.Lock()
	c.phase = model.PhaseIdle
	c.sessionID = ""
	c.startTime = time.Time{}
	if err != nil {
		c.lastError = fmt.Sprintf("failed to stop session: %v", err)
	}
	c.mu.Unlock()
	c.change.Notify()

	if err != nil {
		c.log.Error().Err(err).Str("session_id", sessionID).Msg("session stop failed")
		return err
	}

	c.log.Info().Str("session_id", sessionID).Float64("duration_sec", resp.Duration).Msg("session stopped")
	c.saveRecord(ctx, cfg, startTime, resp)
	return nil
}

// Close tears the controller down: an active session is stopped, a pending
// start is cancelled, the stream is closed and every toast timer cancelled.
// Close is idempotent.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	active := c.phase == model.PhaseActive
	c.mu.Unlock()

	var err error
	if active {
		if err = c.Stop(ctx); errors.Is(err, ErrNoActiveSession) {
			err = nil
		}
	}

	c.mu.Lock()
	c.closed = true
	if c.phase == model.PhaseStarting {
		c.stopRequested = true
	}
	cancel := c.startCancel
	conn := c.detachLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	c.toasts.ClearAll()
	c.pumps.Wait()
	c.change.Notify()
	return err
}

// detachLocked invalidates the current stream handle and clears both
// warning slots. The returned handle must be closed by the caller after the
// lock is released. c.mu must be held.
func (c *Controller) detachLocked() stream.Conn {
	c.gen++
	conn := c.conn
	c.conn = nil
	c.warnings.ClearAll()
	return conn
}

func (c *Controller) isStopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopRequested
}

// pump forwards frames from conn until it ends.
func (c *Controller) pump(gen uint64, conn stream.Conn) {
	defer c.pumps.Done()

	events, errs := conn.Events(), conn.Err()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				select {
				case err := <-errs:
					c.streamFailed(gen, err)
				default:
				}
				return
			}
			c.deliver(gen, ev)
		case err := <-errs:
			for ev := range events {
				c.deliver(gen, ev)
			}
			c.streamFailed(gen, err)
			return
		}
	}
}

// deliver applies one frame unless its connection has been invalidated.
func (c *Controller) deliver(gen uint64, ev model.StreamEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.phase != model.PhaseActive {
		c.log.Debug().Str("type", string(ev.Type)).Msg("discarding late stream frame")
		return
	}
	muts := Route(ev)
	if len(muts) == 0 {
		c.log.Debug().Str("type", string(ev.Type)).Str("status", ev.Status).Msg("unhandled stream event")
		return
	}
	Apply(muts, c.warnings, c.toasts)
}

// streamFailed records a dropped connection. The live signal is no longer
// trusted, so both warnings are cleared. The session stays active on the
// service; the user decides whether to stop.
func (c *Controller) streamFailed(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || c.phase != model.PhaseActive {
		c.mu.Unlock()
		return
	}
	c.lastError = fmt.Sprintf("stream connection lost: %v", err)
	conn := c.detachLocked()
	c.mu.Unlock()

	c.log.Warn().Err(err).Msg("stream connection lost")
	if conn != nil {
		_ = conn.Close()
	}
	c.change.Notify()
}

// abandonRemote stops a remote session that was started but will not be used.
func (c *Controller) abandonRemote(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if _, err := c.api.Stop(ctx, sessionID); err != nil {
		c.log.Warn().Err(err).Str("session_id", sessionID).Msg("cleanup stop failed")
	}
}

func (c *Controller) saveRecord(ctx context.Context, cfg model.SessionConfig, start time.Time, resp service.StopResponse) {
	if c.records == nil {
		return
	}
	rec := &model.SessionRecord{
		SessionID: resp.SessionID,
		Config:    cfg,
		StartTime: start,
		EndTime:   resp.EndTime,
		Duration:  time.Duration(resp.Duration * float64(time.Second)),
	}
	if err := c.records.Append(ctx, rec); err != nil {
		c.log.Warn().Err(err).Str("session_id", rec.SessionID).Msg("failed to save session record")
	}
}
