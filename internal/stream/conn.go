// Package stream connects to the service's live status stream.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/rs/zerolog"
)

// StatusPath is the websocket endpoint that carries status events.
const StatusPath = "/current_status"

// ErrClosedByPeer is reported when the service ends the stream.
var ErrClosedByPeer = errors.New("stream closed by service")

// Conn is an open status stream.
type Conn interface {
	// Events delivers parsed frames in arrival order. It is closed when the
	// connection ends.
	Events() <-chan model.StreamEvent
	// Err receives at most one terminal error if the connection fails.
	// Closing the connection locally reports nothing.
	Err() <-chan error
	// Close ends the connection. Calls after the first are no-ops.
	Close() error
}

// Dialer opens status streams.
type Dialer interface {
	Dial(ctx context.Context, sessionID string) (Conn, error)
}

// WSDialer opens streams over websocket.
type WSDialer struct {
	baseURL   string
	log       zerolog.Logger
	readLimit int64
}

// NewWSDialer creates a dialer for the stream at baseURL (ws:// or wss://).
func NewWSDialer(baseURL string, log zerolog.Logger) *WSDialer {
	return &WSDialer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log,
		readLimit: 64 << 10,
	}
}

// URL returns the stream address for a session.
func (d *WSDialer) URL(sessionID string) (string, error) {
	u, err := url.Parse(d.baseURL + StatusPath)
	if err != nil {
		return "", fmt.Errorf("invalid stream url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid stream url scheme %q", u.Scheme)
	}
	if sessionID != "" {
		q := u.Query()
		q.Set("sessionId", sessionID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Dial opens the stream and starts reading frames.
func (d *WSDialer) Dial(ctx context.Context, sessionID string) (Conn, error) {
	addr, err := d.URL(sessionID)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(dialCtx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c.SetReadLimit(d.readLimit)

	d.log.Info().Str("url", addr).Msg("stream connected")
	conn := newWSConn(c, d.log.With().Str("session_id", sessionID).Logger())
	go conn.readLoop()
	return conn, nil
}

type wsConn struct {
	ws     *websocket.Conn
	log    zerolog.Logger
	events chan model.StreamEvent
	errCh  chan error
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closing  atomic.Bool
	once     sync.Once
	closeErr error
}

func newWSConn(ws *websocket.Conn, log zerolog.Logger) *wsConn {
	ctx, cancel := context.WithCancel(context.Background())
	return &wsConn{
		ws:     ws,
		log:    log,
		events: make(chan model.StreamEvent, 64),
		errCh:  make(chan error, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (c *wsConn) Events() <-chan model.StreamEvent { return c.events }

func (c *wsConn) Err() <-chan error { return c.errCh }

func (c *wsConn) Close() error {
	c.once.Do(func() {
		c.closing.Store(true)
		err := c.ws.Close(websocket.StatusNormalClosure, "session stopped")
		c.cancel()
		<-c.done
		if err != nil && websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
			c.log.Debug().Err(err).Msg("stream close")
			c.closeErr = err
		}
	})
	return c.closeErr
}

func (c *wsConn) readLoop() {
	defer close(c.done)
	defer close(c.events)

	for {
		_, data, err := c.ws.Read(c.ctx)
		if err != nil {
			c.fail(err)
			return
		}

		ev, err := model.ParseStreamEvent(data)
		if err != nil {
			c.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping stream frame")
			continue
		}

		select {
		case c.events <- ev:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *wsConn) fail(err error) {
	if c.closing.Load() {
		return
	}
	if status := websocket.CloseStatus(err); status != -1 {
		c.log.Info().Int("status", int(status)).Msg("stream closed by service")
		err = fmt.Errorf("%w (%d)", ErrClosedByPeer, status)
	} else {
		c.log.Warn().Err(err).Msg("stream read failed")
	}
	select {
	case c.errCh <- err:
	default:
	}
}
