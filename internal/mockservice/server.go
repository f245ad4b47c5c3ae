// Package mockservice is a stand-in for the detection service. It exposes the
// same session API and status stream, driven by a simulator instead of a
// camera.
package mockservice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lazyvibe/axial/internal/model"
	"github.com/lazyvibe/axial/internal/stream"
	"github.com/rs/zerolog"
)

// clientBuffer is how many frames may queue for a slow client before
// frames are dropped.
const clientBuffer = 32

// Server holds the mock session state and connected stream clients.
type Server struct {
	log      zerolog.Logger
	interval time.Duration
	sim      *Simulator
	walk     *randomWalk

	mu        sync.Mutex
	recording bool
	sessionID string
	startTime time.Time
	config    model.SessionConfig
	clients   map[*client]struct{}
}

type client struct {
	send chan []byte
}

// Option configures a Server.
type Option func(*Server)

// WithInterval sets how often the simulator samples.
func WithInterval(d time.Duration) Option {
	return func(s *Server) { s.interval = d }
}

// WithThresholds overrides the simulator thresholds.
func WithThresholds(th Thresholds) Option {
	return func(s *Server) { s.sim = NewSimulator(th) }
}

// WithSeed makes the simulated readings reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Server) { s.walk = newRandomWalk(seed) }
}

// NewServer creates an idle mock service.
func NewServer(log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		log:      log,
		interval: time.Second,
		sim:      NewSimulator(DefaultThresholds()),
		walk:     newRandomWalk(uint64(time.Now().UnixNano())),
		clients:  make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Post("/start", s.handleStart)
	r.Post("/stop", s.handleStop)
	r.Get(stream.StatusPath, s.handleStream)
	return r
}

type startReply struct {
	Status    string    `json:"status"`
	SessionID string    `json:"sessionId"`
	StartTime time.Time `json:"startTime"`
}

type stopReply struct {
	Status    string    `json:"status"`
	SessionID string    `json:"sessionId,omitempty"`
	EndTime   time.Time `json:"endTime"`
	Duration  float64   `json:"duration"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var cfg model.SessionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session config"})
		return
	}

	s.mu.Lock()
	s.recording = true
	s.sessionID = uuid.NewString()
	s.startTime = time.Now().UTC()
	s.config = cfg
	s.sim.Reset()
	reply := startReply{Status: "recording started", SessionID: s.sessionID, StartTime: s.startTime}
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", reply.SessionID).
		Bool("posture", cfg.Posture).
		Bool("eye_strain", cfg.EyeStrain).
		Msg("recording started")
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	now := time.Now().UTC()
	reply := stopReply{Status: "recording stopped", SessionID: s.sessionID, EndTime: now}
	if s.recording {
		reply.Duration = now.Sub(s.startTime).Seconds()
	}
	s.recording = false
	s.sessionID = ""
	s.mu.Unlock()

	s.log.Info().Str("session_id", reply.SessionID).Float64("duration_sec", reply.Duration).Msg("recording stopped")
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to accept websocket")
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			s.log.Debug().Err(closeErr).Msg("failed to close websocket")
		}
	}()

	c := &client{send: make(chan []byte, clientBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	s.log.Info().Str("session_id", r.URL.Query().Get("sessionId")).Msg("stream client connected")

	// CloseRead discards incoming frames and cancels ctx when the peer leaves.
	ctx := ws.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("stream client disconnected")
			return
		case msg := <-c.send:
			if err := ws.Write(ctx, websocket.MessageText, msg); err != nil {
				s.log.Debug().Err(err).Msg("stream write failed")
				return
			}
		}
	}
}

// Publish sends ev to every connected stream client.
func (s *Server) Publish(ev model.StreamEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.log.Warn().Str("type", string(ev.Type)).Msg("stream client too slow, frame dropped")
		}
	}
}

// Clients returns the number of connected stream clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Recording reports whether a session is running.
func (s *Server) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Run samples the simulator every interval while recording and publishes
// the resulting events. It returns when ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, ev := range s.tick(now) {
				s.log.Debug().Str("type", string(ev.Type)).Str("status", ev.Status).Msg("publishing event")
				s.Publish(ev)
			}
		}
	}
}

func (s *Server) tick(now time.Time) []model.StreamEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return nil
	}

	smp := s.walk.next()
	evs := s.sim.Step(now, smp)

	// Channels the client did not ask for stay silent.
	out := evs[:0]
	for _, ev := range evs {
		switch ev.Type {
		case model.EventPostureWarning, model.EventPostureResolved:
			if s.config.Posture {
				out = append(out, ev)
			}
		default:
			if s.config.EyeStrain {
				out = append(out, ev)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
