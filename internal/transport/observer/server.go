// Package observer streams generations to WebSocket clients.
package observer

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"goi/internal/core"
	"goi/internal/export"
)

// Config tunes the broadcaster.
type Config struct {
	// FPS caps frames per second sent to subscribers; frames over the cap are
	// skipped. Zero or less means unlimited.
	FPS   float64
	Burst int
	// Queue is the number of frames buffered per subscriber before it is
	// dropped as too slow.
	Queue int
}

// DefaultConfig returns the standard broadcaster settings.
func DefaultConfig() Config {
	return Config{FPS: 30, Burst: 1, Queue: 64}
}

type subscriber struct {
	id     uint64
	out    chan []byte
	reason string
}

// Server fans snapshots out to every connected WebSocket client as JSON
// frames. It implements factions.SnapshotSink.
type Server struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	limiter  *rate.Limiter
	queue    int

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	closed bool
	nextID atomic.Uint64
}

// NewServer builds a broadcaster. A nil logger discards logs.
func NewServer(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.FPS > 0 {
		limit = rate.Limit(cfg.FPS)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Queue < 1 {
		cfg.Queue = 1
	}
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		queue:   cfg.Queue,
		subs:    make(map[uint64]*subscriber),
	}
}

// Handler upgrades requests to WebSocket subscriptions.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := s.register()
		if sub == nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		log := s.log.With(zap.Uint64("subscriber", sub.id), zap.String("remote", r.RemoteAddr))
		log.Info("observer connected")

		// Clients only ever close; reading surfaces that.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					s.drop(sub, "")
					return
				}
			}
		}()

		for b := range sub.out {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.drop(sub, "")
				break
			}
		}

		code, text := websocket.CloseNormalClosure, "bye"
		if sub.reason != "" {
			code, text = websocket.CloseTryAgainLater, sub.reason
			log.Warn("observer dropped", zap.String("reason", sub.reason))
		} else {
			log.Info("observer disconnected")
		}
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	}
}

func (s *Server) register() *subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	sub := &subscriber{id: s.nextID.Add(1), out: make(chan []byte, s.queue)}
	s.subs[sub.id] = sub
	return sub
}

func (s *Server) drop(sub *subscriber, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(sub, reason)
}

func (s *Server) dropLocked(sub *subscriber, reason string) {
	if _, ok := s.subs[sub.id]; !ok {
		return
	}
	delete(s.subs, sub.id)
	sub.reason = reason
	close(sub.out)
}

// Subscribers reports the number of connected clients.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Snapshot broadcasts g when the frame rate allows it. Subscribers whose queue
// is full are disconnected.
func (s *Server) Snapshot(generation int, g *core.Grid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) == 0 || !s.limiter.Allow() {
		return nil
	}
	b, err := json.Marshal(export.NewFrame(generation, g))
	if err != nil {
		return err
	}
	for _, sub := range s.subs {
		select {
		case sub.out <- b:
		default:
			s.dropLocked(sub, "too slow")
		}
	}
	return nil
}

// Close disconnects every subscriber and refuses new ones.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, sub := range s.subs {
		s.dropLocked(sub, "")
	}
}
