// Package phone accepts tag scans from a companion phone app over WebSocket
// and HTTP.
package phone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"tagprint/internal/tag"
)

const (
	Source      = "phone"
	ServiceType = "_tagprint._tcp"

	TypeTagScanned = "tagScanned"
	TypeAck        = "ack"
	TypeError      = "error"

	maxScanBytes = 64 << 10
)

// Envelope wraps every WebSocket message.
type Envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type Config struct {
	ListenAddr   string
	MDNS         bool
	InstanceName string
	Logger       *zap.Logger
}

// Server forwards phone scans into an event channel.
type Server struct {
	cfg      Config
	events   chan<- *tag.Event
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*websocket.Conn]string
}

func New(cfg Config, events chan<- *tag.Event) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.InstanceName == "" {
		cfg.InstanceName = "tagprint"
	}
	return &Server{
		cfg:    cfg,
		events: events,
		log:    cfg.Logger.Named("phone"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[*websocket.Conn]string),
	}
}

// Handler returns the HTTP routes. Scans are delivered until ctx ends.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		s.serveWS(ctx, w, r)
	})
	mux.HandleFunc("POST /api/v1/scans", func(w http.ResponseWriter, r *http.Request) {
		s.serveScan(ctx, w, r)
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return mux
}

// Run serves until ctx is canceled, advertising the service over mDNS when
// enabled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.MDNS {
		port := ln.Addr().(*net.TCPAddr).Port
		mdns, err := zeroconf.Register(s.cfg.InstanceName, ServiceType, "local.", port,
			[]string{"path=/ws", "version=1"}, nil)
		if err != nil {
			s.log.Warn("mDNS registration failed", zap.Error(err))
		} else {
			s.log.Info("mDNS service registered", zap.String("type", ServiceType), zap.Int("port", port))
			defer mdns.Shutdown()
		}
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeSessions()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	log := s.log.With(zap.String("session", id), zap.String("remote", r.RemoteAddr))
	s.mu.Lock()
	s.sessions[conn] = id
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, conn)
		s.mu.Unlock()
	}()

	log.Info("phone connected")
	conn.SetReadLimit(maxScanBytes)

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", zap.Error(err))
			}
			log.Info("phone disconnected")
			return
		}

		reply := Envelope{Type: TypeAck}
		if err := s.handleEnvelope(ctx, env); err != nil {
			log.Warn("scan rejected", zap.Error(err))
			reply = Envelope{Type: TypeError, Error: err.Error()}
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) handleEnvelope(ctx context.Context, env Envelope) error {
	if env.Type != TypeTagScanned {
		return fmt.Errorf("unknown message type %q", env.Type)
	}
	var scan Scan
	if err := json.Unmarshal(env.Data, &scan); err != nil {
		return fmt.Errorf("decode scan: %w", err)
	}
	return s.deliver(ctx, scan)
}

func (s *Server) serveScan(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var scan Scan
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScanBytes)).Decode(&scan); err != nil {
		http.Error(w, "invalid scan: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.deliver(ctx, scan); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) deliver(ctx context.Context, scan Scan) error {
	ev, err := scan.Event(Source)
	if err != nil {
		return err
	}
	select {
	case s.events <- ev:
		s.log.Debug("scan received", zap.String("uid", ev.UID))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.sessions {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}
