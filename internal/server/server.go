// Package server exposes a running session over HTTP: a websocket
// joystick, the current location and prometheus metrics.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/san-kum/geostick/internal/metrics"
	"github.com/san-kum/geostick/internal/motion"
	"github.com/san-kum/geostick/internal/session"
	"github.com/san-kum/geostick/internal/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Server struct {
	sess      *session.Session
	hub       *Hub
	gatherer  prometheus.Gatherer
	collector *metrics.Collector
	mux       *http.ServeMux
}

// New wires the routes. The hub must already be attached to the session's
// simulator and knob events for clients to receive updates.
func New(sess *session.Session, hub *Hub, gatherer prometheus.Gatherer, collector *metrics.Collector) *Server {
	s := &Server{
		sess:      sess,
		hub:       hub,
		gatherer:  gatherer,
		collector: collector,
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.HandleFunc("GET /api/location", s.handleGetLocation)
	s.mux.HandleFunc("POST /api/location", s.handleSetLocation)
	s.mux.HandleFunc("GET /api/pad", s.handlePad)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	c := s.hub.add(conn)
	defer s.hub.remove(c)
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("joystick client connected")

	snap := s.sess.Snapshot()
	s.reply(c, wire.KnobMessage(knobOf(session.KnobEvent{Update: snap.Knob, State: snap.State})))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}
		msg, err := wire.Decode(data)
		if err != nil {
			s.reply(c, wire.ErrorMessage(err))
			continue
		}
		for _, ev := range events(msg) {
			if err := s.sess.Send(r.Context(), ev); err != nil {
				return
			}
		}
		if msg.Touch != nil && s.collector != nil {
			s.collector.OnTouch(msg.Touch.Action)
		}
	}
}

// reply sends to one client without blocking the read loop.
func (s *Server) reply(c *client, m wire.Message) {
	data, err := wire.Encode(m)
	if err != nil {
		return
	}
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	if _, ok := s.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func events(m wire.Message) []session.Event {
	switch m.Type {
	case wire.TypeTouch:
		kind := map[string]session.EventKind{
			wire.ActionPress:   session.Press,
			wire.ActionMove:    session.Move,
			wire.ActionRelease: session.Release,
			wire.ActionCancel:  session.Cancel,
		}[m.Touch.Action]
		return []session.Event{{Kind: kind, X: m.Touch.X, Y: m.Touch.Y}}
	case wire.TypeSettings:
		var out []session.Event
		if m.Settings.MoveToTouch != nil {
			out = append(out, session.Event{Kind: session.SetMoveToTouch, On: *m.Settings.MoveToTouch})
		}
		if m.Settings.SnapBack != nil {
			out = append(out, session.Event{Kind: session.SetSnapBack, On: *m.Settings.SnapBack})
		}
		return out
	}
	return nil
}

func (s *Server) handleGetLocation(w http.ResponseWriter, _ *http.Request) {
	snap := s.sess.Snapshot()
	writeJSON(w, http.StatusOK, wire.Location{
		Lat:     snap.Position.Lat,
		Lon:     snap.Position.Lon,
		Running: snap.Running,
		Ticks:   snap.Ticks,
	})
}

// handleSetLocation restarts the session at the posted position.
func (s *Server) handleSetLocation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, wire.ErrorMessage(err))
		return
	}
	var pos motion.LatLon
	if err := sonic.Unmarshal(body, &pos); err != nil {
		writeJSON(w, http.StatusBadRequest, wire.ErrorMessage(err))
		return
	}
	if !pos.Valid() {
		writeJSON(w, http.StatusBadRequest, wire.ErrorMessage(motion.ErrInvalidSeed))
		return
	}
	if !s.sess.Snapshot().Running {
		writeJSON(w, http.StatusConflict, wire.ErrorMessage(session.ErrClosed))
		return
	}
	if err := s.sess.Send(r.Context(), session.Event{Kind: session.Reseed, Seed: pos}); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, wire.ErrorMessage(err))
		return
	}
	writeJSON(w, http.StatusAccepted, pos)
}

func (s *Server) handlePad(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.PadConfig())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
