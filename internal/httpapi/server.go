// Package httpapi exposes the engine's read side to the host application:
// live status, hourly history and ad-hoc test probes. Authentication happens
// upstream; requests arrive with a pre-resolved identity in headers.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Framerrr/framerr-monitor/internal/domain"
	"github.com/Framerrr/framerr-monitor/internal/httpapi/middleware"
	"github.com/Framerrr/framerr-monitor/internal/repo"
	"github.com/Framerrr/framerr-monitor/internal/scheduler"
	"github.com/Framerrr/framerr-monitor/internal/sharing"
)

type Server struct {
	Logger     *zap.Logger
	Engine     *scheduler.Engine
	Monitors   repo.MonitorStore
	Aggregates repo.AggregateStore
	Gate       *sharing.Gate
}

func NewServer(l *zap.Logger, eng *scheduler.Engine, store repo.Store) *Server {
	return &Server{
		Logger:     l,
		Engine:     eng,
		Monitors:   store,
		Aggregates: store,
		Gate:       sharing.NewGate(store, store),
	}
}

// Router builds the handler tree. reqPerMin <= 0 disables rate limiting.
func (s *Server) Router(reqPerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.RateLimit(reqPerMin, burst))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/monitors", func(r chi.Router) {
		r.Get("/status", s.handleListStatus)
		r.Post("/test", s.handleTestNow)
		r.Get("/{id}/status", s.handleMonitorStatus)
		r.Get("/{id}/history", s.handleHistory)
	})

	return r
}

// viewerFrom reads the identity the host application resolved upstream.
func viewerFrom(r *http.Request) sharing.Viewer {
	return sharing.Viewer{
		ID:    r.Header.Get("X-User-ID"),
		Admin: r.Header.Get("X-Admin") == "true" || r.Header.Get("X-Admin") == "1",
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// handleListStatus returns the runtime state of every monitor the viewer
// may see. Monitors hidden by the sharing gate are silently omitted.
func (s *Server) handleListStatus(w http.ResponseWriter, r *http.Request) {
	v := viewerFrom(r)
	states := s.Engine.States()

	out := make([]domain.RuntimeState, 0, len(states))
	for _, st := range states {
		ok, err := s.Gate.CanView(r.Context(), st.MonitorID, v)
		if err != nil {
			s.Logger.Warn("visibility_check_error",
				zap.String("monitor_id", string(st.MonitorID)),
				zap.Error(err),
			)
			continue
		}
		if ok {
			out = append(out, st)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonitorStatus(w http.ResponseWriter, r *http.Request) {
	id := domain.MonitorID(chi.URLParam(r, "id"))
	v := viewerFrom(r)

	m, err := s.Monitors.Get(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "unknown monitor")
		return
	}
	ok, err := s.Gate.CanView(r.Context(), id, v)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !ok {
		jsonError(w, http.StatusForbidden, "forbidden")
		return
	}

	// A stored but unscheduled monitor (disabled, or just enabled and not
	// yet ticked) reads as pending.
	st, found := s.Engine.State(id)
	if !found {
		st = domain.NewRuntimeState(id)
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := domain.MonitorID(chi.URLParam(r, "id"))
	v := viewerFrom(r)

	m, err := s.Monitors.Get(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "unknown monitor")
		return
	}
	ok, err := s.Gate.CanView(r.Context(), id, v)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if !ok {
		jsonError(w, http.StatusForbidden, "forbidden")
		return
	}

	now := time.Now().UTC()
	from, to := now.Add(-24*time.Hour), now
	if q := r.URL.Query().Get("from"); q != "" {
		from, err = time.Parse(time.RFC3339, q)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "bad from timestamp, want RFC3339")
			return
		}
	}
	if q := r.URL.Query().Get("to"); q != "" {
		to, err = time.Parse(time.RFC3339, q)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "bad to timestamp, want RFC3339")
			return
		}
	}

	aggs, err := s.Aggregates.Range(r.Context(), id, from, to)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, aggs)
}

// handleTestNow runs one synchronous probe against an ad-hoc definition and
// returns the raw outcome. Nothing is scheduled or recorded.
func (s *Server) handleTestNow(w http.ResponseWriter, r *http.Request) {
	v := viewerFrom(r)
	if v.ID == "" && !v.Admin {
		jsonError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var m domain.Monitor
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		jsonError(w, http.StatusBadRequest, "bad payload")
		return
	}

	out, err := s.Engine.TestNow(r.Context(), m)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			jsonError(w, http.StatusBadRequest, cfgErr.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "test failed")
		return
	}

	s.Logger.Info("monitor_tested",
		zap.String("user_id", v.ID),
		zap.String("type", string(m.Type)),
		zap.String("target", m.Target),
		zap.Bool("success", out.Success),
		zap.Float64("latency_ms", out.LatencyMS),
	)
	writeJSON(w, http.StatusOK, out)
}
