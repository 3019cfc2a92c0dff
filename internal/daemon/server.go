package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"marquee/internal/api"
	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/orchestrator"
	"marquee/internal/request"
	"marquee/internal/services"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.WithComponent(logger, "api-server"),
		daemon: d,
	}

	router := chi.NewRouter()
	router.Use(srv.authenticate)
	router.Route("/api", func(r chi.Router) {
		r.Post("/requests", srv.handleSubmit)
		r.Get("/requests", srv.handleList)
		r.Get("/requests/archive", srv.handleArchive)
		r.Post("/requests/{contentID}/approve", srv.handleApprove)
		r.Post("/requests/{contentID}/complete", srv.handleComplete)
		r.Delete("/requests/{contentID}", srv.handleRetract)
		r.Get("/search", srv.handleSearch)
		r.Get("/status", srv.handleStatus)
	})

	srv.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// authenticate validates bearer tokens. An empty configured token disables
// authentication.
func (s *apiServer) authenticate(next http.Handler) http.Handler {
	if s.token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.token {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type submitPayload struct {
	ContentID string `json:"contentId"`
	Class     string `json:"class"`
	Title     string `json:"title"`
	Thumb     string `json:"thumb"`
	IMDBID    string `json:"imdbId"`
	TMDBID    string `json:"tmdbId"`
	TVDBID    string `json:"tvdbId"`
	UserID    string `json:"user"`
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	class, ok := request.ParseContentClass(payload.Class)
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown content class %q", payload.Class))
		return
	}

	outcome := s.daemon.orch.Submit(r.Context(), orchestrator.Submission{
		ContentID: payload.ContentID,
		Class:     class,
		Title:     payload.Title,
		Thumb:     payload.Thumb,
		IMDBID:    payload.IMDBID,
		TMDBID:    payload.TMDBID,
		TVDBID:    payload.TVDBID,
		UserID:    payload.UserID,
	})
	s.writeJSON(w, http.StatusOK, api.FromOutcome(outcome))
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	requests, err := s.daemon.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]*api.RequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, api.FromRequest(req))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"requests": views})
}

func (s *apiServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	archive, err := s.daemon.store.ListArchive(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]*api.ArchivedView, 0, len(archive))
	for _, archived := range archive {
		views = append(views, api.FromArchived(archived))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"archive": views})
}

func (s *apiServer) handleApprove(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := s.daemon.orch.Approve(r.Context(), chi.URLParam(r, "contentID"), payload.UserID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRequest(req))
}

func (s *apiServer) handleComplete(w http.ResponseWriter, r *http.Request) {
	archived, err := s.daemon.orch.Complete(r.Context(), chi.URLParam(r, "contentID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromArchived(archived))
}

func (s *apiServer) handleRetract(w http.ResponseWriter, r *http.Request) {
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	archived, err := s.daemon.orch.Retract(r.Context(), chi.URLParam(r, "contentID"), reason)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromArchived(archived))
}

func (s *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	results, err := s.daemon.search.Search(r.Context(), term)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.daemon.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := map[string]any{
		"running": s.daemon.Running(),
		"status": &api.StatusView{
			Active:   stats.Active,
			Approved: stats.Approved,
			Archived: stats.Archived,
			Targets:  s.daemon.registry.IDs(),
		},
	}
	if s.daemon.plex != nil {
		samples, err := s.daemon.plex.ServerInfo(r.Context())
		if err != nil {
			s.logger.Warn("plex server info failed", logging.Error(err))
		} else {
			payload["plex"] = samples
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUnknownIdentity), errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
