package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medunigraz/idmsync/internal/config"
	"github.com/medunigraz/idmsync/internal/log"
	"github.com/medunigraz/idmsync/internal/repo"
)

// Enqueuer is the task queue surface the API needs for manual triggers.
type Enqueuer interface {
	EnqueueTask(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Server is the admin HTTP API. It manages targets, sources and responders,
// exposes incidents, and lets operators trigger sync and check runs.
type Server struct {
	cfg      config.HTTPServer
	repo     repo.Repo
	enqueuer Enqueuer

	httpServer *http.Server
}

func NewServer(cfg config.HTTPServer, r repo.Repo, enqueuer Enqueuer) *Server {
	s := &Server{
		cfg:      cfg,
		repo:     r,
		enqueuer: enqueuer,
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Address,
		Handler: s.Handler(),
	}

	return s
}

// Handler builds the route table. Exposed so tests can drive the API without
// a listening socket.
func (s *Server) Handler() http.Handler {
	router := httprouter.New()

	router.HandlerFunc(http.MethodGet, "/healthz", s.healthz)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	router.HandlerFunc(http.MethodGet, "/v1/targets", s.listTargets)
	router.HandlerFunc(http.MethodPost, "/v1/targets", s.createTarget)
	router.GET("/v1/targets/:id", s.getTarget)
	router.PUT("/v1/targets/:id", s.updateTarget)
	router.DELETE("/v1/targets/:id", s.deleteTarget)
	router.POST("/v1/targets/:id/sync", s.syncTarget)

	router.HandlerFunc(http.MethodGet, "/v1/sources", s.listSources)
	router.HandlerFunc(http.MethodPost, "/v1/sources", s.createSource)
	router.GET("/v1/sources/:id", s.getSource)
	router.PUT("/v1/sources/:id", s.updateSource)
	router.DELETE("/v1/sources/:id", s.deleteSource)
	router.POST("/v1/sources/:id/check", s.checkSource)

	router.HandlerFunc(http.MethodGet, "/v1/responders/mail", s.listMailResponders)
	router.HandlerFunc(http.MethodPost, "/v1/responders/mail", s.createMailResponder)
	router.GET("/v1/responders/mail/:id", s.getMailResponder)
	router.DELETE("/v1/responders/mail/:id", s.deleteMailResponder)

	router.HandlerFunc(http.MethodGet, "/v1/responders/jira", s.listJiraResponders)
	router.HandlerFunc(http.MethodPost, "/v1/responders/jira", s.createJiraResponder)
	router.GET("/v1/responders/jira/:id", s.getJiraResponder)
	router.DELETE("/v1/responders/jira/:id", s.deleteJiraResponder)

	router.HandlerFunc(http.MethodGet, "/v1/incidents", s.listIncidents)
	router.POST("/v1/incidents/:id/resolve", s.resolveIncident)

	return router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	log.Info(ctx, "Starting admin API server")

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
