package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/bqagent/pkg/domain/interfaces"
	"github.com/secmon-lab/bqagent/pkg/utils/safe"
)

type UseCase interface {
	interfaces.AgentUsecases
	interfaces.ReshapeUsecases
}

type Server struct {
	router *chi.Mux
}

type Options func(*Server)

// WithMiddleware adds a middleware in front of every route.
func WithMiddleware(mw func(http.Handler) http.Handler) Options {
	return func(s *Server) {
		s.router.Use(mw)
	}
}

func New(uc UseCase, opts ...Options) *Server {
	r := chi.NewRouter()
	s := &Server{router: r}

	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)
	for _, opt := range opts {
		opt(s)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, []byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/agents", listAgentsHandler(uc))
		r.Post("/agents/{name}/run", runAgentHandler(uc))
		r.Post("/reshape", reshapeHandler(uc))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
