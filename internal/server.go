package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/orgsuite/taskengine/internal/activitylog"
	"github.com/orgsuite/taskengine/internal/attachment"
	"github.com/orgsuite/taskengine/internal/config"
	"github.com/orgsuite/taskengine/internal/pushsubscription"
	"github.com/orgsuite/taskengine/internal/task"
	"github.com/orgsuite/taskengine/pkg/cerr"
	"github.com/orgsuite/taskengine/pkg/clog"
)

type Server struct {
	server                 *http.Server
	env                    *config.Env
	taskServer             *task.Server
	attachmentServer       *attachment.Server
	activityServer         *activitylog.Server
	pushSubscriptionServer *pushsubscription.Server
}

func NewServer(
	env *config.Env,
	taskServer *task.Server,
	attachmentServer *attachment.Server,
	activityServer *activitylog.Server,
	pushSubscriptionServer *pushsubscription.Server,
) *Server {
	return &Server{
		env:                    env,
		taskServer:             taskServer,
		attachmentServer:       attachmentServer,
		activityServer:         activityServer,
		pushSubscriptionServer: pushSubscriptionServer,
	}
}

// ListenAndServe starts the HTTP server. The provided context is the base
// context for all incoming requests via http.Server.BaseContext, so a
// shutdown signal also cancels long-lived watch streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		// The SSE watch stream manages its own response lifecycle and
		// cannot run under the JSON receiver middleware.
		r.Group(func(r chi.Router) {
			r.Use(clog.SlogChiMiddleware())
			r.Get("/organizations/{organizationID}/tasks/watch", s.taskServer.ServeWatch)
		})
		r.Group(func(r chi.Router) {
			r.Use(
				clog.SlogChiMiddleware(),
				cerr.NewJSONResponseChiMiddleware(),
			)
			s.taskServer.Routes(r)
			s.attachmentServer.Routes(r)
			s.activityServer.Routes(r)
			s.pushSubscriptionServer.Routes(r)
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
			})
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr: addr,
		Handler: h2c.NewHandler(cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(s.apiKeyMiddleware(mux)), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip the API key check for the health endpoint.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.Header.Get("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}
		if apiKey != s.env.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
