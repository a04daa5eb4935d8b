package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/marmos91/clouddrive/pkg/drive"
	"github.com/marmos91/clouddrive/pkg/metrics"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

// DefaultMaxUploadBytes caps multipart uploads when Config leaves it unset.
const DefaultMaxUploadBytes = 50 << 20 // 50 MB

// healthTimeout bounds each dependency check of /healthz.
const healthTimeout = 5 * time.Second

// Healthchecker is implemented by the record store and the object gateway.
type Healthchecker interface {
	Healthcheck(ctx context.Context) error
}

// Config configures the router.
type Config struct {
	// AuthToken enables Bearer authentication on /api routes when set
	AuthToken string

	// MaxUploadBytes caps multipart upload bodies
	MaxUploadBytes int64

	// CORSOrigins lists allowed origins; empty disables CORS handling
	CORSOrigins []string

	// Checks are run by /healthz, keyed by the name reported on failure
	Checks map[string]Healthchecker

	// Metrics receives request observations (optional)
	Metrics metrics.HTTPMetrics
}

// NewRouter creates a chi router with all routes mounted.
//
// /api routes are protected by the Bearer token when one is configured.
// /objects serves signed links and is authorized by the link token alone.
func NewRouter(svc *drive.Service, objects object.Gateway, cfg Config) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoopHTTPMetrics()
	}
	h := NewHandler(svc, cfg.MaxUploadBytes, cfg.Metrics)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe(cfg.Metrics))

	r.Get("/healthz", healthz(cfg.Checks))

	r.Route("/api/drive", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthToken))

		r.Get("/", h.ListChildren)
		r.Post("/folder", h.CreateFolder)
		r.Post("/upload", h.Upload)
		r.Get("/file/{id}/view", h.ViewLink)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	if oh := NewObjectHandler(objects); oh != nil {
		r.Get("/objects/*", oh.Serve)
	}

	if len(cfg.CORSOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}

type healthResponse struct {
	Status string            `json:"status"`
	Errors map[string]string `json:"errors,omitempty"`
}

func healthz(checks map[string]Healthchecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		for name, check := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			err := check.Healthcheck(ctx)
			cancel()
			if err != nil {
				if resp.Errors == nil {
					resp.Errors = make(map[string]string)
				}
				resp.Errors[name] = err.Error()
			}
		}

		if len(resp.Errors) > 0 {
			resp.Status = "unavailable"
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
