package gate

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ratelimitmw "passgate/internal/ratelimit/middleware"
	metadata "passgate/pkg/platform/middleware/metadata"
)

// NewRouter wires the gate endpoints. The daily window covers every
// visitor-facing route, page loads included; the hourly window covers only
// the submission route. Health and metrics endpoints sit outside both.
func NewRouter(h *Handler, limits *ratelimitmw.Middleware) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(limits.Daily)
		gr.Get("/", h.HandleIndex)
		gr.Get("/style.css", h.renderer.ServeStylesheet)
		gr.With(limits.Hourly).Post("/", h.HandleSubmit)
		// Alias kept for forms that post to an explicit path.
		gr.With(limits.Hourly).Post("/verify", h.HandleSubmit)
	})

	return r
}
