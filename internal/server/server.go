package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/reptrack/internal/metrics"
	"github.com/claude/reptrack/internal/schedule"
	"github.com/claude/reptrack/internal/session"
	"github.com/claude/reptrack/internal/storage"
	"github.com/claude/reptrack/internal/stream"
)

// Deps are the components the handlers call into.
type Deps struct {
	Store    storage.Store
	Sessions *session.Manager
	Loop     *stream.Loop
	Schedule *schedule.Service
	Metrics  *metrics.Manager
	// Gatherer backs /metrics; nil leaves the route unmounted.
	Gatherer prometheus.Gatherer
	// MCP is mounted at /mcp when set.
	MCP http.Handler
	// JPEGQuality of feed frames, 1..100.
	JPEGQuality int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       storage.Store
	sessions    *session.Manager
	loop        *stream.Loop
	schedule    *schedule.Service
	metrics     *metrics.Manager
	gatherer    prometheus.Gatherer
	mcp         http.Handler
	jpegQuality int
	whois       WhoIser
	log         *slog.Logger
	router      chi.Router
}

// New creates a new Server with all routes configured.
func New(deps Deps, log *slog.Logger) *Server {
	if deps.JPEGQuality == 0 {
		deps.JPEGQuality = 80
	}
	s := &Server{
		store:       deps.Store,
		sessions:    deps.Sessions,
		loop:        deps.Loop,
		schedule:    deps.Schedule,
		metrics:     deps.Metrics,
		gatherer:    deps.Gatherer,
		mcp:         deps.MCP,
		jpegQuality: deps.JPEGQuality,
		log:         log,
		router:      chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale switches identity from the dev user to Tailscale WhoIs
// lookups. Call before serving.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)

		r.Route("/api/v1", func(r chi.Router) {
			// The feed is long-lived and excluded from request timing.
			r.Get("/workouts/feed", s.handleFeed)

			r.Group(func(r chi.Router) {
				r.Use(RequestMetrics(s.metrics))
				r.Post("/workouts/start", s.handleStartWorkout)
				r.Post("/workouts/end", s.handleEndWorkout)
				r.Get("/workouts/active", s.handleActiveWorkout)
				r.Get("/today", s.handleToday)
				r.Get("/reminders", s.handleReminders)
				r.Get("/calendar", s.handleCalendar)
				r.Get("/exercises", s.handleExercises)
				r.Get("/me", s.handleMe)
			})
		})

		if s.mcp != nil {
			r.Handle("/mcp", s.mcp)
		}
	})
}
