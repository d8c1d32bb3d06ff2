package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/wodlink/internal/bulk"
	"github.com/meltforce/wodlink/internal/teamsync"
	"github.com/meltforce/wodlink/internal/workspace"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ws       *workspace.Workspace
	sync     *teamsync.Controller
	exporter *bulk.Exporter
	log      *slog.Logger
	apiKey   string
	whois    WhoIser
	router   chi.Router
}

// New creates a new Server with all routes configured. exporter may be nil,
// in which case exports are only available as downloads.
func New(ws *workspace.Workspace, sync *teamsync.Controller, exporter *bulk.Exporter, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		ws:       ws,
		sync:     sync,
		exporter: exporter,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale resolves request identities through the tailnet. Call before
// serving.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

func (s *Server) routes() {
	s.router.Use(s.identity)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Shared links land here.
	s.router.Get("/", s.handleLanding)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/templates", s.handleListTemplates)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/export", s.handleDownloadExport)

		// Mutations (API key required when configured)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))

			r.Post("/workouts", s.handleSaveWorkout)
			r.Delete("/workouts/{id}", s.handleDeleteWorkout)
			r.Post("/workouts/{id}/clone", s.handleCloneWorkout)
			r.Post("/workouts/{id}/blueprint", s.handleSaveAsBlueprint)

			r.Post("/templates", s.handleSaveTemplate)
			r.Delete("/templates/{id}", s.handleDeleteTemplate)
			r.Post("/templates/{id}/schedule", s.handleScheduleTemplate)

			r.Post("/exercises", s.handleSaveExercise)
			r.Delete("/exercises/{id}", s.handleDeleteExercise)

			r.Post("/share/wod/{id}", s.handleShare(shareSession))
			r.Post("/share/day/{date}", s.handleShare(shareDay))
			r.Post("/share/blueprint/{id}", s.handleShare(shareBlueprint))

			r.Post("/export", s.handleWriteExport)
			r.Post("/import", s.handleImport)
		})
	})
}
