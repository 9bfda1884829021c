package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/static"
)

func (s *Server) setupRoutes() {
	catalogHandler := handlers.NewCatalogHandler(s.deps.Catalog)
	framesHandler := handlers.NewFramesHandler(s.deps.Processor, s.deps.Extractor, s.logger)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Ledger, s.logger)
	eventsHandler := handlers.NewEventsHandler(s.deps.Broadcaster)

	s.router.Get("/api/v1/health", catalogHandler.Health)
	if s.deps.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		// long-lived stream, kept out of the timeout group
		r.Get("/events", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(time.Minute))

			r.Post("/frames", framesHandler.Submit)
			r.Post("/frames/image", framesHandler.SubmitImage)
			r.Get("/attendance", attendanceHandler.List)
			r.Get("/identities", catalogHandler.List)
		})
	})

	s.router.Handle("/*", http.FileServer(static.FileSystem()))
}
