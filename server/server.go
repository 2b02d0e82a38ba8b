package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/openmetro/transitdash"
	"github.com/openmetro/transitdash/metrics"
)

// Server exposes one feed's derived dashboard data over HTTP. All
// served data is computed up front; handlers only read, so no locking
// is needed.
type Server struct {
	snap      *transitdash.Snapshot
	derived   *transitdash.Derived
	collector *metrics.Collector
	router    chi.Router
}

func New(snap *transitdash.Snapshot, derived *transitdash.Derived, collector *metrics.Collector, allowedOrigins []string) *Server {
	s := &Server{
		snap:      snap,
		derived:   derived,
		collector: collector,
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(s.measure)

	r.Get("/healthz", s.handleHealthz)
	if collector != nil {
		r.Method("GET", "/metrics", collector.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/overview", s.handleOverview)
		r.Get("/routes", s.handleRoutes)
		r.Get("/routes/{routeID}/stats", s.handleRouteStats)
		r.Get("/stops", s.handleStops)
		r.Get("/stops/{stopID}/stats", s.handleStopStats)
		r.Get("/rankings/routes", s.handleRouteRankings)
		r.Get("/rankings/stops", s.handleStopRankings)
		r.Get("/timeseries", s.handleTimeSeries)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errs := make(chan error, 1)
	go func() {
		logrus.WithField("addr", addr).Info("serving dashboard API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Counts and times requests by chi route pattern, so path parameters
// don't explode label cardinality.
func (s *Server) measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.collector == nil {
			next.ServeHTTP(w, r)
			return
		}

		began := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		s.collector.HTTPRequests.WithLabelValues(pattern, strconv.Itoa(ww.Status())).Inc()
		s.collector.HTTPDuration.Observe(time.Since(began).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
