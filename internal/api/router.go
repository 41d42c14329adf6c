package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/sentitrade/internal/api/handlers"
	"github.com/wonny/sentitrade/internal/scheduler"
	"github.com/wonny/sentitrade/pkg/database"
	"github.com/wonny/sentitrade/pkg/logger"
	"github.com/wonny/sentitrade/pkg/metrics"
)

// HealthChecker reports database health. *database.DB satisfies it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// JobStatsProvider reports scheduled job statistics. *scheduler.Scheduler satisfies it.
type JobStatsProvider interface {
	GetJobStats() map[string]scheduler.JobStats
}

// Routes bundles the handlers mounted by NewRouter.
// DB, Metrics and Jobs are optional.
type Routes struct {
	Data     *handlers.DataHandler
	Simulate *handlers.SimulationHandler
	DB       HealthChecker
	Metrics  *metrics.Recorder
	Jobs     JobStatsProvider
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(routes Routes, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNop()
	}
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(routes.DB)).Methods("GET")

	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics.Handler()).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()

	// Feature / split endpoints
	api.HandleFunc("/tickers", routes.Data.GetTickers).Methods("GET")
	api.HandleFunc("/features/{ticker}", routes.Data.GetFeatures).Methods("GET")
	api.HandleFunc("/folds/{ticker}", routes.Data.GetFolds).Methods("GET")
	api.HandleFunc("/diagnostics/{ticker}", routes.Data.GetDiagnostics).Methods("GET")
	api.HandleFunc("/quality", routes.Data.GetQuality).Methods("GET")

	// Simulation
	api.HandleFunc("/simulate", routes.Simulate.Simulate).Methods("POST")

	// Scheduled refresh
	if routes.Jobs != nil {
		api.HandleFunc("/jobs", jobsHandler(routes.Jobs)).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "sentitrade-api",
		}
		status := http.StatusOK

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			health, err := db.HealthCheck(ctx)
			body["database"] = health
			if err != nil {
				body["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

// jobsHandler returns scheduled job statistics
func jobsHandler(jobs JobStatsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jobs.GetJobStats())
	}
}

// statusRecorder captures the response code for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
