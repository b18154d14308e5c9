// Package server exposes the claim service over a JSON REST API.
package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xayanetwork/chi-claim-service/claimctrl"
	"github.com/xayanetwork/chi-claim-service/claimregistry"
	"github.com/xayanetwork/chi-claim-service/log"
	"github.com/xayanetwork/chi-claim-service/metrics"
)

const (
	defaultReadTimeoutSec  = 15
	defaultWriteTimeoutSec = 60
)

// NewRouter builds the REST API router.
func NewRouter(cfg Config, registry *claimregistry.Registry, controller *claimctrl.ClaimController) http.Handler {
	service := newClaimService(registry, controller)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requestMetrics)

	router.Get("/healthz", service.healthz)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/domain-separator", service.domainSeparator)
		r.Post("/leaf-hash", service.leafHash)
		r.Post("/claims/check", service.checkClaim)
		r.Post("/claims/status", service.claimStatus)
		r.Post("/claims/signed", service.signedClaim)
		r.With(adminAuth(cfg.AdminAPIKey)).Post("/claims/admin", service.adminClaim)
	})
	return router
}

// RunServer starts the REST API server and blocks until it stops.
func RunServer(cfg Config, registry *claimregistry.Registry, controller *claimctrl.ClaimController) error {
	readTimeout := cfg.ReadTimeoutSec
	if readTimeout == 0 {
		readTimeout = defaultReadTimeoutSec
	}
	writeTimeout := cfg.WriteTimeoutSec
	if writeTimeout == 0 {
		writeTimeout = defaultWriteTimeoutSec
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(cfg, registry, controller),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	log.Infof("REST API server listening on port %s", cfg.Port)
	return srv.ListenAndServe()
}

// adminAuth gates the administrator endpoint behind the configured API key.
// Without a configured key the endpoint is disabled.
func adminAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get("Authorization")
			expected := "Bearer " + apiKey
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Code: defaultErrorCode, Message: "administrator authentication failed"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for the metrics middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestMetrics records the request count and latency per route.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		isSuccess := recorder.status < http.StatusBadRequest
		method := r.Method + " " + r.URL.Path
		metrics.RecordRequest(method, isSuccess)
		metrics.RecordRequestLatency(method, time.Since(start), isSuccess)
	})
}
