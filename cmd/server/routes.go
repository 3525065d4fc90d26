package main

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "precifica_http_requests_total",
	Help: "HTTP requests by method, route pattern and status code.",
}, []string{"method", "route", "status"})

func (s *server) routes(apiToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		if apiToken != "" {
			api.Use(bearerAuth(apiToken))
		}

		api.Get("/omie/ping", s.handleOmiePing)
		api.Get("/products/{code}", s.handleGetProduct)

		api.Post("/calculations", s.handleCreateCalculation)
		api.Get("/calculations", s.handleListCalculations)
		api.Get("/calculations/export", s.handleExportCalculations)
		api.Delete("/calculations", s.handleClearCalculations)
		api.Delete("/calculations/{id}", s.handleDeleteCalculation)

		api.Get("/stats", s.handleStats)
		api.Get("/scenarios", s.handleScenarios)

		api.Post("/analysis/discount", s.handleAnalysisDiscount)
		api.Post("/analysis/competitive", s.handleAnalysisCompetitive)
		api.Post("/analysis/elasticity", s.handleAnalysisElasticity)
		api.Post("/analysis/optimal", s.handleAnalysisOptimal)
		api.Post("/analysis/market", s.handleAnalysisMarket)
		api.Post("/analysis/sensitivity", s.handleAnalysisSensitivity)
		api.Post("/analysis/breakeven", s.handleAnalysisBreakEven)
	})

	return r
}

// requestLogger logs each request and feeds the prometheus counter. The
// route pattern is resolved after the handler runs so parameterized paths
// aggregate under one label.
func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// bearerAuth requires a static bearer token on the API routes.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			provided, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				respondError(w, http.StatusUnauthorized, "token de acesso inválido")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
