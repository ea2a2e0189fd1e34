// Package server exposes the prediction service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"net/http"

	"vehicle-pricing/internal/common/config"
	"vehicle-pricing/internal/common/logger"
	"vehicle-pricing/internal/predictor"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// PricingService is the part of service.PredictionService the API needs.
type PricingService interface {
	PredictJSON(ctx context.Context, raw []byte) (float64, error)
	ModelInfo() (predictor.Info, bool)
}

type Server struct {
	cfg        config.ServerConfig
	service    PricingService
	logger     logger.Logger
	router     *gin.Engine
	httpServer *http.Server
}

// New builds the router. gatherer backs /metrics.
func New(cfg config.ServerConfig, svc PricingService, gatherer prometheus.Gatherer, log logger.Logger) *Server {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	s := &Server{
		cfg:     cfg,
		service: svc,
		logger:  log,
	}

	router := gin.New()
	router.Use(gin.CustomRecovery(s.recover))
	router.Use(RequestID())
	router.Use(AccessLog(log))

	corsConfig := cors.DefaultConfig()
	if allowsAnyOrigin(cfg.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/ready", s.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	predict := []gin.HandlerFunc{BodyLimit(cfg.MaxBodyBytes)}
	if cfg.RateLimit.Enabled {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		predict = append(predict, RateLimit(limiter))
	}
	predict = append(predict, s.handlePredict)
	router.POST("/predict", predict...)

	s.router = router
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.Handler(),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

// Handler returns the router wrapped in otelhttp instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "vehicle-pricing",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"address": s.cfg.Address})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
