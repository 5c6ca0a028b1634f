// Package server exposes posture analysis and intake insights over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	postureanalyzer "github.com/menta2k/posture-analyzer"
	"github.com/menta2k/posture-analyzer/internal/config"
	"github.com/menta2k/posture-analyzer/pkg/insights"
)

const (
	EndPointHealth           = "/health"
	EndPointMetrics          = "/metrics"
	EndPointAnalyzePosture   = "/analyze_posture"
	EndPointGenerateInsights = "/generate_insights"
)

const serviceName = "posture-analyzer"

// Server wires the HTTP routes to the analysis service and insight generator
type Server struct {
	config    config.ServerConfig
	service   *postureanalyzer.Service
	generator *insights.Generator
	router    *gin.Engine
}

// New creates a server. generator may be nil, in which case the insights
// endpoint answers 503.
func New(cfg config.ServerConfig, service *postureanalyzer.Service, generator *insights.Generator) *Server {
	s := &Server{
		config:    cfg,
		service:   service,
		generator: generator,
		router:    gin.New(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(gin.Recovery(), requestLogger(), cors(s.config.AllowedOrigins))

	s.router.GET(EndPointHealth, s.health)
	s.router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))

	rateLimited := s.router.Group("/")
	rateLimited.Use(RateLimitMiddleware(s.config.RateLimitPerMinute, time.Minute))
	{
		rateLimited.POST(EndPointAnalyzePosture, s.analyzePosture)
		rateLimited.POST(EndPointGenerateInsights, s.generateInsights)
	}
}

// Run serves on the configured port until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Posture analyzer listening on port %s", s.config.Port)
		log.Infof("Rate limit: %d requests per minute", s.config.RateLimitPerMinute)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.config.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited")
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": postureanalyzer.GetVersion(),
	})
}

// requestContext bounds a request by the configured timeout
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeoutSec <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), time.Duration(s.config.RequestTimeoutSec)*time.Second)
}

func (s *Server) maxUploadBytes() int64 {
	return int64(s.config.MaxUploadMB) << 20
}

func cors(allowed []string) gin.HandlerFunc {
	wildcard := len(allowed) == 0 || slices.Contains(allowed, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(allowed, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}).Info("request")
	}
}
