package inspector

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"trackcheck/internal/capture"
	"trackcheck/internal/config"
	"trackcheck/internal/logger"
	"trackcheck/internal/report"
	"trackcheck/pkg/errors"
	"trackcheck/pkg/health"
	"trackcheck/pkg/middleware"
)

const defaultRunsLimit = 50

// Server is the debug/observability surface: run history, the live capture
// log, health and metrics. It never takes part in validation.
type Server struct {
	cfg      config.InspectorConfig
	history  *report.History  // nil when history is disabled
	tracker  *capture.Tracker // nil when serving without a live session
	registry *health.CheckerRegistry
	logger   logger.Logger
}

func NewServer(cfg config.InspectorConfig, history *report.History, tracker *capture.Tracker, registry *health.CheckerRegistry, log logger.Logger) *Server {
	if tracker != nil {
		registry.Register(health.NewCaptureChecker(tracker.Running))
	}
	return &Server{
		cfg:      cfg,
		history:  history,
		tracker:  tracker,
		registry: registry,
		logger:   log,
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(s.logger))
	router.Use(middleware.RecoveryMiddleware(s.logger))

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/runs", s.handleListRuns)
		api.GET("/runs/:id", s.handleGetRun)
		api.GET("/capture/dump", s.handleCaptureDump)
	}

	return router
}

// Run serves until the context is cancelled, then drains in-flight
// requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Infow("Inspector listening", "port", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Infow("Inspector shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) handleHealth(c *gin.Context) {
	result := s.registry.Check(c.Request.Context())

	status := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, errors.ToErrorResponse(
			errors.ErrNotFound.WithMessage("run history is not configured")))
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultRunsLimit)), 10, 64)
	if err != nil || limit <= 0 {
		limit = defaultRunsLimit
	}

	records, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": records, "count": len(records)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, errors.ToErrorResponse(
			errors.ErrNotFound.WithMessage("run history is not configured")))
		return
	}

	record, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleCaptureDump(c *gin.Context) {
	if s.tracker == nil {
		c.JSON(http.StatusServiceUnavailable, errors.ToErrorResponse(
			errors.ErrCaptureNotRunning.WithMessage("no live capture session attached")))
		return
	}

	data, err := capture.MarshalDump(s.tracker.All())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errors.ToErrorResponse(err))
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
