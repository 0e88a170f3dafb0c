package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"overdub/internal/api"
	"overdub/internal/config"
	"overdub/internal/logging"
	"overdub/internal/services"
)

// StatusFunc reports daemon runtime status for the health endpoint.
type StatusFunc func(ctx context.Context) api.DaemonStatus

// Server is the HTTP face of the daemon: job submission, queries, and
// approval decisions. All state flows through api.Service.
type Server struct {
	echo    *echo.Echo
	bind    string
	service *api.Service
	status  StatusFunc
	logger  *slog.Logger
}

// NewServer builds the HTTP server. Returns nil when no bind address is
// configured, which disables the surface entirely.
func NewServer(cfg *config.Config, service *api.Service, status StatusFunc, logger *slog.Logger) *Server {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	srv := &Server{
		echo:    e,
		bind:    bind,
		service: service,
		status:  status,
		logger:  logging.NewComponentLogger(logger, "httpapi"),
	}

	jobsGroup := e.Group("/api/jobs")
	if token := strings.TrimSpace(cfg.Paths.APIToken); token != "" {
		jobsGroup.Use(bearerAuth(token))
	}
	jobsGroup.POST("", srv.handleSubmit)
	jobsGroup.GET("", srv.handleList)
	jobsGroup.GET("/:id", srv.handleDescribe)
	jobsGroup.POST("/:id/decision", srv.handleDecide)

	e.GET("/healthz", srv.handleHealth)
	return srv
}

func bearerAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header != "Bearer "+token {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}
			return next(c)
		}
	}
}

// Start begins serving. It blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("http api listening", logging.String("bind", s.bind))
	err := s.echo.Start(s.bind)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// Handler exposes the underlying http.Handler (used in tests).
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleSubmit(c echo.Context) error {
	var req api.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}

	item, err := s.service.Submit(c.Request().Context(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, api.JobItemResponse{Item: item})
}

func (s *Server) handleList(c echo.Context) error {
	var statuses []string
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	items, err := s.service.List(c.Request().Context(), statuses...)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, api.JobListResponse{Items: items})
}

func (s *Server) handleDescribe(c echo.Context) error {
	id, err := parseJobID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	item, err := s.service.Describe(c.Request().Context(), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, api.JobItemResponse{Item: *item})
}

func (s *Server) handleDecide(c echo.Context) error {
	id, err := parseJobID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	var req api.DecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}

	item, err := s.service.Decide(c.Request().Context(), id, req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, api.JobItemResponse{Item: item})
}

func (s *Server) handleHealth(c echo.Context) error {
	status := s.status(c.Request().Context())
	code := http.StatusOK
	if !status.Running {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

func (s *Server) writeError(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	switch services.FailureKind(err) {
	case services.KindValidation:
		code = http.StatusUnprocessableEntity
	case services.KindExternal:
		if errors.Is(err, services.ErrNotFound) {
			code = http.StatusNotFound
		} else {
			code = http.StatusBadGateway
		}
	case services.KindTransient, services.KindTimeout:
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Error(err))
	}
	return c.JSON(code, map[string]string{"error": err.Error()})
}

func parseJobID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("job id must be a positive integer")
	}
	return id, nil
}
