// Package server exposes the classification and restoration pipelines over
// HTTP. It is a thin routing layer: all workflow logic lives in the pipeline
// package.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/model"
	"github.com/specimenworks/fieldlens/internal/pipeline"
	"github.com/specimenworks/fieldlens/internal/service"
)

// Classifier runs the single-call classification workflow.
type Classifier interface {
	Classify(ctx context.Context, imageB64 string, options map[string]bool) (*model.Result, error)
}

// Restorer runs the two-stage restoration workflow.
type Restorer interface {
	Restore(ctx context.Context, imageB64 string, options map[string]bool) (*model.Result, error)
}

// Server wires the HTTP routes to the pipelines and the result store.
type Server struct {
	echo       *echo.Echo
	classifier Classifier
	restorer   Restorer
	store      service.Storage
	logger     *slog.Logger
}

// New builds the HTTP server. Either pipeline may be nil, in which case its
// endpoint reports that the workflow is not configured.
func New(classifier Classifier, restorer Restorer, store service.Storage, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status)
			return nil
		},
	}))
	e.Pre(middleware.RemoveTrailingSlash())

	s := &Server{
		echo:       e,
		classifier: classifier,
		restorer:   restorer,
		store:      store,
		logger:     logger,
	}
	s.setRoutes()

	return s
}

func (s *Server) setRoutes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := s.echo.Group("/api")
	api.POST("/classify", s.handleClassify)
	api.POST("/restore", s.handleRestore)
	api.GET("/results", s.handleListResults)
	api.GET("/results/:id", s.handleGetResult)
}

// Start begins serving on the given address, blocking until shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// processRequest is the JSON body accepted by the classify and restore
// endpoints.
type processRequest struct {
	ImageData string          `json:"image_data"`
	Options   map[string]bool `json:"options"`
}

// resultResponse mirrors the upstream response contract.
type resultResponse struct {
	ID            string            `json:"id"`
	Kind          string            `json:"kind"`
	Category      string            `json:"category"`
	Confidence    string            `json:"confidence,omitempty"`
	Description   string            `json:"description"`
	Details       map[string]string `json:"details,omitempty"`
	RestoredImage string            `json:"restored_image,omitempty"`
	RawResponse   string            `json:"raw_response"`
	Status        string            `json:"status"`
	CreatedAt     string            `json:"created_at"`
}

func toResponse(result *model.Result) resultResponse {
	return resultResponse{
		ID:            result.ID,
		Kind:          string(result.Kind),
		Category:      result.Category,
		Confidence:    string(result.Confidence),
		Description:   result.Description,
		Details:       result.Details,
		RestoredImage: result.RestoredImagePath,
		RawResponse:   result.RawResponse,
		Status:        string(result.Status),
		CreatedAt:     result.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *Server) handleClassify(c echo.Context) error {
	if s.classifier == nil {
		return c.JSON(http.StatusNotImplemented, model.ErrorRecord{Message: "classification is not configured"})
	}
	return s.process(c, s.classifier.Classify)
}

func (s *Server) handleRestore(c echo.Context) error {
	if s.restorer == nil {
		return c.JSON(http.StatusNotImplemented, model.ErrorRecord{Message: "restoration is not configured"})
	}
	return s.process(c, s.restorer.Restore)
}

func (s *Server) process(c echo.Context, run func(context.Context, string, map[string]bool) (*model.Result, error)) error {
	var req processRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorRecord{Message: "invalid request body"})
	}

	if req.ImageData == "" {
		return c.JSON(http.StatusBadRequest, model.ErrorRecord{Message: common.ErrEmptyImage.Error()})
	}

	result, err := run(c.Request().Context(), req.ImageData, req.Options)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, toResponse(result))
}

func (s *Server) handleGetResult(c echo.Context) error {
	result, err := s.store.GetResult(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return c.JSON(http.StatusNotFound, model.ErrorRecord{Message: err.Error()})
		}
		s.logger.Error("failed to load result", "error", err)
		return c.JSON(http.StatusInternalServerError, model.ErrorRecord{Message: "failed to load result"})
	}
	return c.JSON(http.StatusOK, toResponse(result))
}

func (s *Server) handleListResults(c echo.Context) error {
	filter := service.ResultFilter{Limit: 50}
	if kind := c.QueryParam("kind"); kind != "" {
		filter.Kind = model.Kind(kind)
	}

	results, err := s.store.ListResults(c.Request().Context(), filter)
	if err != nil {
		s.logger.Error("failed to list results", "error", err)
		return c.JSON(http.StatusInternalServerError, model.ErrorRecord{Message: "failed to list results"})
	}

	responses := make([]resultResponse, len(results))
	for i := range results {
		responses[i] = toResponse(&results[i])
	}
	return c.JSON(http.StatusOK, responses)
}

// writeError converts a pipeline failure into the uniform error payload,
// choosing the status code from the error taxonomy.
func (s *Server) writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrEmptyImage), errors.Is(err, common.ErrInvalidImage):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrMissingConfig), errors.Is(err, common.ErrInvalidConfig):
		status = http.StatusInternalServerError
	case errors.Is(err, common.ErrProviderCall):
		status = http.StatusBadGateway
	}

	var perr *pipeline.Error
	if errors.As(err, &perr) {
		return c.JSON(status, perr.Record())
	}

	return c.JSON(status, model.ErrorRecord{Message: err.Error(), Hint: common.HintOf(err)})
}
