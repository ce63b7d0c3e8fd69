package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"read-lines/internal/errors"
	"read-lines/internal/models"
	"read-lines/internal/service"
)

const (
	defaultReadTimeout     = 60 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// linesQuery is the query string accepted by GET /lines.
type linesQuery struct {
	File  string `form:"file" binding:"required"`
	Start int    `form:"start" binding:"required"`
	Count int    `form:"count"`
}

// HTTPHandler serves line range reads over HTTP.
type HTTPHandler struct {
	service service.LineReaderService
	logger  zerolog.Logger
	engine  *gin.Engine
}

// NewHTTPHandler creates a new HTTPHandler with its routes registered.
func NewHTTPHandler(svc service.LineReaderService, logger zerolog.Logger) *HTTPHandler {
	gin.SetMode(gin.ReleaseMode)
	h := &HTTPHandler{
		service: svc,
		logger:  logger.With().Str("transport", "http").Logger(),
		engine:  gin.New(),
	}
	h.engine.Use(gin.Recovery(), h.requestLogger())
	h.engine.GET("/lines", h.handleReadLines)
	h.engine.GET("/health", h.handleHealthCheck)
	return h
}

// Router exposes the handler for tests and for embedding in another server.
func (h *HTTPHandler) Router() http.Handler {
	return h.engine
}

func (h *HTTPHandler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	}
}

func writeError(c *gin.Context, errDetail *models.ErrorDetail) {
	c.JSON(errors.MapErrorToHTTPStatus(errDetail), errors.ToErrorResponse(errDetail))
}

func (h *HTTPHandler) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) handleReadLines(c *gin.Context) {
	var q linesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, errors.NewInvalidParamsError(fmt.Sprintf("Invalid query: %v", err), map[string]interface{}{
			"file":  c.Query("file"),
			"start": c.Query("start"),
			"count": c.Query("count"),
		}))
		return
	}

	resp, errDetail := h.service.ReadLines(models.ReadLinesRequest{File: q.File, StartLine: q.Start, Count: q.Count})
	if errDetail != nil {
		writeError(c, errDetail)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StartServer listens on port until ctx is cancelled, then shuts down gracefully.
func (h *HTTPHandler) StartServer(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      h.engine,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info().Str("addr", srv.Addr).Msg("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		h.logger.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server graceful shutdown error: %w", err)
		}
		return nil
	}
}
