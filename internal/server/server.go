// Package server exposes the summarizer over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crimson-sun/recap/internal/engine/limiter"
	"github.com/crimson-sun/recap/internal/model"
	"github.com/crimson-sun/recap/internal/output"
	"github.com/crimson-sun/recap/internal/output/text"
	"github.com/crimson-sun/recap/internal/recording"
)

const defaultMaxBodyBytes = 32 << 20

// Processor turns a recording into its summary. *engine.Engine satisfies it.
type Processor interface {
	Process(rec model.Recording) model.Summary
}

// Options configures a Server.
type Options struct {
	MaxBodyBytes int64                // request body cap; 0 selects 32MB
	Verbosity    limiter.Verbosity    // default response verbosity
	Version      string               // reported by /healthz
	Registry     *prometheus.Registry // metrics registry; nil creates a private one
}

// Server serves POST /v1/summaries, GET /healthz and GET /metrics.
// A nil Processor leaves out the summaries route, which is how the watch
// command exposes metrics only.
type Server struct {
	echo      *echo.Echo
	processor Processor
	opts      Options
	metrics   *metrics
}

type metrics struct {
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
}

// New builds a Server and registers its routes.
func New(proc Processor, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	f := promauto.With(opts.Registry)
	s := &Server{
		processor: proc,
		opts:      opts,
		metrics: &metrics{
			requests: f.NewCounterVec(prometheus.CounterOpts{
				Namespace: "recap",
				Subsystem: "http",
				Name:      "summaries_total",
				Help:      "Summary requests by response code.",
			}, []string{"code"}),
			latency: f.NewHistogram(prometheus.HistogramOpts{
				Namespace: "recap",
				Subsystem: "http",
				Name:      "summary_duration_seconds",
				Help:      "Time spent decoding and summarizing a request body.",
				Buckets:   prometheus.DefBuckets,
			}),
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("http request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	s.echo = e
	s.RegisterRoutes(e)
	return s
}

// RegisterRoutes registers routes with the echo server.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	if s.processor != nil {
		e.POST("/v1/summaries", s.Summarize)
	}
	e.GET("/healthz", s.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})))
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown. http.ErrServerClosed is not an error.
func (s *Server) Start(addr string) error {
	slog.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Health returns health status.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.opts.Version,
	})
}

// Summarize decodes a recording from the request body and responds with its
// summary. Query parameters: source names the recording, verbosity overrides
// the default, format=text returns the text timeline.
func (s *Server) Summarize(c echo.Context) error {
	start := time.Now()
	code, err := s.summarize(c)
	s.metrics.requests.WithLabelValues(strconv.Itoa(code)).Inc()
	s.metrics.latency.Observe(time.Since(start).Seconds())
	return err
}

func (s *Server) summarize(c echo.Context) (int, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, s.opts.MaxBodyBytes+1))
	if err != nil {
		return http.StatusBadRequest, c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
	}
	if int64(len(body)) > s.opts.MaxBodyBytes {
		return http.StatusRequestEntityTooLarge, c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
	}

	source := c.QueryParam("source")
	if source == "" {
		source = "request"
	}
	rec, err := recording.Decode(body, source)
	if err != nil {
		msg := "invalid recording"
		if errors.Is(err, recording.ErrNoSnapshots) {
			msg = "no snapshots found"
		}
		return http.StatusBadRequest, c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}

	verbosity := s.opts.Verbosity
	if v := c.QueryParam("verbosity"); v != "" {
		verbosity = limiter.ParseVerbosity(v)
	}
	summary := output.FormatSummary(s.processor.Process(rec), verbosity)

	if c.QueryParam("format") == "text" {
		var buf bytes.Buffer
		if err := text.Render(&buf, summary.Nodes); err != nil {
			return http.StatusInternalServerError, err
		}
		return http.StatusOK, c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
	}
	return http.StatusOK, c.JSON(http.StatusOK, summary)
}
