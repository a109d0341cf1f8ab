// Package server exposes the job orchestrator over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/forPelevin/hlreel/internal/apperr"
	"github.com/forPelevin/hlreel/internal/broadcast"
	"github.com/forPelevin/hlreel/internal/jobs"
)

// Jobs is the part of the orchestrator the server needs.
type Jobs interface {
	SubmitUpload(ctx context.Context, filename string, r io.Reader, size int64) (string, error)
	SubmitURL(ctx context.Context, rawURL string) (string, error)
	Status(id string) (jobs.Job, error)
	Artifact(id, kind string) (string, error)
	Subscribe(id string) (*broadcast.Observer, jobs.Job, error)
	Unsubscribe(obs *broadcast.Observer)
}

type Options struct {
	// BodyLimit is an echo size string such as "510M". Empty disables it.
	BodyLimit string
	// PingInterval is the WebSocket keepalive period.
	PingInterval time.Duration
}

type Server struct {
	e    *echo.Echo
	jobs Jobs
	opts Options
	log  logrus.FieldLogger
}

func New(j Jobs, opts Options, log logrus.FieldLogger) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = pingPeriod
	}
	s := &Server{e: echo.New(), jobs: j, opts: opts, log: log}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Validator = &requestValidator{v: validator.New()}
	s.e.HTTPErrorHandler = s.handleError

	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := s.log.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.Round(time.Millisecond),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	}))
	s.e.Use(middleware.CORS())
	if opts.BodyLimit != "" {
		s.e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.e.Group("/api")
	api.GET("/", s.index)
	api.GET("/health", s.health)
	api.POST("/process-video", s.processVideo)
	api.POST("/process-url", s.processURL)
	api.GET("/job/:id", s.jobStatus)
	api.GET("/download/:id/:kind", s.download)

	s.e.GET("/ws/job/:id", s.watchJob)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("http server listening")
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

type requestValidator struct{ v *validator.Validate }

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return apperr.Validation("request", "%s", strings.Join(msgs, "; "))
		}
		return apperr.Wrap(apperr.KindValidation, "request", err)
	}
	return nil
}

// handleError writes {"detail": ...} with a status derived from the error kind.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("uri", c.Request().RequestURI).Error("request error")
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"detail": msg})
	}
	if err != nil {
		s.log.WithError(err).Warn("write error response")
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		if errors.Is(err, apperr.ErrTooLarge) {
			return http.StatusRequestEntityTooLarge, err.Error()
		}
		return http.StatusBadRequest, err.Error()
	case apperr.KindNotFound:
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
