package server

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/forPelevin/hlreel/internal/apperr"
	"github.com/forPelevin/hlreel/internal/jobs"
)

type submitResponse struct {
	JobID   string      `json:"job_id"`
	Status  jobs.Status `json:"status"`
	Message string      `json:"message"`
}

type urlRequest struct {
	URL string `json:"url" validate:"required,url"`
}

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".srt":  "text/plain; charset=utf-8",
	".json": echo.MIMEApplicationJSON,
}

func (s *Server) index(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "hlreel",
		"endpoints": map[string]string{
			"health":        "GET /api/health",
			"process_video": "POST /api/process-video",
			"process_url":   "POST /api/process-url",
			"job_status":    "GET /api/job/{job_id}",
			"job_updates":   "GET /ws/job/{job_id}",
			"download":      "GET /api/download/{job_id}/{final|highlights|subtitles|metadata|highlight_subtitles}",
		},
	})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) processVideo(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("upload", "missing multipart field 'file': %w", err)
	}
	f, err := fh.Open()
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "upload", err)
	}
	defer f.Close()

	id, err := s.jobs.SubmitUpload(c.Request().Context(), fh.Filename, f, fh.Size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, submitResponse{JobID: id, Status: jobs.StatusProcessing, Message: "Video processing started"})
}

func (s *Server) processURL(c echo.Context) error {
	var req urlRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("url", "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	id, err := s.jobs.SubmitURL(c.Request().Context(), req.URL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, submitResponse{JobID: id, Status: jobs.StatusProcessing, Message: "Video download and processing started"})
}

func (s *Server) jobStatus(c echo.Context) error {
	j, err := s.jobs.Status(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, j)
}

func (s *Server) download(c echo.Context) error {
	path, err := s.jobs.Artifact(c.Param("id"), c.Param("kind"))
	if err != nil {
		return err
	}
	if mt, ok := mediaTypes[filepath.Ext(path)]; ok {
		c.Response().Header().Set(echo.HeaderContentType, mt)
	}
	return c.Attachment(path, filepath.Base(path))
}
