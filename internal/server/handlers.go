package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	postureanalyzer "github.com/menta2k/posture-analyzer"
	"github.com/menta2k/posture-analyzer/internal/metrics"
	"github.com/menta2k/posture-analyzer/pkg/anamnesis"
	"github.com/menta2k/posture-analyzer/pkg/client"
	"github.com/menta2k/posture-analyzer/pkg/insights"
	"github.com/menta2k/posture-analyzer/pkg/processing"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error string `json:"error"`
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

// statusFor maps client mistakes to 400, expired deadlines to 504 and
// landmark or language model failures to 502. Anything else is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidView),
		errors.Is(err, postureanalyzer.ErrViewCountMismatch),
		errors.Is(err, processing.ErrUnsupportedFormat),
		errors.Is(err, insights.ErrInvalidRole),
		errors.Is(err, insights.ErrEmptyAnamnesis),
		errors.Is(err, anamnesis.ErrNoRecords):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, client.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseMultipart reads the upload within the size limit. On failure the
// response has already been written.
func (s *Server) parseMultipart(c *gin.Context) (*multipart.Form, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes())
	form, err := c.MultipartForm()
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			abort(c, http.StatusRequestEntityTooLarge, err)
		} else {
			abort(c, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err))
		}
		return nil, false
	}
	return form, true
}

// analyzePosture handles POST /analyze_posture
func (s *Server) analyzePosture(c *gin.Context) {
	form, ok := s.parseMultipart(c)
	if !ok {
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		abort(c, http.StatusBadRequest, errors.New("no files uploaded"))
		return
	}

	views, err := postureanalyzer.ParseViews(form.Value["views"], len(files))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	req := postureanalyzer.Request{
		PatientID:      c.PostForm("patient_id"),
		ProfessionalID: c.PostForm("professional_id"),
		ServicePlanID:  c.PostForm("service_plan_id"),
		Overlays:       isTrue(c.PostForm("overlay")),
		Views:          make([]postureanalyzer.ViewImage, 0, len(files)),
	}
	for i, fh := range files {
		img, err := s.decodeUpload(fh)
		if err != nil {
			abort(c, http.StatusBadRequest, fmt.Errorf("file %q: %w", fh.Filename, err))
			return
		}
		req.Views = append(req.Views, postureanalyzer.ViewImage{View: views[i], Image: img})
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	session, err := s.service.AnalyzeViews(ctx, req)
	if err != nil {
		log.WithError(err).WithField("views", len(req.Views)).Error("posture analysis failed")
		abort(c, statusFor(err), err)
		return
	}

	log.WithFields(log.Fields{
		"session": session.ID,
		"views":   len(session.Images),
	}).Info("posture analyzed")
	c.JSON(http.StatusOK, session)
}

func (s *Server) decodeUpload(fh *multipart.FileHeader) (image.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.service.LoadImageFromReader(f)
}

// generateInsights handles POST /generate_insights?role=
func (s *Server) generateInsights(c *gin.Context) {
	if s.generator == nil {
		abort(c, http.StatusServiceUnavailable, errors.New("insights are not configured"))
		return
	}

	role, err := insights.ParseRole(c.Query("role"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	form, ok := s.parseMultipart(c)
	if !ok {
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		abort(c, http.StatusBadRequest, errors.New("no file uploaded"))
		return
	}

	text, err := readAnamnesis(files[0])
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	start := time.Now()
	result, err := s.generator.Generate(ctx, role, text)
	metrics.ObserveInsights(string(role), err, time.Since(start))
	if err != nil {
		log.WithError(err).WithField("role", role).Error("insight generation failed")
		abort(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func readAnamnesis(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return anamnesis.Read(f)
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
