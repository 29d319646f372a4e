package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/vouch/internal/model"
	"github.com/ppiankov/vouch/internal/validate"
	"github.com/ppiankov/vouch/internal/worker"
)

// ValidateRequest is the body of POST /v1/validate. Candidates, when
// present, replace index retrieval for every assumption.
type ValidateRequest struct {
	Assumptions json.RawMessage `json:"assumptions" binding:"required"`
	Candidates  []model.Quote   `json:"candidates,omitempty"`
}

// IngestRequest is the JSON form of POST /v1/ingest
type IngestRequest struct {
	Files       []TranscriptUpload `json:"files" binding:"required,min=1,dive"`
	Assumptions json.RawMessage    `json:"assumptions,omitempty"`
}

// TranscriptUpload carries one transcript inline
type TranscriptUpload struct {
	Name        string `json:"name" binding:"required"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content" binding:"required"`
}

// ErrorResponse is returned for every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers holds the endpoint implementations
type Handlers struct {
	svc       Service
	maxUpload int64
}

// NewHandlers creates handlers backed by svc
func NewHandlers(svc Service, maxUpload int64) *Handlers {
	return &Handlers{svc: svc, maxUpload: maxUpload}
}

// HandleValidate validates the posted assumptions
func (h *Handlers) HandleValidate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	assumptions, err := validate.ParseAssumptions(req.Assumptions)
	if err != nil {
		writeError(c, err)
		return
	}

	if req.Candidates == nil {
		report, err := h.svc.Validate(c.Request.Context(), assumptions)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	if err := validate.CheckAssumptions(assumptions); err != nil {
		writeError(c, err)
		return
	}
	start := time.Now()
	report := &model.ValidationReport{GeneratedAt: start.UTC()}
	for _, a := range assumptions {
		res, err := h.svc.ValidateCandidates(c.Request.Context(), a, req.Candidates)
		if err != nil {
			writeError(c, err)
			return
		}
		report.Results = append(report.Results, res)
	}
	report.Elapsed = time.Since(start)
	c.JSON(http.StatusOK, report)
}

// HandleIngest accepts transcripts either as multipart "files" parts with
// an optional "assumptions" field, or as an IngestRequest JSON body
func (h *Handlers) HandleIngest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	var (
		files       []model.TranscriptFile
		assumptions []model.Assumption
		err         error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		files, assumptions, err = h.readMultipart(c)
	} else {
		files, assumptions, err = h.readJSON(c)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	batch, err := h.svc.Ingest(c.Request.Context(), files, assumptions)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// HandleHealth reports liveness
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// HandleReady reports whether the configured services answer
func (h *Handlers) HandleReady(c *gin.Context) {
	if !h.svc.Ready(c.Request.Context()) {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ready")
}

func (h *Handlers) readMultipart(c *gin.Context) ([]model.TranscriptFile, []model.Assumption, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, badRequest("parse multipart form: %v", err)
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, nil, badRequest("no files in form field %q", "files")
	}

	files := make([]model.TranscriptFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return nil, nil, badRequest("read %s: %v", fh.Filename, err)
		}
		name := filepath.Base(fh.Filename)
		files = append(files, model.TranscriptFile{
			Name:        name,
			ContentType: worker.ContentTypeFor(name),
			Data:        data,
		})
	}

	var assumptions []model.Assumption
	if raw := c.PostForm("assumptions"); strings.TrimSpace(raw) != "" {
		assumptions, err = validate.ParseAssumptions([]byte(raw))
		if err != nil {
			return nil, nil, err
		}
	}
	return files, assumptions, nil
}

func (h *Handlers) readJSON(c *gin.Context) ([]model.TranscriptFile, []model.Assumption, error) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, nil, badRequest("%v", err)
	}

	files := make([]model.TranscriptFile, 0, len(req.Files))
	for _, f := range req.Files {
		ct := f.ContentType
		if ct == "" {
			ct = worker.ContentTypeFor(f.Name)
		}
		files = append(files, model.TranscriptFile{
			Name:        f.Name,
			ContentType: ct,
			Data:        []byte(f.Content),
		})
	}

	var assumptions []model.Assumption
	if len(req.Assumptions) > 0 && string(req.Assumptions) != "null" {
		var err error
		assumptions, err = validate.ParseAssumptions(req.Assumptions)
		if err != nil {
			return nil, nil, err
		}
	}
	return files, assumptions, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, model.ErrInvalidAssumptions):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoServices):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
