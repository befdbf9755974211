package web

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/nem12sql/internal/core"
	"github.com/JonMunkholm/nem12sql/internal/logging"
	mw "github.com/JonMunkholm/nem12sql/internal/web/middleware"
	"github.com/JonMunkholm/nem12sql/internal/web/templates"
)

// Trailers sent after the SQL body of /api/convert.
const (
	trailerRunStatus   = "X-Run-Status"
	trailerRunReadings = "X-Run-Readings"
	trailerRunCode     = "X-Run-Code"
)

// maxRunsOnPage caps the recent-runs table on the upload page.
const maxRunsOnPage = 20

// uploadFormField is the multipart field carrying the NEM12 file.
const uploadFormField = "file"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs := s.service.Runs()
	if len(runs) > maxRunsOnPage {
		runs = runs[:maxRunsOnPage]
	}

	rows := make([]templates.RunRow, len(runs))
	for i, run := range runs {
		rows[i] = templates.RunRow{
			RunID:    run.RunID,
			FileName: run.FileName,
			Phase:    string(run.Phase),
			Readings: run.Readings,
			Duration: run.Duration,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.UploadPage(templates.PageData{
		MaxFileSizeMB: s.cfg.Upload.MaxFileSize / (1024 * 1024),
		RequireAPIKey: s.cfg.Security.RequireAPIKey,
		Runs:          rows,
	})
	if err := page.Render(r.Context(), w); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
	}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string             `json:"status"`
	Conversions core.LimiterStatus `json:"conversions"`
	TrackedRuns int                `json:"trackedRuns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:      "ok",
		Conversions: s.service.Limiter().Status(),
		TrackedRuns: len(s.service.Runs()),
	})
}

// handleConvert streams the uploaded NEM12 file back as SQL.
//
// The body is either multipart/form-data with a "file" field or the raw
// file, named by the optional ?name= query parameter. With ?wait=false a
// busy server answers 503 at once instead of queueing. The run ID is sent
// in the X-Run-Id header. Once SQL output has started the status is
// committed, so the outcome is reported in the X-Run-Status, X-Run-Readings
// and X-Run-Code trailers. Failures before any output get a normal error
// response.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	in, err := openUpload(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer in.Close()

	runID := core.NewRunID()
	w.Header().Set(mw.RunIDHeader, runID)
	r = r.WithContext(logging.ContextWithRunID(r.Context(), runID))

	out := &sqlResponseWriter{w: w, fileName: in.name}
	result, err := s.service.Convert(r.Context(), core.ConvertRequest{
		RunID:    runID,
		FileName: in.name,
		Size:     in.size,
		Input:    in,
		Output:   out,
		NoWait:   r.URL.Query().Get("wait") == "false",
	})

	if !out.started {
		switch {
		case err != nil:
			if errors.Is(err, core.ErrTooManyConversions) {
				w.Header().Set("Retry-After", "5")
			}
			respondRunError(w, r, err, statusFor(err), runID)
			return
		case !result.Valid():
			respondRunError(w, r, result.Err(), http.StatusUnprocessableEntity, runID)
			return
		}
		out.begin()
	}

	code := ""
	if err == nil {
		err = result.Err()
	}
	if err != nil {
		code = core.MapError(err).Code
	}
	w.Header().Set(trailerRunStatus, string(result.Phase))
	w.Header().Set(trailerRunReadings, strconv.Itoa(result.Readings))
	w.Header().Set(trailerRunCode, code)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Runs())
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.Run(chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

// statusFor picks the HTTP status for a conversion that failed before any
// output was written.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyConversions):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// upload is the NEM12 input of a convert request.
type upload struct {
	io.ReadCloser
	name string
	size int64 // 0 when unknown
}

// openUpload finds the file in a multipart body, or treats the whole body
// as the file. Multipart parts are streamed, never buffered to disk.
func openUpload(r *http.Request) (*upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		size := r.ContentLength
		if size < 0 {
			size = 0
		}
		return &upload{ReadCloser: r.Body, name: r.URL.Query().Get("name"), size: size}, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, http.ErrMissingFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadFormField {
			return &upload{ReadCloser: part, name: part.FileName()}, nil
		}
		part.Close()
	}
}

// sqlResponseWriter sets the SQL response headers on the first write, so a
// conversion that fails before producing output can still send an error.
type sqlResponseWriter struct {
	w        http.ResponseWriter
	fileName string
	started  bool
}

func (o *sqlResponseWriter) Write(p []byte) (int, error) {
	if !o.started {
		o.begin()
	}
	return o.w.Write(p)
}

func (o *sqlResponseWriter) begin() {
	o.started = true
	h := o.w.Header()
	h.Set("Content-Type", "application/sql; charset=utf-8")
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": sqlFileName(o.fileName),
	}))
	h.Set("Trailer", strings.Join([]string{trailerRunStatus, trailerRunReadings, trailerRunCode}, ", "))
	o.w.WriteHeader(http.StatusOK)
}

// sqlFileName derives the download name from the uploaded file name.
func sqlFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "output.sql"
	}
	return base + ".sql"
}
