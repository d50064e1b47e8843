package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/registrar"
	"github.com/tsawler/registrar/format"
	"github.com/tsawler/registrar/internal/store"
)

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleUpload accepts a multipart "file" part, cleans it, and streams
// the cleaned document back as an attachment. Every upload is recorded
// in the history store, successful or not.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	f := format.Detect(name)
	if f == format.Unknown {
		writeError(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	jobID := uuid.NewString()
	logger := s.logger.With("job_id", jobID, "filename", name)

	inPath, err := s.saveUpload(jobID+"_"+name, file)
	if err != nil {
		logger.Error("saving upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server encountered an error")
		return
	}
	defer os.Remove(inPath)

	if err := s.db.Insert(jobID, name, f.String()); err != nil {
		logger.Error("recording job failed", "error", err)
	}

	outName := convertedName(name, f)
	outPath := filepath.Join(s.cfg.OutputDir, jobID+"_"+outName)
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		logger.Error("creating output dir failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server encountered an error")
		return
	}

	logger.Info("upload received", "format", f.String(), "size", header.Size)

	start := time.Now()
	proc := registrar.Open(inPath)
	if s.cfg.RulesFile != "" {
		proc = proc.RulesFile(s.cfg.RulesFile)
	}
	rpt, warnings, err := proc.Clean(outPath)
	if err != nil {
		s.finishJob(logger, jobID, store.Outcome{Err: err.Error(), Duration: time.Since(start)})
		if errors.Is(err, registrar.ErrNoTables) {
			writeError(w, http.StatusUnprocessableEntity, "No tables found in document")
			return
		}
		logger.Error("processing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "File processing failed")
		return
	}

	for _, warn := range warnings {
		logger.Warn("table warning", "table", warn.Table, "message", warn.Message)
	}

	s.finishJob(logger, jobID, store.Outcome{
		Tables:     len(rpt.Tables),
		Records:    rpt.Records,
		Duplicates: rpt.Duplicates,
		NoiseOnly:  rpt.NoiseOnly,
		Markers:    rpt.Markers,
		Cleaned:    rpt.Cleaned,
		Duration:   time.Since(start),
	})
	logger.Info("document cleaned",
		"records", rpt.Records,
		"duplicates", rpt.Duplicates,
		"noise_only", rpt.NoiseOnly,
		"duration_ms", time.Since(start).Milliseconds())

	w.Header().Set("Content-Type", contentTypeFor(outName))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outName))
	http.ServeFile(w, r, outPath)
}

// saveUpload copies an uploaded part into the temp dir and returns the
// path it was written to.
func (s *Server) saveUpload(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(s.cfg.TempDir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", err
	}
	return dst, out.Close()
}

func (s *Server) finishJob(logger *slog.Logger, id string, out store.Outcome) {
	if err := s.db.Finish(id, out); err != nil {
		logger.Error("recording job outcome failed", "error", err)
	}
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename reduces an uploaded filename to a safe base name,
// stripping path components and unexpected characters.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	return strings.Trim(name, "._")
}

// convertedName names the cleaned download. HTML and PDF inputs are
// read-only, so their cleaned copies come back as DOCX.
func convertedName(name string, f format.Format) string {
	switch f {
	case format.HTML, format.PDF:
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".docx"
	}
	return "converted_" + name
}

func contentTypeFor(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return mimeXLSX
	}
	return mimeDOCX
}
