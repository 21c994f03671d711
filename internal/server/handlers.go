// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/pdiddy/ugc/internal/catalog"
	"github.com/pdiddy/ugc/internal/service"
	"github.com/pdiddy/ugc/pkg/types"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 32 << 20

// ConvertResponse is the body of a successful POST /api/convert.
type ConvertResponse struct {
	Success bool             `json:"success"`
	Files   []service.Output `json:"files"`
	Summary types.Summary    `json:"summary"`
}

// ErrorResponse is the body of any failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "ugc"})
}

// handleConvert handles POST /api/convert.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	format := types.FormatPNG
	if v := r.FormValue("format"); v != "" {
		f, err := types.ParseTargetFormat(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		format = f
	}

	headers := slices.Concat(r.MultipartForm.File["files"], r.MultipartForm.File["files[]"])
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("creating uploads directory: %v", err))
		return
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		up, err := s.saveUpload(fh)
		if err != nil {
			for _, u := range uploads {
				os.Remove(u.Path)
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		uploads = append(uploads, up)
	}

	log.Info().Int("files", len(uploads)).Str("format", string(format)).Msg("received files for conversion")

	outputs, _, summary, err := s.converter.ConvertUploads(r.Context(), uploads, format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if outputs == nil {
		outputs = []service.Output{}
	}
	writeJSON(w, http.StatusOK, ConvertResponse{Success: true, Files: outputs, Summary: summary})
}

// saveUpload stores one multipart file as {unixMillis}-{name} in the
// uploads directory.
func (s *Server) saveUpload(fh *multipart.FileHeader) (service.Upload, error) {
	base := SafeName(fh.Filename)
	if base == "" {
		return service.Upload{}, fmt.Errorf("invalid upload name %q", fh.Filename)
	}

	src, err := fh.Open()
	if err != nil {
		return service.Upload{}, fmt.Errorf("opening upload %s: %w", base, err)
	}
	defer src.Close()

	dst, path, err := s.createUploadFile(base)
	if err != nil {
		return service.Upload{}, fmt.Errorf("storing upload %s: %w", base, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return service.Upload{}, fmt.Errorf("storing upload %s: %w", base, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return service.Upload{}, fmt.Errorf("storing upload %s: %w", base, err)
	}
	return service.Upload{Name: base, Path: path}, nil
}

// createUploadFile creates a fresh {unixMillis}-{base} file. A name taken
// by an earlier upload in the same millisecond moves the stamp forward.
func (s *Server) createUploadFile(base string) (*os.File, string, error) {
	stamp := s.now().UnixMilli()
	for range 1000 {
		path := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("%d-%s", stamp, base))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
		stamp++
	}
	return nil, "", fmt.Errorf("no free upload name for %s", base)
}

// handleDownload handles GET /api/download/{filename}.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if SafeName(name) != name {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	path := filepath.Join(s.cfg.DownloadDir, name)
	if s.catalog != nil {
		entry, err := s.catalog.Lookup(r.Context(), name)
		switch {
		case err == nil:
			path = entry.Path
		case !errors.Is(err, catalog.ErrNotFound):
			hlog.FromRequest(r).Error().Err(err).Str("file", name).Msg("catalog lookup failed")
		}
	}

	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil || st.IsDir() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, st.ModTime(), f)
}

// SafeName reduces a client-supplied file name to its last path element.
// It returns "" for names with no usable element.
func SafeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
