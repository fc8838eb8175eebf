package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/huescheme/internal/analysis"
	"github.com/jmylchreest/huescheme/internal/cache"
	"github.com/jmylchreest/huescheme/internal/colour"
	"github.com/jmylchreest/huescheme/internal/image"
	"github.com/jmylchreest/huescheme/internal/metrics"
)

// Client-facing error messages.
const (
	msgNoImage       = "No image provided"
	msgInvalidType   = "Invalid file type. Please upload a JPG, PNG, or WebP image"
	msgAnalyzeFailed = "Failed to analyze image colors"
	msgBusy          = "Server busy, try again later"
)

// multipartOverhead is the slack allowed on top of the file limit for the
// multipart envelope and other form fields.
const multipartOverhead = 64 * 1024

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Write error is ignored - the client may have disconnected.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) sizeMessage() string {
	limit := s.config.MaxUploadBytes
	if limit%(1024*1024) == 0 {
		return fmt.Sprintf("File size exceeds %dMB limit", limit/(1024*1024))
	}
	return fmt.Sprintf("File size exceeds %d byte limit", limit)
}

func (s *Server) pixelsMessage() string {
	limit := s.config.MaxPixels
	if limit <= 0 {
		limit = image.DefaultMaxPixels
	}
	return fmt.Sprintf("Image dimensions exceed %d pixel limit", limit)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", RequestIDFromContext(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusBadRequest, s.sizeMessage())
			return
		}
		logger.Debug("no image in request", "error", err)
		writeError(w, http.StatusBadRequest, msgNoImage)
		return
	}
	defer file.Close()

	if header.Size > s.config.MaxUploadBytes {
		writeError(w, http.StatusBadRequest, s.sizeMessage())
		return
	}
	if !image.IsAllowedContentType(header.Header.Get("Content-Type")) {
		writeError(w, http.StatusBadRequest, msgInvalidType)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("failed to read upload", "error", err)
		writeError(w, http.StatusInternalServerError, msgAnalyzeFailed)
		return
	}
	metrics.RecordUpload(int64(len(data)))

	key := cache.Key(data, s.analyzer.Fingerprint())
	if result, ok := s.cached(r, key); ok {
		writeJSON(w, http.StatusOK, result)
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		writeError(w, http.StatusServiceUnavailable, msgBusy)
		return
	}
	result, err := s.analyze(r, data)
	s.sem.Release(1)

	if err != nil {
		switch {
		case errors.Is(err, colour.ErrInsufficientPixels):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, image.ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, msgInvalidType)
		case errors.Is(err, image.ErrTooLarge):
			writeError(w, http.StatusBadRequest, s.pixelsMessage())
		default:
			logger.Error("analysis failed", "file", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, msgAnalyzeFailed)
		}
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(r.Context(), key, result); err != nil {
			logger.Warn("failed to cache result", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// cached looks up a previous result. Cache errors are logged and treated
// as misses.
func (s *Server) cached(r *http.Request, key string) (*analysis.Result, bool) {
	if s.cache == nil {
		return nil, false
	}

	result, err := s.cache.Get(r.Context(), key)
	switch {
	case err == nil:
		metrics.RecordCacheLookup("hit")
		return result, true
	case errors.Is(err, cache.ErrMiss):
		metrics.RecordCacheLookup("miss")
	default:
		metrics.RecordCacheLookup("error")
		s.logger.Warn("cache lookup failed", "error", err)
	}
	return nil, false
}

// analyze decodes and analyses an upload while holding a concurrency slot.
func (s *Server) analyze(r *http.Request, data []byte) (*analysis.Result, error) {
	metrics.AnalysisStarted()
	defer metrics.AnalysisFinished()

	start := time.Now()
	algorithm := string(s.analyzer.Algorithm())

	img, _, err := image.DecodeBytes(data, s.config.MaxPixels)
	if err != nil {
		metrics.RecordAnalysis(algorithm, "error", time.Since(start).Seconds())
		return nil, err
	}

	result, err := s.analyzer.AnalyzeImage(r.Context(), img)
	if err != nil {
		metrics.RecordAnalysis(algorithm, "error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordAnalysis(algorithm, "success", time.Since(start).Seconds())
	return result, nil
}
