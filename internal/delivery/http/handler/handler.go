package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/delivery/http/request"
	"github.com/user/rental-crawler/internal/delivery/http/response"
	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/usecase"
)

const (
	defaultFailureLimit = 100
	maxFailureLimit     = 1000
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	jobManager usecase.JobManager
	checks     map[string]HealthCheck
	logger     *zap.Logger
}

func NewHandler(jobManager usecase.JobManager, checks map[string]HealthCheck, logger *zap.Logger) *Handler {
	return &Handler{
		jobManager: jobManager,
		checks:     checks,
		logger:     logger,
	}
}

func (h *Handler) HandleSubmitJobs(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitJobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.jobManager.Submit(r.Context(), req.Keywords, req.Force)
	switch {
	case errors.Is(err, usecase.ErrNoKeywords):
		h.writeJSONError(w, "Keywords list cannot be empty", http.StatusBadRequest)
		return
	case errors.Is(err, usecase.ErrAllRecentlyCrawled):
		h.writeJSON(w, http.StatusConflict, response.SubmitJobsResponse{
			Status:   "skipped",
			Message:  err.Error(),
			Accepted: []string{},
			Skipped:  result.Skipped,
		})
		return
	case err != nil:
		h.logger.Error("failed to submit keywords", zap.Strings("keywords", req.Keywords), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	skipped := result.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	h.writeJSON(w, http.StatusAccepted, response.SubmitJobsResponse{
		Status:   "success",
		Message:  "Keywords queued for crawling",
		Accepted: result.Accepted,
		Skipped:  skipped,
	})
}

func (h *Handler) HandleGetJobStatus(w http.ResponseWriter, r *http.Request) {
	keyword, ok := h.keywordParam(w, r)
	if !ok {
		return
	}

	status, err := h.jobManager.GetStatus(r.Context(), keyword)
	if errors.Is(err, usecase.ErrKeywordNeverCrawled) {
		h.writeJSONError(w, "Crawl status not found for the given keyword", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get crawl status", zap.String("keyword", keyword), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewCrawlStatusResponse(status))
}

func (h *Handler) HandleGetRecords(w http.ResponseWriter, r *http.Request) {
	keyword, ok := h.keywordParam(w, r)
	if !ok {
		return
	}

	records, err := h.jobManager.Records(r.Context(), keyword)
	if err != nil {
		h.logger.Error("failed to load records", zap.String("keyword", keyword), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []entity.ListingRecord{}
	}
	h.writeJSON(w, http.StatusOK, response.RecordsResponse{Keyword: keyword, Count: len(records), Records: records})
}

func (h *Handler) HandleGetFailures(w http.ResponseWriter, r *http.Request) {
	keyword, ok := h.keywordParam(w, r)
	if !ok {
		return
	}
	limit := defaultFailureLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxFailureLimit {
			h.writeJSONError(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	failures, err := h.jobManager.Failures(r.Context(), keyword, limit)
	if err != nil {
		h.logger.Error("failed to load failures", zap.String("keyword", keyword), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if failures == nil {
		failures = []entity.Failure{}
	}
	h.writeJSON(w, http.StatusOK, response.FailuresResponse{Keyword: keyword, Failures: failures})
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok", Components: map[string]string{}}
	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", zap.String("component", name), zap.Error(err))
			resp.Components[name] = "down"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "up"
	}
	h.writeJSON(w, code, resp)
}

func (h *Handler) keywordParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		h.writeJSONError(w, "keyword query parameter is required", http.StatusBadRequest)
		return "", false
	}
	return keyword, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
