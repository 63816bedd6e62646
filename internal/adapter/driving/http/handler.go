// Package httphandler is the minimal driving HTTP adapter that fronts the
// pipeline core: it posts async jobs referencing a phase + date-or-range +
// options, and lets callers poll job status. The CLI drives the same
// fetch/normalize/summarize operations directly; this adapter exposes them
// over HTTP for callers that want to trigger or poll a run remotely.
package httphandler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yongseopkim/workrecap/internal/adapter/driven/filestore"
	"github.com/yongseopkim/workrecap/internal/application"
	"github.com/yongseopkim/workrecap/internal/domain/model"
	"github.com/yongseopkim/workrecap/internal/scheduler"
)

// Handler is the HTTP driving adapter that serves the job API.
type Handler struct {
	fetcher      *application.Fetcher
	normalizer   *application.Normalizer
	summarizer   *application.Summarizer
	orchestrator *application.Orchestrator
	scheduler    *scheduler.Scheduler
	jobs         *application.JobStore
	store        *filestore.Store
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. scheduler
// may be nil when the daemon is run with the scheduler disabled.
func NewHandler(
	fetcher *application.Fetcher,
	normalizer *application.Normalizer,
	summarizer *application.Summarizer,
	orchestrator *application.Orchestrator,
	sched *scheduler.Scheduler,
	jobs *application.JobStore,
	store *filestore.Store,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		fetcher:      fetcher,
		normalizer:   normalizer,
		summarizer:   summarizer,
		orchestrator: orchestrator,
		scheduler:    sched,
		jobs:         jobs,
		store:        store,
		logger:       logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/jobs", h.CreateJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}/preview", h.PreviewJob)
	mux.HandleFunc("GET /api/v1/scheduler/status", h.SchedulerStatus)
	mux.HandleFunc("GET /api/v1/scheduler/history", h.SchedulerHistory)
	mux.HandleFunc("POST /api/v1/scheduler/trigger/{job}", h.SchedulerTrigger)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	return wrapped
}

// JobRequest is the POST /api/v1/jobs body: a phase plus a date-or-range
// selector plus pipeline options, mirroring the CLI's mutually exclusive
// date selectors.
type JobRequest struct {
	Phase   string   `json:"phase"` // fetch|normalize|summarize|run
	Date    string   `json:"date,omitempty"`
	Since   string   `json:"since,omitempty"`
	Until   string   `json:"until,omitempty"`
	Weekly  string   `json:"weekly,omitempty"`  // "YYYY-WW"
	Monthly string   `json:"monthly,omitempty"` // "YYYY-MM"
	Yearly  int      `json:"yearly,omitempty"`
	Force   bool     `json:"force,omitempty"`
	Types   []string `json:"type,omitempty"`
	Workers int      `json:"workers,omitempty"`
	Enrich  bool     `json:"enrich,omitempty"`
	Batch   bool     `json:"batch,omitempty"`
}

// JobResponse is the JSON representation of a job record.
type JobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func toJobResponse(job model.Job) JobResponse {
	return JobResponse{JobID: job.JobID, Status: string(job.Status), Result: job.Result, Error: job.Error}
}

// CreateJob accepts a JobRequest, registers a job, and runs it in the
// background. The response is 202 Accepted with the job's initial record;
// callers poll GetJob for completion.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}

	jobID := uuid.NewString()
	job := h.jobs.Create(jobID)

	go h.runJob(jobID, req)

	writeJSON(w, http.StatusAccepted, toJobResponse(job))
}

// GetJob returns the current status of a previously created job.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, ok := h.jobs.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

// PreviewJob renders a completed job's summary result as sanitized HTML.
// The job's Result field is treated as a filesystem path into the summaries
// tree when the job succeeded; any other state returns 409.
func (h *Handler) PreviewJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	job, ok := h.jobs.Get(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.Status != model.JobCompleted || job.Result == "" {
		writeError(w, http.StatusConflict, "job has no renderable result yet")
		return
	}

	markdown, found, err := h.store.ReadMarkdown(job.Result)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "summary file not found")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(renderMarkdown(markdown)))
}

// SchedulerStatus reports each cron trigger's enabled state and next run
// time, whether or not the scheduler is currently running.
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	running, entries := h.scheduler.Status()
	writeJSON(w, http.StatusOK, map[string]any{"running": running, "entries": entries})
}

// SchedulerHistory returns the scheduler's bounded in-memory event log.
func (h *Handler) SchedulerHistory(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	writeJSON(w, http.StatusOK, h.scheduler.History())
}

// SchedulerTrigger runs a named scheduler job synchronously, even if its
// cron trigger is disabled in configuration.
func (h *Handler) SchedulerTrigger(w http.ResponseWriter, r *http.Request) {
	if h.scheduler == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	job := r.PathValue("job")
	if err := h.scheduler.Trigger(r.Context(), job); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job": job, "status": "completed"})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// runJob executes req's pipeline phase to completion and records the
// outcome in the job store. Runs on its own goroutine per job.
func (h *Handler) runJob(jobID string, req JobRequest) {
	h.jobs.MarkRunning(jobID)
	ctx := context.Background()

	result, err := h.dispatch(ctx, req)
	if err != nil {
		h.logger.Warn("job failed", "job_id", jobID, "phase", req.Phase, "error", err)
		h.jobs.MarkFailed(jobID, err.Error())
		return
	}
	h.jobs.MarkCompleted(jobID, result)
}

func (h *Handler) dispatch(ctx context.Context, req JobRequest) (string, error) {
	workers := req.Workers
	if workers <= 0 {
		workers = 4
	}
	types := sourceTypes(req.Types)

	switch req.Phase {
	case "fetch":
		if req.Date != "" {
			paths, err := h.fetcher.Fetch(ctx, req.Date, types)
			if err != nil {
				return "", err
			}
			return summarizePaths(paths), nil
		}
		outcomes, err := h.fetcher.FetchRange(ctx, req.Since, req.Until, types, req.Force, nil, workers)
		return summarizeOutcomes(outcomes), err

	case "normalize":
		if req.Date != "" {
			n, err := h.normalizer.Normalize(ctx, req.Date, req.Enrich)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d activities", n), nil
		}
		outcomes, err := h.normalizer.NormalizeRange(ctx, req.Since, req.Until, req.Force, req.Enrich, workers, req.Batch)
		return summarizeOutcomes(outcomes), err

	case "summarize_daily":
		if req.Date != "" {
			path, err := h.summarizer.Daily(ctx, req.Date)
			return path, err
		}
		outcomes, err := h.summarizer.DailyRange(ctx, req.Since, req.Until, req.Force, workers)
		return summarizeOutcomes(outcomes), err

	case "summarize_weekly":
		year, week, err := parseYearWeek(req.Weekly)
		if err != nil {
			return "", err
		}
		return h.summarizer.Weekly(ctx, year, week)

	case "summarize_monthly":
		year, month, err := parseYearMonth(req.Monthly)
		if err != nil {
			return "", err
		}
		return h.summarizer.Monthly(ctx, year, month)

	case "summarize_yearly":
		return h.summarizer.Yearly(ctx, req.Yearly)

	case "run":
		if req.Date != "" {
			return h.orchestrator.RunDaily(ctx, req.Date, types, nil)
		}
		outcomes, err := h.orchestrator.RunRange(ctx, req.Since, req.Until, req.Force, types, workers, req.Batch, nil)
		return summarizeOutcomes(outcomes), err

	default:
		return "", fmt.Errorf("unknown job phase %q", req.Phase)
	}
}

func sourceTypes(types []string) []application.SourceType {
	if len(types) == 0 {
		return application.AllSources
	}
	out := make([]application.SourceType, 0, len(types))
	for _, t := range types {
		out = append(out, application.SourceType(t))
	}
	return out
}

func summarizePaths(paths map[string]string) string {
	parts := make([]string, 0, len(paths))
	for k, v := range paths {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ", ")
}

func summarizeOutcomes(outcomes []model.DateOutcome) string {
	var success, skipped, failed int
	for _, o := range outcomes {
		switch o.Status {
		case model.OutcomeSuccess:
			success++
		case model.OutcomeSkipped:
			skipped++
		case model.OutcomeFailed:
			failed++
		}
	}
	return fmt.Sprintf("%d succeeded / %d skipped / %d failed", success, skipped, failed)
}

// parseYearWeek parses "YYYY-WW" into its components.
func parseYearWeek(s string) (year, week int, err error) {
	year, week, err = parseYearSuffix(s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --weekly value %q, expected YYYY-WW: %w", s, err)
	}
	return year, week, nil
}

// parseYearMonth parses "YYYY-MM" into its components.
func parseYearMonth(s string) (year, month int, err error) {
	year, month, err = parseYearSuffix(s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid --monthly value %q, expected YYYY-MM: %w", s, err)
	}
	return year, month, nil
}

func parseYearSuffix(s string) (int, int, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected exactly one '-' separator")
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric year: %w", err)
	}
	suffix, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("non-numeric second component: %w", err)
	}
	return year, suffix, nil
}
