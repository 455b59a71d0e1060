package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/engine/orchestrator"
	"github.com/wessley-labs/docsingest/engine/progress"
	"github.com/wessley-labs/docsingest/engine/registry"
	"github.com/wessley-labs/docsingest/engine/restart"
	"github.com/wessley-labs/docsingest/pkg/mid"
)

// deps bundles the handlers' collaborators: the operator/tool surface
// (spec §6.3) is exposed as plain Go methods on these types elsewhere in
// the repo; this file is just HTTP framing around them, grounded on
// cmd/api/main.go's mux-plus-handler-closure style.
type deps struct {
	orch     *orchestrator.Orchestrator
	registry *registry.Registry
	logger   *slog.Logger
}

func newMux(d deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /v1/tasks", handleSubmitTasks(d))
	mux.HandleFunc("GET /v1/tasks", handleListTasks(d))
	mux.HandleFunc("GET /v1/tasks/{id}", handleGetTask(d))
	mux.HandleFunc("GET /v1/tasks/{id}/details", handleTaskDetails(d))
	mux.HandleFunc("POST /v1/tasks/{id}/cancel", handleCancelTask(d))
	mux.HandleFunc("POST /v1/tasks/cancel-all", handleCancelAll(d))
	mux.HandleFunc("POST /v1/tasks/cleanup", handleCleanupTasks(d))
	mux.HandleFunc("GET /v1/tasks/{id}/restart-plan", handleRestartPlan(d))
	mux.HandleFunc("GET /v1/progress", handleProgress(d))
	mux.Handle("GET /metrics", d.orch.Metrics.Handler())
	return mux
}

func buildHTTPHandler(d deps, corsOrigin string) http.Handler {
	return mid.Chain(newMux(d),
		mid.Recover(d.logger),
		mid.Logger(d.logger),
		mid.CORS(corsOrigin),
	)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case isValidationLike(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isValidationLike(err error) bool {
	var verr *domain.ValidationError
	if as(err, &verr) {
		return true
	}
	return false
}

// as is a tiny errors.As wrapper kept local to avoid importing "errors"
// just for this one call site in multiple handlers.
func as(err error, target **domain.ValidationError) bool {
	for err != nil {
		if v, ok := err.(*domain.ValidationError); ok {
			*target = v
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// handleSubmitTasks implements the "single get_llms_full-equivalent entry
// point accepting an array of Request objects" from spec §6.3.
func handleSubmitTasks(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reqs []domain.Request
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		type submitResult struct {
			TaskID string `json:"taskId,omitempty"`
			Error  string `json:"error,omitempty"`
		}
		results := make([]submitResult, len(reqs))
		for i, req := range reqs {
			taskID, err := d.orch.Submit(r.Context(), req)
			if err != nil {
				results[i] = submitResult{Error: err.Error()}
				continue
			}
			results[i] = submitResult{TaskID: taskID}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

func handleListTasks(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		tasks, err := d.registry.List(r.Context(), prefix)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tasks)
	}
}

func handleGetTask(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		rec, ok := d.registry.Get(r.Context(), id)
		if !ok {
			writeError(w, http.StatusNotFound, domain.ErrTaskNotFound)
			return
		}
		level := progress.DetailSimple
		if r.URL.Query().Get("detail") == "detailed" {
			level = progress.DetailDetailed
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(progress.View(rec, level))
	}
}

func handleTaskDetails(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		rec, ok := d.registry.Get(r.Context(), id)
		if !ok {
			writeError(w, http.StatusNotFound, domain.ErrTaskNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(rec.Details))
	}
}

func handleCancelTask(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := d.registry.Get(r.Context(), id); !ok {
			writeError(w, http.StatusNotFound, domain.ErrTaskNotFound)
			return
		}
		if err := d.registry.SetStatus(r.Context(), id, domain.StatusCancelled); err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCancelAll(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := d.registry.List(r.Context(), "")
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		n := 0
		for _, t := range tasks {
			if t.Status.Terminal() {
				continue
			}
			if err := d.registry.SetStatus(r.Context(), t.TaskID, domain.StatusCancelled); err != nil {
				d.logger.Warn("cancel-all: set status", "taskId", t.TaskID, "error", err)
				continue
			}
			n++
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"cancelled": n})
	}
}

func handleCleanupTasks(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := d.registry.Cleanup(r.Context(), nil)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"removed": n})
	}
}

func handleRestartPlan(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		rec, ok := d.registry.Get(r.Context(), id)
		if !ok {
			writeError(w, http.StatusNotFound, domain.ErrTaskNotFound)
			return
		}
		stage := restart.Stage(r.URL.Query().Get("stage"))
		plan, err := restart.Plan(rec, stage)
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(plan)
	}
}

func handleProgress(d deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := progress.Summarize(r.Context(), progressLister{d.registry}, time.Now())
		if err != nil {
			writeError(w, statusForError(err), err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// progressLister adapts *registry.Registry to progress.Lister.
type progressLister struct {
	r *registry.Registry
}

func (p progressLister) List(ctx context.Context, prefix string) ([]domain.TaskRecord, error) {
	return p.r.List(ctx, prefix)
}
