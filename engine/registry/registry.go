// Package registry implements the Task Registry (spec §4.1): an in-memory
// taskId -> TaskRecord map, periodically serialized for crash recovery, with
// ETA computation and "X/Y" progress-string parsing.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/wessley-labs/docsingest/engine/domain"
	"github.com/wessley-labs/docsingest/pkg/natsutil"
	"github.com/wessley-labs/docsingest/pkg/repo"
)

// TaskEvent is published to the internal event bus whenever a task is
// registered or its status or stage changes,
// grounded on pkg/natsutil's generic Publish and the embedded-NATS pattern
// in engine/ingest/ingest_test.go's startNATS2 helper (see DESIGN.md).
type TaskEvent struct {
	TaskID string       `json:"taskId"`
	Status domain.Status `json:"status"`
	Stage  domain.Stage  `json:"stage"`
}

// EventSubject is the NATS subject TaskEvents are published to.
const EventSubject = "docsingest.tasks.events"

// Registry is the Task Registry. All mutating methods persist the full map
// via store; Register, SetStatus and SetStage also best-effort publish a
// TaskEvent, while UpdateDetails and Cleanup publish none.
type Registry struct {
	store  repo.Repository[domain.TaskRecord, string]
	nc     *nats.Conn
	logger *slog.Logger
	clock  func() time.Time
}

// New builds a Registry over the given store. nc may be nil, in which case
// events are not published (no external broker required, per the
// single-process Non-goal).
func New(store repo.Repository[domain.TaskRecord, string], nc *nats.Conn, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, nc: nc, logger: logger, clock: time.Now}
}

// Register assigns "<prefix>-<uuid>", inserts a record with status queued,
// and persists it.
func (r *Registry) Register(ctx context.Context, prefix, category string) (string, error) {
	taskID := prefix + "-" + uuid.NewString()
	rec := domain.TaskRecord{
		TaskID:    taskID,
		Status:    domain.StatusQueued,
		Stage:     domain.StageNone,
		StartTime: r.clock().UnixMilli(),
		Category:  category,
	}
	if _, err := r.store.Create(ctx, rec); err != nil {
		return "", err
	}
	r.publish(rec)
	return taskID, nil
}

// SetStatus enforces the terminal-state machine: endTime is set on first
// transition to a terminal state; details is never overwritten on a
// terminal transition; transition back from terminal is disallowed.
func (r *Registry) SetStatus(ctx context.Context, taskID string, status domain.Status) error {
	rec, err := r.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if rec.Status.Terminal() {
		return domain.ErrTerminalTransition
	}
	rec.Status = status
	if status.Terminal() {
		rec.EndTime = r.clock().UnixMilli()
	}
	if _, err := r.store.Update(ctx, rec); err != nil {
		return err
	}
	r.publish(rec)
	return nil
}

// UpdateDetails replaces details and re-derives progressCurrent/progressTotal
// from any "X/Y" substring found in text. Permitted in any non-terminal state.
func (r *Registry) UpdateDetails(ctx context.Context, taskID, text string) error {
	rec, err := r.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if rec.Status.Terminal() {
		return domain.ErrTerminalTransition
	}
	rec.Details = text
	if current, total, ok := domain.ParseProgressFraction(text); ok {
		rec.ProgressCurrent = current
		rec.ProgressTotal = total
	} else {
		rec.ProgressCurrent = 0
		rec.ProgressTotal = 0
	}
	_, err = r.store.Update(ctx, rec)
	return err
}

// SetStage updates the current stage label.
func (r *Registry) SetStage(ctx context.Context, taskID string, stage domain.Stage) error {
	rec, err := r.store.Get(ctx, taskID)
	if err != nil {
		return err
	}
	rec.Stage = stage
	if _, err := r.store.Update(ctx, rec); err != nil {
		return err
	}
	r.publish(rec)
	return nil
}

// IsCancelled implements engine/pipeline.CancelChecker.
func (r *Registry) IsCancelled(taskID string) bool {
	rec, err := r.store.Get(context.Background(), taskID)
	if err != nil {
		return false
	}
	return rec.Status == domain.StatusCancelled
}

// Get returns the task record for taskID, or false if unknown.
func (r *Registry) Get(ctx context.Context, taskID string) (domain.TaskRecord, bool) {
	rec, err := r.store.Get(ctx, taskID)
	if err != nil {
		return domain.TaskRecord{}, false
	}
	return rec, true
}

// List returns all tasks whose id has the given prefix ("" lists all).
func (r *Registry) List(ctx context.Context, prefix string) ([]domain.TaskRecord, error) {
	return r.store.List(ctx, repo.ListOpts{Filter: map[string]any{"prefix": prefix}})
}

// Cleanup removes every task record for which filter returns true, and
// returns the number removed. filter is only ever invoked for terminal
// tasks, matching spec §4.1 ("removes records whose status is terminal").
func (r *Registry) Cleanup(ctx context.Context, filter func(domain.TaskRecord) bool) (int, error) {
	all, err := r.store.List(ctx, repo.ListOpts{})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range all {
		if !t.Status.Terminal() {
			continue
		}
		if filter != nil && !filter(t) {
			continue
		}
		if err := r.store.Delete(ctx, t.TaskID); err != nil {
			r.logger.Error("cleanup delete", "taskId", t.TaskID, "error", err)
			continue
		}
		n++
	}
	return n, nil
}

// ETA computes the estimated completion time for taskID, or the zero Time
// when preconditions don't hold or the task is unknown.
func (r *Registry) ETA(taskID string) time.Time {
	rec, ok := r.Get(context.Background(), taskID)
	if !ok {
		return time.Time{}
	}
	return rec.ETA(r.clock())
}

func (r *Registry) publish(rec domain.TaskRecord) {
	if r.nc == nil {
		return
	}
	if err := natsutil.Publish(context.Background(), r.nc, EventSubject, TaskEvent{
		TaskID: rec.TaskID, Status: rec.Status, Stage: rec.Stage,
	}); err != nil {
		r.logger.Warn("publish task event", "taskId", rec.TaskID, "error", err)
	}
}
