// Package progress implements the Progress Reporter (spec §4.11): an
// aggregate view across all tasks and a per-task view with a "simple" or
// "detailed" detail level.
package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wessley-labs/docsingest/engine/domain"
)

// DetailLevel selects how much of a task's details are surfaced.
type DetailLevel string

const (
	DetailSimple   DetailLevel = "simple"
	DetailDetailed DetailLevel = "detailed"
)

// Lister is the subset of the Task Registry the reporter needs.
type Lister interface {
	List(ctx context.Context, prefix string) ([]domain.TaskRecord, error)
}

// RunningTask is one entry in a Summary's running-tasks list.
type RunningTask struct {
	TaskID          string        `json:"taskId"`
	Stage           domain.Stage  `json:"stage"`
	ProgressCurrent int           `json:"progressCurrent"`
	ProgressTotal   int           `json:"progressTotal"`
	Details         string        `json:"details"`
	Elapsed         time.Duration `json:"elapsedNanos"`
}

// Summary is the aggregate view across every task.
type Summary struct {
	TotalsByStatus map[domain.Status]int `json:"totalsByStatus"`
	Running        []RunningTask         `json:"running"`
}

// Summarize builds the aggregate Summary, grouping by status and listing
// every currently-running task with its elapsed time.
func Summarize(ctx context.Context, tasks Lister, now time.Time) (Summary, error) {
	all, err := tasks.List(ctx, "")
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{TotalsByStatus: map[domain.Status]int{}}
	for _, t := range all {
		summary.TotalsByStatus[t.Status]++
		if t.Status != domain.StatusRunning {
			continue
		}
		summary.Running = append(summary.Running, RunningTask{
			TaskID:          t.TaskID,
			Stage:           t.Stage,
			ProgressCurrent: t.ProgressCurrent,
			ProgressTotal:   t.ProgressTotal,
			Details:         t.Details,
			Elapsed:         now.Sub(time.UnixMilli(t.StartTime)),
		})
	}
	return summary, nil
}

// TaskView is the per-task response shape; Details holds either the raw
// record details (detailed) or a collapsed summary string (simple).
type TaskView struct {
	TaskID          string       `json:"taskId"`
	Status          domain.Status `json:"status"`
	Stage           domain.Stage  `json:"stage"`
	ProgressCurrent int          `json:"progressCurrent,omitempty"`
	ProgressTotal   int          `json:"progressTotal,omitempty"`
	Details         string       `json:"details"`
}

// View builds the per-task view for rec at the requested detail level.
func View(rec domain.TaskRecord, level DetailLevel) TaskView {
	view := TaskView{
		TaskID:          rec.TaskID,
		Status:          rec.Status,
		Stage:           rec.Stage,
		ProgressCurrent: rec.ProgressCurrent,
		ProgressTotal:   rec.ProgressTotal,
		Details:         rec.Details,
	}
	if level == DetailSimple {
		view.Details = collapseDetails(rec.Details)
	}
	return view
}

// collapseDetails implements spec §4.11's "simple" reduction: a
// JSON-structured details string collapses to its message/status field (or
// its stage name, for the stage-artifact JSON shape written after each
// stage completes); anything else passes through unchanged.
func collapseDetails(details string) string {
	if details == "" {
		return ""
	}
	var generic map[string]any
	if err := json.Unmarshal([]byte(details), &generic); err != nil {
		return details
	}
	if msg, ok := generic["message"].(string); ok {
		return msg
	}
	if status, ok := generic["status"].(string); ok {
		return status
	}
	if stage, ok := generic["stage"].(string); ok {
		return "completed stage: " + stage
	}
	return details
}
