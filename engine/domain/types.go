package domain

import "time"

// Status is a TaskRecord's lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Stage identifies a pipeline stage, or None when a task has not started.
type Stage string

const (
	StageNone       Stage = "None"
	StageDiscovery  Stage = "Discovery"
	StageFetch      Stage = "Fetch"
	StageSynthesize Stage = "Synthesize"
	StageEmbed      Stage = "Embed"
	StageCleanup    Stage = "Cleanup"
)

// TaskRecord is the unit tracked by the Task Registry.
//
// Invariants: EndTime is zero iff Status is Queued or Running; once
// terminal, Details is never overwritten by a later status change; a
// terminal status never transitions back to a non-terminal one;
// ProgressCurrent <= ProgressTotal whenever both are non-zero.
type TaskRecord struct {
	TaskID          string `json:"taskId"`
	Status          Status `json:"status"`
	Details         string `json:"details"`
	Stage           Stage  `json:"stage"`
	StartTime       int64  `json:"startTime"`
	EndTime         int64  `json:"endTime,omitempty"`
	ProgressCurrent int    `json:"progressCurrent,omitempty"`
	ProgressTotal   int    `json:"progressTotal,omitempty"`

	// Category is carried alongside the fields above so it survives into
	// restart requests without round-tripping through Details every time.
	Category string `json:"category"`
}

// ETA computes the estimated completion time, or the zero Time if the
// preconditions (running, positive progress, positive elapsed time) don't hold.
func (t TaskRecord) ETA(now time.Time) time.Time {
	if t.Status != StatusRunning || t.ProgressCurrent <= 0 || t.ProgressTotal <= 0 {
		return time.Time{}
	}
	started := time.UnixMilli(t.StartTime)
	elapsed := now.Sub(started)
	if elapsed <= 0 {
		return time.Time{}
	}
	perUnit := elapsed / time.Duration(t.ProgressCurrent)
	remaining := perUnit * time.Duration(t.ProgressTotal-t.ProgressCurrent)
	return now.Add(remaining)
}

// StopAfterStage restricts how far a Request's pipeline runs.
type StopAfterStage string

const (
	StopAfterNone       StopAfterStage = ""
	StopAfterDiscovery  StopAfterStage = "discovery"
	StopAfterFetch      StopAfterStage = "fetch"
	StopAfterSynthesize StopAfterStage = "synthesize"
)

// Request is a single sub-request; a caller submits an array of these.
type Request struct {
	Category string `json:"category"`

	// Exactly one of the following four must be set.
	TopicOrURL                 string `json:"topic_or_url,omitempty"`
	DiscoveryOutputFilePath     string `json:"discovery_output_file_path,omitempty"`
	FetchOutputDirPath          string `json:"fetch_output_dir_path,omitempty"`
	SynthesizedContentFilePath  string `json:"synthesized_content_file_path,omitempty"`

	CrawlDepth  int `json:"crawl_depth,omitempty"`
	MaxURLs     int `json:"max_urls,omitempty"`
	MaxLLMCalls int `json:"max_llm_calls,omitempty"`

	StopAfterStage StopAfterStage `json:"stop_after_stage,omitempty"`
}

// startingInputCount returns how many of the four mutually-exclusive
// starting-input fields are non-empty.
func (r Request) startingInputCount() int {
	n := 0
	if r.TopicOrURL != "" {
		n++
	}
	if r.DiscoveryOutputFilePath != "" {
		n++
	}
	if r.FetchOutputDirPath != "" {
		n++
	}
	if r.SynthesizedContentFilePath != "" {
		n++
	}
	return n
}

// Validate checks a Request against the invariants in spec §3.2/§8.
func (r Request) Validate() error {
	if r.Category == "" {
		return NewValidationError("category", r.Category, ErrInvalidRequest)
	}
	switch n := r.startingInputCount(); {
	case n == 0:
		return NewValidationError("starting_input", "", ErrNoStartingInput)
	case n > 1:
		return NewValidationError("starting_input", "", ErrMultipleStartingInputs)
	}
	switch r.StopAfterStage {
	case StopAfterNone, StopAfterDiscovery, StopAfterFetch, StopAfterSynthesize:
	default:
		return NewValidationError("stop_after_stage", string(r.StopAfterStage), ErrInvalidRequest)
	}
	return nil
}

// StageResult is the marker interface implemented by each stage's typed
// result, the variant type behind the Details tagged union.
type StageResult interface {
	stageResult()
}

// DiscoveryResult is the Discovery stage's artifact metadata.
type DiscoveryResult struct {
	SourcesFilePath string `json:"sourcesFilePath"`
	Category        string `json:"category"`
	IsSourceLocal   bool   `json:"isSourceLocal"`
	OriginalInput   string `json:"originalInput"`
}

func (DiscoveryResult) stageResult() {}

// FetchResult is the Fetch stage's artifact metadata.
type FetchResult struct {
	FetchOutputDirPath string `json:"fetchOutputDirPath"`
	Category           string `json:"category"`
	OriginalInput      string `json:"originalInput"`
	SourceCount        int    `json:"sourceCount"`
}

func (FetchResult) stageResult() {}

// SynthesizeResult is the Synthesize stage's artifact metadata.
type SynthesizeResult struct {
	SummaryFilePath string `json:"summaryFilePath"`
	Category        string `json:"category"`
	OriginalInput   string `json:"originalInput"`
}

func (SynthesizeResult) stageResult() {}

// Details is the on-disk tagged union written into TaskRecord.Details.
type Details struct {
	Stage  string `json:"stage"`
	Result any    `json:"result"`
}

// VectorPoint is a record consumed by the embed stage.
type VectorPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}
