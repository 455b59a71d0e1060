// Package restart implements the Restart Planner (spec §4.10): given a
// failed task's stored details and the stage to resume from, it constructs
// the exact Request payload a caller would resubmit. The planner never
// executes a stage itself.
package restart

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/wessley-labs/docsingest/engine/domain"
)

// Stage identifies which stage a restart should resume at.
type Stage string

const (
	StageDiscovery  Stage = "discovery"
	StageFetch      Stage = "fetch"
	StageSynthesize Stage = "synthesize"
	StageEmbed      Stage = "embed"
)

// artifactFields is the union of every stage result's JSON fields, used to
// unmarshal whichever stage produced TaskRecord.Details without knowing its
// concrete type ahead of time.
type artifactFields struct {
	SourcesFilePath    string `json:"sourcesFilePath"`
	FetchOutputDirPath string `json:"fetchOutputDirPath"`
	SummaryFilePath    string `json:"summaryFilePath"`
	Category           string `json:"category"`
	OriginalInput      string `json:"originalInput"`
	IsSourceLocal      bool   `json:"isSourceLocal"`
}

type storedDetails struct {
	Stage  string         `json:"stage"`
	Result artifactFields `json:"result"`
}

// originalInputRe recovers originalInput from a details string that failed
// to parse as JSON (e.g. a plain failure description), per spec §4.10.
var originalInputRe = regexp.MustCompile(`originalInput["']?\s*[:=]\s*"?([^",}\s]+)`)

// Plan builds the Request to resubmit for restarting rec at stage.
func Plan(rec domain.TaskRecord, stage Stage) (domain.Request, error) {
	details, parsedOK := parseDetails(rec.Details)

	switch stage {
	case StageDiscovery:
		originalInput := details.Result.OriginalInput
		if originalInput == "" && !parsedOK {
			if m := originalInputRe.FindStringSubmatch(rec.Details); m != nil {
				originalInput = m[1]
			}
		}
		if originalInput == "" {
			return domain.Request{}, missingArtifactErr(StageDiscovery, "original input")
		}
		category := rec.Category
		if category == "" {
			category = details.Result.Category
		}
		if category == "" {
			return domain.Request{}, fmt.Errorf("restart: %w", domain.ErrUnknownCategory)
		}
		return domain.Request{Category: category, TopicOrURL: originalInput}, nil

	case StageFetch:
		if !parsedOK || details.Stage != string(domain.StageDiscovery) {
			return domain.Request{}, missingArtifactErr(StageDiscovery, "discovery result")
		}
		if details.Result.SourcesFilePath == "" {
			return domain.Request{}, missingArtifactErr(StageDiscovery, "discovery sources file path")
		}
		return domain.Request{
			Category:                category(rec, details),
			DiscoveryOutputFilePath: details.Result.SourcesFilePath,
		}, nil

	case StageSynthesize:
		if !parsedOK || details.Stage != string(domain.StageFetch) {
			return domain.Request{}, missingArtifactErr(StageFetch, "fetch result")
		}
		if details.Result.FetchOutputDirPath == "" {
			return domain.Request{}, missingArtifactErr(StageFetch, "fetch output directory")
		}
		return domain.Request{
			Category:           category(rec, details),
			FetchOutputDirPath: details.Result.FetchOutputDirPath,
		}, nil

	case StageEmbed:
		if !parsedOK || details.Stage != string(domain.StageSynthesize) {
			return domain.Request{}, missingArtifactErr(StageSynthesize, "synthesize result")
		}
		if details.Result.SummaryFilePath == "" {
			return domain.Request{}, missingArtifactErr(StageSynthesize, "synthesize summary file")
		}
		return domain.Request{
			Category:                   category(rec, details),
			SynthesizedContentFilePath: details.Result.SummaryFilePath,
		}, nil

	default:
		return domain.Request{}, fmt.Errorf("restart: %w: unknown restart stage %q", domain.ErrInvalidRequest, stage)
	}
}

func category(rec domain.TaskRecord, details storedDetails) string {
	if rec.Category != "" {
		return rec.Category
	}
	return details.Result.Category
}

func parseDetails(raw string) (storedDetails, bool) {
	var d storedDetails
	if raw == "" {
		return d, false
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return d, false
	}
	return d, true
}

// missingArtifactErr reports which earlier stage must be restarted instead,
// per spec §4.10's "structured error naming the earlier stage" requirement.
func missingArtifactErr(needed Stage, what string) error {
	return fmt.Errorf("restart: %w: missing %s; restart from %q instead", domain.ErrMissingPriorArtifact, what, needed)
}
