package restart

import (
	"errors"
	"testing"

	"github.com/wessley-labs/docsingest/engine/domain"
)

func TestPlan_DiscoveryFromOriginalInput(t *testing.T) {
	rec := domain.TaskRecord{
		Category: "honda",
		Details:  `{"stage":"Fetch","result":{"fetchOutputDirPath":"data/fetch_output/t1","category":"honda","originalInput":"https://example.com/manual"}}`,
	}
	req, err := Plan(rec, StageDiscovery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TopicOrURL != "https://example.com/manual" || req.Category != "honda" {
		t.Fatalf("got %+v", req)
	}
}

func TestPlan_DiscoveryRecoversFromMalformedJSON(t *testing.T) {
	rec := domain.TaskRecord{
		Category: "honda",
		Details:  `failed while fetching: originalInput="https://example.com/manual" category=honda`,
	}
	req, err := Plan(rec, StageDiscovery)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TopicOrURL != "https://example.com/manual" {
		t.Fatalf("got %+v", req)
	}
}

func TestPlan_FetchRequiresDiscoveryResult(t *testing.T) {
	rec := domain.TaskRecord{
		Category: "honda",
		Details:  `{"stage":"Synthesize","result":{"summaryFilePath":"data/synthesize_output/t1-summary.md"}}`,
	}
	_, err := Plan(rec, StageFetch)
	if !errors.Is(err, domain.ErrMissingPriorArtifact) {
		t.Fatalf("expected ErrMissingPriorArtifact, got %v", err)
	}
}

func TestPlan_FetchFromDiscoveryResult(t *testing.T) {
	rec := domain.TaskRecord{
		Category: "honda",
		Details:  `{"stage":"Discovery","result":{"sourcesFilePath":"data/discovery_output/t1-sources.json","category":"honda"}}`,
	}
	req, err := Plan(rec, StageFetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.DiscoveryOutputFilePath != "data/discovery_output/t1-sources.json" {
		t.Fatalf("got %+v", req)
	}
}

func TestPlan_SynthesizeFromFetchResult(t *testing.T) {
	rec := domain.TaskRecord{
		Category: "honda",
		Details:  `{"stage":"Fetch","result":{"fetchOutputDirPath":"data/fetch_output/t1","category":"honda"}}`,
	}
	req, err := Plan(rec, StageSynthesize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.FetchOutputDirPath != "data/fetch_output/t1" {
		t.Fatalf("got %+v", req)
	}
}

func TestPlan_EmbedFromSynthesizeResult(t *testing.T) {
	rec := domain.TaskRecord{
		Category: "honda",
		Details:  `{"stage":"Synthesize","result":{"summaryFilePath":"data/synthesize_output/t1-summary.md","category":"honda"}}`,
	}
	req, err := Plan(rec, StageEmbed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.SynthesizedContentFilePath != "data/synthesize_output/t1-summary.md" {
		t.Fatalf("got %+v", req)
	}
}

func TestPlan_EmbedRequiresSynthesizeResult(t *testing.T) {
	rec := domain.TaskRecord{
		Category: "honda",
		Details:  `{"stage":"Fetch","result":{"fetchOutputDirPath":"data/fetch_output/t1"}}`,
	}
	_, err := Plan(rec, StageEmbed)
	if !errors.Is(err, domain.ErrMissingPriorArtifact) {
		t.Fatalf("expected ErrMissingPriorArtifact, got %v", err)
	}
}

func TestPlan_UnknownCategoryForDiscoveryRestart(t *testing.T) {
	rec := domain.TaskRecord{
		Details: `{"stage":"Fetch","result":{"originalInput":"https://example.com/manual"}}`,
	}
	_, err := Plan(rec, StageDiscovery)
	if !errors.Is(err, domain.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestPlan_UnknownRestartStage(t *testing.T) {
	rec := domain.TaskRecord{Category: "honda", Details: `{}`}
	_, err := Plan(rec, Stage("bogus"))
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
