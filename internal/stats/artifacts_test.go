package stats

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"noisyoracle/internal/record"
)

func sampleRounds() []record.Round {
	return []record.Round{
		{Replicate: 0, Round: 1, Cost: 4, Evals: 20, R2: 0.5, BestTrue: 0.4},
		{Replicate: 0, Round: 2, Cost: 8, Evals: 40, R2: 0.6, BestTrue: 0.8},
		{Replicate: 1, Round: 1, Cost: 4, Evals: 20, R2: 0.3, BestTrue: 0.2},
		{Replicate: 1, Round: 2, Cost: 8, Evals: 40, R2: 0.4, BestTrue: 0.6},
	}
}

func TestWriteReadAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	cfg := RunConfig{
		RunID:          "run-123",
		Landscape:      "pwm.L8.s1",
		ModelKind:      "noisy",
		ModelType:      "NAMb_ss0.9",
		SignalStrength: 0.9,
		Cache:          true,
		Replicates:     2,
		Rounds:         2,
		Seed:           1,
	}
	rounds := sampleRounds()
	summary, err := BuildBenchmarkSummary(cfg, rounds)
	if err != nil {
		t.Fatalf("build summary: %v", err)
	}
	artifacts := RunArtifacts{
		Config:       cfg,
		BestByRound:  MeanBestByRound(rounds),
		Rounds:       rounds,
		TopSequences: []record.ScoredSequence{{Rank: 1, Sequence: "ACGTACGT", Fitness: 0.8}},
		Summary:      summary,
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	for _, file := range []string{"config.json", "fitness_history.json", "rounds.json", "top_sequences.json", "benchmark_summary.json", "benchmark_series.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	loaded, ok, err := ReadRunArtifacts(baseDir, "run-123")
	if err != nil {
		t.Fatalf("read artifacts: %v", err)
	}
	if !ok {
		t.Fatal("expected artifacts to exist")
	}
	if loaded.Config.ModelType != "NAMb_ss0.9" || len(loaded.Rounds) != 4 || loaded.TopSequences[0].Sequence != "ACGTACGT" {
		t.Fatalf("unexpected artifacts: %+v", loaded)
	}
	if len(loaded.BestByRound) != 2 || math.Abs(loaded.BestByRound[1]-0.7) > 1e-12 {
		t.Fatalf("unexpected best by round: %+v", loaded.BestByRound)
	}

	series, ok, err := ReadBenchmarkSeries(baseDir, "run-123")
	if err != nil || !ok || len(series) != 2 {
		t.Fatalf("unexpected series: ok=%v err=%v series=%+v", ok, err, series)
	}

	exported, err := ExportRunArtifacts(baseDir, "run-123", outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exported, "benchmark_summary.json")); err != nil {
		t.Fatalf("expected exported summary: %v", err)
	}

	if _, ok, err := ReadRunArtifacts(baseDir, "missing"); err != nil || ok {
		t.Fatalf("expected missing artifacts, ok=%v err=%v", ok, err)
	}
}

func TestBuildBenchmarkSummaryUsesFinalRounds(t *testing.T) {
	summary, err := BuildBenchmarkSummary(RunConfig{RunID: "r", Rounds: 2}, sampleRounds())
	if err != nil {
		t.Fatalf("build summary: %v", err)
	}
	if summary.Replicates != 2 {
		t.Fatalf("expected 2 replicates, got %d", summary.Replicates)
	}
	if math.Abs(summary.BestMean-0.7) > 1e-12 || math.Abs(summary.BestStd-0.1) > 1e-12 {
		t.Fatalf("unexpected best mean/std: %+v", summary)
	}
	if summary.BestMax != 0.8 || summary.BestMin != 0.6 {
		t.Fatalf("unexpected best range: %+v", summary)
	}
	if summary.CostMean != 8 || summary.EvalsMean != 40 || summary.EvalsPerCost != 5 {
		t.Fatalf("unexpected counters: %+v", summary)
	}
	if math.Abs(summary.R2Mean-0.5) > 1e-12 {
		t.Fatalf("unexpected r2 mean: %f", summary.R2Mean)
	}
}

func TestBuildBenchmarkSummaryEmpty(t *testing.T) {
	_, err := BuildBenchmarkSummary(RunConfig{}, nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected insufficient data, got %v", err)
	}
}

func TestRunIndexOrdering(t *testing.T) {
	baseDir := t.TempDir()

	entries := []RunIndexEntry{
		{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{RunID: "b", CreatedAtUTC: "2026-01-02T00:00:00Z"},
		{RunID: "c", CreatedAtUTC: "2026-01-02T00:00:00Z"},
	}
	for _, entry := range entries {
		if err := AppendRunIndex(baseDir, entry); err != nil {
			t.Fatalf("append index: %v", err)
		}
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "a", CreatedAtUTC: "2026-01-01T00:00:00Z", FinalBestMean: 0.9}); err != nil {
		t.Fatalf("replace index entry: %v", err)
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(index))
	}
	if index[0].RunID != "c" || index[1].RunID != "b" || index[2].RunID != "a" {
		t.Fatalf("unexpected order: %+v", index)
	}
	if index[2].FinalBestMean != 0.9 {
		t.Fatalf("expected replaced entry, got %+v", index[2])
	}

	if err := AppendRunIndex(baseDir, RunIndexEntry{}); err == nil {
		t.Fatal("expected run id error")
	}
}

func TestListRunIndexMissingFile(t *testing.T) {
	index, err := ListRunIndex(t.TempDir())
	if err != nil {
		t.Fatalf("list index: %v", err)
	}
	if len(index) != 0 {
		t.Fatalf("expected empty index, got %+v", index)
	}
}
