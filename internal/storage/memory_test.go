package storage

import (
	"context"
	"testing"

	"noisyoracle/internal/record"
)

func TestMemoryStoreRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	runs := []record.Run{
		Stamp(record.Run{ID: "run-a", CreatedAtUTC: "2026-01-01T00:00:00Z"}),
		Stamp(record.Run{ID: "run-c", CreatedAtUTC: "2026-01-03T00:00:00Z"}),
		Stamp(record.Run{ID: "run-b", CreatedAtUTC: "2026-01-02T00:00:00Z"}),
	}
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	listed, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(listed) != 3 || listed[0].ID != "run-c" || listed[2].ID != "run-a" {
		t.Fatalf("unexpected order: %+v", listed)
	}

	got, ok, err := store.GetRun(ctx, "run-b")
	if err != nil || !ok || got.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("unexpected run: ok=%v err=%v run=%+v", ok, err, got)
	}
}

func TestMemoryStoreFitnessHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []float64{0.1, 0.2, 0.3}
	if err := store.SaveFitnessHistory(ctx, "run-1", input); err != nil {
		t.Fatalf("save history: %v", err)
	}
	input[0] = 99
	output, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted fitness history")
	}
	if len(output) != 3 || output[0] != 0.1 || output[2] != 0.3 {
		t.Fatalf("unexpected history: %+v", output)
	}
}

func TestMemoryStoreRoundsAndTopSequences(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	rounds := []record.Round{
		{Replicate: 0, Round: 1, Cost: 5, Evals: 20, BestTrue: 0.4},
		{Replicate: 0, Round: 2, Cost: 10, Evals: 40, BestTrue: 0.6},
	}
	if err := store.SaveRounds(ctx, "run-1", rounds); err != nil {
		t.Fatalf("save rounds: %v", err)
	}
	got, ok, err := store.GetRounds(ctx, "run-1")
	if err != nil || !ok || len(got) != 2 || got[1].Cost != 10 {
		t.Fatalf("unexpected rounds: ok=%v err=%v rounds=%+v", ok, err, got)
	}

	top := []record.ScoredSequence{{Rank: 1, Sequence: "AAAT", Fitness: 0.8}}
	if err := store.SaveTopSequences(ctx, "run-1", top); err != nil {
		t.Fatalf("save top: %v", err)
	}
	gotTop, ok, err := store.GetTopSequences(ctx, "run-1")
	if err != nil || !ok || gotTop[0].Sequence != "AAAT" {
		t.Fatalf("unexpected top: ok=%v err=%v top=%+v", ok, err, gotTop)
	}

	if _, ok, _ := store.GetTopSequences(ctx, "missing"); ok {
		t.Fatal("expected missing top sequences")
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), record.Run{ID: "x"}); err == nil {
		t.Fatal("expected uninitialized store error")
	}
}
