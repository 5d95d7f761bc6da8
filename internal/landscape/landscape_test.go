package landscape

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"noisyoracle/internal/sequence"
)

func TestPositionWeightDeterministic(t *testing.T) {
	cfg := PositionWeightConfig{Alphabet: sequence.DNA, Length: 6, Epistasis: 0.5, Seed: 9}
	a, err := NewPositionWeight(cfg)
	if err != nil {
		t.Fatalf("new landscape: %v", err)
	}
	b, err := NewPositionWeight(cfg)
	if err != nil {
		t.Fatalf("new landscape: %v", err)
	}

	ctx := context.Background()
	for _, seq := range []string{"AAAAAA", "ACGTAC", "TTTTTT"} {
		fa, err := a.Fitness(ctx, seq)
		if err != nil {
			t.Fatalf("fitness %s: %v", seq, err)
		}
		fb, err := b.Fitness(ctx, seq)
		if err != nil {
			t.Fatalf("fitness %s: %v", seq, err)
		}
		if fa != fb {
			t.Fatalf("expected identical landscapes for %s: %f vs %f", seq, fa, fb)
		}
		if fa < 0 || fa > 1 {
			t.Fatalf("fitness out of [0,1] for %s: %f", seq, fa)
		}
	}
	if a.Name() != "pwm.L6.s9" {
		t.Fatalf("unexpected default name: %s", a.Name())
	}
}

func TestPositionWeightRejectsInvalidSequences(t *testing.T) {
	p, err := NewPositionWeight(PositionWeightConfig{Length: 4})
	if err != nil {
		t.Fatalf("new landscape: %v", err)
	}
	ctx := context.Background()
	if _, err := p.Fitness(ctx, "AAA"); !errors.Is(err, ErrInvalidSequence) {
		t.Fatalf("expected invalid length error, got %v", err)
	}
	if _, err := p.Fitness(ctx, "AAAX"); !errors.Is(err, ErrInvalidSequence) {
		t.Fatalf("expected invalid letter error, got %v", err)
	}
	if _, err := NewPositionWeight(PositionWeightConfig{Epistasis: -1}); err == nil {
		t.Fatal("expected negative epistasis error")
	}
}

func TestTableLookup(t *testing.T) {
	table := NewTable("demo", map[string]float64{"AAAA": 1, "AAAT": 0.8})
	ctx := context.Background()

	got, err := table.Fitness(ctx, "AAAT")
	if err != nil {
		t.Fatalf("fitness: %v", err)
	}
	if got != 0.8 {
		t.Fatalf("unexpected fitness: %f", got)
	}
	if _, err := table.Fitness(ctx, "CCCC"); !errors.Is(err, ErrUnknownSequence) {
		t.Fatalf("expected unknown sequence error, got %v", err)
	}
	if seqs := table.Sequences(); len(seqs) != 2 || seqs[0] != "AAAA" {
		t.Fatalf("unexpected sequences: %v", seqs)
	}
}

func TestLoadTableCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gfp.csv")
	data := "sequence,fitness\nAAAA,1.0\nAAAT, 0.8\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	table, err := LoadTableCSV(path)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("unexpected row count: %d", table.Len())
	}
	if table.Name() != "table.gfp" {
		t.Fatalf("unexpected table name: %s", table.Name())
	}

	oracle, err := New(Config{Kind: KindTable, CSVPath: path, Name: "gfp"})
	if err != nil {
		t.Fatalf("new table landscape: %v", err)
	}
	if oracle.Name() != "gfp" {
		t.Fatalf("expected name override, got %s", oracle.Name())
	}
}

func TestLoadTableCSVRejectsBadRows(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"dup.csv":   "AAAA,1\nAAAA,2\n",
		"bad.csv":   "AAAA,1\nAAAT,nope\n",
		"empty.csv": "sequence,fitness\n",
		"short.csv": "AAAA\n",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := LoadTableCSV(path); err == nil {
			t.Fatalf("expected error for %s", name)
		}
	}
	if _, err := LoadTableCSV(""); err == nil {
		t.Fatal("expected missing path error")
	}
}

func TestNewUnsupportedKind(t *testing.T) {
	if _, err := New(Config{Kind: "nk"}); err == nil {
		t.Fatal("expected unsupported kind error")
	}
	oracle, err := New(Config{})
	if err != nil {
		t.Fatalf("default landscape: %v", err)
	}
	if _, ok := oracle.(*PositionWeight); !ok {
		t.Fatalf("expected position weight default, got %T", oracle)
	}
}
