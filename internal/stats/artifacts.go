package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"noisyoracle/internal/record"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID          string  `json:"run_id"`
	Landscape      string  `json:"landscape"`
	LandscapeKind  string  `json:"landscape_kind"`
	LandscapeCSV   string  `json:"landscape_csv,omitempty"`
	Alphabet       string  `json:"alphabet,omitempty"`
	SequenceLength int     `json:"sequence_length,omitempty"`
	ModelKind      string  `json:"model_kind"`
	ModelType      string  `json:"model_type"`
	SignalStrength float64 `json:"signal_strength"`
	Cache          bool    `json:"cache"`
	LandscapeID    int     `json:"landscape_id"`
	StartID        int     `json:"start_id"`
	StartSequence  string  `json:"start_sequence"`
	Replicates     int     `json:"replicates"`
	Workers        int     `json:"workers"`
	Rounds         int     `json:"rounds"`
	BatchSize      int     `json:"batch_size"`
	ModelQueries   int     `json:"model_queries"`
	MutationRate   float64 `json:"mutation_rate"`
	Seed           int64   `json:"seed"`
}

type RunArtifacts struct {
	Config       RunConfig               `json:"config"`
	BestByRound  []float64               `json:"best_by_round"`
	Rounds       []record.Round          `json:"rounds"`
	TopSequences []record.ScoredSequence `json:"top_sequences"`
	Summary      BenchmarkSummary        `json:"summary"`
}

type BenchmarkSummary struct {
	RunID        string    `json:"run_id"`
	Landscape    string    `json:"landscape"`
	ModelType    string    `json:"model_type"`
	Replicates   int       `json:"replicates"`
	Rounds       int       `json:"rounds"`
	Seed         int64     `json:"seed"`
	FinalBest    []float64 `json:"final_best"`
	BestMean     float64   `json:"best_mean"`
	BestStd      float64   `json:"best_std"`
	BestMax      float64   `json:"best_max"`
	BestMin      float64   `json:"best_min"`
	CostMean     float64   `json:"cost_mean"`
	EvalsMean    float64   `json:"evals_mean"`
	R2Mean       float64   `json:"r2_mean"`
	R2Std        float64   `json:"r2_std"`
	EvalsPerCost float64   `json:"evals_per_cost"`
}

type RunIndexEntry struct {
	RunID          string  `json:"run_id"`
	Landscape      string  `json:"landscape"`
	ModelType      string  `json:"model_type"`
	SignalStrength float64 `json:"signal_strength"`
	Cache          bool    `json:"cache"`
	Replicates     int     `json:"replicates"`
	Rounds         int     `json:"rounds"`
	Seed           int64   `json:"seed"`
	FinalBestMean  float64 `json:"final_best_mean"`
	CreatedAtUTC   string  `json:"created_at_utc"`
}

// BuildBenchmarkSummary aggregates the last recorded round of every replicate.
func BuildBenchmarkSummary(cfg RunConfig, rounds []record.Round) (BenchmarkSummary, error) {
	final := finalRounds(rounds)
	if len(final) == 0 {
		return BenchmarkSummary{}, fmt.Errorf("benchmark summary: %w", ErrInsufficientData)
	}

	best := make([]float64, len(final))
	cost := make([]float64, len(final))
	evals := make([]float64, len(final))
	r2 := make([]float64, len(final))
	for i, r := range final {
		best[i] = r.BestTrue
		cost[i] = float64(r.Cost)
		evals[i] = float64(r.Evals)
		r2[i] = r.R2
	}

	summary := BenchmarkSummary{
		RunID:      cfg.RunID,
		Landscape:  cfg.Landscape,
		ModelType:  cfg.ModelType,
		Replicates: len(final),
		Rounds:     cfg.Rounds,
		Seed:       cfg.Seed,
		FinalBest:  best,
		BestMax:    best[0],
		BestMin:    best[0],
	}
	for _, v := range best[1:] {
		if v > summary.BestMax {
			summary.BestMax = v
		}
		if v < summary.BestMin {
			summary.BestMin = v
		}
	}
	// Inputs are non-empty, so these cannot fail.
	summary.BestMean, _ = Mean(best)
	summary.BestStd, _ = PopStd(best)
	summary.CostMean, _ = Mean(cost)
	summary.EvalsMean, _ = Mean(evals)
	summary.R2Mean, _ = Mean(r2)
	summary.R2Std, _ = PopStd(r2)
	if summary.CostMean > 0 {
		summary.EvalsPerCost = summary.EvalsMean / summary.CostMean
	}
	return summary, nil
}

// MeanBestByRound averages BestTrue across replicates for every round number,
// ordered by round.
func MeanBestByRound(rounds []record.Round) []float64 {
	byRound := make(map[int][]float64)
	for _, r := range rounds {
		byRound[r.Round] = append(byRound[r.Round], r.BestTrue)
	}
	keys := make([]int, 0, len(byRound))
	for k := range byRound {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		mean, _ := Mean(byRound[k])
		out = append(out, mean)
	}
	return out
}

func finalRounds(rounds []record.Round) []record.Round {
	last := make(map[int]record.Round)
	for _, r := range rounds {
		if prev, ok := last[r.Replicate]; !ok || r.Round >= prev.Round {
			last[r.Replicate] = r
		}
	}
	replicates := make([]int, 0, len(last))
	for k := range last {
		replicates = append(replicates, k)
	}
	sort.Ints(replicates)

	out := make([]record.Round, 0, len(replicates))
	for _, k := range replicates {
		out = append(out, last[k])
	}
	return out
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	finalBest := 0.0
	if n := len(artifacts.BestByRound); n > 0 {
		finalBest = artifacts.BestByRound[n-1]
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "fitness_history.json"), map[string]any{"best_by_round": artifacts.BestByRound, "final_best": finalBest}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "rounds.json"), artifacts.Rounds); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "top_sequences.json"), artifacts.TopSequences); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "benchmark_summary.json"), artifacts.Summary); err != nil {
		return "", err
	}
	if err := WriteBenchmarkSeries(runDir, artifacts.BestByRound); err != nil {
		return "", err
	}

	return runDir, nil
}

// ReadRunArtifacts loads everything WriteRunArtifacts produced for runID.
func ReadRunArtifacts(baseDir, runID string) (RunArtifacts, bool, error) {
	runDir := filepath.Join(baseDir, runID)

	var artifacts RunArtifacts
	ok, err := readJSON(filepath.Join(runDir, "config.json"), &artifacts.Config)
	if err != nil || !ok {
		return RunArtifacts{}, ok, err
	}

	var history struct {
		BestByRound []float64 `json:"best_by_round"`
	}
	if _, err := readJSON(filepath.Join(runDir, "fitness_history.json"), &history); err != nil {
		return RunArtifacts{}, false, err
	}
	artifacts.BestByRound = history.BestByRound

	if _, err := readJSON(filepath.Join(runDir, "rounds.json"), &artifacts.Rounds); err != nil {
		return RunArtifacts{}, false, err
	}
	if _, err := readJSON(filepath.Join(runDir, "top_sequences.json"), &artifacts.TopSequences); err != nil {
		return RunArtifacts{}, false, err
	}
	if _, err := readJSON(filepath.Join(runDir, "benchmark_summary.json"), &artifacts.Summary); err != nil {
		return RunArtifacts{}, false, err
	}
	return artifacts, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// readRunIndex returns entries in append order.
func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	if _, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []RunIndexEntry{}
	}
	return entries, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if strings.TrimSpace(runID) == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{"config.json", "fitness_history.json", "rounds.json", "top_sequences.json", "benchmark_summary.json", "benchmark_series.csv"}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

func WriteBenchmarkSeries(runDir string, bestByRound []float64) error {
	path := filepath.Join(runDir, "benchmark_series.csv")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"round", "best_true_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByRound {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadBenchmarkSeries(baseDir, runID string) ([]float64, bool, error) {
	path := filepath.Join(baseDir, runID, "benchmark_series.csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("benchmark series header must have at least 2 columns")
	}

	series := make([]float64, 0, 64)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(row) < 2 {
			return nil, false, fmt.Errorf("benchmark series row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
