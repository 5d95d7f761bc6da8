// Package record holds the persisted shapes of benchmark runs.
package record

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Run summarizes one benchmark run across its replicates.
type Run struct {
	VersionedRecord
	ID             string  `json:"id"`
	CreatedAtUTC   string  `json:"created_at_utc"`
	Landscape      string  `json:"landscape"`
	ModelType      string  `json:"model_type"`
	SignalStrength float64 `json:"signal_strength"`
	Cache          bool    `json:"cache"`
	StartSequence  string  `json:"start_sequence"`
	Replicates     int     `json:"replicates"`
	Rounds         int     `json:"rounds"`
	BatchSize      int     `json:"batch_size"`
	ModelQueries   int     `json:"model_queries"`
	Seed           int64   `json:"seed"`
	FinalBestMean  float64 `json:"final_best_mean"`
	FinalBestStd   float64 `json:"final_best_std"`
	FinalCostMean  float64 `json:"final_cost_mean"`
	FinalEvalsMean float64 `json:"final_evals_mean"`
	FinalR2Mean    float64 `json:"final_r2_mean"`
}

// Round is the state of one replicate after a measurement round.
type Round struct {
	Replicate     int     `json:"replicate"`
	Round         int     `json:"round"`
	Cost          int     `json:"cost"`
	Evals         int     `json:"evals"`
	R2            float64 `json:"r2"`
	BestTrue      float64 `json:"best_true"`
	BatchMeanTrue float64 `json:"batch_mean_true"`
	BestSequence  string  `json:"best_sequence"`
}

// ScoredSequence is a measured sequence ranked by true fitness.
type ScoredSequence struct {
	Rank      int     `json:"rank"`
	Sequence  string  `json:"sequence"`
	Fitness   float64 `json:"fitness"`
	Replicate int     `json:"replicate"`
	Round     int     `json:"round"`
}
