package storage

import (
	"encoding/json"
	"errors"

	"noisyoracle/internal/record"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Stamp sets the current schema and codec versions on a run.
func Stamp(run record.Run) record.Run {
	run.SchemaVersion = CurrentSchemaVersion
	run.CodecVersion = CurrentCodecVersion
	return run
}

func EncodeRun(run record.Run) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (record.Run, error) {
	var run record.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return record.Run{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return record.Run{}, err
	}
	return run, nil
}

func EncodeRounds(rounds []record.Round) ([]byte, error) {
	return json.Marshal(rounds)
}

func DecodeRounds(data []byte) ([]record.Round, error) {
	var rounds []record.Round
	if err := json.Unmarshal(data, &rounds); err != nil {
		return nil, err
	}
	return rounds, nil
}

func EncodeFitnessHistory(history []float64) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]float64, error) {
	var history []float64
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func EncodeTopSequences(top []record.ScoredSequence) ([]byte, error) {
	return json.Marshal(top)
}

func DecodeTopSequences(data []byte) ([]record.ScoredSequence, error) {
	var top []record.ScoredSequence
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	return top, nil
}

func checkVersion(v record.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
