package landscape

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Table is a fixed lookup of measured sequences, typically loaded from an
// experimental dataset.
type Table struct {
	name    string
	fitness map[string]float64
}

func NewTable(name string, fitness map[string]float64) *Table {
	copied := make(map[string]float64, len(fitness))
	for seq, value := range fitness {
		copied[seq] = value
	}
	return &Table{name: name, fitness: copied}
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Fitness(ctx context.Context, seq string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	value, ok := t.fitness[seq]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSequence, seq)
	}
	return value, nil
}

func (t *Table) Len() int {
	return len(t.fitness)
}

// Sequences returns the table keys in lexical order.
func (t *Table) Sequences() []string {
	out := make([]string, 0, len(t.fitness))
	for seq := range t.fitness {
		out = append(out, seq)
	}
	sort.Strings(out)
	return out
}

// LoadTableCSV reads sequence,fitness rows. A leading header row is skipped.
func LoadTableCSV(path string) (*Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("landscape csv path is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open landscape csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	fitness := make(map[string]float64, 512)
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read landscape csv row %d: %w", row+1, err)
		}
		row++

		if len(record) < 2 {
			return nil, fmt.Errorf("landscape csv row %d: expected sequence,fitness", row)
		}
		seq := strings.TrimSpace(record[0])
		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("parse landscape csv fitness row %d: %w", row, err)
		}
		if seq == "" {
			return nil, fmt.Errorf("landscape csv row %d: empty sequence", row)
		}
		if _, dup := fitness[seq]; dup {
			return nil, fmt.Errorf("landscape csv row %d: duplicate sequence %q", row, seq)
		}
		fitness[seq] = value
	}

	if len(fitness) == 0 {
		return nil, fmt.Errorf("landscape csv %s has no rows", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Table{name: "table." + name, fitness: fitness}, nil
}
