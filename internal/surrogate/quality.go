package surrogate

import (
	"log/slog"

	"noisyoracle/internal/stats"
)

// updateQuality sets r2 to the squared Pearson correlation between stale
// predictions and the truths measured for them. Degenerate inputs keep the
// previous value.
func (s *Surrogate) updateQuality(predictions, truths []float64) {
	r, err := stats.Pearson(truths, predictions)
	if err != nil {
		s.logger.Debug("quality unchanged",
			slog.Int("pairs", len(truths)),
			slog.Any("error", err),
		)
		return
	}
	s.r2 = r * r
	qualityR2.WithLabelValues(s.modelType).Set(s.r2)
	s.logger.Debug("quality updated",
		slog.Int("pairs", len(truths)),
		slog.Float64("r2", s.r2),
	)
}
