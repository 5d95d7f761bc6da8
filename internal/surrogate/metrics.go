package surrogate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	measurementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noisyoracle_measurements_total",
		Help: "Ground-truth measurements recorded by surrogate models",
	}, []string{"model_type"})

	syntheticEvalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noisyoracle_synthetic_evals_total",
		Help: "Synthetic fitness evaluations served by surrogate models",
	}, []string{"model_type"})

	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noisyoracle_cache_hits_total",
		Help: "GetFitness calls answered from the model cache",
	}, []string{"model_type"})

	noiseFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "noisyoracle_noise_fallbacks_total",
		Help: "Noise draws that fell back to the measured fitness history, by reason",
	}, []string{"model_type", "reason"})

	qualityR2 = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "noisyoracle_quality_r2",
		Help: "Latest squared correlation between cached predictions and revealed truths",
	}, []string{"model_type"})
)
