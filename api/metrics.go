package api

import (
	"github.com/oy3o/pwscore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 评估相关的 Prometheus 指标
type Metrics struct {
	evaluations *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	score       *prometheus.HistogramVec
	entropy     *prometheus.HistogramVec
}

// NewMetrics 在 reg 上注册指标，reg 为 nil 时使用默认注册表
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pwscore",
			Name:      "evaluations_total",
			Help:      "Password evaluations by variant and strength label.",
		}, []string{"variant", "strength"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pwscore",
			Name:      "rejected_total",
			Help:      "Evaluation requests rejected before scoring.",
		}, []string{"reason"}),
		score: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pwscore",
			Name:      "score",
			Help:      "Distribution of clamped scores.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}, []string{"variant"}),
		entropy: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pwscore",
			Name:      "entropy_bits",
			Help:      "Distribution of estimated entropy in bits.",
			Buckets:   prometheus.LinearBuckets(0, 16, 12),
		}, []string{"variant"}),
	}
}

func (m *Metrics) observe(res pwscore.Result) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(res.Variant, res.Strength).Inc()
	m.score.WithLabelValues(res.Variant).Observe(float64(res.Score))
	m.entropy.WithLabelValues(res.Variant).Observe(res.Entropy)
}

func (m *Metrics) reject(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
