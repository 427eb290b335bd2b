package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "farmworlds"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	proposals      *prom.CounterVec
	completions    *prom.CounterVec
	saveDuration   *prom.HistogramVec
	storeRows      *prom.GaugeVec
	activeSessions prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.proposals = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_proposals_total",
			Help:      "Generated task candidates by kind and result",
		}, []string{"kind", "result"})
		pr.completions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_completions_total",
			Help:      "Task completion attempts by kind and result",
		}, []string{"kind", "result"})
		pr.saveDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "store_save_duration_seconds",
			Help:      "Duration of full-replace table writes",
			Buckets:   prom.DefBuckets,
		}, []string{"table"})
		pr.storeRows = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "store_rows",
			Help:      "Rows written by the last save of each table",
		}, []string{"table"})
		pr.activeSessions = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Player sessions with running generator loops",
		})
		reg.MustRegister(pr.proposals, pr.completions, pr.saveDuration, pr.storeRows, pr.activeSessions)
	})
	return pr
}

func (p *PrometheusRecorder) IncTaskProposal(kind string, result ResultLabel) {
	if p == nil || p.proposals == nil {
		return
	}
	p.proposals.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) IncTaskCompletion(kind string, result ResultLabel) {
	if p == nil || p.completions == nil {
		return
	}
	p.completions.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveStoreSave(table string, d time.Duration, rows int) {
	if p == nil || p.saveDuration == nil {
		return
	}
	p.saveDuration.WithLabelValues(table).Observe(d.Seconds())
	p.storeRows.WithLabelValues(table).Set(float64(rows))
}

func (p *PrometheusRecorder) SetActiveSessions(n int) {
	if p == nil || p.activeSessions == nil {
		return
	}
	p.activeSessions.Set(float64(n))
}
