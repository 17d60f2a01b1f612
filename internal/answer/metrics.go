package answer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "answer_mutations_total",
		Help: "Answer mutations gated by the constraint engine, by operation and outcome.",
	}, []string{"op", "outcome"})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "answer_constraint_rejections_total",
		Help: "Constraint rejections by violation kind.",
	}, []string{"kind"})
)

func observeOutcome(op string, err error) {
	switch {
	case err == nil:
		mutationsTotal.WithLabelValues(op, "ok").Inc()
	default:
		if ce, ok := IsConstraintViolation(err); ok {
			mutationsTotal.WithLabelValues(op, "rejected").Inc()
			rejectionsTotal.WithLabelValues(ce.Kind).Inc()
			return
		}
		mutationsTotal.WithLabelValues(op, "error").Inc()
	}
}
