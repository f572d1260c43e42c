package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// evaluations counts computed (not memoized) decisions.
	// Labels: feature, result (on, off, opted_out, absent)
	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollout",
		Subsystem: "evaluator",
		Name:      "decisions_total",
		Help:      "Total feature decisions computed by the evaluator",
	}, []string{"feature", "result"})

	// actionFailures counts guarded actions that returned an error.
	// Labels: feature
	actionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollout",
		Subsystem: "evaluator",
		Name:      "action_failures_total",
		Help:      "Total guarded actions that failed",
	}, []string{"feature"})

	// storageErrors counts storage failures on the evaluation path.
	// Labels: op
	storageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rollout",
		Subsystem: "evaluator",
		Name:      "storage_errors_total",
		Help:      "Total storage failures during evaluation",
	}, []string{"op"})
)

const (
	resultOn       = "on"
	resultOff      = "off"
	resultOptedOut = "opted_out"
	resultAbsent   = "absent"
)
