// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Day gate metrics
var (
	// GateEvaluationsTotal counts gate evaluations by trigger and outcome (skipped, same_day, rotated, error).
	GateEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_gate_evaluations_total",
			Help: "Day gate evaluations by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	// RebuildsTotal counts rebuilds by the strategy that ran.
	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_rebuilds_total",
			Help: "Day rotation rebuilds by strategy",
		},
		[]string{"strategy"},
	)
)

// Client action metrics
var (
	// HardResetsTotal counts hard resets.
	HardResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "perch_hard_resets_total",
			Help: "Total hard resets",
		},
	)

	// PremiumInterceptsTotal counts intercepted premium clicks by the toaster that showed the message.
	PremiumInterceptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_premium_intercepts_total",
			Help: "Intercepted premium button events by toaster",
		},
		[]string{"toaster"},
	)
)

// Keyboard catalog metrics
var (
	// KeyboardReloadsTotal counts catalog reloads by status (ok, unchanged, error).
	KeyboardReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "perch_keyboard_reloads_total",
			Help: "Keyboard catalog reloads by status",
		},
		[]string{"status"},
	)

	// KeyboardSets tracks the number of loaded keyboard sets.
	KeyboardSets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "perch_keyboard_sets",
			Help: "Number of keyboard sets currently loaded",
		},
	)
)
