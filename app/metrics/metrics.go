// Package metrics exposes Prometheus counters for the auth flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	FlowSignup         = "signup"
	FlowLogin          = "login"
	FlowLogout         = "logout"
	FlowRefresh        = "refresh"
	FlowVerifyRequest  = "verify_request"
	FlowVerifyRedeem   = "verify_redeem"
	FlowResetRequest   = "reset_request"
	FlowResetCheck     = "reset_check"
	FlowResetConfirm   = "reset_confirm"
	FlowExternalSignup = "external_signup"
)

// flowOutcomes is package level so handlers can record without holding a
// registry.
var flowOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hackauth_flow_outcomes_total",
		Help: "Total number of auth flow completions by flow and outcome",
	},
	[]string{"flow", "outcome"},
)

func RecordFlowOutcome(flow, outcome string) {
	flowOutcomes.WithLabelValues(flow, outcome).Inc()
}

func Register(reg prometheus.Registerer) {
	reg.MustRegister(flowOutcomes)
}

// NewRegistry returns a registry with the Go runtime, process and flow
// collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Register(registry)
	return registry
}
