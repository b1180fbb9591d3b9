package common

import "github.com/prometheus/client_golang/prometheus"

const (
	HTTPRequestTotal           = "http_requests_total"
	HTTPRequestDurationSeconds = "http_request_duration_seconds"
	SettlementStepFailure      = "settlement_step_failure"
	RaffleResolution           = "raffle_resolution"
	WinningEntryFallbackTotal  = "winning_entry_fallback_total"
)

var (
	PromCounters = map[string]*prometheus.CounterVec{
		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: HTTPRequestTotal,
			Help: "Count of all HTTP requests",
		}, []string{"path", "status_code"}),
		SettlementStepFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: SettlementStepFailure,
			Help: "Count of failed settlement steps",
		}, []string{"step"}),
		RaffleResolution: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: RaffleResolution,
			Help: "Count of pending raffle outcomes per resolver run",
		}, []string{"result"}),
		WinningEntryFallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: WinningEntryFallbackTotal,
			Help: "Count of winning entries chosen at random",
		}, []string{"reason"}),
	}

	PromHistograms = map[string]*prometheus.HistogramVec{
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: HTTPRequestDurationSeconds,
			Help: "Duration of all HTTP requests",
		}, []string{"path", "status_code"}),
	}
)

func IncCounter(name string, labels ...string) {
	if counter, ok := PromCounters[name]; ok {
		counter.WithLabelValues(labels...).Inc()
	}
}
