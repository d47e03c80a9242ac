package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "search_index_breaker_state",
	Help: "Index circuit breaker state: 0 closed, 1 half-open, 2 open.",
}, []string{"name"})

// newIndexBreaker guards index read traffic. When Elasticsearch starts
// failing the breaker opens and reads fall back to the catalog instead of
// piling up timeouts.
func newIndexBreaker(name string) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.5
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			var v float64
			switch to {
			case gobreaker.StateHalfOpen:
				v = 1
			case gobreaker.StateOpen:
				v = 2
			}
			breakerState.WithLabelValues(name).Set(v)
		},
	})
}
