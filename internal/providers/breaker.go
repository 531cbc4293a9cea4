package providers

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// newVendorBreaker builds the circuit breaker shared by vendor clients.
// Trips after a 60% failure ratio over at least 3 requests.
func newVendorBreaker(name string, threshold int, timeout time.Duration, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(threshold),
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	})
}
