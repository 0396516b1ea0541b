/*
Package resilience provides a circuit breaker for calls to remote services.

# Overview

The flow store and the SDLC providers are reached over the network. When one
of them keeps failing, the breaker opens and callers fail fast instead of
waiting on the transport timeout for every request.

# Usage

	breaker := resilience.New("flow-store", resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	err := breaker.Execute(func() error {
		return fetch(ctx)
	})

# States

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[MaxRequests successes]-> Closed
	                                               |
	                                           [failure]
	                                               v
	                                             Open

Each transition starts a new generation. Outcomes reported for an earlier
generation are ignored.
*/
package resilience
