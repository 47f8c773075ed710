package main

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/sony/gobreaker"

	"news-aggregator/internal/resilience/circuitbreaker"
)

// FeedHealthResponse lists the circuit breaker of every feed host contacted so far.
type FeedHealthResponse struct {
	Healthy bool         `json:"healthy"`
	Feeds   []FeedStatus `json:"feeds"`
}

// FeedStatus is the breaker state of one feed host.
type FeedStatus struct {
	Host               string `json:"host"`
	State              string `json:"state"`
	CircuitBreakerOpen bool   `json:"circuit_breaker_open"`
}

// feedHealthHandler reports 503 while any feed host's breaker is open.
func feedHealthHandler(breakers *circuitbreaker.Set) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := breakers.States()

		resp := FeedHealthResponse{Healthy: true, Feeds: make([]FeedStatus, 0, len(states))}
		for host, state := range states {
			open := state == gobreaker.StateOpen
			resp.Feeds = append(resp.Feeds, FeedStatus{
				Host:               host,
				State:              state.String(),
				CircuitBreakerOpen: open,
			})
			if open {
				resp.Healthy = false
			}
		}
		sort.Slice(resp.Feeds, func(i, j int) bool { return resp.Feeds[i].Host < resp.Feeds[j].Host })

		w.Header().Set("Content-Type", "application/json")
		if resp.Healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
