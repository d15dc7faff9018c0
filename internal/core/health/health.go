// Package health provides liveness and readiness handlers.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}

// Check probes one dependency (database, map server).
type Check func(ctx context.Context) error

// Readiness reports ready only when every registered check passes.
func Readiness(checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status string   `json:"status"`
			Failed []string `json:"failed,omitempty"`
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		var failed []string
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed = append(failed, name)
			}
		}
		sort.Strings(failed)

		out := resp{Status: "ready"}
		w.Header().Set("Content-Type", "application/json")
		if len(failed) > 0 {
			out.Status = "not_ready"
			out.Failed = failed
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
