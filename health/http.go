package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// LivenessHandler returns an HTTP handler for liveness probes.
// It only shows that the process is serving requests.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
// It answers 200 when t.Ready(required...) holds and 503 otherwise.
func ReadinessHandler(t *Tracker, required ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")

		if t.Ready(required...) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("UNHEALTHY"))
	}
}

// HealthResponse is the JSON response for the detailed health endpoint.
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// ComponentResponse is the JSON response for a single component.
type ComponentResponse struct {
	Component string `json:"component"`
	Status    string `json:"status"`
}

// DetailedHandler returns an HTTP handler that reports every tracked
// component. The overall status is unhealthy if any component is.
func DetailedHandler(t *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := t.Snapshot()

		response := HealthResponse{
			Status:     statusText(true),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Components: make(map[string]string, len(snapshot)),
		}
		for name, healthy := range snapshot {
			response.Components[name] = statusText(healthy)
			if !healthy {
				response.Status = statusText(false)
			}
		}

		writeJSON(w, response.Status == statusText(true), response)
	}
}

// ComponentHandler returns an HTTP handler for one component. A component
// that was never reported is unhealthy, not missing.
func ComponentHandler(t *Tracker, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy := t.Health(name)
		writeJSON(w, healthy, ComponentResponse{
			Component: name,
			Status:    statusText(healthy),
		})
	}
}

func writeJSON(w http.ResponseWriter, healthy bool, body any) {
	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

// RegisterHandlers registers the liveness, readiness and detailed handlers
// on mux. required is passed to ReadinessHandler.
func RegisterHandlers(mux *http.ServeMux, t *Tracker, required ...string) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(t, required...))
	mux.HandleFunc("/health", DetailedHandler(t))
}
