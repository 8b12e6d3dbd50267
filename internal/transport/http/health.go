package http

import "net/http"

// HealthHandler answers liveness probes. It reports process liveness
// only; database and broker connectivity are checked at startup.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
