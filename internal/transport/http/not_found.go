package http

import "net/http"

// NotFoundHandler answers unmatched routes with the JSON error
// envelope instead of the mux default plain-text 404.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
