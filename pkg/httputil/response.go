// Package httputil provides shared helpers for writing dispatcher responses.
package httputil

import (
	"net/http"
	"strconv"
	"strings"
)

// WriteText writes a plain-text response with an explicit Content-Length.
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// WriteNotFound writes the 404 response served when no route shape matches.
func WriteNotFound(w http.ResponseWriter) {
	WriteText(w, http.StatusNotFound, "Not Found")
}

// WriteMethodNotAllowed writes a 405 with the Allow header set to the
// sorted method list and an empty body.
func WriteMethodNotAllowed(w http.ResponseWriter, allowed []string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// WriteServiceUnavailable writes the 503 served when shutdown interrupts
// a delayed response.
func WriteServiceUnavailable(w http.ResponseWriter) {
	WriteText(w, http.StatusServiceUnavailable, "Service Unavailable")
}
