package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Middleware records request count and duration for the given handler.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := RouteLabel(r.URL.Path)
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rec.status)
		RequestTotal.WithLabelValues(r.Method, route, status).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(duration)
	})
}

// RouteLabel collapses paths to a bounded label set: the API route keeps
// its name and everything else is reported as static.
func RouteLabel(p string) string {
	p = strings.TrimSuffix(p, "/")
	switch p {
	case "/entries":
		return "entries"
	case "/metrics":
		return "metrics"
	}
	return "static"
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
