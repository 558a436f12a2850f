package server

import (
	"context"
	"net/http"
	"time"

	logs "github.com/danmuck/smplog"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	maxRequestIDLen = 128
)

type requestIDKey struct{}

// withRequestID propagates a caller supplied X-Request-ID or assigns a new
// UUID, and echoes it on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(HeaderRequestID)
		if rid == "" || len(rid) > maxRequestIDLen {
			rid = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, rid)
		ctx := context.WithValue(r.Context(), requestIDKey{}, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFrom(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logs.Infof("%s %s -> %d (%s) rid=%s",
			r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond), requestIDFrom(r.Context()))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
