package middleware

import (
	"net/http"

	"github.com/haguru/jungle/internal/interfaces"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger logs one line per request with its status, size and latency.
// A request id is taken from the X-Request-ID header or generated, and echoed back.
func RequestLogger(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			m := httpsnoop.CaptureMetrics(next, w, r)

			keyvals := []interface{}{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"bytes", m.Written,
				"duration", m.Duration.String(),
				"remote", r.RemoteAddr,
			}
			switch {
			case m.Code >= http.StatusInternalServerError:
				logger.Error("Request failed", keyvals...)
			case m.Code >= http.StatusBadRequest:
				logger.Warn("Request rejected", keyvals...)
			default:
				logger.Info("Request served", keyvals...)
			}
		})
	}
}

// Recover turns a panic in a handler into a 500 and logs it.
func Recover(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("Recovered from panic", "panic", rec, "request_id", w.Header().Get(RequestIDHeader),
						"method", r.Method, "path", r.URL.Path)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
