package server

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/metrics"
	"biaw-integrations/internal/common/respond"
)

const requestIDHeader = "X-Request-ID"

// requestID tags the request with an id and stores a request-scoped logger.
func requestID(base logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			log := base.WithFields(map[string]interface{}{
				"requestId": id,
				"method":    r.Method,
				"path":      r.URL.Path,
			})
			next.ServeHTTP(w, r.WithContext(logger.IntoContext(r.Context(), log)))
		})
	}
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context(), logger.NewNoOpLogger()).Error("Handler panicked", map[string]interface{}{
					"panic": rec,
					"stack": string(debug.Stack()),
				})
				respond.JSON(w, http.StatusInternalServerError, map[string]interface{}{
					"message": "Internal server error",
					"error":   "unexpected failure while handling the request",
				})
			}
		}()
		next.ServeHTTP(w, r)
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

// instrument records request counts and latency against the route template.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		log := logger.FromContext(r.Context(), logger.NewNoOpLogger())
		fields := map[string]interface{}{
			"status":     rec.status,
			"durationMs": elapsed.Milliseconds(),
		}
		if rec.status >= http.StatusInternalServerError {
			log.Warn("Request failed", fields)
			return
		}
		log.Info("Request completed", fields)
	})
}
