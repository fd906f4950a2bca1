package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/directvault/internal/auth"
)

type contextKey string

const (
	ownerKey     contextKey = "owner"
	requestIDKey contextKey = "requestID"
)

// ownerFromContext returns the authenticated owner identity set by
// bearerMiddleware, or "" when the request was not authenticated.
func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// Flush forwards to the underlying writer so event streams keep working
// through the wrapper.
func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// ApplyMiddleware wraps the mux with request ID, logging, and panic recovery.
func ApplyMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return requestIDMiddleware(loggingMiddleware(logger, recoveryMiddleware(logger, next)))
}

// requestIDMiddleware assigns each request a UUID, echoed back in the
// X-Request-ID header. An inbound X-Request-ID is kept as-is.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", requestID,
		)
	})
}

// recoveryMiddleware recovers from panics in HTTP handlers, logs the error,
// and returns a 500 response.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// bearerMiddleware extracts the caller identity from the Authorization bearer
// token and stores it in the request context. The token's signature was
// already checked upstream by the gateway; only the identity claim is read
// here. Requests without a usable identity are rejected.
func bearerMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		owner, err := auth.ExtractOwner(raw)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMalformedToken):
				writeError(w, http.StatusUnauthorized, "malformed token")
			case errors.Is(err, auth.ErrMissingClaim):
				writeError(w, http.StatusUnauthorized, "token has no identity claim")
			default:
				logger.Error("failed to extract identity", "error", err)
				writeError(w, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	})
}
