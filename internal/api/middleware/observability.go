package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/observability"
)

// ObservabilityMiddleware adds OpenTelemetry tracing to HTTP requests
func ObservabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Use route pattern instead of raw path to avoid high cardinality
		route := r.Pattern
		if route == "" {
			route = r.URL.Path
		}

		ctx, span := observability.StartSpan(r.Context(), route)
		defer span.End()

		observability.SetSpanAttributes(span,
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.user_agent", r.UserAgent()),
		)

		// Create a response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(ctx))

		observability.SetSpanAttributes(span, attribute.Int("http.status_code", rw.statusCode))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}
