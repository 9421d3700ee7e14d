package log

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware stores logger in the request context and logs each request
// once it completes, tagged with chi's request id.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With(FieldRequestID, middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(IntoContext(r.Context(), reqLogger)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := NewFields()
			fields[FieldMethod] = r.Method
			fields[FieldPath] = r.URL.Path
			fields[FieldStatusCode] = status
			fields[FieldDuration] = time.Since(start).Milliseconds()
			if status >= http.StatusInternalServerError {
				reqLogger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
				return
			}
			reqLogger.InfoContext(r.Context(), "Request completed", fields.ToSlice()...)
		})
	}
}
