package providers

import (
	"net/http"
	"time"
)

// statusWriter remembers the response status and counts the body bytes, which
// for backup downloads is the size of the exported file.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// requestEndpoint labels a request by the mux pattern it matched, so unknown
// paths do not create new series. Requests that matched nothing share one label.
func requestEndpoint(r *http.Request, status int) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if status == http.StatusNotFound {
		return "unmatched"
	}
	return r.URL.Path
}

// MetricsMiddleware records request count and latency per endpoint and writes
// one request line to the get/post log.
func MetricsMiddleware(metrics MetricsProviderInterface, logger Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		duration := time.Since(start)
		endpoint := requestEndpoint(r, sw.status)
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, duration)
		logger.Debugf(GetLogTypeByRequestType(r.Method), "%s %s -> %d, %d bytes (%s)", r.Method, r.URL.Path, sw.status, sw.bytes, duration)
	})
}
