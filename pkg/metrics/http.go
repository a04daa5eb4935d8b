package metrics

import "time"

// HTTPMetrics provides observability for the HTTP API.
//
// Example usage:
//
//	router := api.NewRouter(svc, api.Config{Metrics: prometheus.NewHTTPMetrics()})
type HTTPMetrics interface {
	// RecordRequest records a completed request.
	//
	// Parameters:
	//   - route: chi route pattern (e.g. "/api/drive/{id}")
	//   - method: HTTP method
	//   - status: response status code
	//   - duration: time taken to serve the request
	RecordRequest(route, method string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request gauge.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request gauge.
	RecordRequestEnd()

	// RecordUploadBytes records the size of an accepted upload.
	RecordUploadBytes(bytes int64)
}

// NewNoopHTTPMetrics returns an HTTPMetrics that records nothing.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

// noopHTTPMetrics is a no-op implementation of HTTPMetrics with zero overhead.
type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(route, method string, status int, duration time.Duration) {}
func (noopHTTPMetrics) RecordRequestStart()                                                  {}
func (noopHTTPMetrics) RecordRequestEnd()                                                    {}
func (noopHTTPMetrics) RecordUploadBytes(bytes int64)                                        {}
