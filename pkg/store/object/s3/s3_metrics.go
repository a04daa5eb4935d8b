package s3

import "time"

// S3Metrics provides observability for S3 operations.
//
// Implementations must be safe for concurrent use. A nil S3Metrics passed
// in the config is replaced with a no-op implementation.
type S3Metrics interface {
	// ObserveOperation records one S3 API call and its outcome.
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordBytes records payload bytes moved by an operation.
	RecordBytes(operation string, bytes int64)
}

// noopMetrics is a default no-op metrics implementation
type noopMetrics struct{}

func (noopMetrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopMetrics) RecordBytes(operation string, bytes int64)                            {}
