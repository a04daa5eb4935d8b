package drive

import "time"

// Orphan reasons passed to Metrics.RecordOrphanedObject.
const (
	OrphanDeleteFailed = "delete_failed"
	OrphanRecordFailed = "record_failed"
)

// Metrics provides observability for drive operations.
//
// A nil Metrics in Config is replaced by a no-op implementation.
type Metrics interface {
	// ObserveOperation records one public operation (list, create_folder,
	// upload, complete_upload, delete, view_link, rename, move).
	ObserveOperation(operation string, duration time.Duration, err error)

	// RecordOrphanedObject counts objects left behind without a record.
	RecordOrphanedObject(reason string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, time.Duration, error) {}
func (noopMetrics) RecordOrphanedObject(string)                   {}
