package prometheus

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/marmos91/clouddrive/pkg/drive"
	"github.com/marmos91/clouddrive/pkg/reconcile"
	"github.com/marmos91/clouddrive/pkg/store/item"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

func TestDriveMetrics(t *testing.T) {
	m := newDriveMetrics(prometheus.NewRegistry())

	m.ObserveOperation("delete", time.Millisecond, nil)
	m.ObserveOperation("delete", time.Millisecond, item.NewNotFoundError("x"))
	m.RecordOrphanedObject(drive.OrphanDeleteFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("delete", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("delete", "NotFound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orphanedObjects.WithLabelValues("delete_failed")))
}

func TestS3Metrics(t *testing.T) {
	m := newS3Metrics(prometheus.NewRegistry())

	m.ObserveOperation("PutObject", time.Millisecond, nil)
	m.ObserveOperation("PutObject", time.Millisecond, fmt.Errorf("put: %w", object.ErrUnavailable))
	m.ObserveOperation("HeadObject", time.Millisecond, object.ErrObjectNotFound)
	m.ObserveOperation("DeleteObject", time.Millisecond, errors.New("boom"))
	m.RecordBytes("PutObject", 512)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("PutObject", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("PutObject", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("HeadObject", "missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("PutObject", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("DeleteObject", "other")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues("HeadObject", "other")))
	assert.Equal(t, 512.0, testutil.ToFloat64(m.payloadBytes.WithLabelValues("PutObject")))
}

func TestReconcileMetrics(t *testing.T) {
	m := newReconcileMetrics(prometheus.NewRegistry())
	start := time.Unix(1700000000, 0)

	m.ObservePass(&reconcile.Stats{
		StartTime:      start,
		EndTime:        start.Add(time.Second),
		GhostRecords:   3,
		DeletedRecords: 2,
		FailedDeletes:  1,
		GhostObjects:   5,
	}, nil)
	m.ObservePass(nil, errors.New("list failed"))
	m.ObservePurge(&reconcile.PurgeStats{Deleted: 4, BytesFreed: 4096}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.passesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.passesTotal.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ghostRecords))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ghostObjects))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recordsDeleted))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.objectsPurged))
	assert.Equal(t, 1700000001.0, testutil.ToFloat64(m.lastPassTime))
}

func TestHTTPMetrics(t *testing.T) {
	m := newHTTPMetrics(prometheus.NewRegistry())

	m.RecordRequestStart()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsInFlight))
	m.RecordRequest("/api/drive/{id}", http.MethodDelete, http.StatusOK, time.Millisecond)
	m.RecordRequestEnd()

	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/drive/{id}", "DELETE", "200")))
}
