package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/object"
	objectmemory "github.com/marmos91/clouddrive/pkg/store/object/memory"
	itemmemory "github.com/marmos91/clouddrive/pkg/store/item/memory"
)

// putAt stores an object with the given modification time.
func (f *fixture) putAt(t *testing.T, key string, at time.Time) {
	t.Helper()
	f.objects.SetClock(func() time.Time { return at })
	f.putObject(t, key)
}

func TestGhostObjects_Report(t *testing.T) {
	f := newFixture(t, Config{ReportLimit: 1})
	f.putAt(t, "drive-uploads/newer-1-1.pdf", now.Add(-time.Hour))
	f.putAt(t, "drive-uploads/older-1-1.pdf", now.Add(-2*time.Hour))
	f.putAt(t, "drive-uploads/kept-1-1.pdf", now.Add(-3*time.Hour))
	f.fileRecord("kept", "drive-uploads/kept-1-1.pdf", old)

	report, err := f.rec.GhostObjects(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(3), report.ObjectsScanned)
	assert.Equal(t, uint64(1), report.RecordsScanned)
	assert.Equal(t, uint64(2), report.Count)
	assert.Equal(t, int64(8), report.Bytes)
	require.Len(t, report.Objects, 1)
	assert.Equal(t, "drive-uploads/older-1-1.pdf", report.Objects[0].Key, "oldest first")
	assert.True(t, report.Truncated)
	assert.Equal(t, 3, f.objects.Len(), "reporting never deletes")
}

func TestPurgeGhostObjects_RespectsMinAge(t *testing.T) {
	metrics := &recordingMetrics{}
	f := newFixture(t, Config{Metrics: metrics})
	f.putAt(t, "drive-uploads/stale-1-1.pdf", now.Add(-48*time.Hour))
	f.putAt(t, "drive-uploads/inflight-1-1.pdf", now.Add(-time.Minute))
	f.putAt(t, "drive-uploads/kept-1-1.pdf", now.Add(-48*time.Hour))
	f.fileRecord("kept", "drive-uploads/kept-1-1.pdf", old)

	stats, err := f.rec.PurgeGhostObjects(context.Background(), time.Hour)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), stats.Ghosts)
	assert.Equal(t, uint64(1), stats.SkippedRecent)
	assert.Equal(t, uint64(1), stats.Deleted)
	assert.Equal(t, int64(4), stats.BytesFreed)
	assert.Equal(t, "1h0m0s", stats.MinAge)
	require.Len(t, metrics.purges, 1)

	ctx := context.Background()
	for key, want := range map[string]bool{
		"drive-uploads/stale-1-1.pdf":    false,
		"drive-uploads/inflight-1-1.pdf": true,
		"drive-uploads/kept-1-1.pdf":     true,
	} {
		ok, err := f.objects.Exists(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, ok, key)
	}
}

func TestPurgeGhostObjects_DefaultMinAge(t *testing.T) {
	f := newFixture(t, Config{MinObjectAge: 72 * time.Hour})
	f.putAt(t, "drive-uploads/two-days-1-1.pdf", now.Add(-48*time.Hour))

	stats, err := f.rec.PurgeGhostObjects(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.SkippedRecent)
	assert.Zero(t, stats.Deleted)
}

func TestPurgeGhostObjects_DryRun(t *testing.T) {
	f := newFixture(t, Config{DryRun: true})
	f.putAt(t, "drive-uploads/stale-1-1.pdf", now.Add(-48*time.Hour))

	stats, err := f.rec.PurgeGhostObjects(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.True(t, stats.DryRun)
	assert.Zero(t, stats.Deleted)
	assert.Equal(t, 1, f.objects.Len())
}

func TestPurgeGhostObjects_BatchFailures(t *testing.T) {
	f := newFixture(t, Config{})
	f.putAt(t, "drive-uploads/stale-1-1.pdf", now.Add(-48*time.Hour))
	f.objects.InjectFault(objectmemory.OpDelete, assert.AnError)

	stats, err := f.rec.PurgeGhostObjects(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Zero(t, stats.Deleted)
}

// singleDeleteGateway hides DeleteBatch so the one-by-one path is used.
type singleDeleteGateway struct {
	object.Gateway
}

func TestPurgeGhostObjects_WithoutBatchDelete(t *testing.T) {
	items := itemmemory.NewMemoryItemStore()
	backing := objectmemory.MustNew(objectmemory.Config{Bucket: "test"})
	backing.SetClock(func() time.Time { return now.Add(-48 * time.Hour) })
	for _, key := range []string{"drive-uploads/a-1-1.bin", "drive-uploads/b-1-1.bin"} {
		_, err := backing.Put(context.Background(), key, []byte("xy"), "")
		require.NoError(t, err)
	}

	gw := singleDeleteGateway{Gateway: backing}
	_, isBatch := object.Gateway(gw).(object.BatchDeleter)
	require.False(t, isBatch)

	rec, err := New(items, gw, Config{DeleteRate: 1000, DeleteBurst: 10})
	require.NoError(t, err)
	rec.SetClock(func() time.Time { return now })

	stats, err := rec.PurgeGhostObjects(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Deleted)
	assert.Equal(t, int64(4), stats.BytesFreed)
	assert.Zero(t, backing.Len())
}
