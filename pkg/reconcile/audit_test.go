package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
	objectmemory "github.com/marmos91/clouddrive/pkg/store/object/memory"
)

func TestAudit(t *testing.T) {
	f := newFixture(t, Config{})
	f.items.Insert(&item.Item{ID: "folder", Name: "F", Kind: item.KindFolder, OwnerID: "u1", CreatedAt: old})
	f.fileRecord("a", "drive-uploads/a-1-1.pdf", old)
	folderID := "folder"
	f.items.Insert(&item.Item{ID: "b", Name: "b", Kind: item.KindPDF, OwnerID: "u1", ParentID: &folderID, ObjectKey: "drive-uploads/b-1-1.pdf", CreatedAt: old})
	f.putObject(t, "drive-uploads/a-1-1.pdf")
	f.putObject(t, "drive-uploads/b-1-1.pdf")
	f.putObject(t, "drive-uploads/orphan-1-1.pdf")

	report, err := f.rec.Audit(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Healthy())
	assert.Equal(t, int64(2), report.FileRecords)
	assert.Equal(t, int64(3), report.TotalItems)
	require.Len(t, report.ByParent, 2)
	assert.Nil(t, report.ByParent[0].ParentID, "root first")
	assert.Equal(t, int64(2), report.ByParent[0].Count)
	assert.Equal(t, int64(3), report.Objects)
	assert.Equal(t, int64(12), report.ObjectBytes)
	assert.Len(t, report.SampleKeys, 3)
}

func TestAudit_UnhealthyObjects(t *testing.T) {
	f := newFixture(t, Config{})
	f.objects.InjectFault(objectmemory.OpList, errors.New("no credentials"))
	f.fileRecord("a", "drive-uploads/a-1-1.pdf", old)

	report, err := f.rec.Audit(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.Contains(t, report.ObjectsError, "no credentials")
	assert.Equal(t, int64(1), report.FileRecords)
	assert.Zero(t, report.Objects)
}

func TestAudit_ClosedRecordStore(t *testing.T) {
	f := newFixture(t, Config{})
	require.NoError(t, f.items.Close())

	report, err := f.rec.Audit(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.NotEmpty(t, report.RecordsError)
	assert.Zero(t, report.FileRecords)
}
