package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

// auditSampleSize is how many object keys an audit lists.
const auditSampleSize = 10

// AuditReport is a read-only snapshot of both stores.
type AuditReport struct {
	GeneratedAt time.Time `json:"generatedAt"`

	// RecordsError / ObjectsError hold failed health checks ("" when healthy)
	RecordsError string `json:"recordsError,omitempty"`
	ObjectsError string `json:"objectsError,omitempty"`

	FileRecords int64              `json:"fileRecords"`
	TotalItems  int64              `json:"totalItems"`
	ByParent    []item.ParentCount `json:"byParent"`

	Namespace   string   `json:"namespace"`
	Objects     int64    `json:"objects"`
	ObjectBytes int64    `json:"objectBytes"`
	SampleKeys  []string `json:"sampleKeys,omitempty"`
}

// Healthy reports whether both stores answered their health check.
func (a *AuditReport) Healthy() bool {
	return a.RecordsError == "" && a.ObjectsError == ""
}

// Audit pings both stores and collects counts. It never modifies anything.
// Unreachable stores are reported in the result; their counts stay zero.
func (r *Reconciler) Audit(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{
		GeneratedAt: r.clock(),
		Namespace:   r.objects.Namespace(),
	}

	if err := r.items.Healthcheck(ctx); err != nil {
		report.RecordsError = err.Error()
	} else {
		if err := r.auditRecords(ctx, report); err != nil {
			return report, err
		}
	}

	if err := r.objects.Healthcheck(ctx); err != nil {
		report.ObjectsError = err.Error()
	} else {
		for info, err := range r.objects.ListAll(ctx) {
			if err != nil {
				return report, fmt.Errorf("failed to list objects: %w", err)
			}
			report.Objects++
			report.ObjectBytes += info.Size
			if len(report.SampleKeys) < auditSampleSize {
				report.SampleKeys = append(report.SampleKeys, info.Key)
			}
		}
	}

	return report, nil
}

func (r *Reconciler) auditRecords(ctx context.Context, report *AuditReport) error {
	files, err := r.items.CountFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to count files: %w", err)
	}
	report.FileRecords = files

	rows, err := r.items.CountByParent(ctx)
	if err != nil {
		return fmt.Errorf("failed to count by parent: %w", err)
	}
	report.ByParent = rows
	for _, row := range rows {
		report.TotalItems += row.Count
	}
	return nil
}
