package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/drive"
	"github.com/marmos91/clouddrive/pkg/reconcile"
	"github.com/marmos91/clouddrive/pkg/store/item"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

// Components is the wired set of stores and services built from a Config.
type Components struct {
	Items      item.Repository
	Objects    object.Gateway
	Drive      *drive.Service
	Reconciler *reconcile.Reconciler
}

// Close releases the record store. The object gateways hold no resources
// that need closing.
func (c *Components) Close() error {
	if c == nil || c.Items == nil {
		return nil
	}
	return c.Items.Close()
}

// InitializeComponents creates the stores and the services on top of them.
//
// This function orchestrates the complete initialization process:
//  1. Creates the record store from cfg.Records
//  2. Creates the object gateway from cfg.Objects
//  3. Builds the drive service with the drive and server settings
//  4. Builds the reconciler, wiring the drive service as its Deleter
//
// m may be nil, in which case no metrics are collected.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	c, err := config.InitializeComponents(ctx, cfg, nil)
//	if err != nil {
//	    log.Fatalf("Failed to initialize: %v", err)
//	}
//	defer c.Close()
func InitializeComponents(ctx context.Context, cfg *Config, m *MetricsResult) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("configuration is nil")
	}
	if m == nil {
		m = &MetricsResult{}
	}

	logger.Debug("Initializing components from configuration")

	items, err := CreateItemRepository(ctx, &cfg.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to create record store: %w", err)
	}
	logger.Debug("Record store ready: type=%s", cfg.Records.Type)

	objects, err := CreateObjectGateway(ctx, &cfg.Objects, m.S3)
	if err != nil {
		_ = items.Close()
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}
	logger.Debug("Object store ready: type=%s, namespace=%q", cfg.Objects.Type, objects.Namespace())

	svc, err := NewDriveService(items, objects, cfg, m.Drive)
	if err != nil {
		_ = items.Close()
		return nil, err
	}

	rec, err := NewReconciler(items, objects, svc, cfg, m.Reconcile)
	if err != nil {
		_ = items.Close()
		return nil, err
	}

	return &Components{
		Items:      items,
		Objects:    objects,
		Drive:      svc,
		Reconciler: rec,
	}, nil
}

// NewDriveService builds a drive.Service from the drive and server sections.
func NewDriveService(items item.Repository, objects object.Gateway, cfg *Config, m drive.Metrics) (*drive.Service, error) {
	policy, err := drive.ParseDanglingPolicy(cfg.Drive.DanglingParents)
	if err != nil {
		return nil, err
	}

	return drive.New(items, objects, drive.Config{
		KeyPrefix:        cfg.Drive.KeyPrefix,
		ViewLinkTTL:      cfg.Drive.ViewLinkTTL,
		OperationTimeout: cfg.Server.OperationTimeout,
		DanglingParents:  policy,
		Metrics:          m,
	}), nil
}

// NewReconciler builds a reconcile.Reconciler from the reconcile section.
//
// Dangling items are pruned only under the "prune" policy.
func NewReconciler(items item.Repository, objects object.Gateway, deleter reconcile.Deleter, cfg *Config, m reconcile.Metrics) (*reconcile.Reconciler, error) {
	rc := cfg.Reconcile

	rec, err := reconcile.New(items, objects, reconcile.Config{
		Enabled:       rc.Enabled,
		Interval:      rc.Interval,
		PassTimeout:   rc.PassTimeout,
		DryRun:        rc.DryRun,
		MinRecordAge:  rc.MinRecordAge,
		MinObjectAge:  rc.MinObjectAge,
		DeleteRate:    rc.DeleteRate,
		DeleteBurst:   rc.DeleteBurst,
		ReportLimit:   rc.ReportLimit,
		PruneDangling: cfg.Drive.DanglingParents == string(drive.DanglingPrune),
		Deleter:       deleter,
		Metrics:       m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciler: %w", err)
	}
	return rec, nil
}
