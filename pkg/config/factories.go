package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/item"
	itembadger "github.com/marmos91/clouddrive/pkg/store/item/badger"
	itemmemory "github.com/marmos91/clouddrive/pkg/store/item/memory"
	itemmongo "github.com/marmos91/clouddrive/pkg/store/item/mongo"
	itempostgres "github.com/marmos91/clouddrive/pkg/store/item/postgres"
	"github.com/marmos91/clouddrive/pkg/store/object"
	objectfs "github.com/marmos91/clouddrive/pkg/store/object/fs"
	objectmemory "github.com/marmos91/clouddrive/pkg/store/object/memory"
	objects3 "github.com/marmos91/clouddrive/pkg/store/object/s3"
)

// decodeOptions decodes a type-specific section into out.
//
// Input is weakly typed because values coming from the environment are
// always strings. Durations accept Go duration strings ("10s").
func decodeOptions(options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(options)
}

// CreateItemRepository creates the record store based on configuration.
//
// Supported types:
//   - "memory": process-local maps, for development and tests
//   - "badger": embedded BadgerDB
//   - "mongo": MongoDB collection
//   - "postgres": PostgreSQL table
func CreateItemRepository(ctx context.Context, cfg *RecordsConfig) (item.Repository, error) {
	switch cfg.Type {
	case "memory":
		return itemmemory.NewMemoryItemStore(), nil
	case "badger":
		return createBadgerItemStore(ctx, cfg.Badger)
	case "mongo":
		return createMongoItemStore(ctx, cfg.Mongo)
	case "postgres":
		return createPostgresItemStore(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown record store type: %q", cfg.Type)
	}
}

func createBadgerItemStore(ctx context.Context, options map[string]any) (item.Repository, error) {
	var storeCfg itembadger.BadgerItemStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger record store config: %w", err)
	}

	store, err := itembadger.NewBadgerItemStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger record store: %w", err)
	}

	logger.Info("Badger record store initialized: path=%s, in_memory=%t", storeCfg.DBPath, storeCfg.InMemory)
	return store, nil
}

func createMongoItemStore(ctx context.Context, options map[string]any) (item.Repository, error) {
	var storeCfg itemmongo.MongoItemStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode mongo record store config: %w", err)
	}

	if storeCfg.URI == "" {
		return nil, fmt.Errorf("mongo record store: uri is required")
	}

	store, err := itemmongo.NewMongoItemStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo record store: %w", err)
	}

	logger.Info("Mongo record store initialized: database=%s, collection=%s", storeCfg.Database, storeCfg.Collection)
	return store, nil
}

func createPostgresItemStore(ctx context.Context, options map[string]any) (item.Repository, error) {
	var storeCfg itempostgres.PostgresItemStoreConfig
	if err := decodeOptions(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode postgres record store config: %w", err)
	}

	if storeCfg.URL == "" {
		return nil, fmt.Errorf("postgres record store: url is required")
	}

	store, err := itempostgres.NewPostgresItemStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres record store: %w", err)
	}

	logger.Info("Postgres record store initialized: table_prefix=%q", storeCfg.TablePrefix)
	return store, nil
}

// CreateObjectGateway creates the object gateway based on configuration.
//
// Supported types:
//   - "memory": process-local map, signed links served by the API
//   - "filesystem": one file per object, signed links served by the API
//   - "s3": Amazon S3 or a compatible service, presigned links
//
// s3Metrics may be nil.
func CreateObjectGateway(ctx context.Context, cfg *ObjectsConfig, s3Metrics objects3.S3Metrics) (object.Gateway, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryGateway(cfg.Memory)
	case "filesystem":
		return createFilesystemGateway(ctx, cfg.Filesystem)
	case "s3":
		return createS3Gateway(ctx, cfg.S3, s3Metrics)
	default:
		return nil, fmt.Errorf("unknown object store type: %q", cfg.Type)
	}
}

func createMemoryGateway(options map[string]any) (object.Gateway, error) {
	var gatewayCfg objectmemory.Config
	if err := decodeOptions(options, &gatewayCfg); err != nil {
		return nil, fmt.Errorf("failed to decode memory object store config: %w", err)
	}

	gateway, err := objectmemory.New(gatewayCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory object store: %w", err)
	}
	return gateway, nil
}

func createFilesystemGateway(ctx context.Context, options map[string]any) (object.Gateway, error) {
	var gatewayCfg objectfs.Config
	if err := decodeOptions(options, &gatewayCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem object store config: %w", err)
	}

	if gatewayCfg.Path == "" {
		return nil, fmt.Errorf("filesystem object store: path is required")
	}

	gateway, err := objectfs.New(ctx, gatewayCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem object store: %w", err)
	}

	logger.Info("Filesystem object store initialized: path=%s", gatewayCfg.Path)
	return gateway, nil
}

func createS3Gateway(ctx context.Context, options map[string]any, s3Metrics objects3.S3Metrics) (object.Gateway, error) {
	var gatewayCfg objects3.Config
	if err := decodeOptions(options, &gatewayCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 object store config: %w", err)
	}

	if gatewayCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 object store: bucket is required")
	}
	if gatewayCfg.Region == "" {
		return nil, fmt.Errorf("S3 object store: region is required")
	}
	gatewayCfg.Metrics = s3Metrics

	gateway, err := objects3.New(ctx, gatewayCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 object store: %w", err)
	}
	return gateway, nil
}
