package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/drive"
)

func memoryConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Records.Type = "memory"
	cfg.Objects.Type = "memory"
	return cfg
}

func TestInitializeComponents(t *testing.T) {
	ctx := context.Background()

	c, err := InitializeComponents(ctx, memoryConfig(), nil)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	require.NotNil(t, c.Drive)
	require.NotNil(t, c.Reconciler)
	assert.Equal(t, "drive-uploads", c.Drive.Keys().Prefix())
	assert.Equal(t, drive.DanglingHide, c.Drive.Config().DanglingParents)

	folder, err := c.Drive.CreateFolder(ctx, "owner-1", nil, "Docs")
	require.NoError(t, err)

	stats, err := c.Reconciler.RunNow(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.GhostRecords)

	_, err = c.Items.Get(ctx, folder.ID)
	require.NoError(t, err)
}

func TestInitializeComponents_PrunePolicyEnablesPruning(t *testing.T) {
	cfg := memoryConfig()
	cfg.Drive.DanglingParents = "prune"

	c, err := InitializeComponents(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, drive.DanglingPrune, c.Drive.Config().DanglingParents)
}

func TestInitializeComponents_Errors(t *testing.T) {
	_, err := InitializeComponents(context.Background(), nil, nil)
	assert.Error(t, err)

	cfg := memoryConfig()
	cfg.Objects.Type = "gcs"
	_, err = InitializeComponents(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	m := InitializeMetrics(GetDefaultConfig())

	assert.Nil(t, m.Server)
	assert.NotNil(t, m.HTTP)
	assert.Nil(t, m.Drive)
	assert.Nil(t, m.S3)
	assert.Nil(t, m.Reconcile)
}

func TestComponentsCloseNil(t *testing.T) {
	var c *Components
	assert.NoError(t, c.Close())
}
