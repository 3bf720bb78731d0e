package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/config"
	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/dusk-network/discv5-harness/pkg/results"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsFor(t *testing.T) {
	s := features.Defaults().Baseline(features.Attack)
	p := ParamsFor(s, 7, 0)

	assert.Equal(t, 100, p.Nodes)
	assert.Equal(t, 1, p.Topics)
	assert.Equal(t, 10, p.RegBucketSize)
	assert.Equal(t, 3, p.SearchBucketSize)
	assert.Equal(t, time.Minute, p.AdLifetime)
	assert.Equal(t, 500, p.AdCacheSize)
	assert.Equal(t, 20200, p.RPCBasePort)
	assert.Equal(t, 30200, p.UDPBasePort)
	assert.Equal(t, 1, p.ReturnedNodes)
	assert.Equal(t, int64(7), p.Seed)
	assert.NoError(t, p.Validate())
}

func TestRunID(t *testing.T) {
	at := time.Date(2021, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "attack-20210506T070809-004", RunID(features.Attack, at, 4))
}

func TestNewRunner(t *testing.T) {
	var reg config.Registry
	reg.General.ResultDir = "out"
	reg.Harness.Duration = 30
	reg.Harness.Seed = 9

	r := NewRunner(features.Defaults(), nil, reg)
	assert.Equal(t, "out", r.ResultDir)
	assert.Equal(t, 30*time.Second, r.Duration)
	assert.Equal(t, int64(9), r.Seed)
}

func TestRunnerRun(t *testing.T) {
	assert := assert.New(t)
	dir := tempDir(t)

	store, err := results.Open(results.BuntDriverName, dir)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	at := time.Date(2021, 5, 6, 7, 8, 9, 0, time.UTC)
	r := &Runner{
		Table:     smallTable(t),
		Store:     store,
		ResultDir: dir,
		Duration:  5 * time.Second,
		Seed:      1,
		now:       func() time.Time { return at },
	}

	out, err := r.Run(context.Background(), features.Benign)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal("", out[0].Varied)
	assert.Equal(8, out[0].Params.Nodes)
	assert.Equal(features.Nodes, out[1].Varied)
	assert.Equal(10, out[1].Params.Nodes)

	for _, res := range out {
		runDir := filepath.Join(dir, res.RunID)
		assert.FileExists(filepath.Join(runDir, results.FileName))
		assert.FileExists(filepath.Join(runDir, LogFileName))
		assert.FileExists(filepath.Join(runDir, "workspace", "node-0", ConfigFileName))
		assert.Equal(5*time.Second, res.Stats.SimTime)
		assert.Equal("benign", res.Mode)

		exported, err := results.Import(filepath.Join(runDir, results.FileName))
		require.NoError(t, err)
		assert.Equal(res.RunID, exported.RunID)
		assert.Equal(res.Stats.Messages, exported.Stats.Messages)
	}

	stored, err := store.List()
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal("benign-20210506T070809-000", stored[0].RunID)
	assert.Equal("benign-20210506T070809-001", stored[1].RunID)
}

func TestRunnerWorkspace(t *testing.T) {
	dir := tempDir(t)
	workspace := tempDir(t)

	r := &Runner{
		Table:     smallTable(t),
		ResultDir: dir,
		Workspace: workspace,
		Duration:  2 * time.Second,
		Seed:      1,
	}

	s := r.Table.Baseline(features.Attack)
	_, err := r.RunScenario(context.Background(), "custom", s)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(workspace, "custom", "node-7", ConfigFileName))
}

func TestRunnerCancelled(t *testing.T) {
	r := &Runner{
		Table:     smallTable(t),
		ResultDir: tempDir(t),
		Duration:  5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := r.Run(ctx, features.Benign)
	assert.Empty(t, out)
	assert.Equal(t, context.Canceled, errors.Cause(err))
}
