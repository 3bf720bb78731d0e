package engine

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/dusk-network/discv5-harness/pkg/p2p/discv5"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "harness")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

// smallTable shrinks the default table so that a sweep runs in a few
// milliseconds.
func smallTable(t *testing.T) features.Table {
	t.Helper()
	tbl := features.Defaults()
	set := func(name string, v int, vals ...int) {
		f := tbl[name]
		f.Default = v
		f.DefaultAttack = v
		f.Vals = vals
		tbl[name] = f
	}
	set(features.Nodes, 8, 8, 10)
	set(features.ReturnedNodes, 5, 5)
	set(features.AdLifetimeSeconds, 10, 10)
	require.NoError(t, tbl.Validate())
	return tbl
}

func smallParams() discv5.Params {
	return discv5.Params{
		Nodes:            6,
		Topics:           2,
		RegBucketSize:    3,
		SearchBucketSize: 3,
		AdLifetime:       10 * time.Second,
		AdCacheSize:      50,
		RPCBasePort:      20200,
		UDPBasePort:      30200,
		ReturnedNodes:    5,
		Seed:             1,
	}
}
