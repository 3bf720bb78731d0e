// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[general]
resultdir = "/tmp/discv5-results"

[logger]
level = "debug"
format = "json"

[harness]
mode = "both"
duration = 300
seed = 42

[database]
driver = "leveldb"
`

func writeConfig(t *testing.T) string {
	dir, err := ioutil.TempDir("", "harness-config")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "harness.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(sampleConfig), 0600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t)
	require.NoError(t, Load(path, nil))

	r := Get()
	assert.Equal(t, path, r.UsedConfigFile)
	assert.Equal(t, "/tmp/discv5-results", r.General.ResultDir)
	assert.Equal(t, "debug", r.Logger.Level)
	assert.Equal(t, "json", r.Logger.Format)
	assert.Equal(t, "both", r.Harness.Mode)
	assert.Equal(t, uint(300), r.Harness.Duration)
	assert.Equal(t, int64(42), r.Harness.Seed)
	assert.Equal(t, "leveldb", r.Database.Driver)

	// defaults fill what the file leaves out
	assert.Equal(t, "stdout", r.Logger.Output)
	assert.Equal(t, "127.0.0.1:9797", r.API.Address)
}

func TestFlagPrecedence(t *testing.T) {
	path := writeConfig(t)

	fs := Flags()
	require.NoError(t, fs.Parse([]string{"--harness.mode=attack", "-l", "warn"}))
	require.NoError(t, Load(path, fs))

	assert.Equal(t, "attack", Get().Harness.Mode)
	assert.Equal(t, "warn", Get().Logger.Level)
	// unchanged flags do not shadow the file
	assert.Equal(t, "leveldb", Get().Database.Driver)
}

func TestEnvPrecedence(t *testing.T) {
	path := writeConfig(t)

	require.NoError(t, os.Setenv("DISCV5_HARNESS_MODE", "attack"))
	defer func() {
		_ = os.Unsetenv("DISCV5_HARNESS_MODE")
	}()

	require.NoError(t, Load(path, nil))
	assert.Equal(t, "attack", Get().Harness.Mode)
}

func TestMissingExplicitFile(t *testing.T) {
	err := Load(filepath.Join(os.TempDir(), "no-such-harness.toml"), nil)
	assert.Error(t, err)
}

func TestMock(t *testing.T) {
	prev := Get()
	defer Mock(&prev)

	m := new(Registry)
	m.General.ResultDir = "mocked"
	Mock(m)

	assert.Equal(t, "mocked", Get().General.ResultDir)
}
