// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package results

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/p2p/discv5"
	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
)

// FileName is the name of the file Export writes into a run directory.
const FileName = "result.json"

var log = logger.WithField("process", "results")

// ErrNotFound is returned when a run is not in the store.
var ErrNotFound = errors.New("run not found")

// Result is the outcome of a single run of the harness.
type Result struct {
	RunID string `json:"runId"`
	Mode  string `json:"mode"`
	// Varied names the parameter the run differs in from its baseline.
	Varied   string         `json:"varied,omitempty"`
	Scenario map[string]int `json:"scenario"`
	Params   discv5.Params  `json:"params"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	Stats discv5.Stats `json:"stats"`
}

// Store persists results.
type Store interface {
	Put(Result) error
	// Get returns ErrNotFound for unknown run ids.
	Get(runID string) (Result, error)
	// List returns every stored result ordered by run id.
	List() ([]Result, error)
	Close() error
}

func key(runID string) string {
	return runPrefix + runID
}

const runPrefix = "run:"

// Export writes res as indented JSON into dir/result.json. dir is created
// if needed.
func Export(dir string, res Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "could not create %s", dir)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "could not encode result")
	}

	path := filepath.Join(dir, FileName)
	if err := ioutil.WriteFile(path, data, 0o600); err != nil {
		return "", errors.Wrapf(err, "could not write %s", path)
	}

	log.WithField("path", path).Debug("result exported")
	return path, nil
}

// Import reads a file written by Export.
func Import(path string) (Result, error) {
	var res Result
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return res, err
	}
	err = json.Unmarshal(data, &res)
	return res, errors.Wrapf(err, "could not decode %s", path)
}
