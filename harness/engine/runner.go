// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/config"
	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/dusk-network/discv5-harness/pkg/results"
	"github.com/dusk-network/discv5-harness/pkg/util/nativeutils/logging"
	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
)

// LogFileName is the name of the log file of a run.
const LogFileName = "harness.log"

// Runner executes the sweeps of a feature table.
type Runner struct {
	Table features.Table
	// Store receives every result. It may be nil.
	Store results.Store

	ResultDir string
	// Workspace holds the node sandboxes of every run. When empty, they
	// go into the run directory.
	Workspace string

	Duration time.Duration
	Seed     int64

	now func() time.Time
}

// NewRunner creates a runner configured from the harness section of reg.
func NewRunner(table features.Table, store results.Store, reg config.Registry) *Runner {
	return &Runner{
		Table:     table,
		Store:     store,
		ResultDir: reg.General.ResultDir,
		Workspace: reg.Harness.Workspace,
		Duration:  time.Duration(reg.Harness.Duration) * time.Second,
		Seed:      reg.Harness.Seed,
		now:       time.Now,
	}
}

// Run executes every scenario of the sweep of mode m in order. It stops at
// the first failing scenario and returns the results gathered so far.
func (r *Runner) Run(ctx context.Context, m features.Mode) ([]results.Result, error) {
	scenarios := r.Table.Sweep(m)
	started := r.clock()

	log.WithFields(logger.Fields{
		"mode":      m,
		"scenarios": len(scenarios),
	}).Info("starting sweep")

	out := make([]results.Result, 0, len(scenarios))
	for i, s := range scenarios {
		res, err := r.RunScenario(ctx, RunID(m, started, i), s)
		if err != nil {
			return out, errors.Wrapf(err, "scenario %d (%s)", i, s.Key())
		}
		out = append(out, res)
	}
	return out, nil
}

// RunScenario runs a single scenario under runID.
func (r *Runner) RunScenario(ctx context.Context, runID string, s features.Scenario) (results.Result, error) {
	res := results.Result{
		RunID:    runID,
		Mode:     s.Mode.String(),
		Varied:   s.Varied,
		Scenario: s.Params,
		Params:   ParamsFor(s, r.Seed, r.Duration),
	}

	dir := filepath.Join(r.ResultDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, err
	}

	fileLog, f, err := logging.NewFileLogger(filepath.Join(dir, LogFileName))
	if err != nil {
		return res, err
	}
	defer func() {
		_ = f.Close()
	}()

	entry := fileLog.WithFields(logger.Fields{
		"process": "harness",
		"run":     runID,
	})
	entry.WithField("scenario", s.Key()).Info("run started")

	network, err := NewNetwork(res.Params, s.Mode.String(), entry)
	if err != nil {
		return res, err
	}

	workspace := filepath.Join(dir, "workspace")
	if r.Workspace != "" {
		workspace = filepath.Join(r.Workspace, runID)
	}
	if err := network.Bootstrap(workspace); err != nil {
		return res, err
	}
	defer network.Teardown()

	res.StartedAt = r.clock()
	start := time.Now()
	if err := network.Run(ctx); err != nil {
		return res, err
	}
	res.Duration = time.Since(start)
	res.Stats = network.Stats()

	entry.WithFields(logger.Fields{
		"registrations": res.Stats.Registrations,
		"results":       res.Stats.SearchResults,
		"ratio":         res.Stats.DiscoveryRatio,
		"elapsed":       res.Duration,
	}).Info("run finished")

	if _, err := results.Export(dir, res); err != nil {
		return res, err
	}
	if r.Store != nil {
		if err := r.Store.Put(res); err != nil {
			return res, errors.Wrap(err, "could not store result")
		}
	}

	log.WithFields(logger.Fields{
		"run":    runID,
		"varied": s.Varied,
		"ratio":  res.Stats.DiscoveryRatio,
	}).Info("run stored")
	return res, nil
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
