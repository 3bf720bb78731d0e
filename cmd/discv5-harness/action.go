// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dusk-network/discv5-harness/harness/engine"
	"github.com/dusk-network/discv5-harness/pkg/api"
	cfg "github.com/dusk-network/discv5-harness/pkg/config"
	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/dusk-network/discv5-harness/pkg/results"
	"github.com/dusk-network/discv5-harness/pkg/util/nativeutils/logging"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// action runs the sweeps of the configured mode.
func action(ctx *cli.Context) error {
	// check arguments
	if arguments := ctx.Args(); len(arguments) > 0 {
		return fmt.Errorf("failed to read command argument: %q", arguments[0])
	}

	reg, logFile, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logFile.Close()
	}()

	table, err := loadTable(reg)
	if err != nil {
		return err
	}

	modes, err := parseModes(reg.Harness.Mode)
	if err != nil {
		return err
	}

	store, err := openStore(reg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	go func() {
		select {
		case <-interrupt:
			log.Warn("interrupted, stopping the current run")
			cancel()
		case <-runCtx.Done():
		}
	}()

	runner := engine.NewRunner(table, store, reg)
	for _, m := range modes {
		out, err := runner.Run(runCtx, m)
		if err != nil {
			return err
		}

		for _, res := range out {
			_, _ = fmt.Fprintf(ctx.App.Writer, "%s\t%s\t%.3f\n", res.RunID, res.Varied, res.Stats.DiscoveryRatio)
		}
	}

	log.WithField("resultdir", reg.General.ResultDir).Info("sweeps complete")

	if reg.API.Enabled {
		return serve(store, table, reg)
	}
	return nil
}

func featuresAction(ctx *cli.Context) error {
	reg, logFile, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logFile.Close()
	}()

	table, err := loadTable(reg)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(ctx.App.Writer, string(b))
	return err
}

func validateAction(ctx *cli.Context) error {
	reg, logFile, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logFile.Close()
	}()

	table, err := loadTable(reg)
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(ctx.App.Writer, "feature table is valid (%d features)\n", len(table))
	return err
}

func serveAction(ctx *cli.Context) error {
	reg, logFile, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logFile.Close()
	}()

	table, err := loadTable(reg)
	if err != nil {
		return err
	}

	store, err := openStore(reg)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	return serve(store, table, reg)
}

func serve(store results.Store, table features.Table, reg cfg.Registry) error {
	srv, err := api.NewHTTPServer(store, table, reg)
	if err != nil {
		return err
	}
	return srv.Start()
}

// setup loads the configuration, with the CLI flags taking precedence, and
// initializes logging. The caller closes the returned log output.
func setup(ctx *cli.Context) (cfg.Registry, io.Closer, error) {
	fs := cfg.Flags()
	for flagName, key := range settings {
		if v := flagValue(ctx, flagName); v != "" {
			if err := fs.Set(key, v); err != nil {
				return cfg.Registry{}, nil, err
			}
		}
	}

	// Loading all harness configurations. Fail-fast if critical error occurs
	if err := cfg.Load(flagValue(ctx, ConfigFlag.Name), fs); err != nil {
		return cfg.Registry{}, nil, err
	}
	reg := cfg.Get()

	// Set up logging.
	// Any subsystem should be initialized after config and logger loading
	logFile, err := logging.Output(reg.Logger.Output)
	if err != nil {
		return reg, nil, err
	}
	logging.InitLog(logFile)

	if reg.Logger.Format == "json" {
		log.Trace("log format set to JSON.")
	}

	log.WithFields(logrus.Fields{
		"file":    reg.UsedConfigFile,
		"version": ctx.App.Version,
	}).Info("Loaded config file")
	return reg, logFile, nil
}

func loadTable(reg cfg.Registry) (features.Table, error) {
	if reg.Harness.Features == "" {
		return features.Defaults(), nil
	}

	log.WithField("file", reg.Harness.Features).Info("Loading feature overrides")
	return features.LoadFile(reg.Harness.Features)
}

func parseModes(s string) ([]features.Mode, error) {
	if s == "both" {
		return []features.Mode{features.Benign, features.Attack}, nil
	}

	m, err := features.ParseMode(s)
	if err != nil {
		return nil, err
	}
	return []features.Mode{m}, nil
}

func openStore(reg cfg.Registry) (results.Store, error) {
	dir := reg.Database.Dir
	if dir == "" {
		dir = reg.General.ResultDir
	}
	return results.Open(reg.Database.Driver, dir)
}
