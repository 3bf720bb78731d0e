// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package main

import (
	"github.com/urfave/cli"
)

var (
	// VerbosityFlag flag to set the logger level.
	VerbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "logger level (trace, debug, info, warn, error)",
	}
	// ModeFlag flag to select the sweeps to run.
	ModeFlag = cli.StringFlag{
		Name:  "mode",
		Usage: "benign, attack or both",
	}
	// ConfigFlag flag to use configuration file.
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "harness.toml configuration file",
	}
	// FeaturesFlag flag to override the feature table.
	FeaturesFlag = cli.StringFlag{
		Name:  "features",
		Usage: "file with feature table overrides (toml, json, yaml)",
	}
	// ResultDirFlag flag to set the directory of logs and results.
	ResultDirFlag = cli.StringFlag{
		Name:  "resultdir",
		Usage: "directory receiving logs and results",
	}
)

var (
	// CLIFlags flags usable in a CLI context.
	CLIFlags = []cli.Flag{
		VerbosityFlag,
		ModeFlag,
	}
	// GlobalFlags flags usable in a global context.
	GlobalFlags = []cli.Flag{
		ConfigFlag,
		FeaturesFlag,
		ResultDirFlag,
	}
)

// settings maps the CLI flags to the configuration keys they override.
var settings = map[string]string{
	VerbosityFlag.Name: "logger.level",
	ModeFlag.Name:      "harness.mode",
	FeaturesFlag.Name:  "harness.features",
	ResultDirFlag.Name: "general.resultdir",
}

// commandFlags returns the flags of a subcommand: the given ones followed by
// the global flags, so that they can be passed after the command name too.
func commandFlags(flags ...cli.Flag) []cli.Flag {
	out := make([]cli.Flag, 0, len(flags)+len(GlobalFlags))
	out = append(out, flags...)
	return append(out, GlobalFlags...)
}

// flagValue returns the value of a flag set on the command, or on the app
// when the command does not set it.
func flagValue(ctx *cli.Context, name string) string {
	if v := ctx.String(name); v != "" {
		return v
	}
	return ctx.GlobalString(name)
}
