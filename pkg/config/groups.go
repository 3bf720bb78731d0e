// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package config

type generalConfiguration struct {
	// ResultDir is the root of every run directory and of the results
	// database.
	ResultDir string
}

type loggerConfiguration struct {
	Level  string
	Output string
	Format string
}

// harness/engine package configs.
type harnessConfiguration struct {
	// Mode is one of benign, attack or both.
	Mode string
	// Duration of a single run in simulated seconds. Zero means twice the ad
	// lifetime of the scenario.
	Duration uint
	Seed     int64
	// Features is an optional file with overrides of the feature table.
	Features string
	// Workspace holds the per-node sandboxes. Defaults to a directory
	// inside the run directory.
	Workspace string
}

// pkg/results package configs.
type databaseConfiguration struct {
	Driver string
	Dir    string
}

// pkg/api package configs.
type apiConfiguration struct {
	Enabled           bool
	Address           string
	RequestsPerSecond uint
}
