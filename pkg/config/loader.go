// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config package should avoid importing any harness packages in order to
// prevent any cyclic-dependancy issues

const (
	// current working dir
	searchPath1 = "."
	// home datadir
	searchPath2 = "$HOME/.discv5-harness/"

	// name for the config file. Does not include extension.
	configFileName = "harness"
)

var (
	r *Registry
)

// Registry stores all loaded configurations according to the config order
// NB It should be cheap to be copied by value
type Registry struct {
	UsedConfigFile string

	// All configuration groups
	General  generalConfiguration
	Logger   loggerConfiguration
	Harness  harnessConfiguration
	Database databaseConfiguration
	API      apiConfiguration
}

// Load makes an attempt to read and unmarshal any configs from flag, env and
// harness config file.
//
// It uses the following precedence order. Each item takes precedence over the item below it:
//   - flag
//   - env
//   - config
//   - default
//
// The config file can be in form of TOML, JSON, YAML, HCL or Java
// properties config files. A missing config file is not an error.
func Load(confFile string, flags *pflag.FlagSet) error {
	reg := new(Registry)

	if err := reg.init(confFile, flags); err != nil {
		return err
	}

	r = reg
	return nil
}

// Get returns registry by value in order to avoid further modifications after
// initial configuration loading
func Get() Registry {
	return *r
}

func (r *Registry) init(confFile string, flags *pflag.FlagSet) error {
	viper.Reset()
	defineDefaults()

	viper.SetConfigName(configFileName)
	viper.AddConfigPath(searchPath1)
	viper.AddConfigPath(searchPath2)

	// confPath is overwritten by the one from command line
	if len(confFile) > 0 {
		viper.SetConfigFile(confFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		// An explicitly requested file must exist
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || len(confFile) > 0 {
			return fmt.Errorf("error reading config file: %s", err)
		}
	}

	// Bind all command line parameters to their corresponding file configs
	//
	// e.g CLI argument `--logger.level="warn"`` will overwrite the value from
	// `[logger] level = "info"`` in the loaded config file
	if flags != nil {
		if err := viper.BindPFlags(flags); err != nil {
			return fmt.Errorf("unable bind pflags, %v", err)
		}
	}

	defineENV()

	// Unmarshal all configurations from all conf levels to the registry struct
	if err := viper.Unmarshal(r); err != nil {
		return fmt.Errorf("unable to decode into struct, %v", err)
	}

	r.UsedConfigFile = viper.ConfigFileUsed()
	return nil
}

// Flags returns a set of flags as bindings to config file settings.
// The settings that are needed to be passed frequently by CLI should be added here
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("discv5-harness", pflag.ContinueOnError)
	_ = fs.StringP("logger.level", "l", "info", "override logger.level settings in config file")
	_ = fs.StringP("logger.output", "o", "stdout", "specifies the log output")
	_ = fs.StringP("general.resultdir", "r", defaultResultDir, "directory receiving logs and results")
	_ = fs.StringP("harness.mode", "m", "benign", "benign, attack or both")
	_ = fs.StringP("harness.features", "f", "", "file with feature table overrides")
	_ = fs.StringP("database.driver", "d", DriverBuntDB, "results store driver (buntdb/leveldb)")
	return fs
}

func defineDefaults() {
	viper.SetDefault("general.resultdir", defaultResultDir)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output", "stdout")
	viper.SetDefault("logger.format", "text")
	viper.SetDefault("harness.mode", "benign")
	viper.SetDefault("harness.seed", 1)
	viper.SetDefault("database.driver", DriverBuntDB)
	viper.SetDefault("api.address", defaultAPIAddress)
	viper.SetDefault("api.requestspersecond", 20)
}

// define a set of environment variables as bindings to config file settings
func defineENV() {
	if err := viper.BindEnv("logger.level", "DISCV5_LOGGER_LEVEL"); err != nil {
		fmt.Printf("defineENV %v", err)
	}

	if err := viper.BindEnv("harness.mode", "DISCV5_HARNESS_MODE"); err != nil {
		fmt.Printf("defineENV %v", err)
	}

	// DISCV5_GENERAL_RESULTDIR is handy on CI where every job gets its own
	// artifacts directory
	if err := viper.BindEnv("general.resultdir", "DISCV5_GENERAL_RESULTDIR"); err != nil {
		fmt.Printf("defineENV %v", err)
	}
}

// Mock should be used only in test packages. It could be useful when a unit
// test needs to be rerun with configs different from the default ones.
func Mock(m *Registry) {
	r = m
}

func init() {
	// By default Registry should be empty but not nil. In that way, consumers
	// (packages) can use their default values on unit testing
	r = new(Registry)
	r.General.ResultDir = defaultResultDir
	r.Logger.Level = "info"
	r.Logger.Output = "stdout"
	r.Harness.Mode = "benign"
	r.Harness.Seed = 1
	r.Database.Driver = DriverBuntDB
	r.API.Address = defaultAPIAddress
	r.API.RequestsPerSecond = 20
}
