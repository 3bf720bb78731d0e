// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package config

// A single point of constants definition
const (
	// HarnessVersion is the semantic version of the harness binary.
	HarnessVersion = "0.3.0"

	// defaultResultDir duplicates features.ResultDir as this package must
	// not import harness packages.
	defaultResultDir = "./discv5_test_logs"

	defaultAPIAddress = "127.0.0.1:9797"

	// DriverBuntDB and DriverLevelDB name the results store drivers.
	DriverBuntDB  = "buntdb"
	DriverLevelDB = "leveldb"
)
