// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package tests

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/dusk-network/discv5-harness/harness/engine"
	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/sirupsen/logrus"
)

var (
	localNetSizeStr = os.Getenv("DISCV5_NETWORK_SIZE")
	localNetSize    = 50

	// tomlProfile could be 'benign' or 'attack'.
	tomlProfile = os.Getenv("DISCV5_NETWORK_PROFILE")
)

var (
	localNet  *engine.Network
	workspace string
)

// TestMain sets up a local network of N simulated nodes, each with its own
// sandbox, and runs it for the default duration.
func TestMain(m *testing.M) {
	flag.Parse()

	if err := engine.CheckEnabled(); err != nil {
		fmt.Println(err)
		os.Exit(0)
	}

	// create the temp-dir workspace. Quit on error
	workspace = path.Join(os.TempDir(), "localnet")
	if err := os.Mkdir(workspace, 0700); err != nil {
		fmt.Println("Cleaning temp directory", workspace)

		if err := os.RemoveAll(workspace); err == nil {
			_ = os.Mkdir(workspace, 0700)
		}
	}

	// set the network size
	if localNetSizeStr != "" {
		currentLocalNetSize, currentErr := strconv.Atoi(localNetSizeStr)
		if currentErr != nil {
			quit(workspace, currentErr)
		}

		fmt.Println("Going to setup NETWORK_SIZE with custom value", "currentLocalNetSize", currentLocalNetSize)
		localNetSize = currentLocalNetSize
	}

	mode := features.Benign
	if tomlProfile != "" {
		var err error
		if mode, err = features.ParseMode(tomlProfile); err != nil {
			quit(workspace, err)
		}
	}

	s := features.Defaults().Baseline(mode)
	s.Params[features.Nodes] = localNetSize

	var err error
	localNet, err = engine.NewNetwork(engine.ParamsFor(s, 1, 0), mode.String(), nil)
	if err != nil {
		quit(workspace, err)
	}

	if err := localNet.Bootstrap(workspace); err != nil {
		quit(workspace, err)
	}

	if err := localNet.Run(context.Background()); err != nil {
		quit(workspace, err)
	}

	fmt.Println("Network run complete")

	// Start all tests
	code := m.Run()

	// finalize the tests and exit
	exit(workspace, code)
}

func quit(workspace string, err error) {
	if err != nil {
		log.Println(err)
		exit(workspace, 1)
	}

	exit(workspace, 0)
}

func exit(workspace string, code int) {
	if localNet != nil {
		localNet.Teardown()
	}

	if !*engine.KeepAlive {
		_ = os.RemoveAll(workspace)
	}

	os.Exit(code)
}

// TestSandboxes ensures every node got a loadable configuration matching its
// peer record.
func TestSandboxes(t *testing.T) {
	for _, node := range localNet.Nodes {
		cfg, err := engine.LoadNodeConfig(filepath.Join(workspace, node.Name(), engine.ConfigFileName))
		if err != nil {
			t.Fatal(err)
		}

		if cfg.Node.ID != node.Record.ID.String() {
			t.Errorf("node %d: unexpected id %s", node.Index, cfg.Node.ID)
		}
	}
}

// TestTopicDiscovery ensures that searchers found at least some registrants
// of their topic.
func TestTopicDiscovery(t *testing.T) {
	st := localNet.Stats()

	logrus.WithFields(logrus.Fields{
		"registrations": st.Registrations,
		"ads":           st.ActiveAds,
		"tickets":       st.TicketsIssued,
		"results":       st.SearchResults,
		"ratio":         st.DiscoveryRatio,
	}).Info("Network status")

	if st.Registrations == 0 {
		t.Error("no registration was confirmed")
	}

	if st.DiscoveryRatio == 0 {
		t.Error("no registrant was discovered")
	}

	if st.Failures > 0 {
		t.Errorf("%d requests failed", st.Failures)
	}
}
