// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package engine

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dusk-network/discv5-harness/pkg/p2p/discv5"
	"github.com/dusk-network/discv5-harness/pkg/util/nativeutils/logging"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	// EnableHarness a test CLI param to enable harness bootstrapping
	EnableHarness = flag.Bool("enable", false, "Enable Test Harness bootstrapping")
	// KeepAlive a test CLI param to keep the harness workspace even after all
	// tests have passed. It's useful when sandboxes should be inspected.
	KeepAlive = flag.Bool("keepalive", false, "Keep Test Harness workspace after tests pass")

	// ErrDisabledHarness yields a disabled test harness
	ErrDisabledHarness = errors.New("disabled test harness")
)

var log = logger.WithField("process", "harness")

// ConfigFileName is the name of the configuration file of a node sandbox.
const ConfigFileName = "discv5.toml"

// Network describes the current network configuration in terms of nodes and
// the simulation driving them
type Network struct {
	Nodes  []*Node
	Params discv5.Params

	sim *discv5.Network
	log *logger.Entry

	// per-node loggers, in node order
	nodeLogs []*logger.Entry
	closers  []io.Closer
}

// NewNetwork creates the nodes of a network running profile. The profile
// must be one of the registered ones.
func NewNetwork(p discv5.Params, profile string, entry *logger.Entry) (*Network, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if _, ok := profileList[profile]; !ok {
		return nil, fmt.Errorf("invalid config profile %q", profile)
	}
	if entry == nil {
		entry = log
	}

	n := &Network{Params: p, log: entry}
	for i := 0; i < p.Nodes; i++ {
		n.Nodes = append(n.Nodes, NewNode(i, profile, p))
	}
	return n, nil
}

// CheckEnabled reports ErrDisabledHarness unless the -enable test flag is
// set.
func CheckEnabled() error {
	// Network bootstrapping is disabled by default as it's intended to be run
	// on demand only but not by CI for now.
	// To enable it: go test -v ./...  -args -enable
	if !*EnableHarness {
		log.Println("Test Harness bootstrapping is disabled.")
		log.Println("To enable it: `go test -v ./...  -args -enable`")
		return ErrDisabledHarness
	}
	return nil
}

// Bootstrap performs all actions needed to initialize the network: a
// sandbox with a generated configuration per node, then the simulated
// peers joining through node 0.
func (n *Network) Bootstrap(workspace string) error {
	// Foreach node create its sandbox and configuration
	for _, node := range n.Nodes {
		if err := n.prepareNode(node, workspace); err != nil {
			return err
		}
	}

	sim, err := discv5.NewNetwork(n.Params, n.log, n.fromSandbox)
	if err != nil {
		n.Teardown()
		return err
	}

	boot := sim.Peers()[0].Self().UDPAddr().String()
	for i, p := range sim.Peers() {
		cfg := n.Nodes[i].Cfg
		if cfg.Node.ID != p.Self().ID.String() || cfg.Node.UDPPort != p.Self().UDPPort {
			n.Teardown()
			return fmt.Errorf("sandbox of node %d does not match its peer", i)
		}
		if cfg.Discovery.Bootnode != boot {
			n.Teardown()
			return fmt.Errorf("node %d bootnode %s, expected %s", i, cfg.Discovery.Bootnode, boot)
		}
	}

	sim.Bootstrap()
	n.sim = sim

	n.log.Infof("Local network workspace: %s", workspace)
	n.log.Infof("Running %d nodes", len(n.Nodes))
	return nil
}

// fromSandbox applies the loaded sandbox configuration of node i to its peer
// and opens the node log.
func (n *Network) fromSandbox(i int, s *discv5.PeerSettings) error {
	cfg := n.Nodes[i].Cfg

	s.Register = cfg.Topics.Register
	s.Search = cfg.Topics.Search
	s.RegBucketSize = cfg.Discovery.RegBucketSize
	s.SearchBucketSize = cfg.Discovery.SearchBucketSize
	s.AdLifetime = cfg.Discovery.AdLifetime
	s.AdCacheSize = cfg.Discovery.AdCacheSize
	s.ReturnedNodes = cfg.Discovery.ReturnedNodes

	l, closer, err := logging.NewLogger(cfg.Logger.Output, cfg.Logger.Level)
	if err != nil {
		return err
	}
	n.closers = append(n.closers, closer)

	entry := l.WithFields(logger.Fields{
		"process": "discv5",
		"index":   cfg.Node.Index,
		"mode":    cfg.Node.Mode,
	})
	n.nodeLogs = append(n.nodeLogs, entry)
	s.Log = entry
	return nil
}

// Teardown closes the node logs. The sandboxes are left in place.
func (n *Network) Teardown() {
	for _, c := range n.closers {
		_ = c.Close()
	}
	n.closers = nil
}

// Run advances a bootstrapped network by its configured duration.
func (n *Network) Run(ctx context.Context) error {
	if n.sim == nil {
		return errors.New("network not bootstrapped")
	}
	return n.sim.Run(ctx, 0)
}

// Stats returns the counters of the simulation.
func (n *Network) Stats() discv5.Stats {
	if n.sim == nil {
		return discv5.Stats{}
	}
	return n.sim.Stats()
}

// prepareNode creates the node folder and its configuration file
func (n *Network) prepareNode(node *Node, workspace string) error {
	nodeDir := filepath.Join(workspace, node.Name())
	if err := os.MkdirAll(nodeDir, os.ModeDir|os.ModePerm); err != nil {
		return err
	}
	node.Dir = nodeDir

	_, err := n.generateConfig(node)
	return err
}

// generateConfig loads the config profile assigned to the node, writes it to
// the node sandbox and loads it back into the node.
func (n *Network) generateConfig(node *Node) (string, error) {
	profileFunc, ok := profileList[node.ConfigProfileID]
	if !ok {
		return "", fmt.Errorf("invalid config profile for node index %d", node.Index)
	}

	v := viper.New()
	profileFunc(v, node, n.Params)

	configPath := filepath.Join(node.Dir, ConfigFileName)
	if err := v.WriteConfigAs(configPath); err != nil {
		return "", fmt.Errorf("config profile err '%s' for node index %d", err.Error(), node.Index)
	}

	// Finally load sandbox configuration and setting it in the node
	var err error
	node.Cfg, err = LoadNodeConfig(configPath)
	if err != nil {
		return "", fmt.Errorf("LoadNodeConfig %s failed with err %s", configPath, err.Error())
	}

	return configPath, nil
}
