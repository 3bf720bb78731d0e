// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package engine

import (
	"net"
	"strconv"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/p2p/discv5"
	"github.com/dusk-network/discv5-harness/pkg/topicindex"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// NodeConfig is the content of the discv5.toml file of a node sandbox.
type NodeConfig struct {
	Node struct {
		Index   int
		ID      string
		IP      string
		UDPPort int
		RPCPort int
		Mode    string
	}

	Topics struct {
		Register string
		Search   string
	}

	Discovery struct {
		Bootnode         string
		RegBucketSize    int
		SearchBucketSize int
		AdLifetime       time.Duration
		AdCacheSize      int
		ReturnedNodes    int
	}

	Logger struct {
		Level  string
		Output string
	}
}

// Node is the struct representing a node instance in the local Network.
type Node struct {
	Index           int
	ConfigProfileID string
	Record          *topicindex.Node

	// Cfg is loaded back from the sandbox configuration file.
	Cfg NodeConfig

	// Node sandbox directory.
	Dir string
}

// NewNode instantiates the node of index i of a network built from p.
func NewNode(i int, profileID string, p discv5.Params) *Node {
	return &Node{
		Index:           i,
		ConfigProfileID: profileID,
		Record:          topicindex.NewNode(net.IPv4(127, 0, 0, 1), p.UDPBasePort+i, p.RPCBasePort+i),
	}
}

// Name is the sandbox directory name of the node.
func (n *Node) Name() string {
	return "node-" + strconv.Itoa(n.Index)
}

// LoadNodeConfig reads a discv5.toml file.
func LoadNodeConfig(path string) (NodeConfig, error) {
	var c NodeConfig

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return c, errors.Wrapf(err, "could not read %s", path)
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, errors.Wrapf(err, "could not decode %s", path)
	}
	return c, nil
}
