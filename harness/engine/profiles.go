// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package engine

import (
	"net"
	"path/filepath"
	"strconv"

	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/dusk-network/discv5-harness/pkg/p2p/discv5"
	"github.com/spf13/viper"
)

// Profile fills v with the discv5.toml definition of a node.
type Profile func(v *viper.Viper, node *Node, p discv5.Params)

// Profiles is a map with the profile name as key and Profile function
type Profiles map[string]Profile

var profileList = Profiles{
	features.Benign.String(): BenignProfile,
	features.Attack.String(): AttackProfile,
}

// BenignProfile builds the default discv5.toml definition
func BenignProfile(v *viper.Viper, node *Node, p discv5.Params) {
	v.Set("node.index", node.Index)
	v.Set("node.id", node.Record.ID.String())
	v.Set("node.ip", node.Record.IP.String())
	v.Set("node.udpport", node.Record.UDPPort)
	v.Set("node.rpcport", node.Record.RPCPort)
	v.Set("node.mode", features.Benign.String())

	v.Set("topics.register", discv5.TopicName(node.Index%p.Topics))
	v.Set("topics.search", discv5.TopicName((node.Index+1)%p.Topics))

	v.Set("discovery.bootnode", net.JoinHostPort("127.0.0.1", strconv.Itoa(p.UDPBasePort)))
	v.Set("discovery.regbucketsize", p.RegBucketSize)
	v.Set("discovery.searchbucketsize", p.SearchBucketSize)
	v.Set("discovery.adlifetime", p.AdLifetime.String())
	v.Set("discovery.adcachesize", p.AdCacheSize)
	v.Set("discovery.returnednodes", p.ReturnedNodes)

	v.Set("logger.output", filepath.Join(node.Dir, "discv5"))
	v.Set("logger.level", "warn")
}

// AttackProfile builds discv5.toml for a network running the attack
// defaults. Nodes log at debug level.
func AttackProfile(v *viper.Viper, node *Node, p discv5.Params) {
	BenignProfile(v, node, p)
	v.Set("node.mode", features.Attack.String())
	v.Set("logger.level", "debug")
}
