// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package topicindex

import (
	"fmt"
	"net"
)

// Node is the record of a discovery node.
type Node struct {
	ID      ID
	Seq     uint64
	IP      net.IP
	UDPPort int
	RPCPort int
}

// NewNode creates a node record whose ID is derived from its UDP endpoint.
func NewNode(ip net.IP, udpPort, rpcPort int) *Node {
	n := &Node{IP: ip, UDPPort: udpPort, RPCPort: rpcPort, Seq: 1}
	n.ID = HashID([]byte(n.UDPAddr().String()))
	return n
}

// UDPAddr is the discovery endpoint of the node.
func (n *Node) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: n.IP, Port: n.UDPPort}
}

func (n *Node) String() string {
	return fmt.Sprintf("%s@%s", n.ID.TerminalString(), n.UDPAddr())
}

// newer returns the record with the higher sequence number.
func newer(a, b *Node) *Node {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Seq >= b.Seq:
		return a
	default:
		return b
	}
}
