// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package discv5

import (
	"sort"
	"sync"

	"github.com/dusk-network/discv5-harness/pkg/topicindex"
)

// RoutingTable holds the nodes known by a peer, bucketed by their
// logarithmic distance to it.
type RoutingTable struct {
	self *topicindex.Node

	mu      sync.RWMutex
	buckets [topicindex.IDBits]bucket
}

// NewRoutingTable creates an empty table for self.
func NewRoutingTable(self *topicindex.Node) *RoutingTable {
	t := &RoutingTable{self: self}
	for i := range t.buckets {
		t.buckets[i] = makeBucket()
	}
	return t
}

// Add inserts or refreshes n. The local node is never added. It returns
// true if n was not known before.
func (t *RoutingTable) Add(n *topicindex.Node) bool {
	dist := topicindex.LogDist(t.self.ID, n.ID)
	if dist == 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buckets[dist-1].add(n)
}

// Len returns the number of nodes in the table.
func (t *RoutingTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var n int
	for i := range t.buckets {
		n += len(t.buckets[i].entries)
	}
	return n
}

// Closest returns at most n nodes of the table ordered by their XOR
// distance to target.
func (t *RoutingTable) Closest(target topicindex.ID, n int) []*topicindex.Node {
	t.mu.RLock()
	var all []*topicindex.Node
	for i := range t.buckets {
		all = append(all, t.buckets[i].entries...)
	}
	t.mu.RUnlock()

	sortByDistance(target, all)
	if n < 0 {
		n = 0
	}
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func sortByDistance(target topicindex.ID, nodes []*topicindex.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return topicindex.DistCmp(target, nodes[i].ID, nodes[j].ID) < 0
	})
}
