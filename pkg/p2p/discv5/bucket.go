// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package discv5

import "github.com/dusk-network/discv5-harness/pkg/topicindex"

// BucketSize is the maximum number of nodes per routing table bucket.
const BucketSize = 16

// bucket stores the nodes that are at a certain distance from the local
// node.
type bucket struct {
	totalNodesPassed uint64
	// Should always be less than `BucketSize`
	entries []*topicindex.Node
	// This map keeps the order of arrivals for LRU
	lru map[topicindex.ID]uint64
}

func makeBucket() bucket {
	return bucket{
		entries: make([]*topicindex.Node, 0, BucketSize),
		lru:     make(map[topicindex.ID]uint64),
	}
}

func (b *bucket) indexOf(id topicindex.ID) int {
	for i, n := range b.entries {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Finds the Least Recently Used node of the bucket and returns its index.
func (b *bucket) findLRUIndex() int {
	val := b.totalNodesPassed
	i := 0
	for index, n := range b.entries {
		if b.lru[n.ID] <= val {
			val = b.lru[n.ID]
			i = index
		}
	}
	return i
}

// Remove a node from the entries set without caring about the order.
func (b *bucket) removeAtIndex(index int) {
	delete(b.lru, b.entries[index].ID)
	last := len(b.entries) - 1
	b.entries[index] = b.entries[last]
	b.entries[last] = nil
	b.entries = b.entries[:last]
}

// add inserts or refreshes a node following the LRU policy. It returns
// true if the node was not in the bucket before.
func (b *bucket) add(n *topicindex.Node) bool {
	defer func() { b.totalNodesPassed++ }()

	if i := b.indexOf(n.ID); i >= 0 {
		if n.Seq > b.entries[i].Seq {
			b.entries[i] = n
		}
		b.lru[n.ID] = b.totalNodesPassed
		return false
	}

	// If the entries set is full, we perform LRU and remove a node to
	// include the new one.
	if len(b.entries) >= BucketSize {
		b.removeAtIndex(b.findLRUIndex())
	}

	b.entries = append(b.entries, n)
	b.lru[n.ID] = b.totalNodesPassed
	return true
}
