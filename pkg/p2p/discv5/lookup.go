// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package discv5

import (
	"github.com/dusk-network/discv5-harness/pkg/topicindex"
	logger "github.com/sirupsen/logrus"
)

// Alpha is the number of FINDNODE requests of a lookup per round.
const Alpha = 3

type lookupResult struct {
	// the starting nodes and every node reported during the lookup, in
	// order of arrival
	seen []*topicindex.Node
	// the BucketSize nodes closest to the target
	closest []*topicindex.Node
}

// lookup runs an iterative FINDNODE lookup of target. It ends once the
// BucketSize closest nodes known have all been asked.
func (p *Peer) lookup(target topicindex.ID) lookupResult {
	p.lookups++

	var res lookupResult
	known := make(map[topicindex.ID]struct{})
	asked := make(map[topicindex.ID]struct{})
	failed := make(map[topicindex.ID]struct{})

	candidates := p.table.Closest(target, BucketSize)
	for _, n := range candidates {
		known[n.ID] = struct{}{}
	}
	res.seen = append(res.seen, candidates...)

	for {
		var round []*topicindex.Node
		for _, n := range candidates {
			if _, ok := asked[n.ID]; ok {
				continue
			}
			round = append(round, n)
			if len(round) == Alpha {
				break
			}
		}
		if len(round) == 0 {
			break
		}

		for _, n := range round {
			asked[n.ID] = struct{}{}

			found, err := p.transport.FindNode(p.self, n, target)
			if err != nil {
				p.log.WithError(err).Debug("findnode failed")
				failed[n.ID] = struct{}{}
				continue
			}

			for _, f := range found {
				if f.ID == p.self.ID {
					continue
				}
				p.table.Add(f)
				if _, ok := known[f.ID]; ok {
					continue
				}
				known[f.ID] = struct{}{}
				res.seen = append(res.seen, f)
				candidates = append(candidates, f)
			}
		}

		sortByDistance(target, candidates)
		candidates = dropFailed(candidates, failed)
		if len(candidates) > BucketSize {
			candidates = candidates[:BucketSize]
		}
	}

	res.closest = candidates
	p.log.WithFields(logger.Fields{
		"target": target.TerminalString(),
		"asked":  len(asked),
		"seen":   len(res.seen),
	}).Trace("lookup done")
	return res
}

func dropFailed(nodes []*topicindex.Node, failed map[topicindex.ID]struct{}) []*topicindex.Node {
	if len(failed) == 0 {
		return nodes
	}
	out := nodes[:0]
	for _, n := range nodes {
		if _, ok := failed[n.ID]; !ok {
			out = append(out, n)
		}
	}
	return out
}
