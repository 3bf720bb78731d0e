// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package discv5

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/topicindex"
	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// StepInterval is the simulated time between two steps of a Network.
const StepInterval = time.Second

var log = logger.WithField("process", "discv5")

// Stats summarizes the state of a Network.
type Stats struct {
	Nodes    int           `json:"nodes"`
	SimTime  time.Duration `json:"simTime"`
	Lookups  int           `json:"lookups"`
	Failures int           `json:"failures"`

	Registrations int `json:"registrations"`
	Confirmations int `json:"confirmations"`
	ActiveAds     int `json:"activeAds"`
	TicketsIssued int `json:"ticketsIssued"`

	SearchResults  int `json:"searchResults"`
	SearchRestarts int `json:"searchRestarts"`
	// FoundPerTopic is the number of distinct registrants of a topic found
	// by at least one searcher.
	FoundPerTopic map[string]int `json:"foundPerTopic"`
	// DiscoveryRatio is the share of (searcher, registrant) pairs of a
	// topic for which the searcher found the registrant.
	DiscoveryRatio float64 `json:"discoveryRatio"`

	Messages map[MsgKind]int `json:"messages"`
}

// Network is a set of peers connected through an in-process transport and
// driven by a simulated clock.
type Network struct {
	params    Params
	clock     *topicindex.SimClock
	transport *memTransport
	peers     []*Peer
	log       *logger.Entry

	bootstrapped bool
}

// PeerSettings are the per-peer values a Network is built from.
type PeerSettings struct {
	Register string
	Search   string

	RegBucketSize    int
	SearchBucketSize int
	AdLifetime       time.Duration
	AdCacheSize      int
	ReturnedNodes    int

	Log *logger.Entry
}

// PeerOption changes the settings of peer i before it is created.
type PeerOption func(i int, s *PeerSettings) error

// settingsFor returns the settings of peer i derived from params.
func settingsFor(params Params, i int, entry *logger.Entry) PeerSettings {
	return PeerSettings{
		Register:         TopicName(i % params.Topics),
		Search:           TopicName((i + 1) % params.Topics),
		RegBucketSize:    params.RegBucketSize,
		SearchBucketSize: params.SearchBucketSize,
		AdLifetime:       params.AdLifetime,
		AdCacheSize:      params.AdCacheSize,
		ReturnedNodes:    params.ReturnedNodes,
		Log:              entry,
	}
}

// NewNetwork creates the peers described by params. Peer i registers topic
// i mod Topics and searches topic (i+1) mod Topics unless an option says
// otherwise.
func NewNetwork(params Params, entry *logger.Entry, opts ...PeerOption) (*Network, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if entry == nil {
		entry = log
	}

	n := &Network{
		params:    params,
		clock:     new(topicindex.SimClock),
		transport: newMemTransport(),
		log:       entry,
	}

	ip := net.IPv4(127, 0, 0, 1)
	for i := 0; i < params.Nodes; i++ {
		self := topicindex.NewNode(ip, params.UDPBasePort+i, params.RPCBasePort+i)
		ps := settingsFor(params, i, entry)
		for _, opt := range opts {
			if err := opt(i, &ps); err != nil {
				return nil, errors.Wrapf(err, "settings of peer %d", i)
			}
		}

		cfg := topicindex.Config{
			RegBucketSize:    ps.RegBucketSize,
			SearchBucketSize: ps.SearchBucketSize,
			AdLifetime:       ps.AdLifetime,
			AdCacheSize:      ps.AdCacheSize,
			Clock:            n.clock,
			Rand:             rand.New(rand.NewSource(params.Seed + int64(i))), //nolint:gosec
			Log:              ps.Log,
		}

		p := NewPeer(self, n.transport, cfg, ps.ReturnedNodes)
		p.Register(ps.Register)
		p.Search(ps.Search)

		n.peers = append(n.peers, p)
		n.transport.peers[self.ID] = p
	}

	return n, nil
}

// Peers returns the peers of the network, in index order.
func (n *Network) Peers() []*Peer {
	return n.peers
}

// Transport returns the transport connecting the peers.
func (n *Network) Transport() Transport {
	return n.transport
}

// Now returns the current simulated time.
func (n *Network) Now() topicindex.AbsTime {
	return n.clock.Now()
}

// Bootstrap seeds every routing table with node 0, then makes each peer
// look up its own id and a random id.
func (n *Network) Bootstrap() {
	if n.bootstrapped {
		return
	}
	n.bootstrapped = true

	boot := n.peers[0].self
	for _, p := range n.peers[1:] {
		p.table.Add(boot)
	}

	for _, p := range n.peers {
		p.lookup(p.self.ID)
	}
	for _, p := range n.peers {
		p.lookup(topicindex.RandomID(p.cfg.Rand, p.self.ID, topicindex.IDBits))
	}

	n.log.WithFields(logger.Fields{
		"nodes":     len(n.peers),
		"boot":      boot.ID.TerminalString(),
		"boottable": n.peers[0].table.Len(),
	}).Info("network bootstrapped")
}

// Run bootstraps the network if needed and advances it by d in steps of
// StepInterval. A non-positive d runs Params.RunDuration. It returns
// ctx.Err() if the context is cancelled before the end of the run.
func (n *Network) Run(ctx context.Context, d time.Duration) error {
	n.Bootstrap()

	if d <= 0 {
		d = n.params.RunDuration()
	}

	// progress is reported at most once per second of wall time
	progress := rate.NewLimiter(rate.Every(time.Second), 1)

	steps := int(d / StepInterval)
	for s := 0; s < steps; s++ {
		select {
		case <-ctx.Done():
			n.log.WithField("step", s).Warn("network run interrupted")
			return ctx.Err()
		default:
		}

		for _, p := range n.peers {
			p.Step()
		}
		n.clock.Run(StepInterval)

		if progress.Allow() {
			st := n.Stats()
			n.log.WithFields(logger.Fields{
				"simtime":       st.SimTime,
				"registrations": st.Registrations,
				"results":       st.SearchResults,
				"ratio":         st.DiscoveryRatio,
			}).Debug("network progress")
		}
	}
	return nil
}

// Stats collects the counters of every peer and of the transport. It must
// not be called concurrently with Run.
func (n *Network) Stats() Stats {
	st := Stats{
		Nodes:         len(n.peers),
		SimTime:       time.Duration(n.clock.Now()),
		FoundPerTopic: make(map[string]int),
	}

	registrants := make(map[topicindex.TopicID]map[topicindex.ID]struct{})
	for _, p := range n.peers {
		for topic := range p.reg {
			if registrants[topic] == nil {
				registrants[topic] = make(map[topicindex.ID]struct{})
			}
			registrants[topic][p.self.ID] = struct{}{}
		}
	}

	var expected, found int
	distinct := make(map[topicindex.TopicID]map[topicindex.ID]struct{})
	names := make(map[topicindex.TopicID]string)
	for _, p := range n.peers {
		ps := p.Stats()
		st.Lookups += ps.Lookups
		st.Registrations += ps.Registrations
		st.Confirmations += ps.Confirmations
		st.ActiveAds += ps.Ads
		st.TicketsIssued += ps.TicketsIssued
		st.SearchResults += ps.SearchResults
		st.SearchRestarts += ps.SearchRestarts

		for topic, s := range p.search {
			regs := registrants[topic]
			expected += len(regs)
			if _, self := regs[p.self.ID]; self {
				expected--
			}

			names[topic] = s.name
			if distinct[topic] == nil {
				distinct[topic] = make(map[topicindex.ID]struct{})
			}
			for id := range s.found {
				if _, ok := regs[id]; ok {
					found++
					distinct[topic][id] = struct{}{}
				}
			}
		}
	}

	for topic, ids := range distinct {
		st.FoundPerTopic[names[topic]] = len(ids)
	}

	if expected > 0 {
		st.DiscoveryRatio = float64(found) / float64(expected)
	}

	st.Messages, st.Failures = n.transport.counters()
	return st
}
