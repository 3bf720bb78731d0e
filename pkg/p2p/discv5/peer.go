// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package discv5

import (
	"bytes"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/topicindex"
	logger "github.com/sirupsen/logrus"
)

// regLookupInterval is the pause between two lookups of a registration.
const regLookupInterval = 2 * time.Second

// Peer is a simulated discovery node. Requests of other peers may be served
// concurrently with Step, but Step itself must not be called concurrently.
type Peer struct {
	self      *topicindex.Node
	transport Transport
	cfg       topicindex.Config
	returned  int
	log       *logger.Entry

	table *RoutingTable

	mu  sync.Mutex
	ads *topicindex.AdCache

	reg    map[topicindex.TopicID]*topicReg
	search map[topicindex.TopicID]*topicSearch

	lookups int
}

// PeerStats are the counters of a single peer.
type PeerStats struct {
	Registrations  int
	Confirmations  int
	Ads            int
	TicketsIssued  int
	SearchResults  int
	SearchRestarts int
	Lookups        int
}

type topicReg struct {
	name       string
	state      *topicindex.Registration
	nextLookup topicindex.AbsTime
	confirmed  int
}

type topicSearch struct {
	name  string
	state *topicindex.Search
	found map[topicindex.ID]struct{}

	restartAt topicindex.AbsTime
	restarts  int
}

// NewPeer creates a peer reachable through transport. cfg.Self is set to
// the id of self.
func NewPeer(self *topicindex.Node, transport Transport, cfg topicindex.Config, returnedNodes int) *Peer {
	cfg.Self = self.ID
	if cfg.Clock == nil {
		cfg.Clock = topicindex.SystemClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
	if cfg.Log == nil {
		cfg.Log = logger.WithField("process", "discv5")
	}
	cfg.Log = cfg.Log.WithField("node", self.ID.TerminalString())

	return &Peer{
		self:      self,
		transport: transport,
		cfg:       cfg,
		returned:  returnedNodes,
		log:       cfg.Log,
		table:     NewRoutingTable(self),
		ads:       topicindex.NewAdCache(cfg),
		reg:       make(map[topicindex.TopicID]*topicReg),
		search:    make(map[topicindex.TopicID]*topicSearch),
	}
}

// Self returns the node record of the peer.
func (p *Peer) Self() *topicindex.Node {
	return p.self
}

// Table returns the routing table of the peer.
func (p *Peer) Table() *RoutingTable {
	return p.table
}

// Register starts advertising the peer in topic name.
func (p *Peer) Register(name string) {
	topic := topicindex.NewTopicID(name)
	if _, ok := p.reg[topic]; ok {
		return
	}
	p.reg[topic] = &topicReg{
		name:  name,
		state: topicindex.NewRegistration(topic, p.cfg),
	}
}

// Search starts looking for registrants of topic name.
func (p *Peer) Search(name string) {
	topic := topicindex.NewTopicID(name)
	if _, ok := p.search[topic]; ok {
		return
	}
	p.search[topic] = &topicSearch{
		name:  name,
		state: topicindex.NewSearch(topic, p.cfg),
		found: make(map[topicindex.ID]struct{}),

		restartAt: topicindex.Never,
	}
}

// Found returns the registrants of topic name found so far.
func (p *Peer) Found(name string) []topicindex.ID {
	s, ok := p.search[topicindex.NewTopicID(name)]
	if !ok {
		return nil
	}
	out := make([]topicindex.ID, 0, len(s.found))
	for id := range s.found {
		out = append(out, id)
	}
	return out
}

// Step performs the work due at the current time of the clock.
func (p *Peer) Step() {
	for _, topic := range sortedTopics(p.reg) {
		p.stepRegistration(p.reg[topic])
	}
	for _, topic := range sortedSearchTopics(p.search) {
		p.stepSearch(p.search[topic])
	}
}

func (p *Peer) stepRegistration(reg *topicReg) {
	now := p.cfg.Clock.Now()
	if now >= reg.nextLookup {
		l := p.lookup(reg.state.LookupTarget())
		reg.state.AddNodes(l.seen)
		reg.nextLookup = now.Add(regLookupInterval)
	}

	topic := reg.state.Topic()
	for att := reg.state.Update(); att != nil; att = reg.state.Update() {
		if err := reg.state.StartRequest(att); err != nil {
			p.log.WithError(err).Error("could not start registration request")
			return
		}

		res, err := p.transport.RegTopic(p.self, att.Node, topic, att.Ticket)
		switch {
		case err != nil:
			err = reg.state.HandleErrorResponse(att, err)
		case res.Registered:
			reg.confirmed++
			err = reg.state.HandleRegistered(att, res.TTL)
		default:
			err = reg.state.HandleTicketResponse(att, res.Ticket, res.WaitTime)
		}

		if err != nil {
			p.log.WithError(err).Error("could not handle registration response")
			return
		}
	}
}

func (p *Peer) stepSearch(s *topicSearch) {
	now := p.cfg.Clock.Now()
	if s.state.IsDone() {
		// a saturated search is replaced by a fresh one after
		// SearchLookupMinDelay
		switch {
		case s.restartAt == topicindex.Never:
			s.restartAt = now.Add(topicindex.SearchLookupMinDelay)
		case now >= s.restartAt:
			s.restarts++
			s.restartAt = topicindex.Never
			s.state = topicindex.NewSearch(s.state.Topic(), p.cfg)
		}
		return
	}

	if now >= s.state.NextLookupTime() {
		l := p.lookup(s.state.StartLookup())
		s.state.AddNodes(l.closest)
	}

	topic := s.state.Topic()
	for n := s.state.QueryTarget(); n != nil; n = s.state.QueryTarget() {
		results, err := p.transport.TopicQuery(p.self, n, topic)
		if err != nil {
			p.log.WithError(err).Debug("topic query failed")
			s.state.MarkAsked(n)
			continue
		}
		s.state.AddQueryResults(n, results)
	}

	for r := s.state.PeekResult(); r != nil; r = s.state.PeekResult() {
		s.found[r.ID] = struct{}{}
		s.state.PopResult()
	}
}

func (p *Peer) handleFindNode(from *topicindex.Node, target topicindex.ID) []*topicindex.Node {
	p.table.Add(from)
	return p.table.Closest(target, p.returned)
}

func (p *Peer) handleRegTopic(from *topicindex.Node, topic topicindex.TopicID, ticket []byte) (topicindex.RegResult, error) {
	p.table.Add(from)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ads.Register(topic, from, ticket)
}

func (p *Peer) handleTopicQuery(from *topicindex.Node, topic topicindex.TopicID) []*topicindex.Node {
	p.table.Add(from)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ads.Query(topic, p.returned)
}

// Stats returns the counters of the peer. It must not be called concurrently
// with Step.
func (p *Peer) Stats() PeerStats {
	st := PeerStats{Lookups: p.lookups}
	for _, r := range p.reg {
		st.Registrations += r.state.Count(topicindex.Registered)
		st.Confirmations += r.confirmed
	}
	for _, s := range p.search {
		st.SearchResults += len(s.found)
		st.SearchRestarts += s.restarts
	}

	p.mu.Lock()
	st.Ads = p.ads.Len()
	st.TicketsIssued = p.ads.TicketsIssued()
	p.mu.Unlock()
	return st
}

func sortedTopics(m map[topicindex.TopicID]*topicReg) []topicindex.TopicID {
	out := make([]topicindex.TopicID, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sortTopicIDs(out)
	return out
}

func sortedSearchTopics(m map[topicindex.TopicID]*topicSearch) []topicindex.TopicID {
	out := make([]topicindex.TopicID, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sortTopicIDs(out)
	return out
}

func sortTopicIDs(ids []topicindex.TopicID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
