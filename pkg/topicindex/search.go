// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package topicindex

import (
	"bytes"
	"time"

	cuckoo "github.com/seiflotfy/cuckoofilter"
	logger "github.com/sirupsen/logrus"
)

const (
	// searchTableDepth is the number of distance buckets of a Search.
	searchTableDepth = 40

	// SearchLookupMinDelay is the minimum delay between two lookups of a
	// Search.
	SearchLookupMinDelay = 3 * time.Second

	// searchSeenCapacity sizes the filter of reported registrants. The
	// filter answers most lookups of new registrants; its false positives
	// are resolved against the exact set of reported ids.
	searchSeenCapacity = 4096
)

// Search tracks the search of one topic. It is not safe for concurrent use.
type Search struct {
	topic TopicID
	cfg   Config
	log   *logger.Entry

	// ordered far -> close
	buckets [searchTableDepth]searchBucket

	resultBuffer []*Node
	numResults   int
	seen         *cuckoo.Filter
	reported     map[ID]struct{}

	lastLookup             AbsTime
	lookups                int
	queriesWithoutNewNodes int
}

type searchBucket struct {
	dist       int
	new        map[ID]*Node
	asked      map[ID]struct{}
	numResults int
}

// NewSearch creates the search state of topic.
func NewSearch(topic TopicID, cfg Config) *Search {
	cfg = cfg.withDefaults()
	s := &Search{
		topic:    topic,
		cfg:      cfg,
		log:      cfg.Log.WithField("topic", ID(topic).TerminalString()),
		seen:     cuckoo.NewFilter(searchSeenCapacity),
		reported: make(map[ID]struct{}),
	}
	for i := range s.buckets {
		s.buckets[i].new = make(map[ID]*Node)
		s.buckets[i].asked = make(map[ID]struct{})
		s.buckets[i].dist = IDBits - i
	}
	return s
}

// Topic returns the topic being searched.
func (s *Search) Topic() TopicID {
	return s.topic
}

// IsDone reports whether the search is saturated: nothing is buffered,
// no node is left to ask and the last two lookups found no new node.
func (s *Search) IsDone() bool {
	if len(s.resultBuffer) > 0 {
		return false
	}
	for _, b := range s.buckets {
		if len(b.new) > 0 {
			return false
		}
	}
	return s.queriesWithoutNewNodes >= 2
}

// NextLookupTime returns when the next lookup may start.
func (s *Search) NextLookupTime() AbsTime {
	if s.IsDone() {
		return Never
	}
	if s.lookups == 0 {
		return s.cfg.Clock.Now()
	}
	return s.lastLookup.Add(SearchLookupMinDelay)
}

// StartLookup records the start of a lookup and returns its target: a
// random id in the closest bucket which still has room, or the topic.
func (s *Search) StartLookup() ID {
	s.lookups++
	s.lastLookup = s.cfg.Clock.Now()

	center := ID(s.topic)
	for i := len(s.buckets) - 1; i >= 0; i-- {
		b := &s.buckets[i]
		if b.count() < s.cfg.SearchBucketSize {
			return RandomID(s.cfg.Rand, center, b.dist)
		}
	}
	return center
}

// AddNodes adds the result of a lookup to the table.
func (s *Search) AddNodes(nodes []*Node) {
	var anyNew bool
	for _, n := range nodes {
		if n.ID == s.cfg.Self {
			continue
		}
		b := s.bucket(n.ID)
		if b.contains(n.ID) {
			b.add(n)
			continue
		}
		// nodes which do not fit are not counted as new, otherwise a full
		// bucket would keep the search alive forever
		if b.count() < s.cfg.SearchBucketSize {
			b.add(n)
			anyNew = true
		}
	}

	if anyNew {
		s.queriesWithoutNewNodes = 0
	} else {
		s.queriesWithoutNewNodes++
	}
}

// QueryTarget returns a node which was not asked yet, farthest buckets first.
// Nodes of a bucket are returned in ID order.
func (s *Search) QueryTarget() *Node {
	for i := range s.buckets {
		var target *Node
		for id, n := range s.buckets[i].new {
			if target == nil || bytes.Compare(id[:], target.ID[:]) < 0 {
				target = n
			}
		}
		if target != nil {
			return target
		}
	}
	return nil
}

// AddQueryResults records the answer of a topic query sent to from.
// Registrants already reported by this search are skipped.
func (s *Search) AddQueryResults(from *Node, results []*Node) {
	b := s.bucket(from.ID)
	b.setAsked(from)

	for _, n := range results {
		if n.ID == s.cfg.Self {
			continue
		}
		if s.wasReported(n.ID) {
			continue
		}
		s.seen.Insert(n.ID[:])
		s.reported[n.ID] = struct{}{}

		s.log.WithFields(logger.Fields{
			"from": from.ID.TerminalString(),
			"rid":  n.ID.TerminalString(),
		}).Debug("added topic search result")

		b.numResults++
		s.numResults++
		s.resultBuffer = append(s.resultBuffer, n)
	}
}

// MarkAsked removes a node that failed to answer a query from the set of
// nodes to ask.
func (s *Search) MarkAsked(n *Node) {
	s.bucket(n.ID).setAsked(n)
}

// NumResults returns the number of distinct results found so far.
func (s *Search) NumResults() int {
	return s.numResults
}

// PeekResult returns the oldest buffered result or nil.
func (s *Search) PeekResult() *Node {
	if len(s.resultBuffer) > 0 {
		return s.resultBuffer[0]
	}
	return nil
}

// PopResult drops the oldest buffered result. It is a no-op on an empty
// buffer.
func (s *Search) PopResult() {
	if len(s.resultBuffer) == 0 {
		return
	}
	s.resultBuffer = append(s.resultBuffer[:0], s.resultBuffer[1:]...)
}

func (s *Search) wasReported(id ID) bool {
	if !s.seen.Lookup(id[:]) {
		return false
	}
	_, ok := s.reported[id]
	return ok
}

func (s *Search) bucket(id ID) *searchBucket {
	index := IDBits - LogDist(ID(s.topic), id)
	if index > len(s.buckets)-1 {
		index = len(s.buckets) - 1
	}
	return &s.buckets[index]
}

func (b *searchBucket) contains(id ID) bool {
	_, inNew := b.new[id]
	_, inAsked := b.asked[id]
	return inNew || inAsked
}

func (b *searchBucket) count() int {
	return len(b.new) + len(b.asked)
}

func (b *searchBucket) add(n *Node) {
	if _, asked := b.asked[n.ID]; asked {
		return
	}
	b.new[n.ID] = newer(b.new[n.ID], n)
}

func (b *searchBucket) setAsked(n *Node) {
	b.asked[n.ID] = struct{}{}
	delete(b.new, n.ID)
}
