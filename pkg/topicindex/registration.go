// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package topicindex

import (
	"container/heap"
	"time"

	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
)

const (
	// regBucketMaxReplacements caps the standby attempts of a bucket.
	regBucketMaxReplacements = 20

	// regTableDepth is the number of distance buckets of a Registration.
	// Nodes closer than IDBits-regTableDepth+1 to the topic share the
	// closest bucket.
	regTableDepth = 40
)

// ErrAttemptState is returned when an attempt is driven out of order.
var ErrAttemptState = errors.New("registration attempt in wrong state")

// RegAttemptState is the state of a registration attempt on a registrar.
type RegAttemptState int

const (
	// Standby attempts are replacements, no request is sent for them.
	Standby RegAttemptState = iota
	// Waiting attempts are due for a request at NextTime.
	Waiting
	// Registered attempts hold an ad which expires at NextTime.
	Registered

	nRegStates = int(Registered) + 1
)

func (s RegAttemptState) String() string {
	switch s {
	case Standby:
		return "standby"
	case Waiting:
		return "waiting"
	case Registered:
		return "registered"
	}
	return "unknown"
}

// RegAttempt is the registration process against a single registrar.
type RegAttempt struct {
	State RegAttemptState
	// NextTime is the time of the next request while Waiting and the ad
	// expiry once Registered.
	NextTime AbsTime
	Node     *Node
	// Ticket returned by the last registration request.
	Ticket []byte
	// TotalWaitTime is the sum of all ticket wait times so far.
	TotalWaitTime time.Duration

	seq      uint64
	index    int
	inFlight bool
	bucket   *regBucket
}

type regBucket struct {
	dist  int
	att   map[ID]*RegAttempt
	count [nRegStates]int
}

// Registration tracks the registration of one topic on the registrars found
// by lookups. It is not safe for concurrent use.
type Registration struct {
	topic TopicID
	cfg   Config
	log   *logger.Entry

	// ordered close -> far
	buckets [regTableDepth]regBucket
	heap    regHeap
	seq     uint64
}

// NewRegistration creates the registration state of topic.
func NewRegistration(topic TopicID, cfg Config) *Registration {
	cfg = cfg.withDefaults()
	r := &Registration{
		topic: topic,
		cfg:   cfg,
		log:   cfg.Log.WithField("topic", ID(topic).TerminalString()),
	}
	for i := range r.buckets {
		r.buckets[i].att = make(map[ID]*RegAttempt)
		r.buckets[i].dist = IDBits - (regTableDepth - 1) + i
	}
	return r
}

// Topic returns the topic being registered.
func (r *Registration) Topic() TopicID {
	return r.topic
}

// LookupTarget returns a random target in the closest bucket without any
// registration, or the topic itself once every bucket has one.
func (r *Registration) LookupTarget() ID {
	center := ID(r.topic)
	for _, b := range r.buckets {
		if b.count[Registered] == 0 {
			return RandomID(r.cfg.Rand, center, b.dist)
		}
	}
	return center
}

// Count returns the number of attempts in state s.
func (r *Registration) Count(s RegAttemptState) int {
	var n int
	for i := range r.buckets {
		n += r.buckets[i].count[s]
	}
	return n
}

// AddNodes offers registrars found by a lookup.
func (r *Registration) AddNodes(nodes []*Node) {
	for _, n := range nodes {
		if n.ID == r.cfg.Self {
			continue
		}

		b := r.bucket(n.ID)
		if att, ok := b.att[n.ID]; ok {
			att.Node = newer(att.Node, n)
			continue
		}

		if b.count[Standby] >= regBucketMaxReplacements {
			continue
		}

		r.seq++
		att := &RegAttempt{Node: n, bucket: b, index: -1, seq: r.seq}
		b.att[n.ID] = att
		b.count[Standby]++
		r.refill(b)
	}
}

// refill promotes the oldest standby attempt of b while b has fewer than
// RegBucketSize waiting attempts.
func (r *Registration) refill(b *regBucket) {
	if b.count[Waiting] >= r.cfg.RegBucketSize {
		return
	}

	var next *RegAttempt
	for _, att := range b.att {
		if att.State == Standby && (next == nil || att.seq < next.seq) {
			next = att
		}
	}
	if next == nil {
		return
	}

	r.setState(next, Waiting)
	next.NextTime = r.cfg.Clock.Now()
	heap.Push(&r.heap, next)
}

func (r *Registration) setState(att *RegAttempt, s RegAttemptState) {
	att.bucket.count[att.State]--
	att.bucket.count[s]++
	r.log.WithFields(logger.Fields{
		"id":    att.Node.ID.TerminalString(),
		"state": s,
		"prev":  att.State,
	}).Trace("registration attempt state changed")
	att.State = s
}

// NextUpdateTime returns when Update should be called next.
func (r *Registration) NextUpdateTime() AbsTime {
	if len(r.heap) == 0 {
		return Never
	}
	return r.heap[0].NextTime
}

// Update drops expired registrations and returns the next attempt due for a
// request, if any.
func (r *Registration) Update() *RegAttempt {
	now := r.cfg.Clock.Now()
	for len(r.heap) > 0 {
		att := r.heap[0]
		if now < att.NextTime {
			return nil
		}

		if att.State == Waiting {
			return att
		}

		// Registered and expired.
		r.removeAttempt(att)
		r.refill(att.bucket)
	}
	return nil
}

// StartRequest takes a waiting attempt out of the queue while its request
// is in flight.
func (r *Registration) StartRequest(att *RegAttempt) error {
	if att.State != Waiting || att.inFlight {
		return errors.Wrapf(ErrAttemptState, "start request in state %s", att.State)
	}
	if att.index >= 0 {
		heap.Remove(&r.heap, att.index)
	}
	att.inFlight = true
	return nil
}

func (r *Registration) finishRequest(att *RegAttempt) error {
	if !att.inFlight {
		return errors.Wrapf(ErrAttemptState, "response for %s without request", att.Node.ID.TerminalString())
	}
	att.inFlight = false
	return nil
}

// HandleTicketResponse reschedules the attempt after the registrar replied
// with a ticket and a waiting time.
func (r *Registration) HandleTicketResponse(att *RegAttempt, ticket []byte, wait time.Duration) error {
	if err := r.finishRequest(att); err != nil {
		return err
	}

	att.Ticket = ticket
	att.TotalWaitTime += wait
	att.NextTime = r.cfg.Clock.Now().Add(wait)
	heap.Push(&r.heap, att)
	return nil
}

// HandleRegistered records a confirmed registration which lasts ttl.
func (r *Registration) HandleRegistered(att *RegAttempt, ttl time.Duration) error {
	if err := r.finishRequest(att); err != nil {
		return err
	}

	r.log.WithField("id", att.Node.ID.TerminalString()).Trace("topic registration successful")
	r.setState(att, Registered)
	att.Ticket = nil
	att.NextTime = r.cfg.Clock.Now().Add(ttl)
	heap.Push(&r.heap, att)

	r.refill(att.bucket)
	return nil
}

// HandleErrorResponse drops an attempt whose request failed.
func (r *Registration) HandleErrorResponse(att *RegAttempt, cause error) error {
	if err := r.finishRequest(att); err != nil {
		return err
	}

	r.log.WithError(cause).WithField("id", att.Node.ID.TerminalString()).Debug("topic registration failed")
	r.removeAttempt(att)
	r.refill(att.bucket)
	return nil
}

func (r *Registration) removeAttempt(att *RegAttempt) {
	r.log.WithFields(logger.Fields{
		"id":    att.Node.ID.TerminalString(),
		"state": att.State,
	}).Trace("removing registration attempt")

	if att.index >= 0 {
		heap.Remove(&r.heap, att.index)
	}
	delete(att.bucket.att, att.Node.ID)
	att.bucket.count[att.State]--
}

func (r *Registration) bucket(id ID) *regBucket {
	index := LogDist(ID(r.topic), id) - IDBits + (len(r.buckets) - 1)
	if index < 0 {
		index = 0
	}
	return &r.buckets[index]
}

// regHeap orders attempts by NextTime. Use the container/heap functions to
// modify it.
type regHeap []*RegAttempt

func (rh regHeap) Len() int { return len(rh) }

func (rh regHeap) Less(i, j int) bool {
	if rh[i].NextTime == rh[j].NextTime {
		return rh[i].seq < rh[j].seq
	}
	return rh[i].NextTime < rh[j].NextTime
}

func (rh regHeap) Swap(i, j int) {
	rh[i], rh[j] = rh[j], rh[i]
	rh[i].index = i
	rh[j].index = j
}

func (rh *regHeap) Push(x interface{}) {
	att := x.(*RegAttempt)
	att.index = len(*rh)
	*rh = append(*rh, att)
}

func (rh *regHeap) Pop() interface{} {
	old := *rh
	n := len(old)
	att := old[n-1]
	old[n-1] = nil
	att.index = -1
	*rh = old[:n-1]
	return att
}
