// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package topicindex

import (
	"time"

	"github.com/pkg/errors"
	logger "github.com/sirupsen/logrus"
)

// minTicketWait is the shortest wait a ticket asks for.
const minTicketWait = time.Second

// RegResult is the answer of a registrar to a registration request. Either
// Registered is set and TTL is the remaining ad lifetime, or Ticket and
// WaitTime tell the registrant when to try again.
type RegResult struct {
	Registered bool
	TTL        time.Duration

	Ticket   []byte
	WaitTime time.Duration
}

type ad struct {
	topic   TopicID
	node    *Node
	expires AbsTime
}

// AdCache is the table of topic ads a registrar stores. It holds at most
// AdCacheSize ads, each living AdLifetime. It is not safe for concurrent use.
type AdCache struct {
	cfg    Config
	log    *logger.Entry
	secret []byte

	// ordered by expiry, all ads share the same lifetime
	ads     []*ad
	byTopic map[TopicID]map[ID]*ad

	ticketsIssued int
}

// NewAdCache creates the ad table of a registrar.
func NewAdCache(cfg Config) *AdCache {
	cfg = cfg.withDefaults()
	secret := make([]byte, 16)
	_, _ = cfg.Rand.Read(secret)
	return &AdCache{
		cfg:     cfg,
		log:     cfg.Log.WithField("registrar", cfg.Self.TerminalString()),
		secret:  secret,
		byTopic: make(map[TopicID]map[ID]*ad),
	}
}

// Register handles a registration request of node for topic.
func (c *AdCache) Register(topic TopicID, node *Node, tkt []byte) (RegResult, error) {
	now := c.cfg.Clock.Now()
	c.expire(now)

	if a, ok := c.byTopic[topic][node.ID]; ok {
		a.node = newer(a.node, node)
		return RegResult{Registered: true, TTL: a.expires.Sub(now)}, nil
	}

	issued := now
	if len(tkt) > 0 {
		t, err := decodeTicket(c.secret, tkt)
		if err != nil {
			return RegResult{}, err
		}
		if t.topic != topic || t.node != node.ID {
			return RegResult{}, errors.Wrap(ErrInvalidTicket, "foreign ticket")
		}
		if now < t.waitUntil {
			// too early, hand the same ticket back
			return RegResult{Ticket: tkt, WaitTime: t.waitUntil.Sub(now)}, nil
		}
		issued = t.issued
	}

	if len(c.ads) < c.cfg.AdCacheSize {
		c.store(topic, node, now)
		return RegResult{Registered: true, TTL: c.cfg.AdLifetime}, nil
	}

	wait := c.ads[0].expires.Sub(now)
	if wait < minTicketWait {
		wait = minTicketWait
	}

	c.ticketsIssued++
	t := ticket{topic: topic, node: node.ID, issued: issued, waitUntil: now.Add(wait)}
	return RegResult{Ticket: t.encode(c.secret), WaitTime: wait}, nil
}

func (c *AdCache) store(topic TopicID, node *Node, now AbsTime) {
	a := &ad{topic: topic, node: node, expires: now.Add(c.cfg.AdLifetime)}
	c.ads = append(c.ads, a)

	m := c.byTopic[topic]
	if m == nil {
		m = make(map[ID]*ad)
		c.byTopic[topic] = m
	}
	m[node.ID] = a

	c.log.WithFields(logger.Fields{
		"topic": ID(topic).TerminalString(),
		"id":    node.ID.TerminalString(),
		"ads":   len(c.ads),
	}).Trace("stored topic ad")
}

// Query returns at most limit registrants of topic, oldest ads first.
func (c *AdCache) Query(topic TopicID, limit int) []*Node {
	c.expire(c.cfg.Clock.Now())

	var out []*Node
	if _, ok := c.byTopic[topic]; !ok {
		return out
	}
	for _, a := range c.ads {
		if len(out) >= limit {
			break
		}
		if a.topic == topic {
			out = append(out, a.node)
		}
	}
	return out
}

// Expire drops ads which outlived their lifetime.
func (c *AdCache) Expire() {
	c.expire(c.cfg.Clock.Now())
}

func (c *AdCache) expire(now AbsTime) {
	n := 0
	for n < len(c.ads) && c.ads[n].expires <= now {
		a := c.ads[n]
		m := c.byTopic[a.topic]
		delete(m, a.node.ID)
		if len(m) == 0 {
			delete(c.byTopic, a.topic)
		}
		c.ads[n] = nil
		n++
	}
	if n > 0 {
		c.ads = c.ads[n:]
	}
}

// Len returns the number of live ads.
func (c *AdCache) Len() int {
	c.expire(c.cfg.Clock.Now())
	return len(c.ads)
}

// TopicLen returns the number of live ads of topic.
func (c *AdCache) TopicLen(topic TopicID) int {
	c.expire(c.cfg.Clock.Now())
	return len(c.byTopic[topic])
}

// TicketsIssued returns how many tickets the registrar handed out.
func (c *AdCache) TicketsIssued() int {
	return c.ticketsIssued
}
