// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package discv5

import (
	"sync"

	"github.com/dusk-network/discv5-harness/pkg/topicindex"
	"github.com/pkg/errors"
)

// ErrUnknownNode is returned for requests sent to a node which is not part
// of the network.
var ErrUnknownNode = errors.New("unknown node")

// MsgKind names a request type of the discovery protocol.
type MsgKind string

// Request types.
const (
	MsgFindNode   MsgKind = "findnode"
	MsgRegTopic   MsgKind = "regtopic"
	MsgTopicQuery MsgKind = "topicquery"
)

// Transport delivers discovery requests and returns the answers.
type Transport interface {
	FindNode(from, to *topicindex.Node, target topicindex.ID) ([]*topicindex.Node, error)
	RegTopic(from, to *topicindex.Node, topic topicindex.TopicID, ticket []byte) (topicindex.RegResult, error)
	TopicQuery(from, to *topicindex.Node, topic topicindex.TopicID) ([]*topicindex.Node, error)
}

// memTransport is the in-process Transport of a Network. Requests are plain
// calls into the handlers of the destination peer.
type memTransport struct {
	peers map[topicindex.ID]*Peer

	mu       sync.Mutex
	messages map[MsgKind]int
	failures int
}

func newMemTransport() *memTransport {
	return &memTransport{
		peers:    make(map[topicindex.ID]*Peer),
		messages: make(map[MsgKind]int),
	}
}

func (t *memTransport) route(kind MsgKind, to *topicindex.Node) (*Peer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages[kind]++
	p, ok := t.peers[to.ID]
	if !ok {
		t.failures++
		return nil, errors.Wrapf(ErrUnknownNode, "%s to %s", kind, to)
	}
	return p, nil
}

// FindNode implements Transport.
func (t *memTransport) FindNode(from, to *topicindex.Node, target topicindex.ID) ([]*topicindex.Node, error) {
	p, err := t.route(MsgFindNode, to)
	if err != nil {
		return nil, err
	}
	return p.handleFindNode(from, target), nil
}

// RegTopic implements Transport.
func (t *memTransport) RegTopic(from, to *topicindex.Node, topic topicindex.TopicID, ticket []byte) (topicindex.RegResult, error) {
	p, err := t.route(MsgRegTopic, to)
	if err != nil {
		return topicindex.RegResult{}, err
	}
	return p.handleRegTopic(from, topic, ticket)
}

// TopicQuery implements Transport.
func (t *memTransport) TopicQuery(from, to *topicindex.Node, topic topicindex.TopicID) ([]*topicindex.Node, error) {
	p, err := t.route(MsgTopicQuery, to)
	if err != nil {
		return nil, err
	}
	return p.handleTopicQuery(from, topic), nil
}

func (t *memTransport) counters() (map[MsgKind]int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[MsgKind]int, len(t.messages))
	for k, v := range t.messages {
		out[k] = v
	}
	return out, t.failures
}
