package discv5

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/topicindex"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNetworkInvalidParams(t *testing.T) {
	p := testParams()
	p.Nodes = 0
	_, err := NewNetwork(p, nil)
	assert.Equal(t, ErrInvalidParams, errors.Cause(err))
}

func TestNetworkLayout(t *testing.T) {
	assert := assert.New(t)
	n, err := NewNetwork(testParams(), nil)
	require.NoError(t, err)
	require.Len(t, n.Peers(), 12)

	p := n.Peers()[3]
	assert.Equal(30203, p.Self().UDPPort)
	assert.Equal(20203, p.Self().RPCPort)
	assert.Equal(topicindex.HashID([]byte("127.0.0.1:30203")), p.Self().ID)

	_, registers := p.reg[topicindex.NewTopicID(TopicName(1))]
	_, searches := p.search[topicindex.NewTopicID(TopicName(0))]
	assert.True(registers)
	assert.True(searches)
}

func TestTransportUnknownNode(t *testing.T) {
	n, err := NewNetwork(testParams(), nil)
	require.NoError(t, err)

	stranger := topicindex.NewNode(net.IPv4(10, 0, 0, 1), 1, 2)
	_, err = n.Transport().FindNode(n.Peers()[0].Self(), stranger, stranger.ID)
	assert.Equal(t, ErrUnknownNode, errors.Cause(err))

	st := n.Stats()
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, 1, st.Messages[MsgFindNode])
}

func TestHandlersAddRequester(t *testing.T) {
	n, err := NewNetwork(testParams(), nil)
	require.NoError(t, err)

	a, b := n.Peers()[0], n.Peers()[1]
	_, err = n.Transport().FindNode(b.Self(), a.Self(), b.Self().ID)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Table().Len())
}

func TestTopicQueryIsCapped(t *testing.T) {
	p := testParams()
	p.ReturnedNodes = 2
	n, err := NewNetwork(p, nil)
	require.NoError(t, err)

	registrar := n.Peers()[0]
	topic := topicindex.NewTopicID("capped")
	for _, peer := range n.Peers()[1:6] {
		res, err := n.Transport().RegTopic(peer.Self(), registrar.Self(), topic, nil)
		require.NoError(t, err)
		assert.True(t, res.Registered)
	}

	got, err := n.Transport().TopicQuery(n.Peers()[7].Self(), registrar.Self(), topic)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 5, registrar.Stats().Ads)
}

func TestFindNodeIsCapped(t *testing.T) {
	p := testParams()
	p.ReturnedNodes = 1
	n, err := NewNetwork(p, nil)
	require.NoError(t, err)
	n.Bootstrap()

	boot := n.Peers()[0]
	require.Greater(t, boot.Table().Len(), 1)

	for _, peer := range n.Peers()[1:] {
		got, err := n.Transport().FindNode(peer.Self(), boot.Self(), peer.Self().ID)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
}

// starLookup runs a lookup of a random id from peer 5 in a network where only
// node 0 knows every other node.
func starLookup(t *testing.T, returned int) lookupResult {
	t.Helper()
	p := testParams()
	p.ReturnedNodes = returned
	n, err := NewNetwork(p, nil)
	require.NoError(t, err)

	boot := n.Peers()[0]
	for _, peer := range n.Peers()[1:] {
		boot.Table().Add(peer.Self())
	}
	searcher := n.Peers()[5]
	searcher.Table().Add(boot.Self())

	return searcher.lookup(topicindex.HashID([]byte("target")))
}

func TestLookupStarvedByReturnedNodes(t *testing.T) {
	benign := starLookup(t, 10)
	attack := starLookup(t, 1)

	assert.GreaterOrEqual(t, len(benign.seen), 10)
	assert.Less(t, len(attack.seen), len(benign.seen))
	assert.LessOrEqual(t, len(attack.seen), 3)
}

func TestLookupFindsTarget(t *testing.T) {
	n, err := NewNetwork(testParams(), nil)
	require.NoError(t, err)
	n.Bootstrap()

	// every self lookup starts at node 0, so node 0 knows the whole network
	assert.Equal(t, len(n.Peers())-1, n.Peers()[0].Table().Len())

	target := n.Peers()[8].Self()
	res := n.Peers()[5].lookup(target.ID)
	require.NotEmpty(t, res.closest)
	assert.Equal(t, target.ID, res.closest[0].ID)
}

func TestNetworkRun(t *testing.T) {
	assert := assert.New(t)
	n, err := NewNetwork(testParams(), nil)
	require.NoError(t, err)

	require.NoError(t, n.Run(context.Background(), 0))

	st := n.Stats()
	assert.Equal(12, st.Nodes)
	assert.Equal(time.Minute, st.SimTime)
	assert.Greater(st.Registrations, 0)
	assert.Greater(st.ActiveAds, 0)
	assert.Greater(st.SearchResults, 0)
	assert.Greater(st.DiscoveryRatio, 0.0)
	assert.LessOrEqual(st.DiscoveryRatio, 1.0)
	assert.Greater(st.Messages[MsgFindNode], 0)
	assert.Greater(st.Messages[MsgRegTopic], 0)
	assert.Greater(st.Messages[MsgTopicQuery], 0)
	assert.Equal(0, st.Failures)

	registrants := make(map[string]int)
	for i := range n.Peers() {
		registrants[TopicName(i%2)]++
	}
	var found int
	for name, v := range st.FoundPerTopic {
		assert.LessOrEqual(v, registrants[name])
		found += v
	}
	assert.LessOrEqual(found, st.SearchResults)
}

func TestFoundPerTopicCountsDistinctRegistrants(t *testing.T) {
	p := testParams()
	p.Topics = 1
	n, err := NewNetwork(p, nil)
	require.NoError(t, err)
	require.NoError(t, n.Run(context.Background(), 20*time.Second))

	union := make(map[topicindex.ID]struct{})
	for _, peer := range n.Peers() {
		for _, id := range peer.Found(TopicName(0)) {
			union[id] = struct{}{}
		}
	}

	st := n.Stats()
	assert.Equal(t, len(union), st.FoundPerTopic[TopicName(0)])
	assert.LessOrEqual(t, st.FoundPerTopic[TopicName(0)], p.Nodes)
}

func TestNetworkRunIsDeterministic(t *testing.T) {
	run := func() Stats {
		n, err := NewNetwork(testParams(), nil)
		require.NoError(t, err)
		require.NoError(t, n.Run(context.Background(), 20*time.Second))
		return n.Stats()
	}
	assert.Equal(t, run(), run())
}

func TestNetworkRunCancelled(t *testing.T) {
	n, err := NewNetwork(testParams(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, context.Canceled, n.Run(ctx, time.Minute))
	assert.Equal(t, time.Duration(0), n.Stats().SimTime)
}

func TestPeerOptions(t *testing.T) {
	n, err := NewNetwork(testParams(), nil, func(i int, s *PeerSettings) error {
		if i == 0 {
			s.ReturnedNodes = 1
			s.Search = "custom"
		}
		return nil
	})
	require.NoError(t, err)
	n.Bootstrap()

	boot := n.Peers()[0]
	_, custom := boot.search[topicindex.NewTopicID("custom")]
	assert.True(t, custom)

	got, err := n.Transport().FindNode(n.Peers()[4].Self(), boot.Self(), n.Peers()[4].Self().ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = NewNetwork(testParams(), nil, func(i int, s *PeerSettings) error {
		return errors.New("no sandbox")
	})
	assert.Error(t, err)
}
