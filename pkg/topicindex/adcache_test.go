package topicindex

import (
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdCacheTickets(t *testing.T) {
	cfg, clock := testConfig(t)
	c := NewAdCache(cfg)

	nodes := nodesAt(rand.New(rand.NewSource(20)), 250, 4)
	a, b, cc, d := nodes[0], nodes[1], nodes[2], nodes[3]

	res, err := c.Register(testTopic, a, nil)
	require.NoError(t, err)
	assert.True(t, res.Registered)
	assert.Equal(t, 10*time.Second, res.TTL)

	clock.Run(2 * time.Second)

	// re-registration reports the remaining lifetime
	res, err = c.Register(testTopic, a, nil)
	require.NoError(t, err)
	assert.True(t, res.Registered)
	assert.Equal(t, 8*time.Second, res.TTL)

	res, err = c.Register(testTopic, b, nil)
	require.NoError(t, err)
	assert.True(t, res.Registered)
	assert.Equal(t, 2, c.Len())

	// the cache is full, c has to wait for the oldest ad to expire
	res, err = c.Register(testTopic, cc, nil)
	require.NoError(t, err)
	assert.False(t, res.Registered)
	assert.Equal(t, 8*time.Second, res.WaitTime)
	require.NotEmpty(t, res.Ticket)
	ticket := res.Ticket
	assert.Equal(t, 1, c.TicketsIssued())

	// the ticket is bound to its registrant
	_, err = c.Register(testTopic, d, ticket)
	assert.True(t, errors.Is(err, ErrInvalidTicket))

	// and to its topic
	_, err = c.Register(NewTopicID("other"), cc, ticket)
	assert.True(t, errors.Is(err, ErrInvalidTicket))

	forged := append([]byte(nil), ticket...)
	forged[len(forged)-1] ^= 0xff
	_, err = c.Register(testTopic, cc, forged)
	assert.True(t, errors.Is(err, ErrInvalidTicket))

	clock.Run(3 * time.Second)
	res, err = c.Register(testTopic, cc, ticket)
	require.NoError(t, err)
	assert.False(t, res.Registered)
	assert.Equal(t, 5*time.Second, res.WaitTime)
	assert.Equal(t, ticket, res.Ticket)

	clock.Run(5 * time.Second)
	res, err = c.Register(testTopic, cc, ticket)
	require.NoError(t, err)
	assert.True(t, res.Registered)

	assert.Equal(t, []*Node{b, cc}, c.Query(testTopic, 10))
	assert.Equal(t, []*Node{b}, c.Query(testTopic, 1))
	assert.Equal(t, 2, c.TopicLen(testTopic))
}

func TestAdCacheExpiry(t *testing.T) {
	cfg, clock := testConfig(t)
	cfg.AdCacheSize = 10
	c := NewAdCache(cfg)

	other := NewTopicID("other")
	nodes := nodesAt(rand.New(rand.NewSource(21)), 240, 3)

	_, err := c.Register(testTopic, nodes[0], nil)
	require.NoError(t, err)
	clock.Run(5 * time.Second)
	_, err = c.Register(other, nodes[1], nil)
	require.NoError(t, err)
	_, err = c.Register(testTopic, nodes[2], nil)
	require.NoError(t, err)

	assert.Equal(t, 2, c.TopicLen(testTopic))
	assert.Equal(t, 1, c.TopicLen(other))

	clock.Run(5 * time.Second)
	c.Expire()
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []*Node{nodes[2]}, c.Query(testTopic, 10))

	clock.Run(5 * time.Second)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Query(other, 10))
}
