package topicindex

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBucketCapacity(t *testing.T) {
	cfg, _ := testConfig(t)
	s := NewSearch(testTopic, cfg)

	nodes := nodesAt(rand.New(rand.NewSource(10)), 256, 5)
	s.AddNodes(nodes)

	asked := make(map[ID]bool)
	for n := s.QueryTarget(); n != nil; n = s.QueryTarget() {
		asked[n.ID] = true
		s.AddQueryResults(n, nil)
	}
	assert.Len(t, asked, cfg.SearchBucketSize)
}

func TestSearchResultsAreDeduplicated(t *testing.T) {
	cfg, _ := testConfig(t)
	s := NewSearch(testTopic, cfg)

	rnd := rand.New(rand.NewSource(11))
	registrars := nodesAt(rnd, 255, 2)
	registrants := nodesAt(rnd, 200, 3)

	s.AddNodes(registrars)

	first := s.QueryTarget()
	require.NotNil(t, first)
	s.AddQueryResults(first, registrants[:2])

	second := s.QueryTarget()
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
	s.AddQueryResults(second, append([]*Node{{ID: cfg.Self}}, registrants[1:]...))

	assert.Equal(t, 3, s.NumResults())
	assert.Nil(t, s.QueryTarget())

	var got []*Node
	for n := s.PeekResult(); n != nil; n = s.PeekResult() {
		got = append(got, n)
		s.PopResult()
	}
	assert.Equal(t, registrants, got)

	// popping an empty buffer is harmless
	s.PopResult()
	assert.Nil(t, s.PeekResult())
}

func TestSearchIsDone(t *testing.T) {
	cfg, clock := testConfig(t)
	s := NewSearch(testTopic, cfg)

	assert.Equal(t, clock.Now(), s.NextLookupTime())
	s.StartLookup()
	assert.Equal(t, clock.Now().Add(SearchLookupMinDelay), s.NextLookupTime())

	nodes := nodesAt(rand.New(rand.NewSource(12)), 256, 3)
	s.AddNodes(nodes)
	assert.False(t, s.IsDone())

	for n := s.QueryTarget(); n != nil; n = s.QueryTarget() {
		s.AddQueryResults(n, nil)
	}
	assert.False(t, s.IsDone())

	clock.Run(3 * time.Second)
	s.StartLookup()
	s.AddNodes(nodes)
	assert.False(t, s.IsDone())

	clock.Run(3 * time.Second)
	s.StartLookup()
	s.AddNodes(nodes)
	assert.True(t, s.IsDone())
	assert.Equal(t, Never, s.NextLookupTime())
}

func TestSearchLookupTarget(t *testing.T) {
	cfg, _ := testConfig(t)
	s := NewSearch(testTopic, cfg)

	// the closest bucket is empty, lookups aim close to the topic
	target := s.StartLookup()
	assert.Equal(t, IDBits-searchTableDepth+1, LogDist(ID(testTopic), target))
}

func TestSearchKeepsEveryDistinctResult(t *testing.T) {
	cfg, _ := testConfig(t)
	s := NewSearch(testTopic, cfg)

	rnd := rand.New(rand.NewSource(5))
	registrar := nodesAt(rnd, 255, 1)[0]
	registrants := nodesAt(rnd, 200, 3000)

	s.AddQueryResults(registrar, registrants)
	assert.Equal(t, len(registrants), s.NumResults())

	s.AddQueryResults(registrar, registrants)
	assert.Equal(t, len(registrants), s.NumResults())
}
