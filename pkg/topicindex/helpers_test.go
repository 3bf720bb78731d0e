package topicindex

import (
	"math/rand"
	"net"
	"testing"
	"time"

	logger "github.com/sirupsen/logrus"
)

var testTopic = NewTopicID("test-topic")

func testConfig(t *testing.T) (Config, *SimClock) {
	t.Helper()
	clock := new(SimClock)
	return Config{
		Self:             HashID([]byte("self")),
		RegBucketSize:    2,
		SearchBucketSize: 3,
		AdLifetime:       10 * time.Second,
		AdCacheSize:      2,
		Clock:            clock,
		Rand:             rand.New(rand.NewSource(1)),
		Log:              logger.WithField("test", t.Name()),
	}, clock
}

// nodesAt creates n nodes at logarithmic distance dist from the test topic.
func nodesAt(rnd *rand.Rand, dist, n int) []*Node {
	out := make([]*Node, n)
	for i := range out {
		out[i] = &Node{
			ID:      RandomID(rnd, ID(testTopic), dist),
			Seq:     1,
			IP:      net.IPv4(127, 0, 0, 1),
			UDPPort: 30200 + i,
			RPCPort: 20200 + i,
		}
	}
	return out
}
