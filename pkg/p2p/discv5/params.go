// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package discv5

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid network parameters")

// Params describes a simulated network.
type Params struct {
	Nodes  int `json:"nodes"`
	Topics int `json:"topics"`

	RegBucketSize    int           `json:"regBucketSize"`
	SearchBucketSize int           `json:"searchBucketSize"`
	AdLifetime       time.Duration `json:"adLifetime"`
	AdCacheSize      int           `json:"adCacheSize"`

	// Node i listens on RPCBasePort+i and UDPBasePort+i.
	RPCBasePort int `json:"rpcBasePort"`
	UDPBasePort int `json:"udpBasePort"`

	// ReturnedNodes caps the nodes of a FINDNODE answer and the ads of a
	// TOPICQUERY answer.
	ReturnedNodes int `json:"returnedNodes"`

	// Duration is the simulated time of a run. Zero means twice AdLifetime.
	Duration time.Duration `json:"duration"`
	Seed     int64         `json:"seed"`
}

// Validate checks that a network can be built from p.
func (p Params) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"nodes", p.Nodes},
		{"topics", p.Topics},
		{"regBucketSize", p.RegBucketSize},
		{"searchBucketSize", p.SearchBucketSize},
		{"adCacheSize", p.AdCacheSize},
		{"returnedNodes", p.ReturnedNodes},
	}
	for _, f := range positive {
		if f.v <= 0 {
			return errors.Wrapf(ErrInvalidParams, "%s must be positive, got %d", f.name, f.v)
		}
	}

	if p.AdLifetime <= 0 {
		return errors.Wrapf(ErrInvalidParams, "ad lifetime must be positive, got %s", p.AdLifetime)
	}

	if p.Duration < 0 {
		return errors.Wrapf(ErrInvalidParams, "duration must not be negative, got %s", p.Duration)
	}

	ranges := []struct {
		name string
		base int
	}{
		{"rpc", p.RPCBasePort},
		{"udp", p.UDPBasePort},
	}
	for _, r := range ranges {
		if r.base <= 0 || r.base+p.Nodes-1 > 65535 {
			return errors.Wrapf(ErrInvalidParams, "%s ports %d..%d out of range", r.name, r.base, r.base+p.Nodes-1)
		}
	}

	if overlap(p.RPCBasePort, p.UDPBasePort, p.Nodes) {
		return errors.Wrap(ErrInvalidParams, "rpc and udp port ranges overlap")
	}
	return nil
}

// RunDuration returns the simulated time of a run.
func (p Params) RunDuration() time.Duration {
	if p.Duration > 0 {
		return p.Duration
	}
	return 2 * p.AdLifetime
}

func overlap(a, b, n int) bool {
	return a < b+n && b < a+n
}

// TopicName returns the name of the i-th topic of the network.
func TopicName(i int) string {
	return fmt.Sprintf("topic-%d", i)
}
