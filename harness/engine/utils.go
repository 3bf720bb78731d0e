// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package engine

import (
	"fmt"
	"time"

	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/dusk-network/discv5-harness/pkg/p2p/discv5"
)

// ParamsFor builds the network parameters of a scenario. A zero duration
// keeps the default run length of the network.
func ParamsFor(s features.Scenario, seed int64, duration time.Duration) discv5.Params {
	return discv5.Params{
		Nodes:            s.Int(features.Nodes),
		Topics:           s.Int(features.Topic),
		RegBucketSize:    s.Int(features.RegBucketSize),
		SearchBucketSize: s.Int(features.SearchBucketSize),
		AdLifetime:       time.Duration(s.Int(features.AdLifetimeSeconds)) * time.Second,
		AdCacheSize:      s.Int(features.AdCacheSize),
		RPCBasePort:      s.Int(features.RPCBasePort),
		UDPBasePort:      s.Int(features.UDPBasePort),
		ReturnedNodes:    s.Int(features.ReturnedNodes),
		Duration:         duration,
		Seed:             seed,
	}
}

// RunID names the i-th run of a sweep of mode m started at t.
func RunID(m features.Mode, t time.Time, i int) string {
	return fmt.Sprintf("%s-%s-%03d", m, t.UTC().Format("20060102T150405"), i)
}
