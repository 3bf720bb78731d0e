// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package features_test

import (
	"testing"

	"github.com/dusk-network/discv5-harness/pkg/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepBuiltinIsBaselineOnly(t *testing.T) {
	table := features.Defaults()

	benign := table.Sweep(features.Benign)
	require.Len(t, benign, 1)
	assert.Empty(t, benign[0].Varied)
	assert.Equal(t, 50, benign[0].Int(features.Nodes))
	assert.Equal(t, 30, benign[0].Int(features.ReturnedNodes))

	// vals hold benign values, so sweeping them under attack departs from
	// the attack baseline.
	attack := table.Sweep(features.Attack)
	require.Len(t, attack, 3)
	assert.Equal(t, 100, attack[0].Int(features.Nodes))
	assert.Equal(t, 1, attack[0].Int(features.ReturnedNodes))

	assert.Equal(t, features.Nodes, attack[1].Varied)
	assert.Equal(t, 50, attack[1].Int(features.Nodes))
	assert.Equal(t, 1, attack[1].Int(features.ReturnedNodes))

	assert.Equal(t, features.ReturnedNodes, attack[2].Varied)
	assert.Equal(t, 100, attack[2].Int(features.Nodes))
	assert.Equal(t, 30, attack[2].Int(features.ReturnedNodes))
}

func TestSweepOneAtATime(t *testing.T) {
	table := features.Defaults()
	f := table[features.RegBucketSize]
	f.Vals = []int{5, 10, 20}
	table[features.RegBucketSize] = f

	scenarios := table.Sweep(features.Benign)
	require.Len(t, scenarios, 3)

	assert.Equal(t, 10, scenarios[0].Int(features.RegBucketSize))
	assert.Equal(t, 5, scenarios[1].Int(features.RegBucketSize))
	assert.Equal(t, 20, scenarios[2].Int(features.RegBucketSize))

	for _, s := range scenarios[1:] {
		assert.Equal(t, features.RegBucketSize, s.Varied)
		assert.Equal(t, 3, s.Int(features.SearchBucketSize))
		assert.Equal(t, features.Benign, s.Mode)
	}
}

func TestScenarioKey(t *testing.T) {
	s := features.Scenario{Params: map[string]int{"b": 2, "a": 1}}
	assert.Equal(t, "a=1,b=2", s.Key())
}
