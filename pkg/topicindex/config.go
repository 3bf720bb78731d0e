// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package topicindex

import (
	"math/rand"
	"time"

	logger "github.com/sirupsen/logrus"
)

// Default values of the tunables, matching the benign feature defaults.
const (
	DefaultRegBucketSize    = 10
	DefaultSearchBucketSize = 3
	DefaultAdLifetime       = 60 * time.Second
	DefaultAdCacheSize      = 500
)

// Config holds the tunables of registrations, searches and ad caches.
type Config struct {
	Self ID

	// RegBucketSize is the number of registration attempts kept waiting per
	// distance bucket.
	RegBucketSize int
	// SearchBucketSize is the number of nodes tracked per search bucket.
	SearchBucketSize int

	AdLifetime  time.Duration
	AdCacheSize int

	Clock Clock
	Rand  *rand.Rand
	Log   *logger.Entry
}

func (cfg Config) withDefaults() Config {
	if cfg.RegBucketSize <= 0 {
		cfg.RegBucketSize = DefaultRegBucketSize
	}
	if cfg.SearchBucketSize <= 0 {
		cfg.SearchBucketSize = DefaultSearchBucketSize
	}
	if cfg.AdLifetime <= 0 {
		cfg.AdLifetime = DefaultAdLifetime
	}
	if cfg.AdCacheSize <= 0 {
		cfg.AdCacheSize = DefaultAdCacheSize
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
	if cfg.Log == nil {
		cfg.Log = logger.WithField("process", "topicindex")
	}
	return cfg
}
