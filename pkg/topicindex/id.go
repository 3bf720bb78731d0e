// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package topicindex

import (
	"encoding/hex"
	"math/bits"
	"math/rand"

	"golang.org/x/crypto/sha3"
)

// IDBits is the bit length of node and topic identifiers.
const IDBits = 256

// ID identifies a node in the 256-bit XOR metric space.
type ID [32]byte

// TopicID identifies a topic. Topics share the metric space of nodes.
type TopicID [32]byte

// HashID derives an ID as the Keccak-256 of data.
func HashID(data []byte) ID {
	var id ID
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	copy(id[:], h.Sum(nil))
	return id
}

// NewTopicID derives the TopicID of a topic name.
func NewTopicID(name string) TopicID {
	return TopicID(HashID([]byte(name)))
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// TerminalString is a shortened form for log output.
func (id ID) TerminalString() string {
	return hex.EncodeToString(id[:8])
}

func (t TopicID) String() string {
	return hex.EncodeToString(t[:])
}

// LogDist returns the logarithmic XOR distance between a and b, that is the
// bit length of a^b. Equal ids are at distance zero.
func LogDist(a, b ID) int {
	lz := 0
	for i := range a {
		x := a[i] ^ b[i]
		if x == 0 {
			lz += 8
			continue
		}
		lz += bits.LeadingZeros8(x)
		break
	}
	return IDBits - lz
}

// DistCmp compares the distances a->target and b->target. It returns -1 if a
// is closer, 1 if b is closer and 0 if both are at the same distance.
func DistCmp(target, a, b ID) int {
	for i := range target {
		da := a[i] ^ target[i]
		db := b[i] ^ target[i]
		if da > db {
			return 1
		} else if da < db {
			return -1
		}
	}
	return 0
}

// RandomID returns a random id at logarithmic distance dist from center.
func RandomID(rnd *rand.Rand, center ID, dist int) ID {
	if dist <= 0 {
		return center
	}
	if dist > IDBits {
		dist = IDBits
	}

	id := center
	pos := len(id) - 1 - (dist-1)/8
	flip := byte(1) << uint((dist-1)%8)
	below := flip - 1

	id[pos] ^= flip
	id[pos] = id[pos]&^below | byte(rnd.Intn(256))&below
	for i := pos + 1; i < len(id); i++ {
		id[i] = byte(rnd.Intn(256))
	}
	return id
}
