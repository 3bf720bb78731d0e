// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

package topicindex

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidTicket is returned for tickets which were not issued by the
// registrar for the same topic and registrant.
var ErrInvalidTicket = errors.New("invalid ticket")

// ticket layout: topic | registrant | issued | waitUntil | mac
const (
	ticketPayloadSize = 32 + 32 + 8 + 8
	ticketSize        = ticketPayloadSize + 32
)

type ticket struct {
	topic     TopicID
	node      ID
	issued    AbsTime
	waitUntil AbsTime
}

func (t ticket) encode(secret []byte) []byte {
	buf := make([]byte, ticketPayloadSize, ticketSize)
	copy(buf[0:32], t.topic[:])
	copy(buf[32:64], t.node[:])
	binary.BigEndian.PutUint64(buf[64:72], uint64(t.issued))
	binary.BigEndian.PutUint64(buf[72:80], uint64(t.waitUntil))
	return append(buf, ticketMAC(secret, buf)...)
}

func decodeTicket(secret, b []byte) (ticket, error) {
	var t ticket
	if len(b) != ticketSize {
		return t, errors.Wrap(ErrInvalidTicket, "bad size")
	}

	payload, mac := b[:ticketPayloadSize], b[ticketPayloadSize:]
	if !bytes.Equal(mac, ticketMAC(secret, payload)) {
		return t, errors.Wrap(ErrInvalidTicket, "bad mac")
	}

	copy(t.topic[:], payload[0:32])
	copy(t.node[:], payload[32:64])
	t.issued = AbsTime(binary.BigEndian.Uint64(payload[64:72]))
	t.waitUntil = AbsTime(binary.BigEndian.Uint64(payload[72:80]))
	return t, nil
}

func ticketMAC(secret, payload []byte) []byte {
	h := sha3.New256()
	_, _ = h.Write(secret)
	_, _ = h.Write(payload)
	return h.Sum(nil)
}
