// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockring

import (
	"github.com/bitmark-inc/hybridledger/digest"
)

// RingReader - to iterate though the ring
type RingReader struct {
	ring      *Ring
	remaining int
	current   int
	item      ringBuffer
}

// NewRingReader - start of ring iterator
//
// the caller must not Put while reading
func (r *Ring) NewRingReader() *RingReader {
	r.RLock()
	i := r.ringIndex
	n := r.count
	r.RUnlock()

	c := i - 1
	if c < 0 {
		c = len(r.ring) - 1
	}
	return &RingReader{
		ring:      r,
		remaining: n,
		current:   c,
	}
}

// Next - fetch item from ring
// works in reverse, fetching older items
func (rr *RingReader) Next() bool {
	if rr.remaining <= 0 {
		return false
	}
	rr.ring.RLock()
	rr.item = rr.ring.ring[rr.current]
	rr.ring.RUnlock()

	rr.remaining -= 1
	rr.current -= 1
	if rr.current < 0 {
		rr.current = len(rr.ring.ring) - 1
	}
	return true
}

// Number - block number of the fetched item
func (rr *RingReader) Number() uint64 {
	return rr.item.number
}

// Digest - block digest of the fetched item
func (rr *RingReader) Digest() digest.Digest {
	return rr.item.digest
}

// CRC - check code of the fetched item
func (rr *RingReader) CRC() uint64 {
	return rr.item.crc
}
