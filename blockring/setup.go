// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockring - digests of the most recent blocks
//
// Lets the ledger link and report the tail of the chain without
// reading the database.
package blockring

import (
	"sync"

	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
)

// Size - number of blocks held
const Size = 20

// a block's digest and its crc64 check code
type ringBuffer struct {
	number uint64        // block number
	crc    uint64        // CRC64_ECMA(block_number, packed_block)
	digest digest.Digest // block digest
}

// Ring - fixed size buffer of recent block digests
type Ring struct {
	sync.RWMutex

	height uint64
	count  int

	ring      [Size]ringBuffer
	ringIndex int
}

// New - an empty ring
func New() *Ring {
	return &Ring{}
}

// Clear - drop all entries, the next Put may have any number
func (r *Ring) Clear() {
	r.Lock()
	defer r.Unlock()

	r.ringIndex = 0
	r.count = 0
	r.height = 0
	for i := 0; i < len(r.ring); i += 1 {
		r.ring[i] = ringBuffer{}
	}
}

// Put - store a block and its digest
//
// blocks must be put in sequence
func (r *Ring) Put(number uint64, d digest.Digest, packed []byte) {
	r.Lock()
	defer r.Unlock()

	if 0 != r.count && r.height+1 != number {
		fault.Panicf("blockring: block number: actual: %d  expected: %d", number, r.height+1)
	}

	i := r.ringIndex
	r.ring[i].number = number
	r.ring[i].digest = d
	r.ring[i].crc = CRC(number, packed)
	i = i + 1
	if i >= len(r.ring) {
		i = 0
	}
	r.ringIndex = i
	if r.count < Size {
		r.count += 1
	}
	r.height = number
}

// Height - number of the newest block held
func (r *Ring) Height() uint64 {
	r.RLock()
	defer r.RUnlock()
	return r.height
}

// DigestForBlock - fetch a digest from the ring if present
func (r *Ring) DigestForBlock(number uint64) (digest.Digest, bool) {
	r.RLock()
	defer r.RUnlock()

	if 0 == r.count || number > r.height {
		return digest.Digest{}, false
	}
	i := r.height - number
	if i >= uint64(r.count) {
		return digest.Digest{}, false
	}
	j := r.ringIndex - 1 - int(i)
	if j < 0 {
		j += Size
	}
	if number != r.ring[j].number {
		fault.Panicf("blockring: corrupted block number, actual: %d  expected: %d", r.ring[j].number, number)
	}
	return r.ring[j].digest, true
}

// LatestCRC - check code of the newest block, zero if empty
func (r *Ring) LatestCRC() uint64 {
	r.RLock()
	defer r.RUnlock()

	if 0 == r.count {
		return 0
	}
	i := r.ringIndex - 1
	if i < 0 {
		i = len(r.ring) - 1
	}
	return r.ring[i].crc
}
