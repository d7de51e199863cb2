// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package genesis - the fixed first block of every chain
package genesis

import (
	"time"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/placement"
)

// fixed values embedded in the genesis block
const (
	BlockNumber uint64 = 0
	Signer             = "genesis"
	Category           = "GENESIS"
	Message            = "hybridledger genesis: DOWN the RABBIT hole"
)

// date -u -d @1577836800 '+%FT%TZ'
// 2020-01-01T00:00:00Z
var timestamp = time.Unix(1577836800, 0).UTC()

var (
	packed      blockrecord.PackedBlock
	blockDigest digest.Digest
)

func init() {
	p, err := Block().Pack()
	fault.PanicIfError("genesis pack", err)
	packed = p
	blockDigest = p.Digest()
}

// Block - a fresh copy of the genesis block
func Block() *blockrecord.Block {
	data := []byte(Message)
	return &blockrecord.Block{
		Number:        BlockNumber,
		PreviousBlock: digest.Digest{},
		ContentHash:   digest.NewDigest(data),
		Timestamp:     timestamp,
		Signer:        Signer,
		Decision:      placement.OnChain,
		Content:       &blockrecord.Inline{Data: data},
		Keywords:      []string{},
		Category:      Category,
	}
}

// Packed - the packed genesis record
func Packed() blockrecord.PackedBlock {
	return append(blockrecord.PackedBlock{}, packed...)
}

// Digest - the digest every chain's block 1 links to
func Digest() digest.Digest {
	return blockDigest
}
