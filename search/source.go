// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"context"
	"time"

	"github.com/bitmark-inc/hybridledger/blockrecord"
)

// Index - which index Lookup consults
type Index int

// indexes
const (
	KeywordIndex Index = iota
	CategoryIndex
	SignerIndex
)

// Source - a consistent read-only view of a chain
//
// block numbers returned by Lookup and Between are in ascending order
// and never include the genesis block
type Source interface {
	Between(from time.Time, to time.Time) ([]uint64, error)
	Block(number uint64) (*blockrecord.Block, error)
	Height() uint64
	Lookup(index Index, value string) ([]uint64, error)
	OffChainContent(ctx context.Context, block *blockrecord.Block) ([]byte, error)
}
