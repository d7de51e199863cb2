// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/counter"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/placement"
	"github.com/bitmark-inc/hybridledger/rpc/ratelimit"
	"github.com/bitmark-inc/hybridledger/search"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100
)

// Chain - the parts of the ledger reported by Info
type Chain interface {
	Height() uint64
	Limits() placement.Limits
	RecentBlocks() []ledger.Recent
}

// Node - type for RPC calls
type Node struct {
	Log          *logger.L
	Limiter      *rate.Limiter
	Start        time.Time
	Version      string
	chain        Chain
	defaultLevel search.Level
	counter      *counter.Counter
}

// New - create the Node service
func New(log *logger.L, chain Chain, defaultLevel search.Level, start time.Time, version string, counter *counter.Counter) *Node {
	return &Node{
		Log:          log,
		Limiter:      rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:        start,
		Version:      version,
		chain:        chain,
		defaultLevel: defaultLevel,
		counter:      counter,
	}
}

// ---

// InfoArguments - empty arguments for info request
type InfoArguments struct{}

// InfoReply - results from info request
type InfoReply struct {
	Block       BlockInfo        `json:"block"`
	Recent      []ledger.Recent  `json:"recent"`
	RPCs        uint64           `json:"rpcs"`
	Limits      placement.Limits `json:"limits"`
	SearchLevel search.Level     `json:"searchLevel"`
	Version     string           `json:"version"`
	Uptime      string           `json:"uptime"`
}

// BlockInfo - the highest block held by the node
type BlockInfo struct {
	Height uint64        `json:"height"`
	Hash   digest.Digest `json:"hash"`
	CRC    uint64        `json:"crc,string"`
}

// Info - return some information about this node
// only enough for clients to determine node state
// for more detail use Ledger.Status
func (node *Node) Info(_ *InfoArguments, reply *InfoReply) error {

	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}

	if nil == node.chain {
		return fault.ErrNotInitialised
	}

	recent := node.chain.RecentBlocks()

	reply.Block = BlockInfo{
		Height: node.chain.Height(),
	}
	if 0 != len(recent) {
		reply.Block.Hash = recent[0].Digest
		reply.Block.CRC = recent[0].CRC
	}
	reply.Recent = recent
	reply.RPCs = node.counter.Uint64()
	reply.Limits = node.chain.Limits()
	reply.SearchLevel = node.defaultLevel
	reply.Version = node.Version
	reply.Uptime = time.Since(node.Start).String()
	return nil
}
