// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/rpc"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/counter"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/rpc/node"
	"github.com/bitmark-inc/hybridledger/rpc/records"
	"github.com/bitmark-inc/hybridledger/search"
)

// Ledger - everything the registered services need
type Ledger interface {
	records.Store
	node.Chain
}

var _ Ledger = (*ledger.Ledger)(nil)

// Limits - request rate for the Ledger service
type Limits struct {
	RequestRate float64
	Burst       int
}

// Create - an RPC server with the Ledger and Node services
func Create(log *logger.L, version string, rpcCount *counter.Counter, l Ledger, engine *search.Engine, limits Limits) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(records.New(log, l, engine, limits.RequestRate, limits.Burst))
	_ = server.Register(node.New(log, l, engine.DefaultLevel(), start, version, rpcCount))

	return server
}
