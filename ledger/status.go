// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"

	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/placement"
)

// Status - summary for operators
//
// Blocks excludes the genesis block
type Status struct {
	Blocks     uint64           `json:"blocks,string"`
	Height     uint64           `json:"height,string"`
	OffChain   uint64           `json:"offChain,string"`
	Signers    int              `json:"signers"`
	Valid      bool             `json:"valid"`
	LastDigest digest.Digest    `json:"lastDigest"`
	TipCRC     uint64           `json:"tipCRC,string"`
	IndexStale bool             `json:"indexStale"`
	Backend    string           `json:"backend"`
	Limits     placement.Limits `json:"limits"`
}

// Status - counts plus a quick validation
func (l *Ledger) Status(ctx context.Context) (*Status, error) {
	l.RLock()
	defer l.RUnlock()

	report, err := l.validate(ctx, ValidateQuick)
	if nil != err {
		return nil, err
	}

	return &Status{
		Blocks:     l.height,
		Height:     l.height,
		OffChain:   report.OffChain,
		Signers:    l.authority.Count(),
		Valid:      report.Valid,
		LastDigest: l.previous,
		TipCRC:     l.ring.LatestCRC(),
		IndexStale: l.store.IndexStale(),
		Backend:    l.offChain.Backend().String(),
		Limits:     l.decider.Limits(),
	}, nil
}
