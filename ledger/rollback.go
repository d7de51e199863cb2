// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/storage"
)

// RollbackRequest - exactly one of Blocks or ToIndex must be set
//
// Blocks is the number of blocks to remove from the tail; ToIndex is
// the number of the last block to keep.  The genesis block is never
// removed.
type RollbackRequest struct {
	Blocks  *int64 `json:"blocks,omitempty"`
	ToIndex *int64 `json:"toIndex,omitempty"`
	DryRun  bool   `json:"dryRun"`
}

// RollbackResult - what was, or in a dry run would be, removed
//
// Undecodable lists removed blocks whose records could not be read; any
// bundle of theirs is not in OffChain and is left for Prune
type RollbackResult struct {
	DryRun      bool     `json:"dryRun"`
	From        uint64   `json:"from,string"`
	To          uint64   `json:"to,string"`
	Removed     []uint64 `json:"removed"`
	OffChain    []string `json:"offChain"`
	Orphaned    []string `json:"orphaned,omitempty"`
	Undecodable []uint64 `json:"undecodable,omitempty"`
}

// the block number that remains as the new tip
func (r RollbackRequest) target(height uint64) (uint64, error) {
	if (nil == r.Blocks) == (nil == r.ToIndex) {
		return 0, fault.ErrAmbiguousRollback
	}

	if nil != r.Blocks {
		n := *r.Blocks
		if n <= 0 || uint64(n) > height {
			return 0, fault.ErrRollbackCountInvalid
		}
		return height - uint64(n), nil
	}

	to := *r.ToIndex
	if to < 0 || uint64(to) > height {
		return 0, fault.ErrRollbackTargetInvalid
	}
	if uint64(to) == height {
		return 0, fault.ErrRollbackCountInvalid
	}
	return uint64(to), nil
}

// Rollback - remove blocks from the tail of the chain
//
// blocks and their index entries go in one batch, then the bundles of
// the removed blocks are deleted before the lock is released.  A bundle
// that cannot be deleted is reported as orphaned and left for Prune.
func (l *Ledger) Rollback(ctx context.Context, request RollbackRequest) (*RollbackResult, error) {
	if request.DryRun {
		l.RLock()
		defer l.RUnlock()
	} else {
		if l.readOnly {
			return nil, fault.ErrReadOnlyLedger
		}
		l.Lock()
		defer l.Unlock()
	}

	target, err := request.target(l.height)
	if nil != err {
		return nil, err
	}

	result := &RollbackResult{
		DryRun:   request.DryRun,
		From:     l.height,
		To:       target,
		Removed:  make([]uint64, 0, l.height-target),
		OffChain: []string{},
	}

	blocks := make([]*blockrecord.Block, 0, l.height-target)
	for n := l.height; n > target; n -= 1 {
		if err := ctx.Err(); nil != err {
			return nil, err
		}
		block, err := l.block(n)
		if nil != err {
			l.log.Errorf("rollback: block: %d  error: %s", n, err)
			result.Undecodable = append(result.Undecodable, n)
		}
		result.Removed = append(result.Removed, n)
		if nil != block {
			if ref := block.Reference(); nil != ref {
				result.OffChain = append(result.OffChain, ref.Name)
			}
			blocks = append(blocks, block)
		}
	}

	if 0 != len(result.Undecodable) {
		l.log.Warnf("rollback: undecodable blocks: %v  bundles left for prune", result.Undecodable)
	}

	if request.DryRun {
		l.log.Infof("rollback dry run: %d -> %d  bundles: %d", result.From, result.To, len(result.OffChain))
		return result, nil
	}

	tx, err := l.store.Begin()
	if nil != err {
		return nil, err
	}
	for _, n := range result.Removed {
		tx.Delete(l.store.Pool.Blocks, storage.NumberKey(n))
	}
	for _, block := range blocks {
		l.unindexBlock(tx, block)
	}
	err = tx.Commit()
	if nil != err {
		return nil, err
	}

	l.log.Infof("rollback: %d -> %d", result.From, result.To)

	err = l.loadTail()
	if nil != err {
		l.log.Criticalf("reload after rollback: %s", err)
		return nil, err
	}

	// entries of an undecodable block could not be removed one by one
	if 0 != len(result.Undecodable) {
		err = l.rebuildIndex(ctx)
		if nil != err {
			l.log.Errorf("index rebuild error: %s", err)
		}
	} else {
		l.repairIndex(ctx)
	}

	for _, block := range blocks {
		ref := block.Reference()
		if nil == ref {
			continue
		}
		err := l.offChain.Delete(context.Background(), *ref)
		if nil != err {
			result.Orphaned = append(result.Orphaned, ref.Name)
		}
	}
	return result, nil
}
