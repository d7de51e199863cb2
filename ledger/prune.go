// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/offchain"
)

// PruneResult - bundles that no block references
type PruneResult struct {
	DryRun  bool     `json:"dryRun"`
	Scanned int      `json:"scanned"`
	Orphans []string `json:"orphans"`
	Deleted int      `json:"deleted"`
}

// Prune - delete bundles left behind by failed deletions
//
// a bundle is kept when the off-chain index maps it to a live block
func (l *Ledger) Prune(ctx context.Context, dryRun bool) (*PruneResult, error) {
	if !dryRun && l.readOnly {
		return nil, fault.ErrReadOnlyLedger
	}

	l.Lock()
	defer l.Unlock()

	if l.store.IndexStale() {
		if l.readOnly {
			return nil, fault.ErrIndexStale
		}
		err := l.rebuildIndex(ctx)
		if nil != err {
			return nil, err
		}
	}

	names, err := l.offChain.List(ctx)
	if nil != err {
		return nil, err
	}

	result := &PruneResult{
		DryRun:  dryRun,
		Scanned: len(names),
		Orphans: []string{},
	}

	for _, name := range names {
		if err := ctx.Err(); nil != err {
			return nil, err
		}
		n, found, err := l.store.Pool.OffChain.GetN([]byte(name))
		if nil != err {
			return nil, err
		}
		if found && n <= l.height {
			continue
		}
		// names that do not parse are not ours to delete
		if _, ok := offchain.ParseBundleName(name); !ok {
			continue
		}
		result.Orphans = append(result.Orphans, name)
	}

	if dryRun {
		return result, nil
	}

	for _, name := range result.Orphans {
		err := l.offChain.Delete(ctx, blockrecord.Reference{Name: name})
		if nil != err {
			return result, err
		}
		result.Deleted += 1
	}
	l.log.Infof("prune: scanned: %d  deleted: %d", result.Scanned, result.Deleted)
	return result, nil
}
