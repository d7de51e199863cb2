// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/search"
	"github.com/bitmark-inc/hybridledger/storage"
)

func int64p(n int64) *int64 {
	return &n
}

func TestRollbackBoundaries(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	ctx := context.Background()

	f.append([]byte("one"), "")
	f.append([]byte("two"), "")
	f.append([]byte("three"), "")

	tests := []struct {
		name    string
		request ledger.RollbackRequest
		err     error
	}{
		{"neither", ledger.RollbackRequest{}, fault.ErrAmbiguousRollback},
		{"both", ledger.RollbackRequest{Blocks: int64p(1), ToIndex: int64p(1)}, fault.ErrAmbiguousRollback},
		{"zero blocks", ledger.RollbackRequest{Blocks: int64p(0)}, fault.ErrRollbackCountInvalid},
		{"negative blocks", ledger.RollbackRequest{Blocks: int64p(-1)}, fault.ErrRollbackCountInvalid},
		{"blocks beyond chain", ledger.RollbackRequest{Blocks: int64p(4)}, fault.ErrRollbackCountInvalid},
		{"negative target", ledger.RollbackRequest{ToIndex: int64p(-1)}, fault.ErrRollbackTargetInvalid},
		{"target beyond tip", ledger.RollbackRequest{ToIndex: int64p(4)}, fault.ErrRollbackTargetInvalid},
		{"target is tip", ledger.RollbackRequest{ToIndex: int64p(3)}, fault.ErrRollbackCountInvalid},
	}

	for _, test := range tests {
		for _, dryRun := range []bool{true, false} {
			test.request.DryRun = dryRun
			_, err := f.ledger.Rollback(ctx, test.request)
			assert.Equal(t, test.err, err, "%s dry run: %v", test.name, dryRun)
			assert.True(t, fault.IsErrConflict(err), "%s class", test.name)
		}
	}
	assert.Equal(t, uint64(3), f.ledger.Height(), "height after rejected rollbacks")
}

func TestRollbackDryRun(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	ctx := context.Background()

	f.append([]byte("one"), "")
	r := f.append(largePayload(600*1024, "x"), "")
	tip := f.ledger.Tip()
	before := f.bundles()

	result, err := f.ledger.Rollback(ctx, ledger.RollbackRequest{Blocks: int64p(1), DryRun: true})
	assert.Nil(t, err, "dry run")
	assert.True(t, result.DryRun, "dry run flag")
	assert.Equal(t, []uint64{2}, result.Removed, "removed")
	assert.Equal(t, []string{r.Reference.Name}, result.OffChain, "bundles")
	assert.Equal(t, uint64(2), result.From, "from")
	assert.Equal(t, uint64(1), result.To, "to")

	assert.Equal(t, uint64(2), f.ledger.Height(), "height changed by dry run")
	assert.Equal(t, tip, f.ledger.Tip(), "tip changed by dry run")
	assert.Equal(t, before, f.bundles(), "bundles changed by dry run")
}

func TestRollbackRemovesTail(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	ctx := context.Background()

	r1 := f.append([]byte("one"), "keep", "alpha")
	f.append(largePayload(600*1024, "x"), "drop", "beta")
	f.append([]byte("three"), "drop", "beta")

	result, err := f.ledger.Rollback(ctx, ledger.RollbackRequest{ToIndex: int64p(1)})
	assert.Nil(t, err, "rollback")
	assert.Equal(t, []uint64{3, 2}, result.Removed, "removed")
	assert.Equal(t, 1, len(result.OffChain), "bundles removed")
	assert.Equal(t, 0, len(result.Orphaned), "orphans")

	assert.Equal(t, uint64(1), f.ledger.Height(), "height")
	assert.Equal(t, r1.Digest, f.ledger.Tip(), "tip")
	assert.Equal(t, 0, len(f.bundles()), "bundle files left")

	engine, err := search.New(search.Options{})
	assert.Nil(t, err, "engine")
	found, err := f.ledger.Search(ctx, engine, search.Query{Term: "beta"})
	assert.Nil(t, err, "search")
	assert.Equal(t, 0, found.Count, "removed blocks still indexed")

	// the number is reused by the next append at the new tail
	next := f.append([]byte("replacement"), "")
	assert.Equal(t, uint64(2), next.Number, "next number")
	assert.Equal(t, r1.Digest, next.PreviousBlock, "next link")

	report, err := f.ledger.Validate(ctx, ledger.ValidateFull)
	assert.Nil(t, err, "validate")
	assert.True(t, report.Valid, "valid after rollback")

	// everything but genesis
	result, err = f.ledger.Rollback(ctx, ledger.RollbackRequest{Blocks: int64p(2)})
	assert.Nil(t, err, "rollback all")
	assert.Equal(t, uint64(0), f.ledger.Height(), "height after full rollback")
}

func TestRollbackUndecodableBlock(t *testing.T) {
	f := newFixture(t)
	f.append([]byte("one"), "")
	f.append(largePayload(600*1024, "x"), "")
	f.close()
	assert.Equal(t, 1, len(f.bundles()), "bundle written")

	// overwrite block 2 with bytes that cannot be unpacked
	store, _, err := storage.Open(f.database, storage.ReadWrite)
	assert.Nil(t, err, "storage open")
	tx, err := store.Begin()
	assert.Nil(t, err, "begin")
	tx.Put(store.Pool.Blocks, storage.NumberKey(2), []byte("not a block record"))
	assert.Nil(t, tx.Commit(), "commit")
	store.Close()

	f.open()
	defer f.close()
	ctx := context.Background()

	preview, err := f.ledger.Rollback(ctx, ledger.RollbackRequest{Blocks: int64p(1), DryRun: true})
	assert.Nil(t, err, "dry run")
	assert.Equal(t, []uint64{2}, preview.Undecodable, "dry run undecodable")

	result, err := f.ledger.Rollback(ctx, ledger.RollbackRequest{Blocks: int64p(1)})
	assert.Nil(t, err, "rollback")
	assert.Equal(t, []uint64{2}, result.Removed, "removed")
	assert.Equal(t, []uint64{2}, result.Undecodable, "undecodable")
	assert.Equal(t, 0, len(result.OffChain), "bundle name unknown")
	assert.Equal(t, uint64(1), f.ledger.Height(), "height")

	// the bundle is left for prune
	assert.Equal(t, 1, len(f.bundles()), "bundle left behind")
	pruned, err := f.ledger.Prune(ctx, false)
	assert.Nil(t, err, "prune")
	assert.Equal(t, 1, pruned.Deleted, "pruned")
	assert.Equal(t, 0, len(f.bundles()), "bundle after prune")
}
