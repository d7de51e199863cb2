// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/offchain"
)

func TestPrune(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	ctx := context.Background()

	r := f.append(largePayload(600*1024, "live"), "")

	// a bundle for a block that never committed
	stray := offchain.New(f.backend, f.secret)
	ref, _, err := stray.Put(ctx, 9, []byte("orphaned payload"))
	assert.Nil(t, err, "stray put")
	assert.Equal(t, 2, len(f.bundles()), "bundles before prune")

	result, err := f.ledger.Prune(ctx, true)
	assert.Nil(t, err, "dry run")
	assert.Equal(t, []string{ref.Name}, result.Orphans, "orphans")
	assert.Equal(t, 0, result.Deleted, "dry run deleted")
	assert.Equal(t, 2, len(f.bundles()), "bundles after dry run")

	result, err = f.ledger.Prune(ctx, false)
	assert.Nil(t, err, "prune")
	assert.Equal(t, 1, result.Deleted, "deleted")
	assert.Equal(t, []string{r.Reference.Name}, f.bundles(), "bundles after prune")

	status, err := f.ledger.Status(ctx)
	assert.Nil(t, err, "status")
	assert.True(t, status.Valid, "valid after prune")
	assert.Equal(t, uint64(1), status.OffChain, "status off-chain")
	assert.Equal(t, 1, status.Signers, "status signers")
	assert.Equal(t, f.ledger.Tip(), status.LastDigest, "status digest")
}
