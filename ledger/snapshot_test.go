// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/ledger"
)

func TestExportImport(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	ctx := context.Background()

	f.append([]byte("one"), "a", "k")
	large := largePayload(600*1024, "exported-marker")
	f.append(large, "b")
	f.append([]byte("three"), "c")

	snapshot := filepath.Join(f.dir, "snapshot")
	manifest, err := f.ledger.Export(ctx, snapshot)
	assert.Nil(t, err, "export")
	assert.Equal(t, uint64(3), manifest.Height, "manifest height")
	assert.Equal(t, f.ledger.Tip(), manifest.Tip, "manifest tip")
	assert.Equal(t, 1, len(manifest.OffChain), "manifest bundles")

	_, err = f.ledger.Export(ctx, snapshot)
	assert.Equal(t, fault.ErrSnapshotExists, err, "export over snapshot")

	g := newFixtureSharing(t, f)
	defer g.close()

	result, err := g.ledger.Import(ctx, snapshot, ledger.ImportOptions{ValidateAfter: true})
	assert.Nil(t, err, "import")
	assert.Equal(t, uint64(3), result.Height, "imported height")
	assert.Equal(t, uint64(0), result.Replaced, "replaced")
	if assert.NotNil(t, result.Report, "report") {
		assert.True(t, result.Report.Valid, "imported chain valid")
	}
	assert.Equal(t, f.ledger.Tip(), g.ledger.Tip(), "imported tip")

	content, err := g.ledger.Content(ctx, 2)
	assert.Nil(t, err, "imported content")
	assert.Equal(t, large, content, "imported off-chain content")

	a, err := f.ledger.Validate(ctx, ledger.ValidateFull)
	assert.Nil(t, err, "source validate")
	b, err := g.ledger.Validate(ctx, ledger.ValidateFull)
	assert.Nil(t, err, "copy validate")
	assert.Equal(t, a, b, "reports differ")

	// a chain with blocks is only replaced when forced
	_, err = g.ledger.Import(ctx, snapshot, ledger.ImportOptions{})
	assert.Equal(t, fault.ErrChainNotEmpty, err, "import over chain")
	assert.True(t, fault.IsErrExists(err), "import over chain class")

	g.append([]byte("diverged"), "")
	result, err = g.ledger.Import(ctx, snapshot, ledger.ImportOptions{ForceOverwrite: true})
	assert.Nil(t, err, "forced import")
	assert.Equal(t, uint64(4), result.Replaced, "forced replaced")
	assert.Equal(t, uint64(3), g.ledger.Height(), "forced height")
	assert.Equal(t, f.ledger.Tip(), g.ledger.Tip(), "forced tip")
}

func TestImportRejects(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	ctx := context.Background()

	f.append([]byte("one"), "")
	f.append(largePayload(600*1024, "x"), "")

	snapshot := filepath.Join(f.dir, "snapshot")
	_, err := f.ledger.Export(ctx, snapshot)
	assert.Nil(t, err, "export")

	// another secret
	other := newFixture(t)
	defer other.close()
	_, err = other.ledger.Import(ctx, snapshot, ledger.ImportOptions{})
	assert.Equal(t, fault.ErrSecretMismatch, err, "secret mismatch")
	assert.Equal(t, uint64(0), other.ledger.Height(), "height after mismatch")

	g := newFixtureSharing(t, f)
	defer g.close()

	// break the link of the last record
	blocksPath := filepath.Join(snapshot, "blocks.dat")
	data, err := os.ReadFile(blocksPath)
	assert.Nil(t, err, "read blocks")
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	last := []byte(lines[len(lines)-1])
	// version byte, number varint, then the previous digest
	if '0' == last[10] {
		last[10] = '1'
	} else {
		last[10] = '0'
	}
	lines[len(lines)-1] = string(last)
	assert.Nil(t, os.WriteFile(blocksPath, []byte(strings.Join(lines, "\n")+"\n"), 0600), "write blocks")

	_, err = g.ledger.Import(ctx, snapshot, ledger.ImportOptions{})
	assert.Equal(t, fault.ErrBrokenChainLink, err, "broken link")
	assert.Equal(t, uint64(0), g.ledger.Height(), "height after broken import")
	assert.Equal(t, 0, len(g.bundles()), "bundles after broken import")

	_, err = g.ledger.Import(ctx, filepath.Join(f.dir, "nowhere"), ledger.ImportOptions{})
	assert.NotNil(t, err, "missing snapshot")
}
