// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"context"
	"crypto/ed25519"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/genesis"
	idmocks "github.com/bitmark-inc/hybridledger/identity/mocks"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/offchain"
	ocmocks "github.com/bitmark-inc/hybridledger/offchain/mocks"
	"github.com/bitmark-inc/hybridledger/placement"
)

func TestAppendInlineAndOffChain(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	ctx := context.Background()

	assert.Equal(t, uint64(0), f.ledger.Height(), "new chain height")
	assert.Equal(t, genesis.Digest(), f.ledger.Tip(), "new chain tip")

	small := []byte("a short note")
	r1 := f.append(small, "notes", "short")
	assert.Equal(t, uint64(1), r1.Number, "first number")
	assert.Equal(t, placement.OnChain, r1.Decision, "small decision")
	assert.Equal(t, genesis.Digest(), r1.PreviousBlock, "first link")
	assert.Equal(t, digest.NewDigest(small), r1.ContentHash, "small content hash")
	assert.Nil(t, r1.Reference, "inline reference")
	assert.Equal(t, 0, len(f.bundles()), "inline wrote a bundle")

	large := largePayload(600*1024, "unique-marker")
	r2 := f.append(large, "technical", "VERY_LARGE", "TEST")
	assert.Equal(t, uint64(2), r2.Number, "second number")
	assert.Equal(t, placement.OffChain, r2.Decision, "large decision")
	assert.Equal(t, "TECHNICAL", r2.Category, "category normalised")
	assert.Equal(t, []string{"VERY_LARGE", "TEST"}, r2.Keywords, "keywords")
	assert.Equal(t, r1.Digest, r2.PreviousBlock, "second link")
	assert.True(t, r2.CharacterCeilingExceeded, "advisory ceiling not reported")
	if assert.NotNil(t, r2.Reference, "off-chain reference") {
		assert.Equal(t, []string{r2.Reference.Name}, f.bundles(), "bundle files")
	}

	block, err := f.ledger.Block(2)
	assert.Nil(t, err, "block")
	assert.True(t, block.IsOffChain(), "block off-chain")
	assert.Equal(t, "TECHNICAL", block.Category, "stored category")

	content, err := f.ledger.Content(ctx, 2)
	assert.Nil(t, err, "content")
	assert.Equal(t, large, content, "off-chain content")

	content, err = f.ledger.Content(ctx, 1)
	assert.Nil(t, err, "inline content")
	assert.Equal(t, small, content, "inline content")

	_, err = f.ledger.Block(3)
	assert.Equal(t, fault.ErrBlockNotFound, err, "missing block")

	assert.Equal(t, 2, len(f.ledger.RecentBlocks())-1, "recent blocks after genesis")
	assert.Equal(t, r2.Digest, f.ledger.Tip(), "tip")
}

func TestAppendThresholdBoundary(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	below := f.append(largePayload(placement.DefaultOffChainThreshold-1, "x"), "")
	assert.Equal(t, placement.OnChain, below.Decision, "below threshold")

	at := f.append(largePayload(placement.DefaultOffChainThreshold, "x"), "")
	assert.Equal(t, placement.OffChain, at.Decision, "at threshold")

	ceiling := f.append(largePayload(placement.DefaultByteCeiling, "x"), "")
	assert.Equal(t, placement.OffChain, ceiling.Decision, "at byte ceiling")

	_, err := f.ledger.Append(context.Background(), largePayload(placement.DefaultByteCeiling+1, "x"), ledger.Metadata{Signer: "alice"})
	assert.Equal(t, fault.ErrPayloadTooLarge, err, "over byte ceiling")
	assert.Equal(t, uint64(3), f.ledger.Height(), "height after rejection")
	assert.Equal(t, 2, len(f.bundles()), "bundles after rejection")
}

func TestAppendRejects(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	ctx := context.Background()

	_, err := f.ledger.Append(ctx, []byte{}, ledger.Metadata{Signer: "alice"})
	assert.Equal(t, fault.ErrEmptyPayload, err, "empty payload")
	assert.True(t, fault.IsErrInvalid(err), "empty payload class")
	assert.Equal(t, uint64(0), f.ledger.Height(), "height after empty")

	for i := 0; i < 2; i += 1 {
		_, err = f.ledger.Append(ctx, []byte("payload"), ledger.Metadata{Signer: "mallory"})
		assert.Equal(t, fault.ErrUnauthorisedSigner, err, "unauthorised %d", i)
		assert.True(t, fault.IsErrAuthorisation(err), "unauthorised class %d", i)
		assert.Equal(t, uint64(0), f.ledger.Height(), "height after unauthorised %d", i)
	}

	_, err = f.ledger.Append(ctx, []byte("payload"), ledger.Metadata{Signer: "alice", Keywords: []string{strings.Repeat("k", 65)}})
	assert.Equal(t, fault.ErrKeywordTooLong, err, "long keyword")

	_, err = f.ledger.Append(ctx, []byte("payload"), ledger.Metadata{Signer: "alice", Signature: []byte("not a signature")})
	assert.Equal(t, fault.ErrInvalidSignature, err, "bad signature")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.ledger.Append(cancelled, []byte("payload"), ledger.Metadata{Signer: "alice"})
	assert.Equal(t, context.Canceled, err, "cancelled")

	assert.Equal(t, uint64(0), f.ledger.Height(), "height after rejects")
	assert.Equal(t, 0, len(f.bundles()), "bundles after rejects")
}

func TestAppendSigned(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	payload := []byte("signed content")
	d := digest.NewDigest(payload)
	signature := ed25519.Sign(f.private, d[:])

	r, err := f.ledger.Append(context.Background(), payload, ledger.Metadata{Signer: "alice", Signature: signature})
	assert.Nil(t, err, "signed append")

	block, err := f.ledger.Block(r.Number)
	assert.Nil(t, err, "block")
	assert.Equal(t, signature, block.Signature, "stored signature")
}

func TestAppendStrictCharacters(t *testing.T) {
	f := newFixture(t)
	f.close()

	options := f.options()
	options.Limits = placement.Limits{StrictCharacterCeiling: true}
	l, err := ledger.Open(options)
	assert.Nil(t, err, "open strict")
	defer l.Close()

	_, err = l.Append(context.Background(), []byte(strings.Repeat("é", 10001)), ledger.Metadata{Signer: "alice"})
	assert.Equal(t, fault.ErrTooManyCharacters, err, "strict ceiling")
	assert.Equal(t, uint64(0), l.Height(), "height after strict rejection")
}

// a block that cannot be packed must not leave its bundle behind
func TestFailedAppendRemovesBundle(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	dir := t.TempDir()
	backend := ocmocks.NewMockBackend(ctl)
	authority := idmocks.NewMockAuthority(ctl)
	secret, err := encrypt.NewSecret()
	assert.Nil(t, err, "secret")

	l, err := ledger.Open(ledger.Options{
		Database:  filepath.Join(dir, "chain"),
		OffChain:  offchain.New(backend, secret),
		Authority: authority,
	})
	assert.Nil(t, err, "open")
	defer l.Close()

	// longer than a packed record allows
	signer := strings.Repeat("s", 200)
	authority.EXPECT().IsAuthorised(signer).Return(true).Times(1)

	var written string
	backend.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, name string, _ []byte) error {
			written = name
			return nil
		}).Times(1)
	backend.EXPECT().Remove(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, name string) error {
			assert.Equal(t, written, name, "removed bundle")
			return nil
		}).Times(1)

	_, err = l.Append(context.Background(), largePayload(placement.DefaultOffChainThreshold, "x"), ledger.Metadata{Signer: signer})
	assert.Equal(t, fault.ErrInvalidBlockRecord, err, "pack failure")
	assert.Equal(t, uint64(0), l.Height(), "height after failure")
}

func TestReopen(t *testing.T) {
	f := newFixture(t)
	defer f.close()

	f.append([]byte("first"), "")
	r := f.append(largePayload(600*1024, "x"), "big")
	f.reopen()

	assert.Equal(t, uint64(2), f.ledger.Height(), "height after reopen")
	assert.Equal(t, r.Digest, f.ledger.Tip(), "tip after reopen")

	next := f.append([]byte("third"), "")
	assert.Equal(t, uint64(3), next.Number, "number after reopen")
	assert.Equal(t, r.Digest, next.PreviousBlock, "link after reopen")

	// another secret cannot open the chain
	f.close()
	other, err := encrypt.NewSecret()
	assert.Nil(t, err, "secret")
	options := f.options()
	options.OffChain = offchain.New(f.backend, other)
	_, err = ledger.Open(options)
	assert.Equal(t, fault.ErrSecretMismatch, err, "wrong secret")
	f.open()

	_, err = ledger.Open(ledger.Options{Database: f.database})
	assert.Equal(t, fault.ErrMissingParameters, err, "missing options")
}

func TestOpenRejectsUnreadableLimits(t *testing.T) {
	f := newFixture(t)
	defer f.close()
	f.close()

	// inline payloads above the record maximum could never be read back
	options := f.options()
	options.Limits = placement.Limits{ByteCeiling: 4 << 20, OffChainThreshold: 3 << 20}
	_, err := ledger.Open(options)
	assert.Equal(t, fault.ErrInvalidLimits, err, "threshold above inline maximum")

	options.Limits = placement.Limits{ByteCeiling: 4 << 20, OffChainThreshold: placement.MaximumInlineBytes}
	l, err := ledger.Open(options)
	if !assert.Nil(t, err, "open") {
		f.open()
		return
	}
	f.ledger = l

	r, err := l.Append(context.Background(), largePayload(2<<20, "x"), ledger.Metadata{Signer: "alice"})
	assert.Nil(t, err, "append")
	assert.Equal(t, placement.OffChain, r.Decision, "decision")

	block, err := l.Block(r.Number)
	assert.Nil(t, err, "block readable")
	assert.Equal(t, r.Number, block.Number, "block number")

	report, err := l.Validate(context.Background(), ledger.ValidateFull)
	assert.Nil(t, err, "validate")
	assert.True(t, report.Valid, "valid")
}
