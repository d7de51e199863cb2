// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/identity"
	"github.com/bitmark-inc/hybridledger/placement"
	"github.com/bitmark-inc/hybridledger/storage"
)

// Metadata - caller supplied details of a new block
//
// a signature, when present, is an ed25519 signature by the signer
// over the SHA3-256 digest of the payload
type Metadata struct {
	Signer    string   `json:"signer"`
	Keywords  []string `json:"keywords"`
	Category  string   `json:"category"`
	Signature []byte   `json:"signature,omitempty"`
}

// Receipt - the result of a successful append
type Receipt struct {
	Number                   uint64                 `json:"number,string"`
	Digest                   digest.Digest          `json:"digest"`
	PreviousBlock            digest.Digest          `json:"previousBlock"`
	ContentHash              digest.Digest          `json:"contentHash"`
	Timestamp                time.Time              `json:"timestamp"`
	Decision                 placement.Location     `json:"decision"`
	Size                     int                    `json:"size"`
	CharacterCeilingExceeded bool                   `json:"characterCeilingExceeded,omitempty"`
	Reference                *blockrecord.Reference `json:"reference,omitempty"`
	Category                 string                 `json:"category"`
	Keywords                 []string               `json:"keywords"`
}

// Append - add a payload as the next block
//
// nothing changes unless every step succeeds
func (l *Ledger) Append(ctx context.Context, payload []byte, meta Metadata) (*Receipt, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	if l.readOnly {
		return nil, fault.ErrReadOnlyLedger
	}

	if "" == meta.Signer || strings.IndexByte(meta.Signer, 0) >= 0 || !l.authority.IsAuthorised(meta.Signer) {
		l.log.Warnf("unauthorised signer: %q", meta.Signer)
		return nil, fault.ErrUnauthorisedSigner
	}

	decision, err := l.decider.Decide(payload)
	if nil != err {
		l.log.Debugf("rejected payload: %d bytes  error: %s", len(payload), err)
		return nil, err
	}
	if decision.CharacterCeilingExceeded {
		l.log.Warnf("payload: %d characters exceeds advisory ceiling", decision.Characters)
	}

	category, err := blockrecord.NormaliseCategory(meta.Category)
	if nil != err {
		return nil, err
	}
	keywords, err := blockrecord.NormaliseKeywords(meta.Keywords)
	if nil != err {
		return nil, err
	}

	contentHash := digest.NewDigest(payload)
	if 0 != len(meta.Signature) {
		err = identity.Verify(l.authority, meta.Signer, contentHash[:], meta.Signature)
		if nil != err {
			l.log.Warnf("signer: %s  signature error: %s", meta.Signer, err)
			return nil, err
		}
	}

	l.Lock()
	defer l.Unlock()

	number := l.height + 1

	var content blockrecord.Content
	var ref *blockrecord.Reference

	switch decision.Location {
	case placement.OffChain:
		r, _, err := l.offChain.Put(ctx, number, payload)
		if nil != err {
			return nil, err
		}
		ref = &r
		content = &blockrecord.OffChain{Reference: r}
	default:
		data := make([]byte, len(payload))
		copy(data, payload)
		content = &blockrecord.Inline{Data: data}
	}

	block := &blockrecord.Block{
		Number:        number,
		PreviousBlock: l.previous,
		ContentHash:   contentHash,
		Timestamp:     l.clock().UTC().Truncate(time.Second),
		Signer:        meta.Signer,
		Decision:      decision.Location,
		Content:       content,
		Keywords:      keywords,
		Category:      category,
		Signature:     meta.Signature,
	}

	packed, err := block.Pack()
	if nil != err {
		l.discard(ref)
		return nil, err
	}

	tx, err := l.store.Begin()
	if nil != err {
		l.discard(ref)
		return nil, err
	}
	tx.Put(l.store.Pool.Blocks, storage.NumberKey(number), packed)
	l.indexBlock(tx, block)

	err = tx.Commit()
	if nil != err {
		l.discard(ref)
		return nil, err
	}

	d := packed.Digest()
	l.height = number
	l.previous = d
	l.ring.Put(number, d, packed)

	l.log.Infof("append block: %d  digest: %s  decision: %s  size: %d", number, d, decision.Location, decision.Size)

	l.repairIndex(ctx)

	return &Receipt{
		Number:                   number,
		Digest:                   d,
		PreviousBlock:            block.PreviousBlock,
		ContentHash:              contentHash,
		Timestamp:                block.Timestamp,
		Decision:                 decision.Location,
		Size:                     decision.Size,
		CharacterCeilingExceeded: decision.CharacterCeilingExceeded,
		Reference:                ref,
		Category:                 category,
		Keywords:                 keywords,
	}, nil
}

// remove the bundle of an append that did not commit
func (l *Ledger) discard(ref *blockrecord.Reference) {
	if nil == ref {
		return
	}
	err := l.offChain.Delete(context.Background(), *ref)
	if nil != err {
		l.log.Errorf("cannot remove uncommitted bundle: %s  error: %s", ref.Name, err)
	}
}

// rebuild after a failed index write; the blocks are already safe
//
// must hold lock to call this
func (l *Ledger) repairIndex(ctx context.Context) {
	if !l.store.IndexStale() {
		return
	}
	err := l.rebuildIndex(ctx)
	if nil != err {
		l.log.Errorf("index rebuild error: %s", err)
	}
}
