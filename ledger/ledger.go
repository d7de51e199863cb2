// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/blockring"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/genesis"
	"github.com/bitmark-inc/hybridledger/identity"
	"github.com/bitmark-inc/hybridledger/offchain"
	"github.com/bitmark-inc/hybridledger/placement"
	"github.com/bitmark-inc/hybridledger/storage"
)

// metadata pool keys
var fingerprintKey = []byte("secret-fingerprint")

// Options - everything a ledger needs
type Options struct {
	Database  string // path prefix of the LevelDB databases
	ReadOnly  bool
	OffChain  *offchain.Store
	Authority identity.Authority
	Limits    placement.Limits
	Clock     func() time.Time // defaults to time.Now
}

// Ledger - one chain
type Ledger struct {
	sync.RWMutex

	log       *logger.L
	readOnly  bool
	store     *storage.Store
	offChain  *offchain.Store
	authority identity.Authority
	decider   *placement.Decider
	ring      *blockring.Ring
	clock     func() time.Time

	height   uint64
	previous digest.Digest
}

// Open - open or create the chain databases
//
// a new chain is bound to the off-chain secret; reopening it with a
// different secret fails
func Open(options Options) (*Ledger, error) {
	if "" == options.Database || nil == options.OffChain || nil == options.Authority {
		return nil, fault.ErrMissingParameters
	}
	if err := options.Limits.Check(); nil != err {
		return nil, err
	}

	store, mustReindex, err := storage.Open(options.Database, options.ReadOnly)
	if nil != err {
		return nil, err
	}

	l := &Ledger{
		log:       logger.New("ledger"),
		readOnly:  options.ReadOnly,
		store:     store,
		offChain:  options.OffChain,
		authority: options.Authority,
		decider:   placement.New(options.Limits),
		ring:      blockring.New(),
		clock:     options.Clock,
	}
	if nil == l.clock {
		l.clock = time.Now
	}

	ok := false
	defer func() {
		if !ok {
			store.Close()
		}
	}()

	err = l.initialise()
	if nil != err {
		return nil, err
	}

	err = l.loadTail()
	if nil != err {
		return nil, err
	}

	if mustReindex || store.IndexStale() {
		l.log.Warn("index must be rebuilt")
		err = l.rebuildIndex(context.Background())
		if nil != err {
			return nil, err
		}
	}

	l.log.Infof("opened: %s  height: %d  tip: %s", options.Database, l.height, l.previous)
	ok = true
	return l, nil
}

// store the genesis block and secret fingerprint on a new chain
func (l *Ledger) initialise() error {
	fingerprint := l.offChain.Fingerprint()

	stored, err := l.store.Pool.Metadata.Get(fingerprintKey)
	if nil != err {
		return err
	}
	if nil != stored && !bytes.Equal(stored, fingerprint[:]) {
		l.log.Errorf("secret fingerprint mismatch: %x", stored)
		return fault.ErrSecretMismatch
	}

	empty, err := l.store.Pool.Blocks.IsEmpty()
	if nil != err {
		return err
	}

	if nil != stored && !empty {
		return nil
	}
	if l.readOnly {
		return fault.ErrNotInitialised
	}

	tx, err := l.store.Begin()
	if nil != err {
		return err
	}
	tx.Put(l.store.Pool.Metadata, fingerprintKey, fingerprint[:])
	if empty {
		l.log.Info("create genesis block")
		tx.Put(l.store.Pool.Blocks, storage.NumberKey(genesis.BlockNumber), genesis.Packed())
	}
	return tx.Commit()
}

// read the newest blocks into memory
//
// must hold lock to call this
func (l *Ledger) loadTail() error {
	last, found, err := l.store.Pool.Blocks.LastElement()
	if nil != err {
		return err
	}
	if !found {
		return fault.ErrNotInitialised
	}
	height, err := storage.NumberFromKey(last.Key)
	if nil != err {
		return err
	}

	l.height = height
	l.previous = blockrecord.PackedBlock(last.Value).Digest()

	l.ring.Clear()
	start := uint64(0)
	if height >= blockring.Size {
		start = height - blockring.Size + 1
	}
	for n := start; n <= height; n += 1 {
		packed, err := l.store.Pool.Blocks.Get(storage.NumberKey(n))
		if nil != err {
			return err
		}
		if nil == packed {
			l.log.Criticalf("missing block: %d below height: %d", n, height)
			return fault.ErrBlockNotFound
		}
		record := blockrecord.PackedBlock(packed)
		l.ring.Put(n, record.Digest(), record)
	}
	return nil
}

// Close - release the databases
func (l *Ledger) Close() {
	l.Lock()
	defer l.Unlock()

	l.log.Info("close")
	l.store.Close()
}

// Height - number of the newest block, zero when only genesis exists
func (l *Ledger) Height() uint64 {
	l.RLock()
	defer l.RUnlock()
	return l.height
}

// Tip - digest of the newest block
func (l *Ledger) Tip() digest.Digest {
	l.RLock()
	defer l.RUnlock()
	return l.previous
}

// Limits - the placement limits in force
func (l *Ledger) Limits() placement.Limits {
	return l.decider.Limits()
}

// Block - fetch and decode one block
func (l *Ledger) Block(number uint64) (*blockrecord.Block, error) {
	l.RLock()
	defer l.RUnlock()
	return l.block(number)
}

// must hold lock to call this
func (l *Ledger) block(number uint64) (*blockrecord.Block, error) {
	packed, err := l.packed(number)
	if nil != err {
		return nil, err
	}
	return packed.Unpack()
}

// must hold lock to call this
func (l *Ledger) packed(number uint64) (blockrecord.PackedBlock, error) {
	if number > l.height {
		return nil, fault.ErrBlockNotFound
	}
	packed, err := l.store.Pool.Blocks.Get(storage.NumberKey(number))
	if nil != err {
		return nil, err
	}
	if nil == packed {
		return nil, fault.ErrBlockNotFound
	}
	return blockrecord.PackedBlock(packed), nil
}

// Content - the effective payload of a block
//
// off-chain payloads are fetched, decrypted and verified
func (l *Ledger) Content(ctx context.Context, number uint64) ([]byte, error) {
	l.RLock()
	defer l.RUnlock()

	block, err := l.block(number)
	if nil != err {
		return nil, err
	}
	return l.content(ctx, block)
}

// must hold lock to call this
func (l *Ledger) content(ctx context.Context, block *blockrecord.Block) ([]byte, error) {
	switch c := block.Content.(type) {
	case *blockrecord.Inline:
		data := make([]byte, len(c.Data))
		copy(data, c.Data)
		return data, nil
	case *blockrecord.OffChain:
		return l.offChain.Get(ctx, block.Number, c.Reference, block.ContentHash)
	default:
		return nil, fault.ErrInvalidBlockRecord
	}
}

// Recent - the newest blocks held in memory, newest first
type Recent struct {
	Number uint64        `json:"number,string"`
	Digest digest.Digest `json:"digest"`
	CRC    uint64        `json:"crc,string"`
}

// RecentBlocks - digests of up to blockring.Size newest blocks
func (l *Ledger) RecentBlocks() []Recent {
	l.RLock()
	defer l.RUnlock()

	result := make([]Recent, 0, blockring.Size)
	rr := l.ring.NewRingReader()
	for rr.Next() {
		result = append(result, Recent{
			Number: rr.Number(),
			Digest: rr.Digest(),
			CRC:    rr.CRC(),
		})
	}
	return result
}

// digest of a block, from the ring when possible
//
// must hold lock to call this
func (l *Ledger) digestOf(number uint64) (digest.Digest, error) {
	if d, ok := l.ring.DigestForBlock(number); ok {
		return d, nil
	}
	packed, err := l.packed(number)
	if nil != err {
		return digest.Digest{}, err
	}
	return packed.Digest(), nil
}
