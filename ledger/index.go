// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/genesis"
	"github.com/bitmark-inc/hybridledger/search"
	"github.com/bitmark-inc/hybridledger/storage"
)

// blocks indexed per transaction during a rebuild
const rebuildBatchSize = 1000

var present = []byte{}

// add index entries for a block
func (l *Ledger) indexBlock(tx storage.Transaction, block *blockrecord.Block) {
	pool := l.store.Pool
	n := block.Number

	for _, k := range block.Keywords {
		tx.Put(pool.Keywords, storage.IndexKey(strings.ToLower(k), n), present)
	}
	if "" != block.Category {
		tx.Put(pool.Categories, storage.IndexKey(block.Category, n), present)
	}
	tx.Put(pool.Signers, storage.IndexKey(block.Signer, n), present)
	tx.Put(pool.Dates, storage.TimeKey(block.Timestamp, n), present)
	if ref := block.Reference(); nil != ref {
		tx.PutN(pool.OffChain, []byte(ref.Name), n)
	}
}

// remove the entries added by indexBlock
func (l *Ledger) unindexBlock(tx storage.Transaction, block *blockrecord.Block) {
	pool := l.store.Pool
	n := block.Number

	for _, k := range block.Keywords {
		tx.Delete(pool.Keywords, storage.IndexKey(strings.ToLower(k), n))
	}
	if "" != block.Category {
		tx.Delete(pool.Categories, storage.IndexKey(block.Category, n))
	}
	tx.Delete(pool.Signers, storage.IndexKey(block.Signer, n))
	tx.Delete(pool.Dates, storage.TimeKey(block.Timestamp, n))
	if ref := block.Reference(); nil != ref {
		tx.Delete(pool.OffChain, []byte(ref.Name))
	}
}

// RebuildIndex - drop the index database and regenerate it
func (l *Ledger) RebuildIndex(ctx context.Context) error {
	l.Lock()
	defer l.Unlock()

	if l.readOnly {
		return fault.ErrReadOnlyLedger
	}
	return l.rebuildIndex(ctx)
}

// must hold lock to call this
func (l *Ledger) rebuildIndex(ctx context.Context) error {
	l.log.Info("rebuild index")

	failures := l.store.IndexFailures()

	err := l.store.DropIndex()
	if nil != err {
		return err
	}

	tx, err := l.store.Begin()
	if nil != err {
		return err
	}
	count := 0

	cursor := l.store.Pool.Blocks.NewFetchCursor().Seek(storage.NumberKey(genesis.BlockNumber + 1))
	err = cursor.Map(func(key []byte, value []byte) error {
		if err := ctx.Err(); nil != err {
			return err
		}
		block, err := blockrecord.PackedBlock(value).Unpack()
		if nil != err {
			l.log.Errorf("block key: %x  not indexed: %s", key, err)
			return nil
		}
		l.indexBlock(tx, block)
		count += 1

		if 0 == count%rebuildBatchSize {
			err = tx.Commit()
			if nil != err {
				return err
			}
			tx, err = l.store.Begin()
			if nil != err {
				return err
			}
		}
		return nil
	})
	if nil != err {
		tx.Abort()
		return err
	}

	err = tx.Commit()
	if nil != err {
		return err
	}
	if failures != l.store.IndexFailures() {
		l.log.Error("index commit failed during rebuild")
		return fault.ErrIndexStale
	}

	l.log.Infof("indexed blocks: %d", count)
	return l.store.ReindexDone()
}

// a read-only view for the search engine
//
// only valid while the ledger read lock is held
type reader struct {
	l *Ledger
}

// View - run f with a consistent search source
func (l *Ledger) View(f func(search.Source) error) error {
	l.RLock()
	defer l.RUnlock()

	if l.store.IndexStale() {
		return fault.ErrIndexStale
	}
	return f(&reader{l: l})
}

// Search - run a query under the read lock
func (l *Ledger) Search(ctx context.Context, engine *search.Engine, q search.Query) (*search.Result, error) {
	var result *search.Result
	err := l.View(func(src search.Source) error {
		r, err := engine.Search(ctx, src, q)
		result = r
		return err
	})
	return result, err
}

func (r *reader) Height() uint64 {
	return r.l.height
}

func (r *reader) Block(number uint64) (*blockrecord.Block, error) {
	return r.l.block(number)
}

func (r *reader) Lookup(index search.Index, value string) ([]uint64, error) {
	pool := r.l.store.Pool
	handle := pool.Keywords
	switch index {
	case search.KeywordIndex:
		value = strings.ToLower(value)
	case search.CategoryIndex:
		handle = pool.Categories
		value = strings.ToUpper(value)
	case search.SignerIndex:
		handle = pool.Signers
	default:
		return nil, fault.ErrMissingParameters
	}
	if strings.IndexByte(value, 0) >= 0 {
		return []uint64{}, nil
	}

	result := []uint64{}
	err := handle.NewPrefixCursor(storage.IndexPrefix(value)).Map(func(key []byte, _ []byte) error {
		_, n, err := storage.SplitIndexKey(key)
		if nil != err {
			return err
		}
		if n <= r.l.height {
			result = append(result, n)
		}
		return nil
	})
	return result, err
}

func (r *reader) Between(from time.Time, to time.Time) ([]uint64, error) {
	cursor := r.l.store.Pool.Dates.NewFetchCursor()
	if from.Unix() > 0 {
		cursor.Seek(storage.TimeKey(from, 0))
	}
	if !to.IsZero() {
		if to.Unix() < 0 {
			return []uint64{}, nil
		}
		cursor.Limit(storage.TimeKey(time.Unix(to.Unix()+1, 0), 0))
	}

	result := []uint64{}
	err := cursor.Map(func(key []byte, _ []byte) error {
		_, n, err := storage.SplitTimeKey(key)
		if nil != err {
			return err
		}
		if n <= r.l.height {
			result = append(result, n)
		}
		return nil
	})
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, err
}

func (r *reader) OffChainContent(ctx context.Context, block *blockrecord.Block) ([]byte, error) {
	return r.l.content(ctx, block)
}
