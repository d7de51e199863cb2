// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/storage"
)

func TestCommitAndAbort(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	trx, err := s.Begin()
	assert.Nil(t, err, "begin error")

	_, err = s.Begin()
	assert.Equal(t, fault.ErrTransactionInUse, err, "second transaction allowed")

	trx.Put(s.Pool.Blocks, storage.NumberKey(1), []byte("block one"))
	trx.Put(s.Pool.Keywords, storage.IndexKey("test", 1), []byte{})

	// pending writes are visible through the overlay
	value, err := trx.Get(s.Pool.Blocks, storage.NumberKey(1))
	assert.Nil(t, err, "get error")
	assert.Equal(t, []byte("block one"), value, "pending value missing")

	err = trx.Commit()
	assert.Nil(t, err, "commit error")

	value, err = s.Pool.Blocks.Get(storage.NumberKey(1))
	assert.Nil(t, err, "get error")
	assert.Equal(t, []byte("block one"), value, "committed value missing")

	trx, err = s.Begin()
	assert.Nil(t, err, "begin error")
	trx.Put(s.Pool.Blocks, storage.NumberKey(2), []byte("block two"))
	trx.Delete(s.Pool.Blocks, storage.NumberKey(1))
	trx.Abort()

	value, err = s.Pool.Blocks.Get(storage.NumberKey(2))
	assert.Nil(t, err, "get error")
	assert.Nil(t, value, "aborted value written")

	found, err := s.Pool.Blocks.Has(storage.NumberKey(1))
	assert.Nil(t, err, "has error")
	assert.True(t, found, "aborted delete applied")
}

func TestDeleteHidesValue(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	trx, err := s.Begin()
	assert.Nil(t, err, "begin error")
	trx.PutN(s.Pool.OffChain, []byte("bundle.off"), 42)
	assert.Nil(t, trx.Commit(), "commit error")

	n, found, err := s.Pool.OffChain.GetN([]byte("bundle.off"))
	assert.Nil(t, err, "getN error")
	assert.True(t, found, "value not found")
	assert.Equal(t, uint64(42), n, "wrong value")

	trx, err = s.Begin()
	assert.Nil(t, err, "begin error")
	trx.Delete(s.Pool.OffChain, []byte("bundle.off"))
	assert.Nil(t, trx.Commit(), "commit error")

	_, found, err = s.Pool.OffChain.GetN([]byte("bundle.off"))
	assert.Nil(t, err, "getN error")
	assert.False(t, found, "deleted value found")
}

func TestCursors(t *testing.T) {
	s, _ := openStore(t)
	defer s.Close()

	trx, err := s.Begin()
	assert.Nil(t, err, "begin error")
	for n := uint64(1); n <= 5; n += 1 {
		trx.Put(s.Pool.Blocks, storage.NumberKey(n), []byte{byte(n)})
		trx.Put(s.Pool.Keywords, storage.IndexKey("alpha", n), []byte{})
	}
	trx.Put(s.Pool.Keywords, storage.IndexKey("alphabet", 9), []byte{})
	assert.Nil(t, trx.Commit(), "commit error")

	last, found, err := s.Pool.Blocks.LastElement()
	assert.Nil(t, err, "last error")
	assert.True(t, found, "last not found")
	assert.Equal(t, storage.NumberKey(5), last.Key, "wrong last key")

	cursor := s.Pool.Blocks.NewFetchCursor()
	first, err := cursor.Fetch(2)
	assert.Nil(t, err, "fetch error")
	assert.Equal(t, 2, len(first), "wrong fetch count")
	rest, err := cursor.Fetch(10)
	assert.Nil(t, err, "fetch error")
	assert.Equal(t, 3, len(rest), "cursor did not advance")
	assert.Equal(t, []byte{3}, rest[0].Value, "wrong first value after advance")

	_, err = cursor.Fetch(0)
	assert.Equal(t, fault.ErrInvalidCount, err, "zero count accepted")

	// prefix must not match the longer keyword
	numbers := []uint64{}
	err = s.Pool.Keywords.NewPrefixCursor(storage.IndexPrefix("alpha")).Map(func(key []byte, value []byte) error {
		v, n, err := storage.SplitIndexKey(key)
		assert.Equal(t, "alpha", v, "wrong value")
		numbers = append(numbers, n)
		return err
	})
	assert.Nil(t, err, "map error")
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, numbers, "wrong prefix scan")

	numbers = numbers[:0]
	err = s.Pool.Blocks.NewFetchCursor().MapReverse(func(key []byte, value []byte) error {
		n, err := storage.NumberFromKey(key)
		numbers = append(numbers, n)
		if 3 == len(numbers) {
			return storage.ErrStopIteration
		}
		return err
	})
	assert.Nil(t, err, "reverse map error")
	assert.Equal(t, []uint64{5, 4, 3}, numbers, "wrong reverse scan")

	numbers = numbers[:0]
	err = s.Pool.Blocks.NewFetchCursor().Seek(storage.NumberKey(2)).Limit(storage.NumberKey(4)).Map(func(key []byte, value []byte) error {
		n, err := storage.NumberFromKey(key)
		numbers = append(numbers, n)
		return err
	})
	assert.Nil(t, err, "range map error")
	assert.Equal(t, []uint64{2, 3}, numbers, "wrong range scan")
}

func TestReopenAndDropIndex(t *testing.T) {
	s, database := openStore(t)

	trx, err := s.Begin()
	assert.Nil(t, err, "begin error")
	trx.Put(s.Pool.Blocks, storage.NumberKey(1), []byte("one"))
	trx.Put(s.Pool.Signers, storage.IndexKey("alice", 1), []byte{})
	assert.Nil(t, trx.Commit(), "commit error")
	s.Close()

	s, mustReindex, err := storage.Open(database, storage.ReadWrite)
	assert.Nil(t, err, "reopen error")
	assert.False(t, mustReindex, "current index flagged for reindex")
	assert.False(t, s.IndexStale(), "index stale after reopen")

	found, err := s.Pool.Signers.Has(storage.IndexKey("alice", 1))
	assert.Nil(t, err, "has error")
	assert.True(t, found, "index entry lost")

	err = s.DropIndex()
	assert.Nil(t, err, "drop error")
	assert.True(t, s.IndexStale(), "dropped index not stale")

	empty, err := s.Pool.Signers.IsEmpty()
	assert.Nil(t, err, "empty error")
	assert.True(t, empty, "index entries survived drop")

	empty, err = s.Pool.Blocks.IsEmpty()
	assert.Nil(t, err, "empty error")
	assert.False(t, empty, "blocks lost in index drop")
	s.Close()

	// without ReindexDone the next open must rebuild
	s, mustReindex, err = storage.Open(database, storage.ReadWrite)
	assert.Nil(t, err, "reopen error")
	assert.True(t, mustReindex, "unfinished reindex not detected")
	s.Close()
}

func TestKeys(t *testing.T) {
	v, n, err := storage.SplitIndexKey(storage.IndexKey("VERY_LARGE", 77))
	assert.Nil(t, err, "split error")
	assert.Equal(t, "VERY_LARGE", v, "wrong value")
	assert.Equal(t, uint64(77), n, "wrong number")

	_, _, err = storage.SplitIndexKey([]byte("short"))
	assert.Equal(t, fault.ErrInvalidBlockRecord, err, "short key accepted")

	ts := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	when, n, err := storage.SplitTimeKey(storage.TimeKey(ts, 3))
	assert.Nil(t, err, "split error")
	assert.Equal(t, ts, when, "wrong time")
	assert.Equal(t, uint64(3), n, "wrong number")
}
