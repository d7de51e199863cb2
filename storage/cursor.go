// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/hybridledger/fault"
)

// ErrStopIteration - returned by a Map function to end the scan early
var ErrStopIteration = fault.ProcessError("stop iteration")

// FetchCursor - cursor structure
type FetchCursor struct {
	pool     *PoolHandle
	maxRange util.Range
}

// NewFetchCursor - initialise a cursor over the whole pool
func (p *PoolHandle) NewFetchCursor() *FetchCursor {
	return &FetchCursor{
		pool: p,
		maxRange: util.Range{
			Start: []byte{p.prefix}, // Start of key range, included in the range
			Limit: p.limit,          // Limit of key range, excluded from the range
		},
	}
}

// NewPrefixCursor - initialise a cursor over keys beginning with prefix
func (p *PoolHandle) NewPrefixCursor(prefix []byte) *FetchCursor {
	r := util.BytesPrefix(p.prefixKey(prefix))
	return &FetchCursor{
		pool:     p,
		maxRange: *r,
	}
}

// Seek - move cursor start to specific key position (included)
func (cursor *FetchCursor) Seek(key []byte) *FetchCursor {
	cursor.maxRange.Start = cursor.pool.prefixKey(key)
	return cursor
}

// Limit - end the range before key (excluded)
func (cursor *FetchCursor) Limit(key []byte) *FetchCursor {
	cursor.maxRange.Limit = cursor.pool.prefixKey(key)
	return cursor
}

// Fetch - return up to count elements and advance the cursor past them
func (cursor *FetchCursor) Fetch(count int) ([]Element, error) {
	if nil == cursor {
		return nil, fault.ErrInvalidCursor
	}
	if count <= 0 {
		return nil, fault.ErrInvalidCount
	}

	iter := cursor.pool.dataAccess.Iterator(&cursor.maxRange)

	results := make([]Element, 0, count)
iterating:
	for iter.Next() {
		results = append(results, copyElement(iter.Key(), iter.Value()))
		if len(results) >= count {
			break iterating
		}
	}
	iter.Release()
	err := iter.Error()

	if n := len(results); n > 0 {
		// next start is immediately after the last key returned
		last := cursor.pool.prefixKey(results[n-1].Key)
		cursor.maxRange.Start = append(last, 0x00)
	}
	return results, err
}

// Map - run a function on all elements in the range, in key order
func (cursor *FetchCursor) Map(f func(key []byte, value []byte) error) error {
	if nil == cursor {
		return fault.ErrInvalidCursor
	}
	iter := cursor.pool.dataAccess.Iterator(&cursor.maxRange)
	return scan(iter, iter.Next, f)
}

// MapReverse - run a function on all elements in the range, last key first
func (cursor *FetchCursor) MapReverse(f func(key []byte, value []byte) error) error {
	if nil == cursor {
		return fault.ErrInvalidCursor
	}
	iter := cursor.pool.dataAccess.Iterator(&cursor.maxRange)

	first := true
	step := func() bool {
		if first {
			first = false
			return iter.Last()
		}
		return iter.Prev()
	}
	return scan(iter, step, f)
}

func scan(iter iterator.Iterator, step func() bool, f func(key []byte, value []byte) error) error {
	var err error
iterating:
	for step() {
		e := copyElement(iter.Key(), iter.Value())
		err = f(e.Key, e.Value)
		if nil != err {
			break iterating
		}
	}
	iter.Release()
	if ErrStopIteration == err {
		err = nil
	}
	if nil == err {
		err = iter.Error()
	}
	return err
}
