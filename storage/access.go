// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/hybridledger/fault"
)

// Access - batched access to one database
type Access interface {
	Abort()
	Begin() error
	Commit() error
	Delete([]byte)
	Get([]byte) ([]byte, error)
	Has([]byte) (bool, error)
	InUse() bool
	Iterator(*ldb_util.Range) iterator.Iterator
	Put([]byte, []byte)
}

// AccessData - an Access over a LevelDB database
type AccessData struct {
	sync.Mutex
	inUse      bool
	db         *leveldb.DB
	batch      *leveldb.Batch
	cache      Cache
	cacheReads bool
}

func newDA(db *leveldb.DB, cache Cache, cacheReads bool) *AccessData {
	return &AccessData{
		inUse:      false,
		db:         db,
		batch:      new(leveldb.Batch),
		cache:      cache,
		cacheReads: cacheReads,
	}
}

// Begin - start a batch
func (d *AccessData) Begin() error {
	d.Lock()
	defer d.Unlock()

	if d.inUse {
		return fault.ErrTransactionInUse
	}

	d.inUse = true
	return nil
}

// Put - add a key/value to the batch
func (d *AccessData) Put(key []byte, value []byte) {
	d.cache.Set(dbPut, string(key), value)
	d.batch.Put(key, value)
}

// Delete - add a key removal to the batch
func (d *AccessData) Delete(key []byte) {
	d.cache.Set(dbDelete, string(key), nil)
	d.batch.Delete(key)
}

// Commit - write the batch in one atomic LevelDB write
func (d *AccessData) Commit() error {
	d.Lock()
	defer d.Unlock()

	err := d.db.Write(d.batch, syncWrite)
	d.batch.Reset()
	d.inUse = false
	if nil != err {
		d.cache.Clear()
	}
	return err
}

// Get - read through the pending batch overlay
//
// returns nil, nil for a missing key
func (d *AccessData) Get(key []byte) ([]byte, error) {
	value, found, deleted := d.cache.Get(string(key))
	if deleted {
		return nil, nil
	}
	if found {
		return value, nil
	}

	value, err := d.db.Get(key, nil)
	if leveldb.ErrNotFound == err {
		return nil, nil
	}
	if nil != err {
		return nil, err
	}
	if d.cacheReads {
		d.cache.Set(dbPut, string(key), value)
	}
	return value, nil
}

// Has - check for a key through the pending batch overlay
func (d *AccessData) Has(key []byte) (bool, error) {
	_, found, deleted := d.cache.Get(string(key))
	if deleted {
		return false, nil
	}
	if found {
		return true, nil
	}
	return d.db.Has(key, nil)
}

// InUse - true between Begin and Commit/Abort
func (d *AccessData) InUse() bool {
	d.Lock()
	defer d.Unlock()
	return d.inUse
}

// Iterator - iterate committed data only
func (d *AccessData) Iterator(searchRange *ldb_util.Range) iterator.Iterator {
	return d.db.NewIterator(searchRange, nil)
}

// Abort - discard the batch and the overlay
func (d *AccessData) Abort() {
	d.Lock()
	defer d.Unlock()

	d.batch.Reset()
	d.cache.Clear()
	d.inUse = false
}
