// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

// Transaction - one batch per database, committed blocks first
type Transaction interface {
	Abort()
	Commit() error
	Delete(*PoolHandle, []byte)
	Get(*PoolHandle, []byte) ([]byte, error)
	Put(*PoolHandle, []byte, []byte)
	PutN(*PoolHandle, []byte, uint64)
}

type transactionData struct {
	store *Store
}

// Begin - start a transaction over both databases
//
// the caller must be the only writer
func (s *Store) Begin() (Transaction, error) {
	if err := s.blocks.Begin(); nil != err {
		return nil, err
	}
	if err := s.index.Begin(); nil != err {
		s.blocks.Abort()
		return nil, err
	}
	return &transactionData{store: s}, nil
}

func (t *transactionData) Put(handle *PoolHandle, key []byte, value []byte) {
	handle.put(key, value)
}

func (t *transactionData) PutN(handle *PoolHandle, key []byte, value uint64) {
	handle.putN(key, value)
}

func (t *transactionData) Delete(handle *PoolHandle, key []byte) {
	handle.remove(key)
}

func (t *transactionData) Get(handle *PoolHandle, key []byte) ([]byte, error) {
	return handle.Get(key)
}

// Commit - write the blocks batch, then the index batch
//
// a blocks failure aborts both and nothing changes; an index failure
// leaves committed blocks and marks the index for rebuilding
func (t *transactionData) Commit() error {
	s := t.store

	err := s.blocks.Commit()
	if nil != err {
		s.log.Errorf("blocks commit error: %s", err)
		s.index.Abort()
		return err
	}

	err = s.index.Commit()
	if nil != err {
		s.log.Criticalf("index commit error: %s", err)
		s.markIndexStale()
	}
	return nil
}

func (t *transactionData) Abort() {
	t.store.blocks.Abort()
	t.store.index.Abort()
}
