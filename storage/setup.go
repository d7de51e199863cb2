// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will fail
type pools struct {
	Blocks     *PoolHandle `prefix:"B" database:"blocks"`
	Metadata   *PoolHandle `prefix:"M" database:"blocks"`
	Keywords   *PoolHandle `prefix:"K" database:"index"`
	Categories *PoolHandle `prefix:"C" database:"index"`
	Dates      *PoolHandle `prefix:"T" database:"index"`
	Signers    *PoolHandle `prefix:"S" database:"index"`
	OffChain   *PoolHandle `prefix:"O" database:"index"`
}

// for database version
var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	currentBlockDBVersion = 0x100
	currentIndexDBVersion = 0x100
)

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

var syncWrite = &ldb_opt.WriteOptions{Sync: true}

// Store - the pair of databases holding one chain
type Store struct {
	sync.Mutex
	log        *logger.L
	readOnly   bool
	blocksName string
	indexName  string
	dbBlocks   *leveldb.DB
	dbIndex    *leveldb.DB
	blocks     *AccessData
	index      *AccessData
	indexStale bool
	indexFails uint64

	Pool pools
}

// Open - open up the database connection
//
// database is a path prefix, "-blocks.leveldb" and "-index.leveldb"
// are appended.  The boolean result is true when the index database
// was (re)created and must be rebuilt from the blocks.
func Open(database string, readOnly bool) (*Store, bool, error) {
	s := &Store{
		log:        logger.New("storage"),
		readOnly:   readOnly,
		blocksName: database + "-blocks.leveldb",
		indexName:  database + "-index.leveldb",
	}

	ok := false
	mustReindex := false

	defer func() {
		if !ok {
			s.dbClose()
		}
	}()

	db, blocksVersion, err := getDB(s.blocksName, readOnly)
	if nil != err {
		return nil, false, err
	}
	s.dbBlocks = db

	// ensure no database downgrade
	if blocksVersion > currentBlockDBVersion {
		s.log.Criticalf("block database version: %d > current version: %d", blocksVersion, currentBlockDBVersion)
		return nil, false, fault.ErrIncompatibleDatabase
	}

	db, indexVersion, err := getDB(s.indexName, readOnly)
	if nil != err {
		return nil, false, err
	}
	s.dbIndex = db

	if indexVersion > currentIndexDBVersion {
		s.log.Criticalf("index database version: %d > current version: %d", indexVersion, currentIndexDBVersion)
		return nil, false, fault.ErrIncompatibleDatabase
	}

	// prevent readOnly from modifying the database
	if readOnly && (blocksVersion != currentBlockDBVersion || indexVersion != currentIndexDBVersion) {
		s.log.Criticalf("database is inconsistent: blocks: %d  index: %d  current: %d & %d", blocksVersion, indexVersion, currentBlockDBVersion, currentIndexDBVersion)
		return nil, false, fault.ErrIncompatibleDatabase
	}

	if 0 == blocksVersion && !readOnly {
		// database was empty so tag as current version
		err = putVersion(s.dbBlocks, currentBlockDBVersion)
		if nil != err {
			return nil, false, err
		}
	}

	cache := newCache()
	s.blocks = newDA(s.dbBlocks, cache, true)
	s.index = newDA(s.dbIndex, cache, false)

	// see if index need to be created or deleted and re-created
	if indexVersion < currentIndexDBVersion {
		mustReindex = true
		err = s.DropIndex()
		if nil != err {
			return nil, false, err
		}
	}

	err = s.setupPools()
	if nil != err {
		return nil, false, err
	}

	ok = true // prevent db close
	return s, mustReindex, nil
}

// scan each field of pools and attach a handle to its database
func (s *Store) setupPools() error {

	// this will be a struct type
	poolType := reflect.TypeOf(s.Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&s.Pool).Elem()

	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			return fmt.Errorf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		prefix := prefixTag[0]
		limit := []byte(nil)
		if prefix < 255 {
			limit = []byte{prefix + 1}
		}

		var dataAccess Access
		switch dbName := fieldInfo.Tag.Get("database"); dbName {
		case "blocks":
			dataAccess = s.blocks
		case "index":
			dataAccess = s.index
		default:
			return fmt.Errorf("pool: %v  has invalid database: %q", fieldInfo, dbName)
		}

		p := &PoolHandle{
			prefix:     prefix,
			limit:      limit,
			dataAccess: dataAccess,
		}
		poolValue.Field(i).Set(reflect.ValueOf(p))
	}
	return nil
}

func (s *Store) dbClose() {
	if nil != s.dbIndex {
		s.dbIndex.Close()
		s.dbIndex = nil
	}
	if nil != s.dbBlocks {
		s.dbBlocks.Close()
		s.dbBlocks = nil
	}
}

// Close - close the database connection
func (s *Store) Close() {
	s.Lock()
	s.dbClose()
	s.Unlock()
}

// DropIndex - erase the index database completely and start an empty one
//
// the version stays unset until ReindexDone
func (s *Store) DropIndex() error {
	s.Lock()
	defer s.Unlock()

	if s.readOnly {
		return fault.ErrIncompatibleDatabase
	}

	if nil != s.dbIndex {
		s.dbIndex.Close()
		s.dbIndex = nil
	}

	s.log.Warnf("drop index database: %s", s.indexName)

	err := os.RemoveAll(s.indexName)
	if nil != err {
		return err
	}

	db, _, err := getDB(s.indexName, false)
	if nil != err {
		return err
	}
	s.dbIndex = db
	s.index.db = db
	s.index.cache.Clear()
	s.indexStale = true
	return nil
}

// ReindexDone - called at the end of reindex
func (s *Store) ReindexDone() error {
	s.Lock()
	defer s.Unlock()

	err := putVersion(s.dbIndex, currentIndexDBVersion)
	if nil != err {
		return err
	}
	s.indexStale = false
	return nil
}

// IndexStale - true if the index must be rebuilt before it is trusted
func (s *Store) IndexStale() bool {
	s.Lock()
	defer s.Unlock()
	return s.indexStale
}

// IndexFailures - count of failed index commits since open
func (s *Store) IndexFailures() uint64 {
	s.Lock()
	defer s.Unlock()
	return s.indexFails
}

// a failed index write leaves an unknown index state; a zero version
// forces a rebuild at the next open even if this process dies
func (s *Store) markIndexStale() {
	s.Lock()
	defer s.Unlock()

	s.indexStale = true
	s.indexFails += 1
	err := putVersion(s.dbIndex, 0)
	if nil != err {
		s.log.Criticalf("cannot reset index version: %s", err)
	}
}

// return:
//   database handle
//   version number
func getDB(name string, readOnly bool) (*leveldb.DB, int, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}

	db, err := leveldb.OpenFile(name, opt)
	if nil != err {
		return nil, 0, err
	}

	versionValue, err := db.Get(versionKey, nil)
	if leveldb.ErrNotFound == err {
		return db, 0, nil
	} else if nil != err {
		db.Close()
		return nil, 0, err
	}

	if 4 != len(versionValue) {
		db.Close()
		return nil, 0, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(versionValue))
	}

	version := int(binary.BigEndian.Uint32(versionValue))
	return db, version, nil
}

func putVersion(db *leveldb.DB, version int) error {
	currentVersion := make([]byte, 4)
	binary.BigEndian.PutUint32(currentVersion, uint32(version))

	return db.Put(versionKey, currentVersion, syncWrite)
}
