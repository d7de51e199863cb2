// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk chain and its search index
//
// Two LevelDB databases each split into a series of pools.  Each pool
// is defined by a prefix byte obtained from the prefix tag in the
// struct defining the available pools.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++           = concatenation of byte data
// 3. block number = big endian uint64 (8 bytes)
// 4. timestamp    = big endian uint64 unix seconds (8 bytes)
// 5. *others*     = byte values of various length
//
// Blocks database (source of truth):
//
//   B ++ block number          - packed block record
//   M ++ name                  - chain metadata (e.g. secret fingerprint)
//
// Index database (a cache, dropped and rebuilt from the blocks):
//
//   K ++ lower(keyword) ++ 0x00 ++ block number   - keyword index
//   C ++ category ++ 0x00 ++ block number         - category index
//   T ++ timestamp ++ block number                - date index
//   S ++ signer ++ 0x00 ++ block number           - signer index
//   O ++ bundle name                              - off-chain owner
//                                                   data: block number
//
// Both databases carry a version record; an index database with a
// missing, old or zero version must be rebuilt.
package storage
