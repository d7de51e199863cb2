// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ledger - the hash linked chain of blocks
//
// Blocks are stored under their 8 byte big endian number in the
// blocks database; block 0 is the genesis block.  Every other block
// links to the digest of the packed record before it and carries the
// digest of its effective content.  Payloads at or above the off-chain
// threshold are sealed into a bundle on the off-chain store and the
// block keeps only a reference.
//
// Structural changes (append, rollback, import, prune) hold the write
// lock; readers (validate, search, status, export) hold the read lock
// and so never see a bundle removed underneath them.
//
// The index database is derived data: it is rebuilt from the blocks
// whenever its version is missing or a write to it failed.
package ledger
