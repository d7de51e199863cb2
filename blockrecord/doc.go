// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockrecord - the block structure and its packed form
//
// Packed layout (all integers Varint64):
//
//   version           1 byte
//   number            varint
//   previous block    32 bytes  SHA3-256 of the previous packed block
//   content hash      32 bytes  SHA3-256 of the effective content
//   timestamp         varint    unix seconds, UTC
//   signer            varint length ++ bytes
//   decision          1 byte    placement.Location
//   content tag       1 byte    1 = inline, 2 = off-chain
//   content body      inline: varint length ++ data
//                     off-chain: varint length ++ name, varint size
//   keyword count     varint
//   keywords          varint length ++ bytes  (each)
//   category          varint length ++ bytes
//   signature         varint length ++ bytes  (may be empty)
//
// The block digest is SHA3-256 over the whole packed record.
package blockrecord
