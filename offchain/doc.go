// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package offchain - encrypted storage of externalised payloads
//
// One bundle per off-chain block, named from the block number and the
// first 16 hex digits of the plaintext digest:
//
//   %016x-<digest prefix>.off
//
// Bundle layout:
//
//   magic       4 bytes   "HLOB"
//   version     1 byte
//   IV         16 bytes
//   MAC        32 bytes   HMAC-SHA3-256(IV ++ ciphertext)
//   digest     32 bytes   SHA3-256(plaintext)
//   ciphertext            AES-256-CBC, PKCS#7 padded
//
// Bundles are written to a Backend: a local directory or an S3
// compatible bucket.
package offchain
