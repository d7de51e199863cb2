// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package search - tiered queries over a chain
//
// Three levels, each doing strictly more work than the one before:
//
//   FAST_ONLY            keyword, category, signer and date indexes
//   INCLUDE_DATA         + substring match over inline payloads
//   EXHAUSTIVE_OFFCHAIN  + decrypt and match off-chain payloads
//
// A level is a set of capabilities and one scan consults only the
// capabilities it holds.  At the exhaustive level a bundle that cannot
// be read is reported as a gap and that block is searched as if the
// level were INCLUDE_DATA; the result records the fallback.  A strict
// query returns the read error instead.
package search
