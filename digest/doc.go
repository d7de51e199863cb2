// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package digest - the integrity codec
//
// SHA3-256 over arbitrary bytes; used to link each block to its
// predecessor, to check off-chain plaintext and to name off-chain
// files.
package digest
