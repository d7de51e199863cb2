// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.
//
// Every error belongs to exactly one class so that callers (the CLI,
// the RPC layer, search gap reports) can distinguish validation,
// authorisation, integrity, not found and conflict failures.
package fault
