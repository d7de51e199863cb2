// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package offchain

import (
	"context"
)

// Backend - raw byte storage for bundles
//
// Read of a missing name returns fault.ErrOffChainNotFound; Remove of
// a missing name is not an error.  List returns only bundle names.
type Backend interface {
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Remove(ctx context.Context, name string) error
	String() string
	Write(ctx context.Context, name string, data []byte) error
}
