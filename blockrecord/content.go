// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockrecord

import (
	"github.com/bitmark-inc/hybridledger/placement"
)

// content tags in the packed record
const (
	inlineTag   = byte(1)
	offChainTag = byte(2)
)

// Content - exactly one of *Inline or *OffChain
type Content interface {
	Location() placement.Location
	Size() uint64
	tag() byte
}

// Inline - payload embedded in the block
type Inline struct {
	Data []byte
}

// Reference - where an off-chain payload lives
type Reference struct {
	Name string `json:"name"`
	Size uint64 `json:"size,string"`
}

// OffChain - payload held in an encrypted off-chain bundle
type OffChain struct {
	Reference Reference
}

// Location - always ON_CHAIN
func (c *Inline) Location() placement.Location { return placement.OnChain }

// Size - bytes of payload
func (c *Inline) Size() uint64 { return uint64(len(c.Data)) }

func (c *Inline) tag() byte { return inlineTag }

// Location - always OFF_CHAIN
func (c *OffChain) Location() placement.Location { return placement.OffChain }

// Size - bytes of plaintext in the bundle
func (c *OffChain) Size() uint64 { return c.Reference.Size }

func (c *OffChain) tag() byte { return offChainTag }
