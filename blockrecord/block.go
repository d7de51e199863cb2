// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockrecord

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/placement"
	"github.com/bitmark-inc/hybridledger/util"
)

// Version - currently supported record version
const Version = 1

// MaximumInlineBytes - the largest inline payload that can be unpacked
const MaximumInlineBytes = placement.MaximumInlineBytes

// PackedBlock - packed records are just a byte slice
type PackedBlock []byte

// Block - the unpacked block
type Block struct {
	Number        uint64
	PreviousBlock digest.Digest
	ContentHash   digest.Digest
	Timestamp     time.Time
	Signer        string
	Decision      placement.Location
	Content       Content
	Keywords      []string
	Category      string
	Signature     []byte
}

// Pack - turn a block into its binary form
func (block *Block) Pack() (PackedBlock, error) {
	if nil == block.Content {
		return nil, fault.ErrInvalidBlockRecord
	}
	if block.Decision != block.Content.Location() {
		return nil, fault.ErrInvalidBlockRecord
	}
	if len(block.Signer) > MaximumSignerLength {
		return nil, fault.ErrInvalidBlockRecord
	}
	if len(block.Signature) > MaximumSignatureBytes {
		return nil, fault.ErrInvalidBlockRecord
	}
	if len(block.Keywords) > MaximumKeywords {
		return nil, fault.ErrTooManyKeywords
	}

	buffer := make([]byte, 0, 128+int(block.Content.Size()))
	buffer = append(buffer, Version)
	buffer = util.AppendVarint64(buffer, block.Number)
	buffer = append(buffer, block.PreviousBlock[:]...)
	buffer = append(buffer, block.ContentHash[:]...)
	buffer = util.AppendVarint64(buffer, uint64(block.Timestamp.Unix()))
	buffer = util.AppendBytes(buffer, []byte(block.Signer))
	buffer = append(buffer, byte(block.Decision))

	buffer = append(buffer, block.Content.tag())
	switch c := block.Content.(type) {
	case *Inline:
		buffer = util.AppendBytes(buffer, c.Data)
	case *OffChain:
		if "" == c.Reference.Name || len(c.Reference.Name) > MaximumReferenceName {
			return nil, fault.ErrInvalidBlockRecord
		}
		buffer = util.AppendBytes(buffer, []byte(c.Reference.Name))
		buffer = util.AppendVarint64(buffer, c.Reference.Size)
	}

	buffer = util.AppendVarint64(buffer, uint64(len(block.Keywords)))
	for _, k := range block.Keywords {
		buffer = util.AppendBytes(buffer, []byte(k))
	}
	buffer = util.AppendBytes(buffer, []byte(block.Category))
	buffer = util.AppendBytes(buffer, block.Signature)

	return buffer, nil
}

// Digest - the link value stored in the next block
func (record PackedBlock) Digest() digest.Digest {
	return digest.NewDigest(record)
}

// Unpack - turn a byte slice into a block
func (record PackedBlock) Unpack() (*Block, error) {
	if 0 == len(record) {
		return nil, fault.ErrInvalidBlockRecord
	}
	if Version != record[0] {
		return nil, fault.ErrUnsupportedRecordVersion
	}

	block := &Block{}

	n, rest, err := util.ExtractVarint64(record[1:])
	if nil != err {
		return nil, err
	}
	block.Number = n

	if len(rest) < 2*digest.Length {
		return nil, fault.ErrInvalidBlockRecord
	}
	copy(block.PreviousBlock[:], rest[:digest.Length])
	copy(block.ContentHash[:], rest[digest.Length:2*digest.Length])
	rest = rest[2*digest.Length:]

	ts, rest, err := util.ExtractVarint64(rest)
	if nil != err {
		return nil, err
	}
	block.Timestamp = time.Unix(int64(ts), 0).UTC()

	signer, rest, err := util.ExtractBytes(rest, MaximumSignerLength)
	if nil != err {
		return nil, err
	}
	block.Signer = string(signer)

	if len(rest) < 2 {
		return nil, fault.ErrInvalidBlockRecord
	}
	block.Decision = placement.Location(rest[0])
	tag := rest[1]
	rest = rest[2:]

	switch tag {
	case inlineTag:
		data, r, err := util.ExtractBytes(rest, MaximumInlineBytes)
		if nil != err {
			return nil, err
		}
		block.Content = &Inline{Data: data}
		rest = r

	case offChainTag:
		name, r, err := util.ExtractBytes(rest, MaximumReferenceName)
		if nil != err {
			return nil, err
		}
		size, r, err := util.ExtractVarint64(r)
		if nil != err {
			return nil, err
		}
		block.Content = &OffChain{
			Reference: Reference{
				Name: string(name),
				Size: size,
			},
		}
		rest = r

	default:
		return nil, fault.ErrInvalidBlockRecord
	}

	if block.Decision != block.Content.Location() {
		return nil, fault.ErrInvalidBlockRecord
	}

	count, rest, err := util.ExtractVarint64(rest)
	if nil != err {
		return nil, err
	}
	if count > MaximumKeywords {
		return nil, fault.ErrTooManyKeywords
	}
	block.Keywords = make([]string, 0, count)
	for i := uint64(0); i < count; i += 1 {
		k, r, err := util.ExtractBytes(rest, 4*MaximumKeywordLength)
		if nil != err {
			return nil, err
		}
		block.Keywords = append(block.Keywords, string(k))
		rest = r
	}

	category, rest, err := util.ExtractBytes(rest, 4*MaximumCategoryLength)
	if nil != err {
		return nil, err
	}
	block.Category = string(category)

	signature, rest, err := util.ExtractBytes(rest, MaximumSignatureBytes)
	if nil != err {
		return nil, err
	}
	if 0 != len(signature) {
		block.Signature = signature
	}

	if 0 != len(rest) {
		return nil, fault.ErrInvalidBlockRecord
	}
	return block, nil
}

// IsOffChain - true when the payload lives in a bundle
func (block *Block) IsOffChain() bool {
	_, ok := block.Content.(*OffChain)
	return ok
}

// Reference - the off-chain reference, or nil for inline content
func (block *Block) Reference() *Reference {
	if c, ok := block.Content.(*OffChain); ok {
		return &c.Reference
	}
	return nil
}

// InlineData - the embedded payload, or nil for off-chain content
func (block *Block) InlineData() []byte {
	if c, ok := block.Content.(*Inline); ok {
		return c.Data
	}
	return nil
}

// the JSON form omits inline data, which may be large
type blockJSON struct {
	Number        uint64             `json:"number,string"`
	PreviousBlock digest.Digest      `json:"previousBlock"`
	ContentHash   digest.Digest      `json:"contentHash"`
	Timestamp     time.Time          `json:"timestamp"`
	Signer        string             `json:"signer"`
	Decision      placement.Location `json:"decision"`
	Size          uint64             `json:"size,string"`
	OffChain      *Reference         `json:"offChain,omitempty"`
	Keywords      []string           `json:"keywords"`
	Category      string             `json:"category"`
	Signature     string             `json:"signature,omitempty"`
}

// MarshalJSON - summary form for operators
func (block *Block) MarshalJSON() ([]byte, error) {
	b := blockJSON{
		Number:        block.Number,
		PreviousBlock: block.PreviousBlock,
		ContentHash:   block.ContentHash,
		Timestamp:     block.Timestamp,
		Signer:        block.Signer,
		Decision:      block.Decision,
		OffChain:      block.Reference(),
		Keywords:      block.Keywords,
		Category:      block.Category,
		Signature:     hex.EncodeToString(block.Signature),
	}
	if nil != block.Content {
		b.Size = block.Content.Size()
	}
	return json.Marshal(b)
}
