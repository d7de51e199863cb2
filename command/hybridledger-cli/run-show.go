// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/placement"
)

type blockView struct {
	Number        uint64                 `json:"number,string"`
	Digest        digest.Digest          `json:"digest"`
	PreviousBlock digest.Digest          `json:"previousBlock"`
	ContentHash   digest.Digest          `json:"contentHash"`
	Timestamp     time.Time              `json:"timestamp"`
	Signer        string                 `json:"signer"`
	Decision      placement.Location     `json:"decision"`
	Keywords      []string               `json:"keywords"`
	Category      string                 `json:"category"`
	Reference     *blockrecord.Reference `json:"reference,omitempty"`
	Text          string                 `json:"text,omitempty"`
	Data          []byte                 `json:"data,omitempty"`
}

func runShow(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	if 1 != c.NArg() {
		return fmt.Errorf("block number is required")
	}
	number, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if nil != err {
		return fmt.Errorf("block number: %s", err)
	}

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	block, err := ch.Ledger.Block(number)
	if nil != err {
		return err
	}
	packed, err := block.Pack()
	if nil != err {
		return err
	}

	view := blockView{
		Number:        block.Number,
		Digest:        packed.Digest(),
		PreviousBlock: block.PreviousBlock,
		ContentHash:   block.ContentHash,
		Timestamp:     block.Timestamp,
		Signer:        block.Signer,
		Decision:      block.Decision,
		Keywords:      block.Keywords,
		Category:      block.Category,
	}
	if offChain, ok := block.Content.(*blockrecord.OffChain); ok {
		ref := offChain.Reference
		view.Reference = &ref
	}

	if c.Bool("content") {
		data, err := ch.Ledger.Content(ctx, number)
		if nil != err {
			return err
		}
		if utf8.Valid(data) {
			view.Text = string(data)
		} else {
			view.Data = data
		}
	}

	return printJson(m.w, view)
}
