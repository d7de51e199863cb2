// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/hybridledger/ledger"
)

func runValidate(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	mode, err := ledger.ParseMode(c.String("mode"))
	if nil != err {
		return fmt.Errorf("invalid mode: %q", c.String("mode"))
	}

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	report, err := ch.Ledger.Validate(ctx, mode)
	if nil != err {
		return err
	}

	err = printJson(m.w, report)
	if nil != err {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("chain is not valid")
	}
	return nil
}

func runRollback(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	request := ledger.RollbackRequest{
		DryRun: c.Bool("dry-run"),
	}
	if c.IsSet("blocks") {
		n := c.Int64("blocks")
		request.Blocks = &n
	}
	if c.IsSet("to") {
		n := c.Int64("to")
		request.ToIndex = &n
	}

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	result, err := ch.Ledger.Rollback(ctx, request)
	if nil != err {
		return err
	}
	return printJson(m.w, result)
}

func runStatus(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	status, err := ch.Ledger.Status(ctx)
	if nil != err {
		return err
	}
	return printJson(m.w, status)
}

func runPrune(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	result, err := ch.Ledger.Prune(ctx, c.Bool("dry-run"))
	if nil != err {
		return err
	}
	return printJson(m.w, result)
}

type reindexReply struct {
	Height uint64 `json:"height,string"`
}

func runReindex(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	err = ch.Ledger.RebuildIndex(ctx)
	if nil != err {
		return err
	}
	return printJson(m.w, reindexReply{Height: ch.Ledger.Height()})
}
