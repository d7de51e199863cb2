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

func runExport(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	directory := c.Args().First()
	if "" == directory {
		return fmt.Errorf("directory is required")
	}

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	manifest, err := ch.Ledger.Export(ctx, directory)
	if nil != err {
		return err
	}
	return printJson(m.w, manifest)
}

func runImport(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	directory := c.Args().First()
	if "" == directory {
		return fmt.Errorf("directory is required")
	}

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	result, err := ch.Ledger.Import(ctx, directory, ledger.ImportOptions{
		ForceOverwrite: c.Bool("force"),
		ValidateAfter:  c.Bool("validate"),
	})
	if nil != err {
		return err
	}
	return printJson(m.w, result)
}
