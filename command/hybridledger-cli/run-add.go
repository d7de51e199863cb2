// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/ioutil"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/hybridledger/ledger"
)

func runAdd(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	signer := c.String("signer")
	if "" == signer {
		return fmt.Errorf("signer is required")
	}

	text := c.String("text")
	file := c.String("file")

	var payload []byte
	switch {
	case "" != text && "" != file:
		return fmt.Errorf("only one of text or file is allowed")
	case "" != file:
		data, err := ioutil.ReadFile(file)
		if nil != err {
			return err
		}
		payload = data
	default:
		payload = []byte(text)
	}

	var signature []byte
	if s := c.String("signature"); "" != s {
		b, err := hex.DecodeString(s)
		if nil != err {
			return fmt.Errorf("signature: %s", err)
		}
		signature = b
	}

	if m.verbose {
		fmt.Fprintf(m.e, "signer: %s\n", signer)
		fmt.Fprintf(m.e, "payload: %d bytes\n", len(payload))
	}

	ch, err := m.open(context.Background())
	if nil != err {
		return err
	}

	receipt, err := ch.Ledger.Append(context.Background(), payload, ledger.Metadata{
		Signer:    signer,
		Keywords:  c.StringSlice("keyword"),
		Category:  c.String("category"),
		Signature: signature,
	})
	if nil != err {
		return err
	}

	return printJson(m.w, receipt)
}
