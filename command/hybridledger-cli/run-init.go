// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/hybridledger/chain"
	"github.com/bitmark-inc/hybridledger/digest"
)

type initReply struct {
	SecretFile     string        `json:"secretFile"`
	SecretCreated  bool          `json:"secretCreated"`
	SignersFile    string        `json:"signersFile"`
	SignersCreated bool          `json:"signersCreated"`
	Database       string        `json:"database"`
	Height         uint64        `json:"height,string"`
	Tip            digest.Digest `json:"tip"`
}

func runInit(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	secretCreated, signersCreated, err := chain.Initialise(m.config, m.config.Secret.Passphrase)
	if nil != err {
		return err
	}

	ch, err := m.open(context.Background())
	if nil != err {
		return err
	}

	return printJson(m.w, initReply{
		SecretFile:     m.config.Secret.File,
		SecretCreated:  secretCreated,
		SignersFile:    m.config.Signers,
		SignersCreated: signersCreated,
		Database:       m.config.DatabasePath(),
		Height:         ch.Ledger.Height(),
		Tip:            ch.Ledger.Tip(),
	})
}
