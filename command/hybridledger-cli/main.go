// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/chain"
	"github.com/bitmark-inc/hybridledger/configuration"
)

// read when no passphrase flag is given
const passphraseEnvironment = "HYBRIDLEDGER_PASSPHRASE"

type metadata struct {
	file    string
	config  *configuration.Configuration
	chain   *chain.Chain
	logging bool
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp(os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {

	app := cli.NewApp()
	app.Name = "hybridledger-cli"
	app.Usage = "operate a hybrid on-chain/off-chain ledger"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
		cli.StringFlag{
			Name:  "config, c",
			Value: "",
			Usage: "*configuration `FILE`",
		},
		cli.StringSliceFlag{
			Name:  "define, d",
			Usage: " configuration variable `NAME=VALUE`",
		},
		cli.StringFlag{
			Name:  "passphrase, p",
			Value: "",
			Usage: " secret file `PASSPHRASE` [$" + passphraseEnvironment + "]",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "init",
			Usage:  "create the secret, signer file and genesis block",
			Action: runInit,
		},
		{
			Name:      "add",
			Usage:     "append a block",
			ArgsUsage: "\n   (* = required, + = select one)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "signer, s",
					Value: "",
					Usage: "*authorised signer `NAME`",
				},
				cli.StringFlag{
					Name:  "text, t",
					Value: "",
					Usage: "+payload `STRING`",
				},
				cli.StringFlag{
					Name:  "file, f",
					Value: "",
					Usage: "+payload from `FILE`",
				},
				cli.StringSliceFlag{
					Name:  "keyword, k",
					Usage: " search `KEYWORD`, may be repeated",
				},
				cli.StringFlag{
					Name:  "category, g",
					Value: "",
					Usage: " category `LABEL`",
				},
				cli.StringFlag{
					Name:  "signature",
					Value: "",
					Usage: " ed25519 signature of the payload digest `HEX`",
				},
			},
			Action: runAdd,
		},
		{
			Name:      "show",
			Usage:     "display a block",
			ArgsUsage: "NUMBER",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "content",
					Usage: " include the payload, decrypting off-chain content",
				},
			},
			Action: runShow,
		},
		{
			Name:      "search",
			Usage:     "search the chain",
			ArgsUsage: "\n   (at least one criterion)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "term, t",
					Value: "",
					Usage: " search `TERM`",
				},
				cli.StringFlag{
					Name:  "category, g",
					Value: "",
					Usage: " category `LABEL`",
				},
				cli.StringFlag{
					Name:  "signer, s",
					Value: "",
					Usage: " signer `NAME`",
				},
				cli.StringFlag{
					Name:  "block, b",
					Value: "",
					Usage: " block `NUMBER`",
				},
				cli.StringFlag{
					Name:  "from",
					Value: "",
					Usage: " earliest `DATE` (YYYY-MM-DD or RFC3339)",
				},
				cli.StringFlag{
					Name:  "to",
					Value: "",
					Usage: " latest `DATE` (YYYY-MM-DD or RFC3339)",
				},
				cli.IntFlag{
					Name:  "limit, l",
					Value: 0,
					Usage: " maximum matches `COUNT`",
				},
				cli.StringFlag{
					Name:  "level",
					Value: "",
					Usage: " `LEVEL` [fast-only|include-data|exhaustive-offchain]",
				},
				cli.BoolFlag{
					Name:  "strict",
					Usage: " fail on an unreadable off-chain bundle",
				},
				cli.BoolFlag{
					Name:  "validate-term",
					Usage: " reject terms shorter than the minimum length",
				},
			},
			Action: runSearch,
		},
		{
			Name:  "validate",
			Usage: "check every link and content digest",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "mode, m",
					Value: "quick",
					Usage: " `MODE` [quick|full]",
				},
			},
			Action: runValidate,
		},
		{
			Name:      "rollback",
			Usage:     "remove blocks from the tail of the chain",
			ArgsUsage: "\n   (+ = select one)",
			Flags: []cli.Flag{
				cli.Int64Flag{
					Name:  "blocks, n",
					Usage: "+number of blocks to remove `COUNT`",
				},
				cli.Int64Flag{
					Name:  "to",
					Usage: "+last block to keep `NUMBER`",
				},
				cli.BoolFlag{
					Name:  "dry-run",
					Usage: " only report what would be removed",
				},
			},
			Action: runRollback,
		},
		{
			Name:   "status",
			Usage:  "display counts and validity",
			Action: runStatus,
		},
		{
			Name:      "export",
			Usage:     "write a snapshot",
			ArgsUsage: "DIRECTORY",
			Action:    runExport,
		},
		{
			Name:      "import",
			Usage:     "replace the chain from a snapshot",
			ArgsUsage: "DIRECTORY",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "force",
					Usage: " replace a non-empty chain",
				},
				cli.BoolFlag{
					Name:  "validate",
					Usage: " run a full validation afterwards",
				},
			},
			Action: runImport,
		},
		{
			Name:  "prune",
			Usage: "delete off-chain bundles no block references",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "dry-run",
					Usage: " only list the orphans",
				},
			},
			Action: runPrune,
		},
		{
			Name:   "reindex",
			Usage:  "rebuild the search index",
			Action: runReindex,
		},
		{
			Name:  "version",
			Usage: "display version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {

		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		// to suppress reading config file if certain commands
		command := c.Args().Get(0)
		switch command {
		case "", "help", "h", "version":
			return nil
		}

		file := c.GlobalString("config")
		if "" == file {
			return fmt.Errorf("missing --config option")
		}

		variables, err := parseDefines(c.GlobalStringSlice("define"))
		if nil != err {
			return err
		}

		if verbose {
			fmt.Fprintf(e, "reading config file: %s\n", file)
		}

		options, err := configuration.GetConfiguration(file, variables)
		if nil != err {
			return err
		}

		if p := c.GlobalString("passphrase"); "" != p {
			options.Secret.Passphrase = p
		} else if p := os.Getenv(passphraseEnvironment); "" != p && "" == options.Secret.Passphrase {
			options.Secret.Passphrase = p
		}

		// an already running logger is kept
		logging := false
		if err := logger.Initialise(options.Logging); nil == err {
			logging = true
		} else if verbose {
			fmt.Fprintf(e, "logger: %s\n", err)
		}

		c.App.Metadata["config"] = &metadata{
			file:    file,
			config:  options,
			logging: logging,
			verbose: verbose,
			e:       e,
			w:       w,
		}
		return nil
	}

	// close the chain if a command opened it
	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if !ok {
			return nil
		}
		if nil != m.chain {
			m.chain.Close()
			m.chain = nil
		}
		if m.logging {
			logger.Finalise()
			m.logging = false
		}
		return nil
	}

	return app
}

// open the chain once per command
func (m *metadata) open(ctx context.Context) (*chain.Chain, error) {
	if nil != m.chain {
		return m.chain, nil
	}
	c, err := chain.Open(ctx, m.config)
	if nil != err {
		return nil, err
	}
	m.chain = c
	return c, nil
}

// NAME=VALUE pairs that become Lua globals in the configuration file
func parseDefines(defines []string) (map[string]string, error) {
	variables := make(map[string]string, len(defines))
	for _, d := range defines {
		n := strings.IndexByte(d, '=')
		if n <= 0 {
			return nil, fmt.Errorf("invalid define: %q expected NAME=VALUE", d)
		}
		variables[d[:n]] = d[n+1:]
	}
	return variables, nil
}
