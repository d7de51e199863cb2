// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/chain"
	"github.com/bitmark-inc/hybridledger/configuration"
	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/rpc/certificate"
)

const (
	rpcCertificateKeyFilename = "rpc.crt"
	rpcPrivateKeyFilename     = "rpc.key"
	secretFilename            = "ledger.secret"

	// read by gen-secret to create a passphrase protected secret
	passphraseEnvironment = "HYBRIDLEDGER_PASSPHRASE"
)

// setup command handler
//
// commands that run to create key and certificate files these
// commands cannot access any internal database or states or the
// configuration file
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {
	case "gen-rpc-cert", "rpc":
		certificateFilename := getFilenameWithDirectory(arguments, rpcCertificateKeyFilename)
		privateKeyFilename := getFilenameWithDirectory(arguments, rpcPrivateKeyFilename)

		addresses := []string{}
		if len(arguments) >= 2 {
			for _, a := range arguments[1:] {
				if "" != a {
					addresses = append(addresses, a)
				}
			}
		}

		err := certificate.Generate("rpc", certificateFilename, privateKeyFilename, addresses)
		if nil != err {
			fmt.Printf("generate RPC key: %q and certificate: %q error: %s\n", privateKeyFilename, certificateFilename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated RPC key: %q and certificate: %q\n", privateKeyFilename, certificateFilename)

	case "gen-secret", "secret":
		filename := getFilenameWithDirectory(arguments, secretFilename)

		err := makeSecretFile(filename, os.Getenv(passphraseEnvironment))
		if nil != err {
			fmt.Printf("generate secret: %q error: %s\n", filename, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated secret: %q\n", filename)

	case "start", "run":
		return false // continue processing

	case "config-test", "cfg":
		return false

	case "validate", "status":
		return false // defer processing until the ledger is open

	case "version", "v":
		fmt.Printf("%s\n", version)
		return true

	default:
		switch command {
		case "help", "h", "?":
		case "", " ":
			fmt.Printf("error: missing command\n")
		default:
			fmt.Printf("error: no such command: %q\n", command)
		}
		fmt.Printf("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE [[command|help] arguments...]", program)

		fmt.Printf("supported commands:\n\n")
		fmt.Printf("  help                       (h)      - display this message\n\n")
		fmt.Printf("  version                    (v)      - display version sting\n\n")

		fmt.Printf("  gen-rpc-cert [DIR]         (rpc)    - create private key in:  %q\n", "DIR/"+rpcPrivateKeyFilename)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+rpcCertificateKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  gen-rpc-cert [DIR] [IPs...]         - create private key in:  %q\n", "DIR/"+rpcPrivateKeyFilename)
		fmt.Printf("                                        and the certificate in: %q\n", "DIR/"+rpcCertificateKeyFilename)
		fmt.Printf("\n")

		fmt.Printf("  gen-secret [DIR]           (secret) - create the chain secret in: %q\n", "DIR/"+secretFilename)
		fmt.Printf("                                        protected by $%s if set\n", passphraseEnvironment)
		fmt.Printf("\n")

		fmt.Printf("  start                      (run)    - just run the program, same as no arguments\n")
		fmt.Printf("                                        for convienience when passing script arguments\n")
		fmt.Printf("\n")

		fmt.Printf("  config-test                (cfg)    - just check the configuration file\n")
		fmt.Printf("\n")

		fmt.Printf("  validate [quick|full]               - validate the chain once and exit\n")
		fmt.Printf("\n")

		fmt.Printf("  status                              - display the chain status\n")
		fmt.Printf("\n")

		exitwithstatus.Exit(1)
	}

	// indicate processing complete and preform normal exit from main
	return true
}

// configuration file enquiry commands
// have configuration file read and decoded, but nothing else
func processConfigCommand(arguments []string, options *configuration.Configuration) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
	}

	switch command {
	case "config-test", "cfg":
		b, err := json.Marshal(options)
		if err != nil {
			exitwithstatus.Message("error: %s", err)
		}
		var out bytes.Buffer
		json.Indent(&out, b, "", "  ")
		out.WriteTo(os.Stdout)
		os.Stdout.WriteString("\n")

	default: // unknown commands fall through to data command
		return false
	}

	// indicate processing complete and perform normal exit from main
	return true
}

// data command handler
// the ledger is open so these commands can read it
func processDataCommand(log *logger.L, arguments []string, c *chain.Chain) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "start", "run":
		return false // continue processing

	case "validate":
		mode := ""
		if len(arguments) > 0 {
			mode = arguments[0]
		}
		m, err := ledger.ParseMode(mode)
		if nil != err {
			exitwithstatus.Message("error: invalid mode: %q", mode)
		}
		report, err := c.Ledger.Validate(context.Background(), m)
		if nil != err {
			exitwithstatus.Message("validate error: %s", err)
		}
		printJSON(report)
		if !report.Valid {
			log.Critical("chain is not valid")
			exitwithstatus.Exit(2)
		}

	case "status":
		status, err := c.Ledger.Status(context.Background())
		if nil != err {
			exitwithstatus.Message("status error: %s", err)
		}
		printJSON(status)

	default:
		exitwithstatus.Message("error: no such command: %s", command)

	}

	// indicate processing complete and perform normal exit from main
	return true
}

func makeSecretFile(filename string, passphrase string) error {
	if "" == passphrase {
		secret, err := encrypt.NewSecret()
		if nil != err {
			return err
		}
		return encrypt.WriteSecretFile(filename, encrypt.FormatRawSecret(secret))
	}

	text, _, err := encrypt.FormatPassphraseSecret(passphrase)
	if nil != err {
		return err
	}
	return encrypt.WriteSecretFile(filename, text)
}

func printJSON(message interface{}) {
	b, err := json.MarshalIndent(message, "", "  ")
	if nil != err {
		exitwithstatus.Message("error: %s", err)
	}
	fmt.Printf("%s\n", b)
}

func getFilenameWithDirectory(arguments []string, name string) string {
	dir := "."
	if len(arguments) >= 1 {
		dir = arguments[0]
	}

	return filepath.Join(dir, name)
}
