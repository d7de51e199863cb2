// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain - open a ledger and its collaborators from a configuration
package chain

import (
	"context"
	"os"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/configuration"
	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/identity"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/offchain"
	"github.com/bitmark-inc/hybridledger/search"
)

// Chain - an opened ledger
type Chain struct {
	Ledger  *ledger.Ledger
	Keyring *identity.Keyring
	Engine  *search.Engine
	Backend offchain.Backend
}

// Open - read the secret and signers then open the ledger
func Open(ctx context.Context, options *configuration.Configuration) (*Chain, error) {
	log := logger.New("chain")

	secret, err := encrypt.ReadSecretFile(options.Secret.File, options.Secret.Passphrase)
	if nil != err {
		log.Errorf("secret: %q  error: %s", options.Secret.File, err)
		return nil, err
	}

	keyring, err := identity.LoadKeyring(options.Signers)
	if nil != err {
		log.Errorf("signers: %q  error: %s", options.Signers, err)
		return nil, err
	}

	searchOptions, err := options.SearchOptions()
	if nil != err {
		return nil, err
	}
	engine, err := search.New(searchOptions)
	if nil != err {
		return nil, err
	}

	backend, err := OpenBackend(ctx, &options.OffChain)
	if nil != err {
		log.Errorf("off-chain backend: %s  error: %s", options.OffChain.Backend, err)
		return nil, err
	}

	l, err := ledger.Open(ledger.Options{
		Database:  options.DatabasePath(),
		ReadOnly:  options.ReadOnly,
		OffChain:  offchain.New(backend, secret),
		Authority: keyring,
		Limits:    options.PlacementLimits(),
	})
	if nil != err {
		log.Errorf("ledger: %q  error: %s", options.DatabasePath(), err)
		return nil, err
	}

	log.Infof("opened: %q  backend: %s  signers: %d", options.DatabasePath(), backend, keyring.Count())

	return &Chain{
		Ledger:  l,
		Keyring: keyring,
		Engine:  engine,
		Backend: backend,
	}, nil
}

// OpenBackend - the off-chain backend named by the configuration
func OpenBackend(ctx context.Context, options *configuration.OffChainType) (offchain.Backend, error) {
	switch options.Backend {
	case configuration.BackendFile:
		b, err := offchain.NewFileBackend(options.Directory)
		if nil != err {
			return nil, err
		}
		return b, nil
	case configuration.BackendS3:
		b, err := offchain.NewS3Backend(ctx, offchain.S3Options{
			Bucket:    options.S3.Bucket,
			Prefix:    options.S3.Prefix,
			Region:    options.S3.Region,
			Endpoint:  options.S3.Endpoint,
			AccessKey: options.S3.AccessKey,
			SecretKey: options.S3.SecretKey,
		})
		if nil != err {
			return nil, err
		}
		return b, nil
	default:
		return nil, fault.ErrUnsupportedBackend
	}
}

// Initialise - create the secret and an empty signer file for a new chain
//
// existing files are kept; returns true for each file created
func Initialise(options *configuration.Configuration, passphrase string) (secretCreated bool, signersCreated bool, err error) {

	if _, err := os.Stat(options.Secret.File); os.IsNotExist(err) {
		var text string
		if "" == passphrase {
			secret, err := encrypt.NewSecret()
			if nil != err {
				return false, false, err
			}
			text = encrypt.FormatRawSecret(secret)
		} else {
			text, _, err = encrypt.FormatPassphraseSecret(passphrase)
			if nil != err {
				return false, false, err
			}
		}
		err = encrypt.WriteSecretFile(options.Secret.File, text)
		if nil != err {
			return false, false, err
		}
		secretCreated = true
	} else if nil != err {
		return false, false, err
	}

	if _, err := os.Stat(options.Signers); os.IsNotExist(err) {
		err = identity.WriteSignerFile(options.Signers, []identity.Signer{})
		if nil != err {
			return secretCreated, false, err
		}
		signersCreated = true
	} else if nil != err {
		return secretCreated, false, err
	}

	return secretCreated, signersCreated, nil
}

// Close - release the databases
func (c *Chain) Close() {
	if nil != c.Ledger {
		c.Ledger.Close()
	}
}
