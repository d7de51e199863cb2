// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/identity"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/offchain"
)

// a ledger in its own directory with one authorised signer
type fixture struct {
	t        *testing.T
	dir      string
	database string
	secret   encrypt.Secret
	backend  *offchain.FileBackend
	keyring  *identity.Keyring
	private  ed25519.PrivateKey
	seconds  int64
	ledger   *ledger.Ledger
}

var fixtureStart = time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	return newFixtureSharing(t, nil)
}

// a separate chain using the secret and signers of parent
func newFixtureSharing(t *testing.T, parent *fixture) *fixture {
	dir, err := os.MkdirTemp(testingDirName, "ledger")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}

	backend, err := offchain.NewFileBackend(filepath.Join(dir, "offchain"))
	if nil != err {
		t.Fatalf("backend error: %s", err)
	}

	f := &fixture{
		t:        t,
		dir:      dir,
		database: filepath.Join(dir, "chain"),
		backend:  backend,
	}

	if nil != parent {
		f.secret = parent.secret
		f.keyring = parent.keyring
		f.private = parent.private
	} else {
		f.secret, err = encrypt.NewSecret()
		if nil != err {
			t.Fatalf("secret error: %s", err)
		}

		public, private, err := ed25519.GenerateKey(rand.Reader)
		if nil != err {
			t.Fatalf("key error: %s", err)
		}
		f.private = private
		f.keyring, err = identity.NewKeyring([]identity.Signer{
			{Name: "alice", PublicKey: identity.EncodePublicKey(public)},
		})
		if nil != err {
			t.Fatalf("keyring error: %s", err)
		}
	}

	f.open()
	return f
}

// one second later on every call
func (f *fixture) clock() time.Time {
	n := atomic.AddInt64(&f.seconds, 1)
	return fixtureStart.Add(time.Duration(n) * time.Second)
}

func (f *fixture) options() ledger.Options {
	return ledger.Options{
		Database:  f.database,
		OffChain:  offchain.New(f.backend, f.secret),
		Authority: f.keyring,
		Clock:     f.clock,
	}
}

func (f *fixture) open() {
	l, err := ledger.Open(f.options())
	if nil != err {
		f.t.Fatalf("ledger open error: %s", err)
	}
	f.ledger = l
}

func (f *fixture) reopen() {
	f.ledger.Close()
	f.open()
}

func (f *fixture) close() {
	f.ledger.Close()
}

func (f *fixture) append(payload []byte, category string, keywords ...string) *ledger.Receipt {
	r, err := f.ledger.Append(context.Background(), payload, ledger.Metadata{
		Signer:   "alice",
		Keywords: keywords,
		Category: category,
	})
	if nil != err {
		f.t.Fatalf("append error: %s", err)
	}
	return r
}

func (f *fixture) bundles() []string {
	names, err := f.backend.List(context.Background())
	if nil != err {
		f.t.Fatalf("list error: %s", err)
	}
	return names
}

// a payload of exactly size bytes holding marker once
func largePayload(size int, marker string) []byte {
	filler := []byte("lorem ipsum dolor sit amet ")
	payload := bytes.Repeat(filler, size/len(filler)+1)[:size]
	copy(payload[size/2:], marker)
	return payload
}
