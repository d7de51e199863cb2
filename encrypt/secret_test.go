// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package encrypt_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/fault"
)

func TestSalt(t *testing.T) {
	salt, err := encrypt.MakeSalt()
	assert.Nil(t, err, "make salt error")

	text, err := salt.MarshalText()
	assert.Nil(t, err, "marshal error")

	salt2 := new(encrypt.Salt)
	err = salt2.UnmarshalText(text)
	assert.Nil(t, err, "unmarshal error")
	assert.Equal(t, salt.String(), salt2.String(), "salt changed")

	err = salt2.UnmarshalText([]byte("0102"))
	assert.Equal(t, fault.ErrInvalidKeyLength, err, "short salt accepted")
}

func TestRawSecret(t *testing.T) {
	secret, err := encrypt.NewSecret()
	assert.Nil(t, err, "new secret error")

	text := encrypt.FormatRawSecret(secret)
	assert.True(t, strings.HasPrefix(text, "raw:"), "wrong prefix: %q", text)

	parsed, err := encrypt.ParseSecret(text, "")
	assert.Nil(t, err, "parse error")
	assert.Equal(t, secret, parsed, "secret changed")

	assert.NotContains(t, secret.String(), text[4:20], "secret leaked by String")
}

func TestPassphraseSecret(t *testing.T) {
	text, secret, err := encrypt.FormatPassphraseSecret("correct horse battery staple")
	assert.Nil(t, err, "format error")
	assert.True(t, strings.HasPrefix(text, "argon2i:"), "wrong prefix: %q", text)

	parsed, err := encrypt.ParseSecret(text, "correct horse battery staple")
	assert.Nil(t, err, "parse error")
	assert.Equal(t, secret, parsed, "secret changed")

	_, err = encrypt.ParseSecret(text, "wrong horse")
	assert.Equal(t, fault.ErrWrongPassphrase, err, "wrong passphrase accepted")

	_, err = encrypt.ParseSecret(text, "")
	assert.Equal(t, fault.ErrWrongPassphrase, err, "missing passphrase accepted")
}

func TestSecretFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "encrypt-test")
	assert.Nil(t, err, "temp dir error")
	defer os.RemoveAll(dir)

	filename := filepath.Join(dir, "chain.secret")

	secret, err := encrypt.NewSecret()
	assert.Nil(t, err, "new secret error")

	err = encrypt.WriteSecretFile(filename, encrypt.FormatRawSecret(secret))
	assert.Nil(t, err, "write error")

	err = encrypt.WriteSecretFile(filename, encrypt.FormatRawSecret(secret))
	assert.NotNil(t, err, "existing secret file replaced")

	loaded, err := encrypt.ReadSecretFile(filename, "")
	assert.Nil(t, err, "read error")
	assert.Equal(t, secret.Fingerprint(), loaded.Fingerprint(), "fingerprint changed")

	info, err := os.Stat(filename)
	assert.Nil(t, err, "stat error")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "secret file readable by others")
}
