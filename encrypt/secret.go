// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package encrypt

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/bitmark-inc/go-argon2"

	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
)

// SecretSize - bytes in a chain secret
const SecretSize = 32

// prefixes for the secret file
const (
	rawPrefix    = "raw:"
	argon2Prefix = "argon2i:"
)

// Secret - the chain wide key from which all per-block keys derive
type Secret [SecretSize]byte

// NewSecret - create a random chain secret
func NewSecret() (Secret, error) {
	var secret Secret
	if _, err := io.ReadFull(rand.Reader, secret[:]); nil != err {
		return Secret{}, err
	}
	return secret, nil
}

// SecretFromPassphrase - stretch a passphrase into a chain secret
func SecretFromPassphrase(passphrase string, salt *Salt) (Secret, error) {
	ctx := &argon2.Context{
		Iterations:  5,
		Memory:      1 << 16,
		Parallelism: 4,
		HashLen:     SecretSize,
		Mode:        argon2.ModeArgon2i,
		Version:     argon2.Version13,
	}

	hash, err := argon2.Hash(ctx, []byte(passphrase), salt.Bytes())
	if nil != err {
		return Secret{}, err
	}

	var secret Secret
	copy(secret[:], hash)
	return secret, nil
}

// Fingerprint - public identifier of a secret
//
// stored in snapshot manifests and the secret file so that the wrong
// secret is detected before any bundle is opened
func (secret Secret) Fingerprint() digest.Digest {
	return digest.NewDigest(append([]byte("hybridledger secret fingerprint:"), secret[:]...))
}

// String - never print the secret itself
func (secret Secret) String() string {
	return "<secret:" + secret.Fingerprint().Short() + ">"
}

// GoString - never print the secret itself
func (secret Secret) GoString() string {
	return secret.String()
}

// FormatRawSecret - text for a secret file holding the secret directly
func FormatRawSecret(secret Secret) string {
	return rawPrefix + hex.EncodeToString(secret[:]) + "\n"
}

// FormatPassphraseSecret - text for a secret file that needs a passphrase
//
// only the salt and the fingerprint of the derived secret are kept
func FormatPassphraseSecret(passphrase string) (string, Secret, error) {
	salt, err := MakeSalt()
	if nil != err {
		return "", Secret{}, err
	}
	secret, err := SecretFromPassphrase(passphrase, salt)
	if nil != err {
		return "", Secret{}, err
	}
	s := fmt.Sprintf("%s%s:%s\n", argon2Prefix, salt, secret.Fingerprint())
	return s, secret, nil
}

// ParseSecret - decode the text of a secret file
func ParseSecret(text string, passphrase string) (Secret, error) {
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, rawPrefix):
		buffer, err := hex.DecodeString(text[len(rawPrefix):])
		if nil != err {
			return Secret{}, err
		}
		if SecretSize != len(buffer) {
			return Secret{}, fault.ErrInvalidKeyLength
		}
		var secret Secret
		copy(secret[:], buffer)
		return secret, nil

	case strings.HasPrefix(text, argon2Prefix):
		fields := strings.Split(text[len(argon2Prefix):], ":")
		if 2 != len(fields) {
			return Secret{}, fault.ErrInvalidKeyLength
		}
		salt := new(Salt)
		if err := salt.UnmarshalText([]byte(fields[0])); nil != err {
			return Secret{}, err
		}
		var fingerprint digest.Digest
		if err := fingerprint.UnmarshalText([]byte(fields[1])); nil != err {
			return Secret{}, err
		}
		if "" == passphrase {
			return Secret{}, fault.ErrWrongPassphrase
		}
		secret, err := SecretFromPassphrase(passphrase, salt)
		if nil != err {
			return Secret{}, err
		}
		if !secret.Fingerprint().Equal(fingerprint) {
			return Secret{}, fault.ErrWrongPassphrase
		}
		return secret, nil

	default:
		return Secret{}, fault.ErrInvalidKeyLength
	}
}

// ReadSecretFile - load the chain secret
func ReadSecretFile(filename string, passphrase string) (Secret, error) {
	data, err := ioutil.ReadFile(filename)
	if nil != err {
		return Secret{}, err
	}
	return ParseSecret(string(data), passphrase)
}

// WriteSecretFile - store secret file text, refusing to replace an existing file
func WriteSecretFile(filename string, text string) error {
	fd, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if nil != err {
		return err
	}
	_, err = fd.WriteString(text)
	if nil != err {
		fd.Close()
		return err
	}
	return fd.Close()
}
