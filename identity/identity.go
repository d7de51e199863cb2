// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package identity - the authorised signer set
//
// The ledger only reads this set.  Keys are managed outside the
// ledger and delivered as a JSON file of base58 encoded ed25519 public
// keys:
//
//   {
//     "signers": [
//       { "name": "alice", "publicKey": "<base58>" }
//     ]
//   }
package identity

import (
	"crypto/ed25519"
	"encoding/json"
	"io/ioutil"
	"os"
	"sort"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/bitmark-inc/hybridledger/fault"
)

// Authority - answers whether a signer may append
type Authority interface {
	Count() int
	IsAuthorised(name string) bool
	PublicKeyOf(name string) (ed25519.PublicKey, error)
}

// Signer - one entry in the signer file
type Signer struct {
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
}

type signerFile struct {
	Signers []Signer `json:"signers"`
}

// Keyring - an Authority loaded from a signer file
type Keyring struct {
	sync.RWMutex
	filename string
	keys     map[string]ed25519.PublicKey
}

// NewKeyring - an in-memory keyring with no file
func NewKeyring(signers []Signer) (*Keyring, error) {
	keys, err := decode(signers)
	if nil != err {
		return nil, err
	}
	return &Keyring{keys: keys}, nil
}

// LoadKeyring - read a signer file
func LoadKeyring(filename string) (*Keyring, error) {
	k := &Keyring{filename: filename}
	err := k.Reload()
	if nil != err {
		return nil, err
	}
	return k, nil
}

// Filename - the signer file, empty for in-memory keyrings
func (k *Keyring) Filename() string {
	return k.filename
}

// Reload - re-read the signer file; on error the current set is kept
func (k *Keyring) Reload() error {
	if "" == k.filename {
		return nil
	}
	signers, err := ReadSignerFile(k.filename)
	if nil != err {
		return err
	}
	keys, err := decode(signers)
	if nil != err {
		return err
	}

	k.Lock()
	k.keys = keys
	k.Unlock()
	return nil
}

// Count - number of authorised signers
func (k *Keyring) Count() int {
	k.RLock()
	defer k.RUnlock()
	return len(k.keys)
}

// IsAuthorised - true if name is in the set
func (k *Keyring) IsAuthorised(name string) bool {
	k.RLock()
	defer k.RUnlock()
	_, ok := k.keys[name]
	return ok
}

// PublicKeyOf - the key for a name
func (k *Keyring) PublicKeyOf(name string) (ed25519.PublicKey, error) {
	k.RLock()
	defer k.RUnlock()
	key, ok := k.keys[name]
	if !ok {
		return nil, fault.ErrSignerNotFound
	}
	return key, nil
}

// Names - sorted signer names
func (k *Keyring) Names() []string {
	k.RLock()
	defer k.RUnlock()
	names := make([]string, 0, len(k.keys))
	for name := range k.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Verify - check a signature made by a named signer
func Verify(authority Authority, name string, message []byte, signature []byte) error {
	key, err := authority.PublicKeyOf(name)
	if nil != err {
		return fault.ErrUnauthorisedSigner
	}
	if ed25519.SignatureSize != len(signature) || !ed25519.Verify(key, message, signature) {
		return fault.ErrInvalidSignature
	}
	return nil
}

// EncodePublicKey - base58 text of a key
func EncodePublicKey(key ed25519.PublicKey) string {
	return base58.Encode(key)
}

// ReadSignerFile - parse a signer file
func ReadSignerFile(filename string) ([]Signer, error) {
	data, err := ioutil.ReadFile(filename)
	if nil != err {
		return nil, err
	}
	var f signerFile
	err = json.Unmarshal(data, &f)
	if nil != err {
		return nil, err
	}
	return f.Signers, nil
}

// WriteSignerFile - replace a signer file
func WriteSignerFile(filename string, signers []Signer) error {
	if _, err := decode(signers); nil != err {
		return err
	}
	data, err := json.MarshalIndent(signerFile{Signers: signers}, "", "  ")
	if nil != err {
		return err
	}
	tmp := filename + ".new"
	err = ioutil.WriteFile(tmp, append(data, '\n'), 0600)
	if nil != err {
		return err
	}
	return os.Rename(tmp, filename)
}

func decode(signers []Signer) (map[string]ed25519.PublicKey, error) {
	keys := make(map[string]ed25519.PublicKey, len(signers))
	for _, s := range signers {
		if "" == s.Name {
			return nil, fault.ErrMissingParameters
		}
		key, err := base58.Decode(s.PublicKey)
		if nil != err {
			return nil, err
		}
		if ed25519.PublicKeySize != len(key) {
			return nil, fault.ErrInvalidKeyLength
		}
		keys[s.Name] = ed25519.PublicKey(key)
	}
	return keys, nil
}
