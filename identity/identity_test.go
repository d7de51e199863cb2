// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package identity_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/identity"
	"github.com/bitmark-inc/hybridledger/identity/mocks"
)

func newKey(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	assert.Nil(t, err, "generate key")
	return public, private
}

func TestKeyringFromFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "identity")
	assert.Nil(t, err, "temp dir")
	defer os.RemoveAll(dir)

	alice, _ := newKey(t)
	bob, _ := newKey(t)
	filename := filepath.Join(dir, "signers.json")

	err = identity.WriteSignerFile(filename, []identity.Signer{
		{Name: "alice", PublicKey: identity.EncodePublicKey(alice)},
	})
	assert.Nil(t, err, "write signers")

	k, err := identity.LoadKeyring(filename)
	assert.Nil(t, err, "load keyring")
	assert.Equal(t, 1, k.Count(), "count")
	assert.True(t, k.IsAuthorised("alice"), "alice")
	assert.False(t, k.IsAuthorised("bob"), "bob")

	key, err := k.PublicKeyOf("alice")
	assert.Nil(t, err, "alice key")
	assert.Equal(t, alice, key, "alice key value")

	_, err = k.PublicKeyOf("bob")
	assert.Equal(t, fault.ErrSignerNotFound, err, "bob key")

	err = identity.WriteSignerFile(filename, []identity.Signer{
		{Name: "alice", PublicKey: identity.EncodePublicKey(alice)},
		{Name: "bob", PublicKey: identity.EncodePublicKey(bob)},
	})
	assert.Nil(t, err, "rewrite signers")
	assert.Nil(t, k.Reload(), "reload")
	assert.Equal(t, []string{"alice", "bob"}, k.Names(), "names")

	// a broken file leaves the loaded set alone
	err = ioutil.WriteFile(filename, []byte("{not json"), 0600)
	assert.Nil(t, err, "corrupt file")
	assert.NotNil(t, k.Reload(), "reload corrupt")
	assert.Equal(t, 2, k.Count(), "count after failed reload")
}

func TestKeyringRejectsBadKeys(t *testing.T) {
	_, err := identity.NewKeyring([]identity.Signer{{Name: "x", PublicKey: "2NEpo7TZRRrLZSi2U"}})
	assert.Equal(t, fault.ErrInvalidKeyLength, err, "short key")

	_, err = identity.NewKeyring([]identity.Signer{{Name: "x", PublicKey: "0OIl"}})
	assert.NotNil(t, err, "invalid base58")

	public, _ := newKey(t)
	_, err = identity.NewKeyring([]identity.Signer{{PublicKey: identity.EncodePublicKey(public)}})
	assert.Equal(t, fault.ErrMissingParameters, err, "missing name")
}

func TestVerify(t *testing.T) {
	public, private := newKey(t)
	k, err := identity.NewKeyring([]identity.Signer{{Name: "alice", PublicKey: identity.EncodePublicKey(public)}})
	assert.Nil(t, err, "keyring")

	message := []byte("block content")
	signature := ed25519.Sign(private, message)

	assert.Nil(t, identity.Verify(k, "alice", message, signature), "good signature")
	assert.Equal(t, fault.ErrInvalidSignature, identity.Verify(k, "alice", []byte("other"), signature), "other message")
	assert.Equal(t, fault.ErrInvalidSignature, identity.Verify(k, "alice", message, signature[:10]), "short signature")
	assert.Equal(t, fault.ErrUnauthorisedSigner, identity.Verify(k, "mallory", message, signature), "unknown signer")
}

func TestVerifyWithMockAuthority(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	public, private := newKey(t)
	m := mocks.NewMockAuthority(ctl)
	m.EXPECT().PublicKeyOf("carol").Return(ed25519.PublicKey(public), nil).Times(1)

	message := []byte("hello")
	assert.Nil(t, identity.Verify(m, "carol", message, ed25519.Sign(private, message)), "mock verify")
}
