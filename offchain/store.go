// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package offchain

import (
	"context"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/fault"
)

// Store - encrypts, names and verifies bundles on a backend
type Store struct {
	log     *logger.L
	backend Backend
	secret  encrypt.Secret
}

// New - create a store over a backend
func New(backend Backend, secret encrypt.Secret) *Store {
	return &Store{
		log:     logger.New("offchain"),
		backend: backend,
		secret:  secret,
	}
}

// Backend - the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Fingerprint - identifies the secret without revealing it
func (s *Store) Fingerprint() digest.Digest {
	return s.secret.Fingerprint()
}

// Put - encrypt and store a payload for a block
//
// returns the reference for the block and the plaintext digest
func (s *Store) Put(ctx context.Context, number uint64, plaintext []byte) (blockrecord.Reference, digest.Digest, error) {
	d := digest.NewDigest(plaintext)

	key, err := encrypt.DeriveBlockKey(s.secret, number)
	if nil != err {
		return blockrecord.Reference{}, digest.Digest{}, err
	}

	sealed, err := encrypt.Seal(plaintext, key)
	if nil != err {
		return blockrecord.Reference{}, digest.Digest{}, err
	}

	b := &Bundle{
		Sealed: *sealed,
		Digest: d,
	}

	ref := blockrecord.Reference{
		Name: BundleName(number, d),
		Size: uint64(len(plaintext)),
	}

	err = s.backend.Write(ctx, ref.Name, b.Pack())
	if nil != err {
		s.log.Errorf("write: %s  error: %s", ref.Name, err)
		return blockrecord.Reference{}, digest.Digest{}, err
	}

	s.log.Debugf("put block: %d  bundle: %s  size: %d", number, ref.Name, ref.Size)
	return ref, d, nil
}

// Get - fetch, authenticate, decrypt and verify a payload
//
// errors:
//   fault.ErrOffChainNotFound          - no such bundle
//   fault.ErrOffChainCorrupt           - bundle cannot be parsed
//   fault.ErrCiphertextAuthentication  - MAC check failed
//   fault.ErrOffChainDigestMismatch    - decrypted, but wrong content
func (s *Store) Get(ctx context.Context, number uint64, ref blockrecord.Reference, expected digest.Digest) ([]byte, error) {
	data, err := s.backend.Read(ctx, ref.Name)
	if nil != err {
		return nil, err
	}

	b, err := UnpackBundle(data)
	if nil != err {
		s.log.Warnf("block: %d  bundle: %s  error: %s", number, ref.Name, err)
		return nil, err
	}

	key, err := encrypt.DeriveBlockKey(s.secret, number)
	if nil != err {
		return nil, err
	}

	plaintext, err := encrypt.Open(&b.Sealed, key)
	if fault.ErrCiphertextLength == err {
		return nil, fault.ErrOffChainCorrupt
	}
	if nil != err {
		s.log.Warnf("block: %d  bundle: %s  error: %s", number, ref.Name, err)
		return nil, err
	}

	actual := digest.NewDigest(plaintext)
	if !actual.Equal(b.Digest) || !actual.Equal(expected) || uint64(len(plaintext)) != ref.Size {
		s.log.Warnf("block: %d  bundle: %s  digest: %s  expected: %s", number, ref.Name, actual, expected)
		return nil, fault.ErrOffChainDigestMismatch
	}
	return plaintext, nil
}

// Verify - check a bundle without returning its content
func (s *Store) Verify(ctx context.Context, number uint64, ref blockrecord.Reference, expected digest.Digest) error {
	_, err := s.Get(ctx, number, ref, expected)
	return err
}

// Exists - check for a bundle
func (s *Store) Exists(ctx context.Context, ref blockrecord.Reference) (bool, error) {
	return s.backend.Exists(ctx, ref.Name)
}

// Delete - remove a bundle
//
// only the ledger may call this, when the owning block is gone
func (s *Store) Delete(ctx context.Context, ref blockrecord.Reference) error {
	err := s.backend.Remove(ctx, ref.Name)
	if nil != err {
		s.log.Errorf("delete: %s  error: %s", ref.Name, err)
		return err
	}
	s.log.Debugf("deleted bundle: %s", ref.Name)
	return nil
}

// List - all bundle names on the backend
func (s *Store) List(ctx context.Context) ([]string, error) {
	return s.backend.List(ctx)
}

// ReadRaw - the packed bundle, for snapshots
func (s *Store) ReadRaw(ctx context.Context, name string) ([]byte, error) {
	return s.backend.Read(ctx, name)
}

// WriteRaw - store a packed bundle from a snapshot
//
// the bundle structure is checked, its content is checked by validation
func (s *Store) WriteRaw(ctx context.Context, name string, data []byte) error {
	if _, ok := ParseBundleName(name); !ok {
		return fault.ErrInvalidSnapshot
	}
	if _, err := UnpackBundle(data); nil != err {
		return err
	}
	return s.backend.Write(ctx, name, data)
}
