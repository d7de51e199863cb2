// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package offchain_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/offchain"
	"github.com/bitmark-inc/hybridledger/offchain/mocks"
)

func newFileStore(t *testing.T) (*offchain.Store, *offchain.FileBackend) {
	dir, err := os.MkdirTemp(testingDirName, "offchain")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	backend, err := offchain.NewFileBackend(filepath.Join(dir, "bundles"))
	if nil != err {
		t.Fatalf("backend error: %s", err)
	}
	secret, err := encrypt.NewSecret()
	if nil != err {
		t.Fatalf("secret error: %s", err)
	}
	return offchain.New(backend, secret), backend
}

func TestPutGet(t *testing.T) {
	store, backend := newFileStore(t)
	ctx := context.Background()

	payload := bytes.Repeat([]byte("six hundred kilobytes "), 600*1024/22)

	ref, d, err := store.Put(ctx, 5, payload)
	assert.Nil(t, err, "put error")
	assert.Equal(t, digest.NewDigest(payload), d, "wrong digest")
	assert.Equal(t, offchain.BundleName(5, d), ref.Name, "wrong name")
	assert.Equal(t, uint64(len(payload)), ref.Size, "wrong size")

	n, ok := offchain.ParseBundleName(ref.Name)
	assert.True(t, ok, "name not parsed")
	assert.Equal(t, uint64(5), n, "wrong number from name")

	names, err := store.List(ctx)
	assert.Nil(t, err, "list error")
	assert.Equal(t, []string{ref.Name}, names, "wrong list")

	exists, err := store.Exists(ctx, ref)
	assert.Nil(t, err, "exists error")
	assert.True(t, exists, "bundle missing")

	raw, err := store.ReadRaw(ctx, ref.Name)
	assert.Nil(t, err, "read raw error")
	assert.False(t, bytes.Contains(raw, []byte("six hundred kilobytes")), "plaintext visible in bundle")

	info, err := os.Stat(filepath.Join(backend.Directory(), ref.Name))
	assert.Nil(t, err, "stat error")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "bundle readable by others")

	recovered, err := store.Get(ctx, 5, ref, d)
	assert.Nil(t, err, "get error")
	assert.Equal(t, payload, recovered, "payload changed")

	// the key is bound to the block number
	_, err = store.Get(ctx, 6, ref, d)
	assert.Equal(t, fault.ErrCiphertextAuthentication, err, "opened under another block number")

	err = store.Delete(ctx, ref)
	assert.Nil(t, err, "delete error")
	err = store.Delete(ctx, ref)
	assert.Nil(t, err, "second delete error")

	_, err = store.Get(ctx, 5, ref, d)
	assert.Equal(t, fault.ErrOffChainNotFound, err, "deleted bundle found")
	assert.True(t, fault.IsErrNotFound(err), "not a not found error")
}

func TestGetFailures(t *testing.T) {
	store, backend := newFileStore(t)
	ctx := context.Background()

	payload := []byte("payload that will be damaged in several ways")
	ref, d, err := store.Put(ctx, 9, payload)
	assert.Nil(t, err, "put error")

	filename := filepath.Join(backend.Directory(), ref.Name)
	original, err := os.ReadFile(filename)
	assert.Nil(t, err, "read error")

	restore := func() {
		err := os.WriteFile(filename, original, 0600)
		assert.Nil(t, err, "restore error")
	}

	// truncated to the header
	err = os.WriteFile(filename, original[:20], 0600)
	assert.Nil(t, err, "write error")
	_, err = store.Get(ctx, 9, ref, d)
	assert.Equal(t, fault.ErrOffChainCorrupt, err, "truncation not detected")
	restore()

	// bad magic
	damaged := append([]byte{}, original...)
	damaged[0] = 'X'
	err = os.WriteFile(filename, damaged, 0600)
	assert.Nil(t, err, "write error")
	_, err = store.Get(ctx, 9, ref, d)
	assert.Equal(t, fault.ErrOffChainCorrupt, err, "bad magic not detected")
	restore()

	// flipped ciphertext bit
	damaged = append([]byte{}, original...)
	damaged[len(damaged)-1] ^= 0x01
	err = os.WriteFile(filename, damaged, 0600)
	assert.Nil(t, err, "write error")
	_, err = store.Get(ctx, 9, ref, d)
	assert.Equal(t, fault.ErrCiphertextAuthentication, err, "ciphertext change not detected")
	restore()

	// recorded digest differs from the block's digest
	_, err = store.Get(ctx, 9, ref, digest.NewDigest([]byte("something else")))
	assert.Equal(t, fault.ErrOffChainDigestMismatch, err, "wrong expected digest accepted")
	assert.True(t, fault.IsErrIntegrity(err), "not an integrity error")

	recovered, err := store.Get(ctx, 9, ref, d)
	assert.Nil(t, err, "get after restore error")
	assert.Equal(t, payload, recovered, "payload changed")
}

func TestWriteRaw(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	err := store.WriteRaw(ctx, "not-a-bundle.txt", []byte("x"))
	assert.Equal(t, fault.ErrInvalidSnapshot, err, "bad name accepted")

	name := offchain.BundleName(1, digest.NewDigest([]byte("x")))
	err = store.WriteRaw(ctx, name, []byte("HLOB"))
	assert.Equal(t, fault.ErrOffChainCorrupt, err, "short bundle accepted")
}

func TestBundlePack(t *testing.T) {
	b := &offchain.Bundle{
		Sealed: encrypt.Sealed{
			IV:         [encrypt.IVSize]byte{1, 2, 3},
			MAC:        [encrypt.MACSize]byte{4, 5, 6},
			Ciphertext: bytes.Repeat([]byte{7}, 32),
		},
		Digest: digest.NewDigest([]byte("plaintext")),
	}
	unpacked, err := offchain.UnpackBundle(b.Pack())
	assert.Nil(t, err, "unpack error")
	assert.Equal(t, b, unpacked, "bundle changed")

	_, ok := offchain.ParseBundleName("0000000000000001-short.off")
	assert.False(t, ok, "malformed name parsed")
}

func TestBackendErrorsPassThrough(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	backend := mocks.NewMockBackend(ctl)
	secret, err := encrypt.NewSecret()
	assert.Nil(t, err, "secret error")
	store := offchain.New(backend, secret)
	ctx := context.Background()

	ref := blockrecord.Reference{Name: "0000000000000003-0011223344556677.off", Size: 10}
	diskFull := fault.ProcessError("disk full")

	backend.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(diskFull).Times(1)
	_, _, err = store.Put(ctx, 3, []byte("0123456789"))
	assert.Equal(t, diskFull, err, "write error lost")

	backend.EXPECT().Read(gomock.Any(), ref.Name).Return(nil, fault.ErrOffChainNotFound).Times(1)
	_, err = store.Get(ctx, 3, ref, digest.Digest{})
	assert.Equal(t, fault.ErrOffChainNotFound, err, "not found lost")

	backend.EXPECT().Remove(gomock.Any(), ref.Name).Return(diskFull).Times(1)
	err = store.Delete(ctx, ref)
	assert.Equal(t, diskFull, err, "remove error lost")
}

func TestFileBackendNames(t *testing.T) {
	_, backend := newFileStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "../escape.off", ".hidden.off", "a/b.off"} {
		err := backend.Write(ctx, name, []byte("x"))
		assert.NotNil(t, err, "name %q accepted", name)
	}

	err := os.WriteFile(filepath.Join(backend.Directory(), "notes.txt"), []byte("x"), 0600)
	assert.Nil(t, err, "write error")

	names, err := backend.List(ctx)
	assert.Nil(t, err, "list error")
	assert.Equal(t, 0, len(names), "non bundle listed")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = backend.Read(cancelled, "x.off")
	assert.Equal(t, context.Canceled, err, "cancelled context ignored")
}
