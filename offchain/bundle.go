// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package offchain

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/fault"
)

const (
	bundleVersion = 1
	bundleSuffix  = ".off"
)

var bundleMagic = []byte("HLOB")

// offsets of the fields
const (
	magicOffset      = 0
	versionOffset    = magicOffset + 4
	ivOffset         = versionOffset + 1
	macOffset        = ivOffset + encrypt.IVSize
	digestOffset     = macOffset + encrypt.MACSize
	ciphertextOffset = digestOffset + digest.Length
)

// Bundle - the unpacked contents of one off-chain file
type Bundle struct {
	Sealed encrypt.Sealed
	Digest digest.Digest
}

// Pack - binary form for the backend
func (b *Bundle) Pack() []byte {
	buffer := make([]byte, ciphertextOffset, ciphertextOffset+len(b.Sealed.Ciphertext))
	copy(buffer[magicOffset:], bundleMagic)
	buffer[versionOffset] = bundleVersion
	copy(buffer[ivOffset:], b.Sealed.IV[:])
	copy(buffer[macOffset:], b.Sealed.MAC[:])
	copy(buffer[digestOffset:], b.Digest[:])
	return append(buffer, b.Sealed.Ciphertext...)
}

// UnpackBundle - parse a bundle, any structural fault is corruption
func UnpackBundle(data []byte) (*Bundle, error) {
	if len(data) <= ciphertextOffset {
		return nil, fault.ErrOffChainCorrupt
	}
	if !bytes.Equal(bundleMagic, data[magicOffset:versionOffset]) {
		return nil, fault.ErrOffChainCorrupt
	}
	if bundleVersion != data[versionOffset] {
		return nil, fault.ErrOffChainCorrupt
	}

	b := &Bundle{}
	copy(b.Sealed.IV[:], data[ivOffset:macOffset])
	copy(b.Sealed.MAC[:], data[macOffset:digestOffset])
	copy(b.Digest[:], data[digestOffset:ciphertextOffset])
	b.Sealed.Ciphertext = append([]byte{}, data[ciphertextOffset:]...)
	return b, nil
}

// BundleName - deterministic name from block number and content digest
func BundleName(number uint64, d digest.Digest) string {
	return fmt.Sprintf("%016x-%s%s", number, d.Short(), bundleSuffix)
}

// ParseBundleName - recover the block number from a bundle name
func ParseBundleName(name string) (uint64, bool) {
	if !strings.HasSuffix(name, bundleSuffix) {
		return 0, false
	}
	s := strings.TrimSuffix(name, bundleSuffix)
	if 16+1+16 != len(s) || '-' != s[16] {
		return 0, false
	}
	n, err := strconv.ParseUint(s[:16], 16, 64)
	if nil != err {
		return 0, false
	}
	return n, true
}
