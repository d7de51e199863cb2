// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package encrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/hybridledger/fault"
)

// sizes of the sealed parts
const (
	IVSize  = aes.BlockSize
	MACSize = 32
	KeySize = 32
)

// BlockKey - independent keys for one block number
type BlockKey struct {
	Cipher [KeySize]byte
	MAC    [KeySize]byte
}

// Sealed - the output of Seal
type Sealed struct {
	IV         [IVSize]byte
	MAC        [MACSize]byte
	Ciphertext []byte
}

// DeriveBlockKey - expand the chain secret into the keys for one block
func DeriveBlockKey(secret Secret, number uint64) (*BlockKey, error) {
	info := make([]byte, 0, 32)
	info = append(info, "hybridledger block key"...)
	info = append(info, 0)
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], number)
	info = append(info, n[:]...)

	reader := hkdf.New(sha3.New256, secret[:], nil, info)

	key := &BlockKey{}
	if _, err := io.ReadFull(reader, key.Cipher[:]); nil != err {
		return nil, err
	}
	if _, err := io.ReadFull(reader, key.MAC[:]); nil != err {
		return nil, err
	}
	return key, nil
}

// Seal - encrypt then authenticate
func Seal(plaintext []byte, key *BlockKey) (*Sealed, error) {
	block, err := aes.NewCipher(key.Cipher[:])
	if nil != err {
		return nil, err
	}

	sealed := &Sealed{}
	if _, err := io.ReadFull(rand.Reader, sealed.IV[:]); nil != err {
		return nil, err
	}

	padded := pad(plaintext)
	sealed.Ciphertext = make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, sealed.IV[:])
	mode.CryptBlocks(sealed.Ciphertext, padded)

	copy(sealed.MAC[:], computeMAC(key, sealed.IV[:], sealed.Ciphertext))

	return sealed, nil
}

// Open - authenticate then decrypt
//
// the MAC is checked before any decryption, so a modified IV,
// ciphertext or MAC is always reported as an authentication failure
func Open(sealed *Sealed, key *BlockKey) ([]byte, error) {
	if 0 == len(sealed.Ciphertext) || 0 != len(sealed.Ciphertext)%aes.BlockSize {
		return nil, fault.ErrCiphertextLength
	}

	expected := computeMAC(key, sealed.IV[:], sealed.Ciphertext)
	if !hmac.Equal(expected, sealed.MAC[:]) {
		return nil, fault.ErrCiphertextAuthentication
	}

	block, err := aes.NewCipher(key.Cipher[:])
	if nil != err {
		return nil, err
	}

	plaintext := make([]byte, len(sealed.Ciphertext))
	mode := cipher.NewCBCDecrypter(block, sealed.IV[:])
	mode.CryptBlocks(plaintext, sealed.Ciphertext)

	return unpad(plaintext)
}

func computeMAC(key *BlockKey, iv []byte, ciphertext []byte) []byte {
	mac := hmac.New(sha3.New256, key.MAC[:])
	mac.Write(iv)
	mac.Write(ciphertext)
	return mac.Sum(nil)
}

// PKCS#7: always adds 1..16 bytes
func pad(plaintext []byte) []byte {
	n := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := make([]byte, len(plaintext)+n)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i += 1 {
		padded[i] = byte(n)
	}
	return padded
}

func unpad(padded []byte) ([]byte, error) {
	l := len(padded)
	if 0 == l {
		return nil, fault.ErrCiphertextLength
	}
	n := int(padded[l-1])
	if n < 1 || n > aes.BlockSize || n > l {
		return nil, fault.ErrCiphertextAuthentication
	}
	for _, b := range padded[l-n:] {
		if int(b) != n {
			return nil, fault.ErrCiphertextAuthentication
		}
	}
	return padded[:l-n], nil
}
