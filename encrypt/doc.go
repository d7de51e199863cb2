// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package encrypt - confidentiality for off-chain payloads
//
// Payloads are encrypted with AES-256-CBC under a fresh random IV and
// authenticated with HMAC-SHA3-256 over IV ++ ciphertext
// (encrypt-then-MAC).  Each block number has its own cipher and MAC
// keys, expanded by HKDF-SHA3-256 from a single chain secret, so the
// key recovered from one off-chain file says nothing about any other.
//
// The chain secret is either 32 random bytes or is derived by Argon2i
// from a passphrase and a stored salt.
package encrypt
