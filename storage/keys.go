// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/bitmark-inc/hybridledger/fault"
)

const indexSeparator = 0x00

// NumberKey - 8 byte big endian block number
func NumberKey(number uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, number)
	return key
}

// NumberFromKey - decode an 8 byte block number
func NumberFromKey(key []byte) (uint64, error) {
	if 8 != len(key) {
		return 0, fault.ErrInvalidBlockRecord
	}
	return binary.BigEndian.Uint64(key), nil
}

// IndexPrefix - the key prefix of all entries for one value
func IndexPrefix(value string) []byte {
	key := make([]byte, 0, len(value)+1)
	key = append(key, value...)
	return append(key, indexSeparator)
}

// IndexKey - value ++ 0x00 ++ block number
func IndexKey(value string, number uint64) []byte {
	return append(IndexPrefix(value), NumberKey(number)...)
}

// SplitIndexKey - recover the value and block number
func SplitIndexKey(key []byte) (string, uint64, error) {
	if len(key) < 9 || indexSeparator != key[len(key)-9] {
		return "", 0, fault.ErrInvalidBlockRecord
	}
	n, err := NumberFromKey(key[len(key)-8:])
	if nil != err {
		return "", 0, err
	}
	value := key[:len(key)-9]
	if bytes.IndexByte(value, indexSeparator) >= 0 {
		return "", 0, fault.ErrInvalidBlockRecord
	}
	return string(value), n, nil
}

// TimeKey - unix seconds ++ block number
func TimeKey(timestamp time.Time, number uint64) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key, uint64(timestamp.Unix()))
	binary.BigEndian.PutUint64(key[8:], number)
	return key
}

// SplitTimeKey - recover the timestamp and block number
func SplitTimeKey(key []byte) (time.Time, uint64, error) {
	if 16 != len(key) {
		return time.Time{}, 0, fault.ErrInvalidBlockRecord
	}
	ts := int64(binary.BigEndian.Uint64(key))
	return time.Unix(ts, 0).UTC(), binary.BigEndian.Uint64(key[8:]), nil
}
