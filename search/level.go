// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"strings"

	"github.com/bitmark-inc/hybridledger/fault"
)

// Level - thoroughness of a search
type Level int

// search levels
const (
	FastOnly           Level = 1
	IncludeData        Level = 2
	ExhaustiveOffChain Level = 3
)

// what a scan may look at
type capability uint8

const (
	capIndex capability = 1 << iota
	capInline
	capOffChain
)

func (l Level) capabilities() capability {
	switch l {
	case FastOnly:
		return capIndex
	case IncludeData:
		return capIndex | capInline
	case ExhaustiveOffChain:
		return capIndex | capInline | capOffChain
	default:
		return 0
	}
}

// IsValid - true for one of the defined levels
func (l Level) IsValid() bool {
	return 0 != l.capabilities()
}

// String - the level name
func (l Level) String() string {
	switch l {
	case FastOnly:
		return "FAST_ONLY"
	case IncludeData:
		return "INCLUDE_DATA"
	case ExhaustiveOffChain:
		return "EXHAUSTIVE_OFFCHAIN"
	default:
		return "*unknown*"
	}
}

// ParseLevel - accepts the level names in any case, with - or _
func ParseLevel(s string) (Level, error) {
	switch strings.Replace(strings.ToUpper(strings.TrimSpace(s)), "-", "_", -1) {
	case "FAST_ONLY", "FAST":
		return FastOnly, nil
	case "INCLUDE_DATA", "DATA":
		return IncludeData, nil
	case "EXHAUSTIVE_OFFCHAIN", "EXHAUSTIVE":
		return ExhaustiveOffChain, nil
	default:
		return 0, fault.ErrInvalidSearchLevel
	}
}

// MarshalText - level as its name
func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fault.ErrInvalidSearchLevel
	}
	return []byte(l.String()), nil
}

// UnmarshalText - level from its name
func (l *Level) UnmarshalText(s []byte) error {
	level, err := ParseLevel(string(s))
	if nil != err {
		return err
	}
	*l = level
	return nil
}
