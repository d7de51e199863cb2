// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"strings"
	"time"

	"github.com/bitmark-inc/hybridledger/fault"

	"github.com/bitmark-inc/hybridledger/placement"
)

// MatchKind - the ways a block matched, as a bit set
type MatchKind uint8

// match kinds
const (
	MatchFilter MatchKind = 1 << iota
	MatchOffChain
	MatchInline
	MatchCategory
	MatchKeyword
)

// weight of each kind; index hits outrank content hits
var weights = map[MatchKind]int{
	MatchFilter:   1,
	MatchOffChain: 2,
	MatchInline:   2,
	MatchCategory: 4,
	MatchKeyword:  8,
}

func (m MatchKind) score() int {
	s := 0
	for kind, w := range weights {
		if 0 != m&kind {
			s += w
		}
	}
	return s
}

// Names - readable list of the kinds present
func (m MatchKind) Names() []string {
	names := []string{}
	if 0 != m&MatchKeyword {
		names = append(names, "keyword")
	}
	if 0 != m&MatchCategory {
		names = append(names, "category")
	}
	if 0 != m&MatchInline {
		names = append(names, "inline")
	}
	if 0 != m&MatchOffChain {
		names = append(names, "offchain")
	}
	if 0 != m&MatchFilter {
		names = append(names, "filter")
	}
	return names
}

// MarshalText - comma separated names
func (m MatchKind) MarshalText() ([]byte, error) {
	s := ""
	for i, n := range m.Names() {
		if 0 != i {
			s += ","
		}
		s += n
	}
	return []byte(s), nil
}

// UnmarshalText - from comma separated names
func (m *MatchKind) UnmarshalText(s []byte) error {
	kind := MatchKind(0)
	for _, n := range strings.Split(string(s), ",") {
		switch strings.TrimSpace(n) {
		case "":
		case "keyword":
			kind |= MatchKeyword
		case "category":
			kind |= MatchCategory
		case "inline":
			kind |= MatchInline
		case "offchain":
			kind |= MatchOffChain
		case "filter":
			kind |= MatchFilter
		default:
			return fault.ErrMissingParameters
		}
	}
	*m = kind
	return nil
}

// Match - one matching block
type Match struct {
	Number    uint64             `json:"number,string"`
	Timestamp time.Time          `json:"timestamp"`
	Signer    string             `json:"signer"`
	Category  string             `json:"category"`
	Keywords  []string           `json:"keywords"`
	Decision  placement.Location `json:"decision"`
	Matched   MatchKind          `json:"matched"`
	Score     int                `json:"score"`
}

// Gap - a block whose off-chain content could not be searched
type Gap struct {
	Number    uint64 `json:"number,string"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// Fallback - records that the executed level is below the requested one
type Fallback struct {
	From   Level  `json:"from"`
	To     Level  `json:"to"`
	Reason string `json:"reason"`
}

// Result - matches plus how the search actually ran
type Result struct {
	Matches        []Match   `json:"matches"`
	Count          int       `json:"count"`
	Total          int       `json:"total"`
	RequestedLevel Level     `json:"requestedLevel"`
	ExecutedLevel  Level     `json:"executedLevel"`
	Fallback       *Fallback `json:"fallback,omitempty"`
	Gaps           []Gap     `json:"gaps,omitempty"`
}
