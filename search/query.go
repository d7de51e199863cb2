// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/fault"
)

// Query - search criteria, at least one must be given
//
// zero From or To leaves that end of the date range open; zero Level
// selects the engine default; zero Limit returns every match
type Query struct {
	Term         string    `json:"term,omitempty"`
	Category     string    `json:"category,omitempty"`
	Signer       string    `json:"signer,omitempty"`
	BlockNumber  *uint64   `json:"blockNumber,omitempty"`
	From         time.Time `json:"from,omitempty"`
	To           time.Time `json:"to,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Level        Level     `json:"level,omitempty"`
	ValidateTerm bool      `json:"validateTerm,omitempty"`
	Strict       bool      `json:"strict,omitempty"`
}

// the query after checking and normalising
type plan struct {
	term        string // lower case
	category    string // upper case
	signer      string
	blockNumber *uint64
	from        time.Time
	to          time.Time
	limit       int
	level       Level
	strict      bool
}

func (p *plan) hasFilter() bool {
	return "" != p.category || "" != p.signer || nil != p.blockNumber || !p.from.IsZero() || !p.to.IsZero()
}

func (e *Engine) makePlan(q Query) (*plan, error) {
	p := &plan{
		term:        strings.ToLower(strings.TrimSpace(q.Term)),
		signer:      strings.TrimSpace(q.Signer),
		blockNumber: q.BlockNumber,
		from:        q.From,
		to:          q.To,
		limit:       q.Limit,
		level:       q.Level,
		strict:      q.Strict,
	}

	category, err := blockrecord.NormaliseCategory(q.Category)
	if nil != err {
		return nil, err
	}
	p.category = category

	if "" == p.term && !p.hasFilter() {
		return nil, fault.ErrEmptyQuery
	}
	if q.ValidateTerm && "" != p.term && utf8.RuneCountInString(p.term) < e.minimumTermLength {
		return nil, fault.ErrTermTooShort
	}
	if 0 == p.level {
		p.level = e.defaultLevel
	}
	if !p.level.IsValid() {
		return nil, fault.ErrInvalidSearchLevel
	}
	if p.limit < 0 {
		return nil, fault.ErrInvalidCount
	}
	if !p.from.IsZero() && !p.to.IsZero() && p.from.After(p.to) {
		return nil, fault.ErrInvalidDateRange
	}
	return p, nil
}
