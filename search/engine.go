// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package search

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/genesis"
)

// defaults
const (
	DefaultLevel             = FastOnly
	DefaultMinimumTermLength = 3
)

// Options - engine configuration
type Options struct {
	DefaultLevel      Level
	MinimumTermLength int
}

// Engine - runs queries against a Source
type Engine struct {
	log               *logger.L
	defaultLevel      Level
	minimumTermLength int
}

// New - create an engine, zero options take the defaults
func New(options Options) (*Engine, error) {
	e := &Engine{
		log:               logger.New("search"),
		defaultLevel:      options.DefaultLevel,
		minimumTermLength: options.MinimumTermLength,
	}
	if 0 == e.defaultLevel {
		e.defaultLevel = DefaultLevel
	}
	if !e.defaultLevel.IsValid() {
		return nil, fault.ErrInvalidSearchLevel
	}
	if e.minimumTermLength <= 0 {
		e.minimumTermLength = DefaultMinimumTermLength
	}
	return e, nil
}

// DefaultLevel - level used when a query leaves it unset
func (e *Engine) DefaultLevel() Level {
	return e.defaultLevel
}

// Search - run one query
//
// the source must not change while the search runs
func (e *Engine) Search(ctx context.Context, src Source, q Query) (*Result, error) {
	p, err := e.makePlan(q)
	if nil != err {
		return nil, err
	}
	caps := p.level.capabilities()

	numbers, err := candidates(src, p, caps)
	if nil != err {
		return nil, err
	}

	e.log.Debugf("term: %q  level: %s  candidates: %d", p.term, p.level, len(numbers))

	result := &Result{
		Matches:        []Match{},
		RequestedLevel: p.level,
		ExecutedLevel:  p.level,
	}

	lowerTerm := []byte(p.term)

scan_blocks:
	for _, n := range numbers {
		if err := ctx.Err(); nil != err {
			return nil, err
		}

		block, err := src.Block(n)
		if nil != err {
			return nil, err
		}

		kind := MatchKind(0)
		if p.hasFilter() {
			kind |= MatchFilter
		}

		if "" == p.term {
			result.Matches = append(result.Matches, makeMatch(block, kind))
			continue scan_blocks
		}

		for _, k := range block.Keywords {
			if strings.ToLower(k) == p.term {
				kind |= MatchKeyword
				break
			}
		}
		if strings.EqualFold(block.Category, p.term) {
			kind |= MatchCategory
		}

		if 0 != caps&capInline && !block.IsOffChain() {
			if bytes.Contains(bytes.ToLower(block.InlineData()), lowerTerm) {
				kind |= MatchInline
			}
		}

		if 0 != caps&capOffChain && block.IsOffChain() {
			data, err := src.OffChainContent(ctx, block)
			switch {
			case nil == err:
				if bytes.Contains(bytes.ToLower(data), lowerTerm) {
					kind |= MatchOffChain
				}
			case nil != ctx.Err():
				return nil, ctx.Err()
			case p.strict:
				e.log.Warnf("block: %d  off-chain read error: %s", n, err)
				return nil, err
			default:
				e.log.Warnf("block: %d  off-chain gap: %s", n, err)
				result.Gaps = append(result.Gaps, Gap{
					Number:    n,
					Reference: block.Reference().Name,
					Reason:    err.Error(),
				})
			}
		}

		if 0 == kind&^MatchFilter {
			continue scan_blocks
		}
		result.Matches = append(result.Matches, makeMatch(block, kind))
	}

	if 0 != len(result.Gaps) {
		result.ExecutedLevel = IncludeData
		result.Fallback = &Fallback{
			From:   p.level,
			To:     IncludeData,
			Reason: fmt.Sprintf("%d off-chain file(s) could not be read", len(result.Gaps)),
		}
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Number > b.Number
	})

	result.Total = len(result.Matches)
	if p.limit > 0 && len(result.Matches) > p.limit {
		result.Matches = result.Matches[:p.limit]
	}
	result.Count = len(result.Matches)
	return result, nil
}

// block numbers that can possibly match, newest first
func candidates(src Source, p *plan, caps capability) ([]uint64, error) {
	var set []uint64
	filtered := false

	intersect := func(numbers []uint64) {
		if !filtered {
			set = numbers
			filtered = true
			return
		}
		set = intersection(set, numbers)
	}

	if "" != p.category {
		numbers, err := src.Lookup(CategoryIndex, p.category)
		if nil != err {
			return nil, err
		}
		intersect(numbers)
	}
	if "" != p.signer {
		numbers, err := src.Lookup(SignerIndex, p.signer)
		if nil != err {
			return nil, err
		}
		intersect(numbers)
	}
	if !p.from.IsZero() || !p.to.IsZero() {
		numbers, err := src.Between(p.from, p.to)
		if nil != err {
			return nil, err
		}
		intersect(numbers)
	}
	if nil != p.blockNumber {
		n := *p.blockNumber
		if n > genesis.BlockNumber && n <= src.Height() {
			intersect([]uint64{n})
		} else {
			intersect([]uint64{})
		}
	}

	if !filtered {
		if 0 != caps&capInline {
			// content search needs every block
			set = make([]uint64, 0, src.Height())
			for n := genesis.BlockNumber + 1; n <= src.Height(); n += 1 {
				set = append(set, n)
			}
		} else {
			keywords, err := src.Lookup(KeywordIndex, p.term)
			if nil != err {
				return nil, err
			}
			categories, err := src.Lookup(CategoryIndex, strings.ToUpper(p.term))
			if nil != err {
				return nil, err
			}
			set = union(keywords, categories)
		}
	}

	reversed := make([]uint64, len(set))
	for i, n := range set {
		reversed[len(set)-1-i] = n
	}
	return reversed, nil
}

// both inputs ascending
func intersection(a []uint64, b []uint64) []uint64 {
	result := []uint64{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i += 1
		case a[i] > b[j]:
			j += 1
		default:
			result = append(result, a[i])
			i += 1
			j += 1
		}
	}
	return result
}

// both inputs ascending
func union(a []uint64, b []uint64) []uint64 {
	result := make([]uint64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			result = append(result, a[i])
			i += 1
		case i >= len(a) || b[j] < a[i]:
			result = append(result, b[j])
			j += 1
		default:
			result = append(result, a[i])
			i += 1
			j += 1
		}
	}
	return result
}

func makeMatch(block *blockrecord.Block, kind MatchKind) Match {
	return Match{
		Number:    block.Number,
		Timestamp: block.Timestamp,
		Signer:    block.Signer,
		Category:  block.Category,
		Keywords:  block.Keywords,
		Decision:  block.Decision,
		Matched:   kind,
		Score:     kind.score(),
	}
}
