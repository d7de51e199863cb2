// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/genesis"
	"github.com/bitmark-inc/hybridledger/storage"
)

// Mode - how much work Validate does
type Mode int

// validation modes
const (
	ValidateQuick Mode = 1 // links, inline content and bundle presence
	ValidateFull  Mode = 2 // also decrypt and re-hash every bundle
)

// String - mode name
func (m Mode) String() string {
	switch m {
	case ValidateQuick:
		return "quick"
	case ValidateFull:
		return "full"
	default:
		return "*unknown*"
	}
}

// MarshalText - mode name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText - mode from its name
func (m *Mode) UnmarshalText(s []byte) error {
	mode, err := ParseMode(string(s))
	if nil != err {
		return err
	}
	*m = mode
	return nil
}

// ParseMode - mode from its name
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quick", "":
		return ValidateQuick, nil
	case "full":
		return ValidateFull, nil
	default:
		return 0, fault.ErrMissingParameters
	}
}

// Problem - one failed check
type Problem struct {
	Number uint64 `json:"number,string"`
	Detail string `json:"detail"`
}

// Report - the outcome of a validation
//
// the same chain always gives the same report
type Report struct {
	Mode              Mode      `json:"mode"`
	Height            uint64    `json:"height,string"`
	Blocks            uint64    `json:"blocks,string"`
	OffChain          uint64    `json:"offChain,string"`
	Valid             bool      `json:"valid"`
	BrokenLinks       []Problem `json:"brokenLinks"`
	ContentMismatches []Problem `json:"contentMismatches"`
	MissingOffChain   []Problem `json:"missingOffChain"`
	CorruptOffChain   []Problem `json:"corruptOffChain"`
	Undecodable       []Problem `json:"undecodable"`
}

func (r *Report) problems() int {
	return len(r.BrokenLinks) + len(r.ContentMismatches) + len(r.MissingOffChain) + len(r.CorruptOffChain) + len(r.Undecodable)
}

// Validate - walk the whole chain checking every link and content digest
func (l *Ledger) Validate(ctx context.Context, mode Mode) (*Report, error) {
	l.RLock()
	defer l.RUnlock()
	return l.validate(ctx, mode)
}

// must hold lock to call this
func (l *Ledger) validate(ctx context.Context, mode Mode) (*Report, error) {
	if ValidateQuick != mode && ValidateFull != mode {
		return nil, fault.ErrMissingParameters
	}

	report := &Report{
		Mode:              mode,
		Height:            l.height,
		BrokenLinks:       []Problem{},
		ContentMismatches: []Problem{},
		MissingOffChain:   []Problem{},
		CorruptOffChain:   []Problem{},
		Undecodable:       []Problem{},
	}

	expected := genesis.BlockNumber
	previous := digest.Digest{}

	cursor := l.store.Pool.Blocks.NewFetchCursor().Limit(storage.NumberKey(l.height + 1))
	err := cursor.Map(func(key []byte, value []byte) error {
		if err := ctx.Err(); nil != err {
			return err
		}

		number, err := storage.NumberFromKey(key)
		if nil != err {
			report.Undecodable = append(report.Undecodable, Problem{Number: expected, Detail: "invalid block key"})
			return nil
		}
		for ; expected < number; expected += 1 {
			report.BrokenLinks = append(report.BrokenLinks, Problem{Number: expected, Detail: "block missing"})
		}
		expected = number + 1
		report.Blocks += 1

		packed := blockrecord.PackedBlock(value)
		defer func() {
			previous = packed.Digest()
		}()

		if genesis.BlockNumber == number {
			if !bytes.Equal(packed, genesis.Packed()) {
				report.BrokenLinks = append(report.BrokenLinks, Problem{Number: number, Detail: "genesis block differs"})
			}
			return nil
		}

		block, err := packed.Unpack()
		if nil != err {
			report.Undecodable = append(report.Undecodable, Problem{Number: number, Detail: err.Error()})
			return nil
		}
		if number != block.Number {
			report.Undecodable = append(report.Undecodable, Problem{
				Number: number,
				Detail: fmt.Sprintf("record holds block: %d", block.Number),
			})
		}
		if !previous.Equal(block.PreviousBlock) {
			report.BrokenLinks = append(report.BrokenLinks, Problem{
				Number: number,
				Detail: fmt.Sprintf("previous: %s  expected: %s", block.PreviousBlock, previous),
			})
		}

		switch c := block.Content.(type) {
		case *blockrecord.Inline:
			if !block.ContentHash.Verify(c.Data) {
				report.ContentMismatches = append(report.ContentMismatches, Problem{Number: number, Detail: "inline content digest differs"})
			}
		case *blockrecord.OffChain:
			report.OffChain += 1
			return l.checkBundle(ctx, mode, block, c.Reference, report)
		}
		return nil
	})
	if nil != err {
		return nil, err
	}

	// trailing blocks missing below the recorded height
	for ; expected <= l.height; expected += 1 {
		report.BrokenLinks = append(report.BrokenLinks, Problem{Number: expected, Detail: "block missing"})
	}

	report.Valid = 0 == report.problems()
	l.log.Debugf("validate: %s  blocks: %d  problems: %d", mode, report.Blocks, report.problems())
	return report, nil
}

// classify one bundle; only cancellation aborts the walk
func (l *Ledger) checkBundle(ctx context.Context, mode Mode, block *blockrecord.Block, ref blockrecord.Reference, report *Report) error {
	number := block.Number

	if ValidateQuick == mode {
		ok, err := l.offChain.Exists(ctx, ref)
		if nil != ctx.Err() {
			return ctx.Err()
		}
		if nil != err {
			report.CorruptOffChain = append(report.CorruptOffChain, Problem{Number: number, Detail: err.Error()})
		} else if !ok {
			report.MissingOffChain = append(report.MissingOffChain, Problem{Number: number, Detail: ref.Name})
		}
		return nil
	}

	_, err := l.offChain.Get(ctx, number, ref, block.ContentHash)
	if nil != ctx.Err() {
		return ctx.Err()
	}
	switch {
	case nil == err:
	case fault.IsErrNotFound(err):
		report.MissingOffChain = append(report.MissingOffChain, Problem{Number: number, Detail: ref.Name})
	case fault.ErrOffChainDigestMismatch == err:
		report.ContentMismatches = append(report.ContentMismatches, Problem{Number: number, Detail: "off-chain content digest differs: " + ref.Name})
	default:
		report.CorruptOffChain = append(report.CorruptOffChain, Problem{Number: number, Detail: ref.Name + ": " + err.Error()})
	}
	return nil
}
