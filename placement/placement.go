// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package placement - decide where a block payload is stored
package placement

import (
	"strings"
	"unicode/utf8"

	"github.com/bitmark-inc/hybridledger/fault"
)

// defaults for Limits
const (
	DefaultCharacterCeiling  = 10000
	DefaultByteCeiling       = 1 << 20
	DefaultOffChainThreshold = 512 << 10

	// the largest inline payload a block record can carry
	MaximumInlineBytes = 1 << 20
)

// Location - the storage decision
type Location byte

// possible locations
const (
	OnChain  Location = 1
	OffChain Location = 2
)

// String - the decision code as shown to operators
func (l Location) String() string {
	switch l {
	case OnChain:
		return "ON_CHAIN"
	case OffChain:
		return "OFF_CHAIN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText - decision code for JSON
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText - decision code from JSON
func (l *Location) UnmarshalText(s []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(s))) {
	case "ON_CHAIN":
		*l = OnChain
	case "OFF_CHAIN":
		*l = OffChain
	default:
		return fault.ErrMissingParameters
	}
	return nil
}

// IsValid - true for a known location
func (l Location) IsValid() bool {
	return OnChain == l || OffChain == l
}

// Limits - injected size constants
type Limits struct {
	CharacterCeiling       int  `json:"characterCeiling"`
	ByteCeiling            int  `json:"byteCeiling"`
	OffChainThreshold      int  `json:"offChainThreshold"`
	StrictCharacterCeiling bool `json:"strictCharacterCeiling"`
}

// DefaultLimits - the documented limits
func DefaultLimits() Limits {
	return Limits{
		CharacterCeiling:       DefaultCharacterCeiling,
		ByteCeiling:            DefaultByteCeiling,
		OffChainThreshold:      DefaultOffChainThreshold,
		StrictCharacterCeiling: false,
	}
}

// Decision - result of Decide
type Decision struct {
	Location                 Location `json:"location"`
	Size                     int      `json:"size"`
	Characters               int      `json:"characters"`
	CharacterCeilingExceeded bool     `json:"characterCeilingExceeded,omitempty"`
}

// Decider - classifies payloads; holds no state beyond its limits
type Decider struct {
	limits Limits
}

// WithDefaults - zero limits replaced by the defaults
func (limits Limits) WithDefaults() Limits {
	d := DefaultLimits()
	if limits.CharacterCeiling > 0 {
		d.CharacterCeiling = limits.CharacterCeiling
	}
	if limits.ByteCeiling > 0 {
		d.ByteCeiling = limits.ByteCeiling
	}
	if limits.OffChainThreshold > 0 {
		d.OffChainThreshold = limits.OffChainThreshold
	}
	d.StrictCharacterCeiling = limits.StrictCharacterCeiling
	return d
}

// Check - every on-chain payload must fit an inline record
//
// defaults are applied before checking
func (limits Limits) Check() error {
	d := limits.WithDefaults()
	if d.OffChainThreshold > MaximumInlineBytes || d.OffChainThreshold > d.ByteCeiling {
		return fault.ErrInvalidLimits
	}
	return nil
}

// New - create a decider, zero limits take the defaults
//
// callers must Check the limits first
func New(limits Limits) *Decider {
	return &Decider{limits: limits.WithDefaults()}
}

// Limits - the limits in force
func (d *Decider) Limits() Limits {
	return d.limits
}

// Decide - classify one payload
//
// a payload exactly at the threshold goes off-chain
func (d *Decider) Decide(payload []byte) (Decision, error) {
	size := len(payload)
	if 0 == size {
		return Decision{}, fault.ErrEmptyPayload
	}
	if size > d.limits.ByteCeiling {
		return Decision{}, fault.ErrPayloadTooLarge
	}

	// counting runes is only needed when it can exceed the ceiling
	characters := size
	if size > d.limits.CharacterCeiling {
		characters = utf8.RuneCount(payload)
	}

	decision := Decision{
		Location:                 OnChain,
		Size:                     size,
		Characters:               characters,
		CharacterCeilingExceeded: characters > d.limits.CharacterCeiling,
	}

	if decision.CharacterCeilingExceeded && d.limits.StrictCharacterCeiling {
		return Decision{}, fault.ErrTooManyCharacters
	}

	if size >= d.limits.OffChainThreshold {
		decision.Location = OffChain
	}
	return decision, nil
}
