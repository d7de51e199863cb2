// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package records

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/rpc/ratelimit"
	"github.com/bitmark-inc/hybridledger/search"
)

const (
	rateLimitLedger = 200
	rateBurstLedger = 100

	// longest time any single call may run
	callTimeout = 5 * time.Minute

	// limit for count
	maximumSearchLimit = 1000
)

// Store - the ledger operations offered over RPC
type Store interface {
	Append(ctx context.Context, payload []byte, meta ledger.Metadata) (*ledger.Receipt, error)
	Search(ctx context.Context, engine *search.Engine, q search.Query) (*search.Result, error)
	Validate(ctx context.Context, mode ledger.Mode) (*ledger.Report, error)
	Status(ctx context.Context) (*ledger.Status, error)
}

// Ledger - type for RPC calls
type Ledger struct {
	Log     *logger.L
	Limiter *rate.Limiter
	store   Store
	engine  *search.Engine
}

// New - create the Ledger service, zero rate or burst take the defaults
func New(log *logger.L, store Store, engine *search.Engine, requestRate float64, burst int) *Ledger {
	if requestRate <= 0 {
		requestRate = rateLimitLedger
	}
	if burst <= 0 {
		burst = rateBurstLedger
	}
	return &Ledger{
		Log:     log,
		Limiter: rate.NewLimiter(rate.Limit(requestRate), burst),
		store:   store,
		engine:  engine,
	}
}

// ---

// AppendArguments - arguments for RPC
//
// Text is used when Payload is empty
type AppendArguments struct {
	Payload   []byte   `json:"payload"`
	Text      string   `json:"text"`
	Signer    string   `json:"signer"`
	Keywords  []string `json:"keywords"`
	Category  string   `json:"category"`
	Signature []byte   `json:"signature"`
}

// AppendReply - result from RPC
type AppendReply struct {
	Receipt *ledger.Receipt `json:"receipt"`
}

// Append - add a block
func (l *Ledger) Append(arguments *AppendArguments, reply *AppendReply) error {

	if err := ratelimit.Limit(l.Limiter); nil != err {
		return err
	}

	payload := arguments.Payload
	if 0 == len(payload) {
		payload = []byte(arguments.Text)
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	receipt, err := l.store.Append(ctx, payload, ledger.Metadata{
		Signer:    arguments.Signer,
		Keywords:  arguments.Keywords,
		Category:  arguments.Category,
		Signature: arguments.Signature,
	})
	if nil != err {
		l.Log.Warnf("append: signer: %q  error: %s", arguments.Signer, err)
		return err
	}

	l.Log.Infof("append: block: %d  decision: %s  size: %d", receipt.Number, receipt.Decision, receipt.Size)
	reply.Receipt = receipt
	return nil
}

// ---

// SearchReply - result from RPC
type SearchReply struct {
	Result *search.Result `json:"result"`
}

// Search - run a query
func (l *Ledger) Search(arguments *search.Query, reply *SearchReply) error {

	if 0 == arguments.Limit {
		if err := ratelimit.Limit(l.Limiter); nil != err {
			return err
		}
	} else if err := ratelimit.LimitN(l.Limiter, arguments.Limit, maximumSearchLimit); nil != err {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	result, err := l.store.Search(ctx, l.engine, *arguments)
	if nil != err {
		return err
	}

	if nil != result.Fallback {
		l.Log.Warnf("search: %s -> %s  gaps: %d", result.Fallback.From, result.Fallback.To, len(result.Gaps))
	}
	reply.Result = result
	return nil
}

// ---

// ValidateArguments - arguments for RPC
type ValidateArguments struct {
	Mode string `json:"mode"`
}

// ValidateReply - result from RPC
type ValidateReply struct {
	Report *ledger.Report `json:"report"`
}

// Validate - check the whole chain
func (l *Ledger) Validate(arguments *ValidateArguments, reply *ValidateReply) error {

	if err := ratelimit.Limit(l.Limiter); nil != err {
		return err
	}

	mode, err := ledger.ParseMode(arguments.Mode)
	if nil != err {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	report, err := l.store.Validate(ctx, mode)
	if nil != err {
		return err
	}
	reply.Report = report
	return nil
}

// ---

// StatusArguments - empty arguments for status request
type StatusArguments struct{}

// StatusReply - result from RPC
type StatusReply struct {
	Status *ledger.Status `json:"status"`
}

// Status - counts and validity
func (l *Ledger) Status(_ *StatusArguments, reply *StatusReply) error {

	if err := ratelimit.Limit(l.Limiter); nil != err {
		return err
	}

	if nil == l.store {
		return fault.ErrNotInitialised
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	status, err := l.store.Status(ctx)
	if nil != err {
		return err
	}
	reply.Status = status
	return nil
}
