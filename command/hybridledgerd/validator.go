// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/ledger"
)

type chainValidator interface {
	Validate(ctx context.Context, mode ledger.Mode) (*ledger.Report, error)
}

// periodically walk the chain and report any damage
type validator struct {
	log      *logger.L
	chain    chainValidator
	interval time.Duration
	mode     ledger.Mode
	reports  chan<- *ledger.Report // optional, for tests
}

func newValidator(chain chainValidator, interval time.Duration, mode ledger.Mode) *validator {
	return &validator{
		log:      logger.New("validator"),
		chain:    chain,
		interval: interval,
		mode:     mode,
	}
}

func (v *validator) Run(args interface{}, shutdown <-chan struct{}) {
	v.log.Infof("starting… interval: %s  mode: %s", v.interval, v.mode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			v.validate(ctx)
		}
	}
	v.log.Info("stopped")
}

func (v *validator) validate(ctx context.Context) {
	start := time.Now()
	report, err := v.chain.Validate(ctx, v.mode)
	if nil != err {
		if nil == ctx.Err() {
			v.log.Errorf("validate error: %s", err)
		}
		return
	}

	if report.Valid {
		v.log.Infof("valid: blocks: %d  off-chain: %d  time: %s", report.Blocks, report.OffChain, time.Since(start))
	} else {
		v.log.Criticalf("INVALID: broken links: %d  content mismatches: %d  missing off-chain: %d  corrupt off-chain: %d  undecodable: %d",
			len(report.BrokenLinks), len(report.ContentMismatches), len(report.MissingOffChain), len(report.CorruptOffChain), len(report.Undecodable))
		for _, p := range report.BrokenLinks {
			v.log.Errorf("broken link: block: %d  %s", p.Number, p.Detail)
		}
	}

	if nil != v.reports {
		select {
		case v.reports <- report:
		default:
		}
	}
}
