// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/hybridledger/search"
)

func runSearch(c *cli.Context) error {

	m := c.App.Metadata["config"].(*metadata)

	q := search.Query{
		Term:         c.String("term"),
		Category:     c.String("category"),
		Signer:       c.String("signer"),
		Limit:        c.Int("limit"),
		Strict:       c.Bool("strict"),
		ValidateTerm: c.Bool("validate-term"),
	}

	if s := c.String("block"); "" != s {
		n, err := strconv.ParseUint(s, 10, 64)
		if nil != err {
			return fmt.Errorf("block number: %s", err)
		}
		q.BlockNumber = &n
	}

	var err error
	q.From, err = parseDate(c.String("from"), false)
	if nil != err {
		return err
	}
	q.To, err = parseDate(c.String("to"), true)
	if nil != err {
		return err
	}

	if s := c.String("level"); "" != s {
		q.Level, err = search.ParseLevel(s)
		if nil != err {
			return err
		}
	}

	ctx := context.Background()
	ch, err := m.open(ctx)
	if nil != err {
		return err
	}

	result, err := ch.Ledger.Search(ctx, ch.Engine, q)
	if nil != err {
		return err
	}

	if nil != result.Fallback && m.verbose {
		fmt.Fprintf(m.e, "fell back from %s to %s with %d gaps\n", result.Fallback.From, result.Fallback.To, len(result.Gaps))
	}

	return printJson(m.w, result)
}

// a bare date covers the whole day
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if "" == s {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); nil == err {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if nil != err {
		return time.Time{}, fmt.Errorf("invalid date: %q", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}
