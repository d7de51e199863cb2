// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockrecord

import (
	"strings"
	"unicode/utf8"

	"github.com/bitmark-inc/hybridledger/fault"
)

// limits on metadata
const (
	MaximumKeywords       = 32
	MaximumKeywordLength  = 64
	MaximumCategoryLength = 64
	MaximumSignerLength   = 128
	MaximumSignatureBytes = 128
	MaximumReferenceName  = 255
)

// NormaliseCategory - categories are stored in upper case
func NormaliseCategory(category string) (string, error) {
	category = strings.ToUpper(clean(category))
	if utf8.RuneCountInString(category) > MaximumCategoryLength {
		return "", fault.ErrCategoryTooLong
	}
	return category, nil
}

// NormaliseKeywords - trim, drop empties and case-insensitive duplicates
//
// the first spelling of a keyword is kept
func NormaliseKeywords(keywords []string) ([]string, error) {
	result := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))

	for _, k := range keywords {
		k = clean(k)
		if "" == k {
			continue
		}
		if utf8.RuneCountInString(k) > MaximumKeywordLength {
			return nil, fault.ErrKeywordTooLong
		}
		folded := strings.ToLower(k)
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		result = append(result, k)
	}
	if len(result) > MaximumKeywords {
		return nil, fault.ErrTooManyKeywords
	}
	return result, nil
}

// index keys use 0x00 as a separator
func clean(s string) string {
	return strings.TrimSpace(strings.Replace(s, "\x00", "", -1))
}
