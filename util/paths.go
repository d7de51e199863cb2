// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"
)

// EnsureAbsolute - ensure the path is absolute
// if not, prepend the directory to make absolute path
func EnsureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}

// EnsureFileExists - check if file exists
func EnsureFileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}

// EnsureDirectory - create a private directory if it is missing
func EnsureDirectory(name string) error {
	return os.MkdirAll(name, 0700)
}

// IsDirectoryEmpty - true if a directory is missing or has no entries
func IsDirectoryEmpty(name string) (bool, error) {
	entries, err := os.ReadDir(name)
	if os.IsNotExist(err) {
		return true, nil
	}
	if nil != err {
		return false, err
	}
	return 0 == len(entries), nil
}
