// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/storage"
)

const (
	testingDirName = "testing"
)

func TestMain(m *testing.M) {
	if err := setup(); nil != err {
		os.Exit(1)
	}
	result := m.Run()
	teardown()
	os.Exit(result)
}

// remove all files created by test
func removeFiles() {
	os.RemoveAll(testingDirName)
}

// configure for testing
func setup() error {
	removeFiles()
	os.Mkdir(testingDirName, 0o700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "trace",
		},
	}

	// start logging
	return logger.Initialise(logging)
}

// post test cleanup
func teardown() {
	logger.Finalise()
	removeFiles()
}

// open a fresh store in its own directory
func openStore(t *testing.T) (*storage.Store, string) {
	dir, err := os.MkdirTemp(testingDirName, "db")
	if nil != err {
		t.Fatalf("temp dir error: %s", err)
	}
	database := filepath.Join(dir, "chain")
	s, mustReindex, err := storage.Open(database, storage.ReadWrite)
	if nil != err {
		t.Fatalf("storage open error: %s", err)
	}
	if !mustReindex {
		t.Fatalf("new index database not flagged for reindex")
	}
	if err := s.ReindexDone(); nil != err {
		t.Fatalf("reindex done error: %s", err)
	}
	return s, database
}
