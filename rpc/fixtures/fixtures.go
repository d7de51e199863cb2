// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fixtures - shared setup for the rpc tests
package fixtures

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/logger"
)

const (
	dir         = "testing"
	LogCategory = "testing"
)

// SetupTestLogger - log to a local directory at trace level
func SetupTestLogger() {
	removeFiles()
	_ = os.Mkdir(dir, 0700)

	logging := logger.Configuration{
		Directory: dir,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "trace",
		},
	}

	// start logging
	_ = logger.Initialise(logging)
}

// TeardownTestLogger - stop logging and remove its files
func TeardownTestLogger() {
	logger.Finalise()
	removeFiles()
}

func removeFiles() {
	_ = os.RemoveAll(dir)
}

// CertificatePair - PEM certificate and key for localhost
func CertificatePair() (string, string, error) {
	validUntil := time.Now().Add(24 * time.Hour)
	cert, key, err := certgen.NewTLSCertPair("testing", validUntil, false, []string{"localhost", "127.0.0.1"})
	if nil != err {
		return "", "", err
	}
	return string(cert), string(key), nil
}

// CertificateFiles - write a CertificatePair to a directory
func CertificateFiles(directory string) (string, string, error) {
	cert, key, err := CertificatePair()
	if nil != err {
		return "", "", err
	}
	certificateFileName := filepath.Join(directory, "rpc.crt")
	keyFileName := filepath.Join(directory, "rpc.key")
	if err := ioutil.WriteFile(certificateFileName, []byte(cert), 0600); nil != err {
		return "", "", err
	}
	if err := ioutil.WriteFile(keyFileName, []byte(key), 0600); nil != err {
		return "", "", err
	}
	return certificateFileName, keyFileName, nil
}
