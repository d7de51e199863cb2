// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/configuration"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/search"
)

const fullConfiguration = `
local M = {}

M.data_directory = "."
M.pidfile = "daemon.pid"

M.database = {
    name = "chain",
}

M.secret = {
    file = "keys/ledger.secret",
}

M.offchain = {
    backend = "S3",
    s3 = {
        bucket = bucket_name,
        prefix = "bundles",
        region = "eu-west-1",
    },
}

M.limits = {
    character_ceiling = 2000,
    offchain_threshold = 4096,
    strict_character_ceiling = true,
}

M.search = {
    default_level = "include-data",
    minimum_term_length = 4,
}

M.validator = {
    interval = "15m",
    mode = "full",
}

M.client_rpc = {
    maximum_connections = 25,
    listen = { "127.0.0.1:2130", "[::1]:2130" },
}

M.logging = {
    size = 4096,
    count = 3,
    levels = {
        DEFAULT = "info",
        ledger = "debug",
    },
}

return M
`

func writeConfiguration(t *testing.T, text string) string {
	dir := t.TempDir()
	filename := filepath.Join(dir, "hybridledger.conf")
	if err := os.WriteFile(filename, []byte(text), 0600); nil != err {
		t.Fatalf("write configuration error: %s", err)
	}
	return filename
}

func TestFullConfiguration(t *testing.T) {
	filename := writeConfiguration(t, fullConfiguration)
	dir := filepath.Dir(filename)

	options, err := configuration.GetConfiguration(filename, map[string]string{"bucket_name": "ledger-bucket"})
	assert.Nil(t, err, "configuration")

	assert.Equal(t, filepath.Clean(dir)+string(filepath.Separator), options.DataDirectory, "data directory")
	assert.Equal(t, filepath.Join(dir, "daemon.pid"), options.PidFile, "pid file")
	assert.Equal(t, filepath.Join(dir, "data", "chain"), options.DatabasePath(), "database")
	assert.Equal(t, filepath.Join(dir, "keys", "ledger.secret"), options.Secret.File, "secret")
	assert.Equal(t, filepath.Join(dir, "signers.json"), options.Signers, "signers")

	assert.Equal(t, configuration.BackendS3, options.OffChain.Backend, "backend")
	assert.Equal(t, "ledger-bucket", options.OffChain.S3.Bucket, "bucket from variable")
	assert.Equal(t, "bundles", options.OffChain.S3.Prefix, "prefix")

	limits := options.PlacementLimits()
	assert.Equal(t, 2000, limits.CharacterCeiling, "character ceiling")
	assert.Equal(t, 0, limits.ByteCeiling, "byte ceiling left to default")
	assert.Equal(t, 4096, limits.OffChainThreshold, "threshold")
	assert.True(t, limits.StrictCharacterCeiling, "strict")

	so, err := options.SearchOptions()
	assert.Nil(t, err, "search options")
	assert.Equal(t, search.IncludeData, so.DefaultLevel, "search level")
	assert.Equal(t, 4, so.MinimumTermLength, "term length")

	interval, err := options.ValidatorInterval()
	assert.Nil(t, err, "interval")
	assert.Equal(t, 15*time.Minute, interval, "interval value")

	assert.Equal(t, uint64(25), options.ClientRPC.MaximumConnections, "connections")
	assert.Equal(t, []string{"127.0.0.1:2130", "[::1]:2130"}, options.ClientRPC.Listen, "listen")
	assert.Equal(t, filepath.Join(dir, "rpc.crt"), options.ClientRPC.Certificate, "certificate")

	assert.Equal(t, 4096, options.Logging.Size, "log size")
	assert.Equal(t, "debug", options.Logging.Levels["ledger"], "log level")

	for _, d := range []string{"data", "log"} {
		info, err := os.Stat(filepath.Join(dir, d))
		assert.Nil(t, err, "stat: "+d)
		assert.True(t, info.IsDir(), "directory: "+d)
	}
	_, err = os.Stat(filepath.Join(dir, "offchain"))
	assert.True(t, os.IsNotExist(err), "no off-chain directory for s3")
}

func TestDefaultConfiguration(t *testing.T) {
	filename := writeConfiguration(t, `return { data_directory = "." }`)
	dir := filepath.Dir(filename)

	options, err := configuration.GetConfiguration(filename, nil)
	assert.Nil(t, err, "configuration")

	assert.Equal(t, "", options.PidFile, "no pid file")
	assert.Equal(t, configuration.BackendFile, options.OffChain.Backend, "backend")
	assert.Equal(t, filepath.Join(dir, "offchain"), options.OffChain.Directory, "off-chain directory")
	assert.False(t, options.ReadOnly, "read only")

	so, err := options.SearchOptions()
	assert.Nil(t, err, "search options")
	assert.Equal(t, search.FastOnly, so.DefaultLevel, "default level")

	interval, err := options.ValidatorInterval()
	assert.Nil(t, err, "interval")
	assert.Equal(t, time.Hour, interval, "default interval")

	info, err := os.Stat(options.OffChain.Directory)
	assert.Nil(t, err, "off-chain directory created")
	assert.True(t, info.IsDir(), "off-chain is a directory")
}

func TestConfigurationErrors(t *testing.T) {
	items := []struct {
		text string
		err  error
	}{
		{`return {}`, fault.ErrInvalidPath},
		{`return { data_directory = "~" }`, fault.ErrInvalidPath},
		{`return 42`, fault.ErrConfigurationNotTable},
		{`return { data_directory = ".", offchain = { backend = "tape" } }`, fault.ErrUnsupportedBackend},
		{`return { data_directory = ".", offchain = { backend = "s3" } }`, fault.ErrMissingParameters},
		{`return { data_directory = ".", search = { default_level = "deep" } }`, fault.ErrInvalidSearchLevel},
		{`return { data_directory = ".", validator = { interval = "soon" } }`, fault.ErrInvalidDuration},
		{`return { data_directory = ".", validator = { mode = "thorough" } }`, fault.ErrMissingParameters},
		{`return { data_directory = ".", database = { name = "a/b" } }`, fault.ErrNotAPlainName},
		{`return { data_directory = ".", limits = { byte_ceiling = 4194304, offchain_threshold = 3145728 } }`, fault.ErrInvalidLimits},
		{`return { data_directory = ".", limits = { byte_ceiling = 1000, offchain_threshold = 2000 } }`, fault.ErrInvalidLimits},
	}

	for i, item := range items {
		filename := writeConfiguration(t, item.text)
		_, err := configuration.GetConfiguration(filename, nil)
		assert.ErrorIs(t, err, item.err, "%d: %s", i, item.text)
	}
}

func TestLuaSyntaxError(t *testing.T) {
	filename := writeConfiguration(t, `return { data_directory = `)
	_, err := configuration.GetConfiguration(filename, nil)
	assert.NotNil(t, err, "syntax error")
}

func TestParseIntoNonStruct(t *testing.T) {
	filename := writeConfiguration(t, `return {}`)
	var n int
	err := configuration.ParseConfigurationFile(filename, &n, nil)
	assert.Equal(t, fault.ErrInvalidStructPointer, err, "not a struct")
	err = configuration.ParseConfigurationFile(filename, configuration.Configuration{}, nil)
	assert.Equal(t, fault.ErrInvalidStructPointer, err, "not a pointer")
}
