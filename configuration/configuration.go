// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/ledger"
	"github.com/bitmark-inc/hybridledger/placement"
	"github.com/bitmark-inc/hybridledger/search"
	"github.com/bitmark-inc/hybridledger/util"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "" // this will error; use "." for the same directory as the config file

	defaultDatabaseDirectory = "data"
	defaultDatabaseName      = "hybridledger"
	defaultOffChainDirectory = "offchain"
	defaultSecretFile        = "ledger.secret"
	defaultSignersFile       = "signers.json"

	defaultKeyFile         = "rpc.key"
	defaultCertificateFile = "rpc.crt"

	defaultLogDirectory = "log"
	defaultLogFile      = "hybridledger.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultRPCClients     = 10
	defaultRPCRequestRate = 200
	defaultRPCBurst       = 100

	defaultValidatorInterval = "1h"
)

// off-chain backend names
const (
	BackendFile = "file"
	BackendS3   = "s3"
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		logger.DefaultTag: "critical",
	}
)

// DatabaseType - location of the LevelDB databases
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

// SecretType - the chain encryption secret
//
// the passphrase is only needed for a file created from a passphrase
type SecretType struct {
	File       string `gluamapper:"file" json:"file"`
	Passphrase string `gluamapper:"passphrase" json:"-"`
}

// S3Type - bucket access for the s3 backend
type S3Type struct {
	Bucket    string `gluamapper:"bucket" json:"bucket"`
	Prefix    string `gluamapper:"prefix" json:"prefix"`
	Region    string `gluamapper:"region" json:"region"`
	Endpoint  string `gluamapper:"endpoint" json:"endpoint"`
	AccessKey string `gluamapper:"access_key" json:"access_key"`
	SecretKey string `gluamapper:"secret_key" json:"-"`
}

// OffChainType - where encrypted payloads are stored
type OffChainType struct {
	Backend   string `gluamapper:"backend" json:"backend"`
	Directory string `gluamapper:"directory" json:"directory"`
	S3        S3Type `gluamapper:"s3" json:"s3"`
}

// LimitsType - placement limits, zero values take the defaults
type LimitsType struct {
	CharacterCeiling       int  `gluamapper:"character_ceiling" json:"character_ceiling"`
	ByteCeiling            int  `gluamapper:"byte_ceiling" json:"byte_ceiling"`
	OffChainThreshold      int  `gluamapper:"offchain_threshold" json:"offchain_threshold"`
	StrictCharacterCeiling bool `gluamapper:"strict_character_ceiling" json:"strict_character_ceiling"`
}

// SearchType - search defaults
type SearchType struct {
	DefaultLevel      string `gluamapper:"default_level" json:"default_level"`
	MinimumTermLength int    `gluamapper:"minimum_term_length" json:"minimum_term_length"`
}

// ValidatorType - the periodic background validation
type ValidatorType struct {
	Interval string `gluamapper:"interval" json:"interval"`
	Mode     string `gluamapper:"mode" json:"mode"`
}

// RPCType - JSON RPC listener
type RPCType struct {
	MaximumConnections uint64   `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string `gluamapper:"listen" json:"listen"`
	Certificate        string   `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string   `gluamapper:"private_key" json:"private_key"`
	RequestRate        float64  `gluamapper:"request_rate" json:"request_rate"`
	Burst              int      `gluamapper:"burst" json:"burst"`
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string        `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string        `gluamapper:"pidfile" json:"pidfile"`
	ReadOnly      bool          `gluamapper:"read_only" json:"read_only"`
	Database      DatabaseType  `gluamapper:"database" json:"database"`
	Secret        SecretType    `gluamapper:"secret" json:"secret"`
	Signers       string        `gluamapper:"signers" json:"signers"`
	OffChain      OffChainType  `gluamapper:"offchain" json:"offchain"`
	Limits        LimitsType    `gluamapper:"limits" json:"limits"`
	Search        SearchType    `gluamapper:"search" json:"search"`
	Validator     ValidatorType `gluamapper:"validator" json:"validator"`

	ClientRPC RPCType              `gluamapper:"client_rpc" json:"client_rpc"`
	Logging   logger.Configuration `gluamapper:"logging" json:"logging"`
}

// Default - configuration with every default filled in
//
// paths are still relative
func Default() *Configuration {
	levels := make(map[string]string, len(defaultLogLevels))
	for k, v := range defaultLogLevels {
		levels[k] = v
	}

	return &Configuration{
		DataDirectory: defaultDataDirectory,
		PidFile:       "", // no PidFile by default

		Database: DatabaseType{
			Directory: defaultDatabaseDirectory,
			Name:      defaultDatabaseName,
		},

		Secret: SecretType{
			File: defaultSecretFile,
		},

		Signers: defaultSignersFile,

		OffChain: OffChainType{
			Backend:   BackendFile,
			Directory: defaultOffChainDirectory,
		},

		Search: SearchType{
			DefaultLevel:      search.DefaultLevel.String(),
			MinimumTermLength: search.DefaultMinimumTermLength,
		},

		Validator: ValidatorType{
			Interval: defaultValidatorInterval,
			Mode:     ledger.ValidateQuick.String(),
		},

		ClientRPC: RPCType{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultCertificateFile,
			PrivateKey:         defaultKeyFile,
			RequestRate:        defaultRPCRequestRate,
			Burst:              defaultRPCBurst,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    levels,
		},
	}
}

// GetConfiguration - will read decode and verify the configuration
func GetConfiguration(configurationFileName string, variables map[string]string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := Default()

	if err := ParseConfigurationFile(configurationFileName, options, variables); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("Path: %q is not a valid directory: %w", options.DataDirectory, fault.ErrInvalidPath)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = util.EnsureAbsolute(dataDirectory, options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("Path: %q is not a directory: %w", options.DataDirectory, fault.ErrInvalidPath)
	}

	if err := options.Resolve(); nil != err {
		return nil, err
	}
	return options, nil
}

// Resolve - check values and make all paths absolute under the data directory
//
// creates the database, off-chain and log directories
func (options *Configuration) Resolve() error {

	options.OffChain.Backend = strings.ToLower(strings.TrimSpace(options.OffChain.Backend))
	switch options.OffChain.Backend {
	case BackendFile:
	case BackendS3:
		if "" == options.OffChain.S3.Bucket {
			return fault.ErrMissingParameters
		}
	default:
		return fault.ErrUnsupportedBackend
	}

	if err := options.PlacementLimits().Check(); nil != err {
		return err
	}
	if _, err := options.SearchOptions(); nil != err {
		return err
	}
	if _, err := options.ValidatorInterval(); nil != err {
		return err
	}
	if _, err := ledger.ParseMode(options.Validator.Mode); nil != err {
		return err
	}

	// force all relevant items to be absolute paths
	// if not, assign them to the data directory
	mustBeAbsolute := []*string{
		&options.Database.Directory,
		&options.Secret.File,
		&options.Signers,
		&options.OffChain.Directory,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		*f = util.EnsureAbsolute(options.DataDirectory, *f)
	}

	// optional absolute paths i.e. blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// fail if any of these are not simple file names i.e. must
	// not contain path seperator
	for _, f := range []string{options.Database.Name, options.Logging.File} {
		switch filepath.Dir(f) {
		case "", ".":
		default:
			return fmt.Errorf("Files: %q: %w", f, fault.ErrNotAPlainName)
		}
	}

	// create directories if they do not already exist
	directories := []string{
		options.Database.Directory,
		options.Logging.Directory,
	}
	if BackendFile == options.OffChain.Backend {
		directories = append(directories, options.OffChain.Directory)
	}
	for _, d := range directories {
		if err := util.EnsureDirectory(d); nil != err {
			return err
		}
	}

	return nil
}

// DatabasePath - prefix for the LevelDB directories
func (options *Configuration) DatabasePath() string {
	return filepath.Join(options.Database.Directory, options.Database.Name)
}

// PlacementLimits - limits for the placement decider
func (options *Configuration) PlacementLimits() placement.Limits {
	return placement.Limits{
		CharacterCeiling:       options.Limits.CharacterCeiling,
		ByteCeiling:            options.Limits.ByteCeiling,
		OffChainThreshold:      options.Limits.OffChainThreshold,
		StrictCharacterCeiling: options.Limits.StrictCharacterCeiling,
	}
}

// SearchOptions - options for the search engine
func (options *Configuration) SearchOptions() (search.Options, error) {
	o := search.Options{
		MinimumTermLength: options.Search.MinimumTermLength,
	}
	if "" != options.Search.DefaultLevel {
		level, err := search.ParseLevel(options.Search.DefaultLevel)
		if nil != err {
			return search.Options{}, err
		}
		o.DefaultLevel = level
	}
	return o, nil
}

// ValidatorInterval - zero disables the background validator
func (options *Configuration) ValidatorInterval() (time.Duration, error) {
	s := strings.TrimSpace(options.Validator.Interval)
	if "" == s || "0" == s {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if nil != err || d < 0 {
		return 0, fault.ErrInvalidDuration
	}
	return d, nil
}
