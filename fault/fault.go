// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type AuthorisationError GenericError
type ConflictError GenericError
type ExistsError GenericError
type IntegrityError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised           = ExistsError("already initialised")
	ErrAmbiguousRollback            = ConflictError("rollback requires exactly one of block count or target index")
	ErrBlockNotFound                = NotFoundError("block not found")
	ErrBrokenChainLink              = IntegrityError("previous block digest does not match")
	ErrCategoryTooLong              = InvalidError("category is too long")
	ErrCertificateFileAlreadyExists = ExistsError("certificate file already exists")
	ErrChainNotEmpty                = ExistsError("chain already contains blocks")
	ErrCiphertextAuthentication     = IntegrityError("ciphertext authentication failed")
	ErrCiphertextLength             = IntegrityError("ciphertext length is invalid")
	ErrConfigurationNotTable        = InvalidError("configuration must return a table")
	ErrContentDigestMismatch        = IntegrityError("content digest does not match")
	ErrEmptyPayload                 = InvalidError("payload is empty")
	ErrEmptyQuery                   = InvalidError("query has no search criteria")
	ErrIncompatibleDatabase         = ProcessError("database version is newer than supported")
	ErrIndexStale                   = ProcessError("index must be rebuilt")
	ErrInvalidBlockRecord           = IntegrityError("block record is invalid")
	ErrInvalidCount                 = InvalidError("invalid count")
	ErrInvalidCursor                = InvalidError("invalid cursor")
	ErrInvalidDateRange             = InvalidError("date range start is after its end")
	ErrInvalidDigestLength          = InvalidError("digest length is invalid")
	ErrInvalidDuration              = InvalidError("invalid duration")
	ErrInvalidIPAddress             = InvalidError("invalid IP address")
	ErrInvalidKeyLength             = InvalidError("key length is invalid")
	ErrInvalidLimits                = InvalidError("off-chain threshold is above an inline ceiling")
	ErrInvalidLoggerChannel         = InvalidError("invalid logger channel")
	ErrInvalidPath                  = InvalidError("invalid path")
	ErrInvalidSearchLevel           = InvalidError("invalid search level")
	ErrInvalidSignature             = AuthorisationError("invalid signature")
	ErrInvalidSnapshot              = InvalidError("snapshot is invalid")
	ErrInvalidStructPointer         = InvalidError("invalid struct pointer")
	ErrKeyFileAlreadyExists         = ExistsError("key file already exists")
	ErrKeywordTooLong               = InvalidError("keyword is too long")
	ErrMissingParameters            = InvalidError("missing parameters")
	ErrNotAPlainName                = InvalidError("not a plain file name")
	ErrNotInitialised               = NotFoundError("not initialised")
	ErrOffChainCorrupt              = IntegrityError("off-chain file is corrupt")
	ErrOffChainDigestMismatch       = IntegrityError("off-chain content digest does not match")
	ErrOffChainNotFound             = NotFoundError("off-chain file not found")
	ErrPayloadTooLarge              = InvalidError("payload exceeds byte ceiling")
	ErrRateLimiting                 = ProcessError("rate limit exceeded")
	ErrReadOnlyLedger               = ProcessError("ledger is read only")
	ErrRollbackCountInvalid         = ConflictError("rollback block count is out of range")
	ErrRollbackTargetInvalid        = ConflictError("rollback target index is out of range")
	ErrSecretMismatch               = InvalidError("snapshot was sealed with a different secret")
	ErrSignerNotFound               = NotFoundError("signer not found")
	ErrSnapshotExists               = ExistsError("snapshot directory is not empty")
	ErrTermTooShort                 = InvalidError("search term is too short")
	ErrTooManyCharacters            = InvalidError("payload exceeds character ceiling")
	ErrTooManyKeywords              = InvalidError("too many keywords")
	ErrTransactionInUse             = ProcessError("transaction already in use")
	ErrUnauthorisedSigner           = AuthorisationError("signer is not authorised")
	ErrUnsupportedBackend           = InvalidError("unsupported off-chain backend")
	ErrUnsupportedRecordVersion     = IntegrityError("unsupported record version")
	ErrWrongPassphrase              = InvalidError("wrong passphrase")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e AuthorisationError) Error() string { return string(e) }
func (e ConflictError) Error() string      { return string(e) }
func (e ExistsError) Error() string        { return string(e) }
func (e IntegrityError) Error() string     { return string(e) }
func (e InvalidError) Error() string       { return string(e) }
func (e NotFoundError) Error() string      { return string(e) }
func (e ProcessError) Error() string       { return string(e) }

// determine the class of an error
//
// wrapped errors (fmt.Errorf with %w) are unwrapped to find the class
func IsErrAuthorisation(e error) bool { var x AuthorisationError; return errors.As(e, &x) }
func IsErrConflict(e error) bool      { var x ConflictError; return errors.As(e, &x) }
func IsErrExists(e error) bool        { var x ExistsError; return errors.As(e, &x) }
func IsErrIntegrity(e error) bool     { var x IntegrityError; return errors.As(e, &x) }
func IsErrInvalid(e error) bool       { var x InvalidError; return errors.As(e, &x) }
func IsErrNotFound(e error) bool      { var x NotFoundError; return errors.As(e, &x) }
func IsErrProcess(e error) bool       { var x ProcessError; return errors.As(e, &x) }

// Class - short name of the error class, used in reports and RPC replies
func Class(e error) string {
	switch {
	case nil == e:
		return ""
	case IsErrAuthorisation(e):
		return "authorisation"
	case IsErrConflict(e):
		return "conflict"
	case IsErrExists(e):
		return "exists"
	case IsErrIntegrity(e):
		return "integrity"
	case IsErrInvalid(e):
		return "validation"
	case IsErrNotFound(e):
		return "not-found"
	case IsErrProcess(e):
		return "process"
	default:
		return "other"
	}
}
