// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// ErrorCode identifies a kind of header validation failure.
type ErrorCode int

const (
	// ErrDoesNotConnect indicates the first header in an inbound batch
	// does not extend any known link.
	ErrDoesNotConnect ErrorCode = iota

	// ErrBadProofOfWork indicates bits does not equal the expected next
	// work for the link's position in its chain.
	ErrBadProofOfWork

	// ErrTimeTooOld indicates the header's timestamp is not greater
	// than the median of the past 11 blocks on its predecessor chain.
	ErrTimeTooOld

	// ErrBadVersion indicates the version-supermajority gate rejected
	// the header's version.
	ErrBadVersion

	// ErrBadCoinbaseHeight indicates a version>=2 block's coinbase
	// script does not begin with the serialized block height.
	ErrBadCoinbaseHeight

	// ErrUnknownLink indicates an operation referenced a block hash not
	// present in the index.
	ErrUnknownLink

	// ErrDuplicateLink indicates an attempt to insert a link whose hash
	// is already indexed.
	ErrDuplicateLink
)

var errorCodeStrings = map[ErrorCode]string{
	ErrDoesNotConnect:    "ErrDoesNotConnect",
	ErrBadProofOfWork:    "ErrBadProofOfWork",
	ErrTimeTooOld:        "ErrTimeTooOld",
	ErrBadVersion:        "ErrBadVersion",
	ErrBadCoinbaseHeight: "ErrBadCoinbaseHeight",
	ErrUnknownLink:       "ErrUnknownLink",
	ErrDuplicateLink:     "ErrDuplicateLink",
}

func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", int(e))
}

// RuleError identifies a single link's validation failure. Per spec §4.E,
// a rule violation rejects only the offending link — it never penalizes
// the chain as a whole.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

func (e RuleError) Error() string { return e.Description }

func ruleError(code ErrorCode, format string, args ...interface{}) RuleError {
	return RuleError{ErrorCode: code, Description: fmt.Sprintf(format, args...)}
}

// IsErrorCode returns whether err is a RuleError with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	rerr, ok := err.(RuleError)
	return ok && rerr.ErrorCode == code
}
