// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "fmt"

// ErrorCode identifies a kind of script error, per spec §4.C/§7.
type ErrorCode int

const (
	// ErrInvalidScriptElementSize indicates a push exceeded MaxScriptElementSize.
	ErrInvalidScriptElementSize ErrorCode = iota

	// ErrTooManyInstructions indicates more than MaxInstructions
	// non-push opcodes were executed.
	ErrTooManyInstructions

	// ErrDisabledOpcode indicates a disabled opcode was encountered.
	ErrDisabledOpcode

	// ErrUnterminatedIfStatement indicates the script ended with an
	// unbalanced OP_IF/OP_NOTIF block stack.
	ErrUnterminatedIfStatement

	// ErrScriptReturn indicates OP_RETURN was executed.
	ErrScriptReturn

	// ErrVerifyFailure indicates OP_VERIFY, OP_EQUALVERIFY or
	// OP_NUMEQUALVERIFY popped a value that cast false.
	ErrVerifyFailure

	// ErrStackUnderflow indicates an operation needed more stack items
	// than were present.
	ErrStackUnderflow

	// ErrMalformedPush indicates a push opcode's declared length exceeds
	// the remaining script bytes.
	ErrMalformedPush

	// ErrNumberTooBig indicates an arithmetic operand could not be
	// interpreted as a script number.
	ErrNumberTooBig

	// ErrInvalidIndex indicates an invalid OP_PICK/OP_ROLL index.
	ErrInvalidIndex
)

var errorCodeStrings = map[ErrorCode]string{
	ErrInvalidScriptElementSize: "ErrInvalidScriptElementSize",
	ErrTooManyInstructions:      "ErrTooManyInstructions",
	ErrDisabledOpcode:           "ErrDisabledOpcode",
	ErrUnterminatedIfStatement:  "ErrUnterminatedIfStatement",
	ErrScriptReturn:             "ErrScriptReturn",
	ErrVerifyFailure:            "ErrVerifyFailure",
	ErrStackUnderflow:           "ErrStackUnderflow",
	ErrMalformedPush:            "ErrMalformedPush",
	ErrNumberTooBig:             "ErrNumberTooBig",
	ErrInvalidIndex:             "ErrInvalidIndex",
}

// String returns the ErrorCode in human-readable form.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", int(e))
}

// Error identifies a script evaluation or parsing failure, carrying both a
// machine-checkable code and a human-readable description.
type Error struct {
	ErrorCode   ErrorCode
	Description string
}

// Error implements the error interface.
func (e Error) Error() string { return e.Description }

// scriptError builds an Error for the given code and formatted description.
func scriptError(code ErrorCode, format string, args ...interface{}) Error {
	return Error{ErrorCode: code, Description: fmt.Sprintf(format, args...)}
}

// IsErrorCode returns whether err is a txscript Error with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	serr, ok := err.(Error)
	return ok && serr.ErrorCode == code
}
