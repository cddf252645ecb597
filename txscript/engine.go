// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// MaxInstructions bounds the number of non-push opcodes a single script
// evaluation may execute, preventing pathological scripts from stalling a
// peer thread.
const MaxInstructions = 10000

// SigChecker abstracts the transaction context a script needs to verify a
// signature, so the evaluator itself stays independent of the exact
// transaction wire format beyond wire.MsgTx.
type SigChecker interface {
	// CheckSig verifies a raw DER signature plus pubkey against the
	// script being executed, for input InputIndex of Tx.
	CheckSig(sig, pubKey, script []byte) (bool, error)
}

// txSigChecker is the standard SigChecker backed by a transaction, the
// index of the input being verified and the output it spends.
type txSigChecker struct {
	tx         *wire.MsgTx
	inputIdx   int
	amount     int64
}

func (c *txSigChecker) CheckSig(fullSig, pubKeyBytes, script []byte) (bool, error) {
	if len(fullSig) < 1 {
		return false, scriptError(ErrInvalidIndex, "empty signature")
	}
	hashType := SigHashType(fullSig[len(fullSig)-1])
	sigBytes := fullSig[:len(fullSig)-1]

	sigHash, err := CalcSignatureHash(script, hashType, c.tx, c.inputIdx)
	if err != nil {
		return false, err
	}

	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return false, nil
	}
	sig, err := ecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return false, nil
	}

	return sig.Verify(sigHash, pubKey), nil
}

// NewTxSigChecker returns a SigChecker that verifies signatures against the
// given transaction input.
func NewTxSigChecker(tx *wire.MsgTx, inputIdx int, amount int64) SigChecker {
	return &txSigChecker{tx: tx, inputIdx: inputIdx, amount: amount}
}

// condState tracks one level of an OP_IF/OP_NOTIF/OP_ELSE/OP_ENDIF block:
// whether its own branch is executing, and whether this level has already
// taken a branch (so the branch after an OP_ELSE that follows a taken
// branch does not execute).
type condState struct {
	branchExecuting bool
	branchTaken     bool
}

// Engine evaluates one scriptSig+scriptPubKey pair against the spec §4.C
// stack machine semantics: bounded instruction count, disabled opcodes, and
// the minimal OP_IF control flow subset.
type Engine struct {
	scripts    [][]byte
	scriptIdx  int
	tokenizer  ScriptTokenizer
	dstack     stack
	astack     stack
	condStack  []condState
	numOps     int
	checker    SigChecker
}

// NewEngine constructs an evaluator for the given scriptSig and
// scriptPubKey pair, executed in that order as spec §4.C requires (no
// shared stack reset between them).
func NewEngine(scriptSig, scriptPubKey []byte, checker SigChecker) *Engine {
	e := &Engine{
		scripts: [][]byte{scriptSig, scriptPubKey},
		checker: checker,
	}
	e.tokenizer = MakeScriptTokenizer(e.scripts[0])
	return e
}

// Execute runs both scripts to completion and returns whether the final
// top-of-stack value is truthy.
func (e *Engine) Execute() (bool, error) {
	for e.scriptIdx < len(e.scripts) {
		if err := e.runScript(); err != nil {
			return false, err
		}
		e.scriptIdx++
		if e.scriptIdx < len(e.scripts) {
			e.tokenizer = MakeScriptTokenizer(e.scripts[e.scriptIdx])
		}
	}

	if len(e.condStack) != 0 {
		return false, scriptError(ErrUnterminatedIfStatement, "end of script reached in conditional execution")
	}

	if e.dstack.Depth() < 1 {
		return false, scriptError(ErrStackUnderflow, "stack empty at end of execution")
	}

	v, err := e.dstack.PeekByteArray(0)
	if err != nil {
		return false, err
	}
	return asBool(v), nil
}

// executing reports whether the current conditional branch is live.
func (e *Engine) executing() bool {
	for _, c := range e.condStack {
		if !c.branchExecuting {
			return false
		}
	}
	return true
}

func (e *Engine) runScript() error {
	for e.tokenizer.Next() {
		op := e.tokenizer.Opcode()
		data := e.tokenizer.Data()

		// Conditional-control opcodes always run, so the evaluator can
		// find matching OP_ELSE/OP_ENDIF even in a dead branch.
		isCondOp := op == OP_IF || op == OP_NOTIF || op == OP_ELSE || op == OP_ENDIF

		if !e.executing() && !isCondOp {
			continue
		}

		if isDisabled(op) {
			return scriptError(ErrDisabledOpcode, "attempt to execute disabled opcode %x", op)
		}

		// Pushes don't count against the instruction budget; everything
		// else does.
		if op > OP_16 || (op >= OP_NOP && op <= OP_CHECKMULTISIGVERIFY) {
			e.numOps++
			if e.numOps > MaxInstructions {
				return scriptError(ErrTooManyInstructions, "exceeded max instruction limit of %d", MaxInstructions)
			}
		}

		if err := e.step(op, data); err != nil {
			return err
		}
	}
	return e.tokenizer.Err()
}

func (e *Engine) step(op byte, data []byte) error {
	switch {
	case op <= OP_PUSHDATA4 && op != OP_0:
		if e.executing() {
			e.dstack.PushByteArray(data)
		}
		return nil
	case op == OP_0:
		if e.executing() {
			e.dstack.PushByteArray(nil)
		}
		return nil
	case op == OP_1NEGATE:
		if e.executing() {
			e.dstack.PushInt(scriptNum(-1))
		}
		return nil
	case isSmallInt(op):
		if e.executing() {
			e.dstack.PushInt(scriptNum(asSmallInt(op)))
		}
		return nil
	}

	switch op {
	case OP_NOP:
		// no-op

	case OP_IF, OP_NOTIF:
		cond := false
		if e.executing() {
			v, err := e.dstack.PopBool()
			if err != nil {
				return err
			}
			cond = v
			if op == OP_NOTIF {
				cond = !cond
			}
		}
		e.condStack = append(e.condStack, condState{branchExecuting: e.parentExecuting() && cond, branchTaken: cond})

	case OP_ELSE:
		if len(e.condStack) == 0 {
			return scriptError(ErrUnterminatedIfStatement, "encountered OP_ELSE with no matching OP_IF")
		}
		top := &e.condStack[len(e.condStack)-1]
		enclosing := e.executingUpTo(len(e.condStack) - 1)
		top.branchExecuting = enclosing && !top.branchTaken
		top.branchTaken = top.branchTaken || top.branchExecuting

	case OP_ENDIF:
		if len(e.condStack) == 0 {
			return scriptError(ErrUnterminatedIfStatement, "encountered OP_ENDIF with no matching OP_IF")
		}
		e.condStack = e.condStack[:len(e.condStack)-1]

	case OP_VERIFY:
		v, err := e.dstack.PopBool()
		if err != nil {
			return err
		}
		if !v {
			return scriptError(ErrVerifyFailure, "OP_VERIFY failed")
		}

	case OP_RETURN:
		return scriptError(ErrScriptReturn, "script hit OP_RETURN")

	case OP_TOALTSTACK:
		v, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		e.astack.PushByteArray(v)

	case OP_FROMALTSTACK:
		v, err := e.astack.PopByteArray()
		if err != nil {
			return err
		}
		e.dstack.PushByteArray(v)

	case OP_2DROP:
		return e.dstack.DropN(2)
	case OP_2DUP:
		return e.dstack.DupN(2)
	case OP_3DUP:
		return e.dstack.DupN(3)
	case OP_2OVER:
		return e.dstack.OverN(2)
	case OP_2ROT:
		return e.dstack.RotN(2)
	case OP_2SWAP:
		return e.dstack.SwapN(2)
	case OP_IFDUP:
		v, err := e.dstack.PeekByteArray(0)
		if err != nil {
			return err
		}
		if asBool(v) {
			e.dstack.PushByteArray(v)
		}
	case OP_DEPTH:
		e.dstack.PushInt(scriptNum(e.dstack.Depth()))
	case OP_DROP:
		_, err := e.dstack.PopByteArray()
		return err
	case OP_DUP:
		return e.dstack.DupN(1)
	case OP_NIP:
		v, err := e.dstack.PeekByteArray(0)
		if err != nil {
			return err
		}
		idx, err := e.dstack.nthFromTop(1)
		if err != nil {
			return err
		}
		e.dstack.items = append(e.dstack.items[:idx], e.dstack.items[idx+1:]...)
		e.dstack.items[len(e.dstack.items)-1] = v
	case OP_OVER:
		return e.dstack.OverN(1)
	case OP_PICK:
		n, err := e.dstack.PopInt()
		if err != nil {
			return err
		}
		return e.dstack.PickN(int(n.Int32()))
	case OP_ROLL:
		n, err := e.dstack.PopInt()
		if err != nil {
			return err
		}
		return e.dstack.RollN(int(n.Int32()))
	case OP_ROT:
		return e.dstack.RotN(1)
	case OP_SWAP:
		return e.dstack.SwapN(1)
	case OP_TUCK:
		return e.dstack.Tuck()
	case OP_SIZE:
		v, err := e.dstack.PeekByteArray(0)
		if err != nil {
			return err
		}
		e.dstack.PushInt(scriptNum(len(v)))

	case OP_EQUAL, OP_EQUALVERIFY:
		a, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		b, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		equal := bytes.Equal(a, b)
		if op == OP_EQUALVERIFY {
			if !equal {
				return scriptError(ErrVerifyFailure, "OP_EQUALVERIFY failed")
			}
			return nil
		}
		e.dstack.PushBool(equal)

	case OP_1ADD, OP_1SUB, OP_NEGATE, OP_ABS, OP_NOT, OP_0NOTEQUAL:
		n, err := e.dstack.PopInt()
		if err != nil {
			return err
		}
		var r scriptNum
		switch op {
		case OP_1ADD:
			r = n + 1
		case OP_1SUB:
			r = n - 1
		case OP_NEGATE:
			r = -n
		case OP_ABS:
			if n < 0 {
				r = -n
			} else {
				r = n
			}
		case OP_NOT:
			if n == 0 {
				r = 1
			} else {
				r = 0
			}
		case OP_0NOTEQUAL:
			if n != 0 {
				r = 1
			} else {
				r = 0
			}
		}
		e.dstack.PushInt(r)

	case OP_ADD, OP_SUB, OP_BOOLAND, OP_BOOLOR, OP_NUMEQUAL, OP_NUMEQUALVERIFY,
		OP_NUMNOTEQUAL, OP_LESSTHAN, OP_GREATERTHAN, OP_LESSTHANOREQUAL,
		OP_GREATERTHANOREQUAL, OP_MIN, OP_MAX:
		b, err := e.dstack.PopInt()
		if err != nil {
			return err
		}
		a, err := e.dstack.PopInt()
		if err != nil {
			return err
		}
		var r scriptNum
		truth := false
		isBool := false
		switch op {
		case OP_ADD:
			r = a + b
		case OP_SUB:
			r = a - b
		case OP_BOOLAND:
			truth, isBool = a != 0 && b != 0, true
		case OP_BOOLOR:
			truth, isBool = a != 0 || b != 0, true
		case OP_NUMEQUAL, OP_NUMEQUALVERIFY:
			truth, isBool = a == b, true
		case OP_NUMNOTEQUAL:
			truth, isBool = a != b, true
		case OP_LESSTHAN:
			truth, isBool = a < b, true
		case OP_GREATERTHAN:
			truth, isBool = a > b, true
		case OP_LESSTHANOREQUAL:
			truth, isBool = a <= b, true
		case OP_GREATERTHANOREQUAL:
			truth, isBool = a >= b, true
		case OP_MIN:
			if a < b {
				r = a
			} else {
				r = b
			}
		case OP_MAX:
			if a > b {
				r = a
			} else {
				r = b
			}
		}
		if isBool {
			if op == OP_NUMEQUALVERIFY {
				if !truth {
					return scriptError(ErrVerifyFailure, "OP_NUMEQUALVERIFY failed")
				}
				return nil
			}
			e.dstack.PushBool(truth)
			return nil
		}
		e.dstack.PushInt(r)

	case OP_WITHIN:
		max, err := e.dstack.PopInt()
		if err != nil {
			return err
		}
		min, err := e.dstack.PopInt()
		if err != nil {
			return err
		}
		x, err := e.dstack.PopInt()
		if err != nil {
			return err
		}
		e.dstack.PushBool(x >= min && x < max)

	case OP_RIPEMD160:
		v, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		e.dstack.PushByteArray(chainhash.Ripemd160(v))
	case OP_SHA1:
		v, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		h := sha1.Sum(v)
		e.dstack.PushByteArray(h[:])
	case OP_SHA256:
		v, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		h := sha256.Sum256(v)
		e.dstack.PushByteArray(h[:])
	case OP_HASH160:
		v, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		e.dstack.PushByteArray(chainhash.Hash160(v))
	case OP_HASH256:
		v, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		h := chainhash.DoubleHashB(v)
		e.dstack.PushByteArray(h)

	case OP_CODESEPARATOR:
		// Position tracked only for sighash construction; no stack effect.

	case OP_CHECKSIG, OP_CHECKSIGVERIFY:
		pubKey, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		sig, err := e.dstack.PopByteArray()
		if err != nil {
			return err
		}
		ok, err := e.checkSig(sig, pubKey)
		if err != nil {
			return err
		}
		if op == OP_CHECKSIGVERIFY {
			if !ok {
				return scriptError(ErrVerifyFailure, "OP_CHECKSIGVERIFY failed")
			}
			return nil
		}
		e.dstack.PushBool(ok)

	case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
		ok, err := e.execCheckMultiSig()
		if err != nil {
			return err
		}
		if op == OP_CHECKMULTISIGVERIFY {
			if !ok {
				return scriptError(ErrVerifyFailure, "OP_CHECKMULTISIGVERIFY failed")
			}
			return nil
		}
		e.dstack.PushBool(ok)

	case OP_RESERVED:
		return scriptError(ErrDisabledOpcode, "attempt to execute reserved opcode")

	default:
		return scriptError(ErrDisabledOpcode, "attempt to execute unknown opcode %x", op)
	}

	return nil
}

// parentExecuting reports whether the conditional branch enclosing the one
// about to be pushed is live (true at the top level). Safe to call only
// before the new level has been appended to condStack.
func (e *Engine) parentExecuting() bool {
	return e.executingUpTo(len(e.condStack))
}

// executingUpTo reports whether every condStack entry below index n is
// executing, ignoring entries at or past n.
func (e *Engine) executingUpTo(n int) bool {
	for _, c := range e.condStack[:n] {
		if !c.branchExecuting {
			return false
		}
	}
	return true
}

func (e *Engine) checkSig(sig, pubKey []byte) (bool, error) {
	if e.checker == nil {
		return false, scriptError(ErrInvalidIndex, "no signature checker configured")
	}
	if len(sig) == 0 {
		return false, nil
	}
	script := e.scripts[len(e.scripts)-1]
	return e.checker.CheckSig(sig, pubKey, script)
}

// execCheckMultiSig implements the m-of-n CHECKMULTISIG semantics: pops n
// pubkeys, m signatures, and a spurious extra item (the historical
// off-by-one bug), then requires each signature to match signatures to
// pubkeys in order without reuse.
func (e *Engine) execCheckMultiSig() (bool, error) {
	nRaw, err := e.dstack.PopInt()
	if err != nil {
		return false, err
	}
	n := int(nRaw.Int32())
	if n < 0 || n > 20 {
		return false, scriptError(ErrInvalidIndex, "invalid pubkey count %d", n)
	}
	pubKeys := make([][]byte, n)
	for i := n - 1; i >= 0; i-- {
		pk, err := e.dstack.PopByteArray()
		if err != nil {
			return false, err
		}
		pubKeys[i] = pk
	}

	mRaw, err := e.dstack.PopInt()
	if err != nil {
		return false, err
	}
	m := int(mRaw.Int32())
	if m < 0 || m > n {
		return false, scriptError(ErrInvalidIndex, "invalid signature count %d for %d keys", m, n)
	}
	sigs := make([][]byte, m)
	for i := m - 1; i >= 0; i-- {
		s, err := e.dstack.PopByteArray()
		if err != nil {
			return false, err
		}
		sigs[i] = s
	}

	// The historical extra stack item CHECKMULTISIG consumes and ignores.
	if _, err := e.dstack.PopByteArray(); err != nil {
		return false, err
	}

	pubKeyIdx := 0
	sigIdx := 0
	success := true
	for sigIdx < m {
		if pubKeyIdx >= n {
			success = false
			break
		}
		ok, err := e.checkSig(sigs[sigIdx], pubKeys[pubKeyIdx])
		if err != nil {
			return false, err
		}
		if ok {
			sigIdx++
		}
		pubKeyIdx++
	}

	return success, nil
}
