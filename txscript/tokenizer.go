// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// MaxScriptElementSize is the largest a single push-data element may be.
const MaxScriptElementSize = 520

// ScriptTokenizer provides a facility for easily and efficiently tokenizing
// transaction scripts without creating allocations for every opcode. It
// returns one parsed opcode/data pair per Next call, in script order.
type ScriptTokenizer struct {
	script []byte
	offset int
	op     byte
	data   []byte
	err    error
}

// MakeScriptTokenizer returns a new tokenizer for the given script.
func MakeScriptTokenizer(script []byte) ScriptTokenizer {
	return ScriptTokenizer{script: script}
}

// Done returns true when either all opcodes have been exhausted or a parse
// failure was encountered and therefore the state has an associated error.
func (t *ScriptTokenizer) Done() bool {
	return t.err != nil || t.offset >= len(t.script)
}

// Err returns any errors encountered during tokenization.
func (t *ScriptTokenizer) Err() error { return t.err }

// Opcode returns the current token's opcode.
func (t *ScriptTokenizer) Opcode() byte { return t.op }

// Data returns the current token's push data, if any.
func (t *ScriptTokenizer) Data() []byte { return t.data }

// ByteIndex returns the current offset into the full script that parsing
// will resume at on the next call to Next.
func (t *ScriptTokenizer) ByteIndex() int { return t.offset }

// Next attempts to parse the next opcode and returns whether or not it was
// successful. It will not be successful if invoked when already at the end
// of the script, a parse failure is encountered, or an associated error
// already exists due to a previous parse failure.
func (t *ScriptTokenizer) Next() bool {
	if t.Done() {
		return false
	}

	op := t.script[t.offset]

	switch {
	// Small data pushes: opcode value IS the push length (1-75 bytes).
	case op >= 0x01 && op < OP_PUSHDATA1:
		dataLen := int(op)
		if t.offset+1+dataLen > len(t.script) {
			t.err = scriptError(ErrMalformedPush, "opcode %x pushes %d bytes, but "+
				"script only has %d remaining", op, dataLen, len(t.script)-t.offset-1)
			return false
		}
		t.op = op
		t.data = t.script[t.offset+1 : t.offset+1+dataLen]
		t.offset += 1 + dataLen

	case op == OP_PUSHDATA1, op == OP_PUSHDATA2, op == OP_PUSHDATA4:
		var lenBytes int
		switch op {
		case OP_PUSHDATA1:
			lenBytes = 1
		case OP_PUSHDATA2:
			lenBytes = 2
		case OP_PUSHDATA4:
			lenBytes = 4
		}

		if t.offset+1+lenBytes > len(t.script) {
			t.err = scriptError(ErrMalformedPush, "opcode %x length prefix runs past end of script", op)
			return false
		}

		var dataLen int
		lenStart := t.offset + 1
		for i := 0; i < lenBytes; i++ {
			dataLen |= int(t.script[lenStart+i]) << uint(8*i)
		}

		if dataLen > MaxScriptElementSize {
			t.err = scriptError(ErrInvalidScriptElementSize, "element size %d exceeds max allowed size %d",
				dataLen, MaxScriptElementSize)
			return false
		}

		start := lenStart + lenBytes
		if start+dataLen > len(t.script) {
			t.err = scriptError(ErrMalformedPush, "opcode %x pushes %d bytes, but script "+
				"only has %d remaining", op, dataLen, len(t.script)-start)
			return false
		}

		t.op = op
		t.data = t.script[start : start+dataLen]
		t.offset = start + dataLen

	default:
		t.op = op
		t.data = nil
		t.offset++
	}

	if len(t.data) > MaxScriptElementSize {
		t.err = scriptError(ErrInvalidScriptElementSize, "element size %d exceeds max allowed size %d",
			len(t.data), MaxScriptElementSize)
		return false
	}

	return true
}
