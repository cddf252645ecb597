// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"

	"github.com/spvsuite/spvd/chainhash"
)

// MaxTxInSequenceNum is the maximum sequence number an input can have and
// still signal that its lock-time is disabled along with every other
// input's (see IsFinalTx).
const MaxTxInSequenceNum uint32 = 0xffffffff

// maxScriptSize bounds an individual script's length on decode.
const maxScriptSize = 10000

// OutPoint defines a bitcoin data type that is used to track previous
// transaction outputs.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new bitcoin transaction outpoint.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

func (o OutPoint) encode(w io.Writer) error {
	if err := writeElement(w, o.Hash); err != nil {
		return err
	}
	return writeElement(w, o.Index)
}

func (o *OutPoint) decode(r io.Reader) error {
	if err := readElement(r, &o.Hash); err != nil {
		return err
	}
	return readElement(r, &o.Index)
}

// TxIn defines a bitcoin transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// NewTxIn returns a new transaction input with the provided previous
// outpoint and signature script.
func NewTxIn(prevOut *OutPoint, signatureScript []byte) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		SignatureScript:  signatureScript,
		Sequence:         MaxTxInSequenceNum,
	}
}

func (t *TxIn) encode(w io.Writer) error {
	if err := t.PreviousOutPoint.encode(w); err != nil {
		return err
	}
	if err := WriteVarBytes(w, t.SignatureScript); err != nil {
		return err
	}
	return writeElement(w, t.Sequence)
}

func (t *TxIn) decode(r io.Reader) error {
	if err := t.PreviousOutPoint.decode(r); err != nil {
		return err
	}
	script, err := ReadVarBytes(r, maxScriptSize, "tx input script")
	if err != nil {
		return err
	}
	t.SignatureScript = script
	return readElement(r, &t.Sequence)
}

// SerializeSize returns the number of bytes it would take to serialize the
// input.
func (t *TxIn) SerializeSize() int {
	return 32 + 4 + VarIntSerializeSize(uint64(len(t.SignatureScript))) + len(t.SignatureScript) + 4
}

// TxOut defines a bitcoin transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// NewTxOut returns a new transaction output with the provided amount and
// output script.
func NewTxOut(value int64, pkScript []byte) *TxOut {
	return &TxOut{Value: value, PkScript: pkScript}
}

func (t *TxOut) encode(w io.Writer) error {
	if err := writeElement(w, t.Value); err != nil {
		return err
	}
	return WriteVarBytes(w, t.PkScript)
}

func (t *TxOut) decode(r io.Reader) error {
	if err := readElement(r, &t.Value); err != nil {
		return err
	}
	script, err := ReadVarBytes(r, maxScriptSize, "tx output script")
	if err != nil {
		return err
	}
	t.PkScript = script
	return nil
}

// SerializeSize returns the number of bytes it would take to serialize the
// output.
func (t *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(t.PkScript))) + len(t.PkScript)
}

// MsgTx implements the Message interface and represents a bitcoin-like
// transaction. TxHash identifies it; is_final is exposed as IsFinalTx.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns a new bitcoin tx message with the given version.
func NewMsgTx(version int32) *MsgTx {
	return &MsgTx{Version: version}
}

// Command returns the protocol command string.
func (m *MsgTx) Command() string { return CmdTx }

// AddTxIn adds a transaction input to the message.
func (m *MsgTx) AddTxIn(ti *TxIn) { m.TxIn = append(m.TxIn, ti) }

// AddTxOut adds a transaction output to the message.
func (m *MsgTx) AddTxOut(to *TxOut) { m.TxOut = append(m.TxOut, to) }

// Encode serializes m to w.
func (m *MsgTx) Encode(w io.Writer) error {
	if err := writeElement(w, m.Version); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(m.TxIn))); err != nil {
		return err
	}
	for _, ti := range m.TxIn {
		if err := ti.encode(w); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(m.TxOut))); err != nil {
		return err
	}
	for _, to := range m.TxOut {
		if err := to.encode(w); err != nil {
			return err
		}
	}
	return writeElement(w, m.LockTime)
}

// Decode deserializes r into m.
func (m *MsgTx) Decode(r io.Reader) error {
	if err := readElement(r, &m.Version); err != nil {
		return err
	}

	inCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	m.TxIn = make([]*TxIn, inCount)
	for i := uint64(0); i < inCount; i++ {
		ti := &TxIn{}
		if err := ti.decode(r); err != nil {
			return err
		}
		m.TxIn[i] = ti
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	m.TxOut = make([]*TxOut, outCount)
	for i := uint64(0); i < outCount; i++ {
		to := &TxOut{}
		if err := to.decode(r); err != nil {
			return err
		}
		m.TxOut[i] = to
	}

	return readElement(r, &m.LockTime)
}

// Serialize is an alias for Encode kept for callers that hash or persist
// raw transaction bytes rather than frame them as a message.
func (m *MsgTx) Serialize(w io.Writer) error { return m.Encode(w) }

// TxHash computes the double-SHA-256 hash that canonically identifies the
// transaction. Mutating any field changes the hash.
func (m *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	_ = m.Serialize(&buf)
	return chainhash.DoubleHashH(buf.Bytes())
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction.
func (m *MsgTx) SerializeSize() int {
	n := 4 + 4 // version + locktime
	n += VarIntSerializeSize(uint64(len(m.TxIn)))
	for _, ti := range m.TxIn {
		n += ti.SerializeSize()
	}
	n += VarIntSerializeSize(uint64(len(m.TxOut)))
	for _, to := range m.TxOut {
		n += to.SerializeSize()
	}
	return n
}

// Copy returns a deep copy of the transaction, suitable for mutating in
// place while building a signature hash preimage without disturbing the
// original.
func (m *MsgTx) Copy() *MsgTx {
	txCopy := &MsgTx{
		Version:  m.Version,
		TxIn:     make([]*TxIn, len(m.TxIn)),
		TxOut:    make([]*TxOut, len(m.TxOut)),
		LockTime: m.LockTime,
	}
	for i, ti := range m.TxIn {
		tiCopy := &TxIn{
			PreviousOutPoint: ti.PreviousOutPoint,
			Sequence:         ti.Sequence,
		}
		if ti.SignatureScript != nil {
			tiCopy.SignatureScript = append([]byte(nil), ti.SignatureScript...)
		}
		txCopy.TxIn[i] = tiCopy
	}
	for i, to := range m.TxOut {
		toCopy := &TxOut{Value: to.Value}
		if to.PkScript != nil {
			toCopy.PkScript = append([]byte(nil), to.PkScript...)
		}
		txCopy.TxOut[i] = toCopy
	}
	return txCopy
}

// IsCoinBaseTx determines whether the transaction is a coinbase transaction:
// exactly one input whose previous outpoint hash is all-zero and index is
// 0xffffffff.
func IsCoinBaseTx(m *MsgTx) bool {
	if len(m.TxIn) != 1 {
		return false
	}
	prevOut := &m.TxIn[0].PreviousOutPoint
	return prevOut.Index == 0xffffffff && prevOut.Hash == chainhash.Hash{}
}

// lockTimeThreshold is the number below which a lock-time is interpreted as
// a block height and at or above which it is interpreted as a Unix
// timestamp.
const lockTimeThreshold = 500000000

// IsFinalTx returns whether the transaction is finalized at the given block
// height and block time: lock-time zero, lock-time below the applicable
// threshold (height or time), or every input carries the max sequence
// number.
func IsFinalTx(m *MsgTx, blockHeight int32, blockTime int64) bool {
	if m.LockTime == 0 {
		return true
	}

	lockTime := int64(m.LockTime)
	var compare int64
	if lockTime < lockTimeThreshold {
		compare = int64(blockHeight)
	} else {
		compare = blockTime
	}
	if lockTime < compare {
		return true
	}

	for _, ti := range m.TxIn {
		if ti.Sequence != MaxTxInSequenceNum {
			return false
		}
	}
	return true
}
