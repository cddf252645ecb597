// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

// Spend is a tagged variant representing one unspent output the wallet
// owns, per spec §3's Spend data-model entry. Its identity hash depends
// only on the prevout, so two monitors independently recognizing the same
// output converge on the same spend id.
type Spend struct {
	Category    string
	Amount      int64
	Prevout     wire.OutPoint
	Script      []byte
	AddressInfo wire.TaggedObject // class-specific, e.g. pubkey hash or redeem script
	SpentIn     map[chainhash.Hash]struct{}
}

// NewSpend constructs a Spend with an empty spent-in set.
func NewSpend(category string, amount int64, prevout wire.OutPoint, script []byte, addressInfo wire.TaggedObject) *Spend {
	return &Spend{
		Category:    category,
		Amount:      amount,
		Prevout:     prevout,
		Script:      script,
		AddressInfo: addressInfo,
		SpentIn:     make(map[chainhash.Hash]struct{}),
	}
}

// ID returns the spend's identity hash: the double-SHA-256 of its prevout,
// per spec §3 ("depends only on the prevout").
func (s *Spend) ID() chainhash.Hash {
	var buf bytes.Buffer
	buf.Write(s.Prevout.Hash[:])
	_ = wire.WriteElement(&buf, s.Prevout.Index)
	return chainhash.DoubleHashH(buf.Bytes())
}

// IsSpendable reports whether the spend can be offered to coin selection:
// known, unspent, and not already marked conflicted by the caller-supplied
// conflict checker (txdb's IsConflicted, typically).
func (s *Spend) IsSpendable(isConflicted func(chainhash.Hash) bool) bool {
	return !s.IsSpent(isConflicted)
}

// IsSpent implements spec §9's conservative default: a spend is spent iff
// at least one of its spending transactions is not conflicted.
func (s *Spend) IsSpent(isConflicted func(chainhash.Hash) bool) bool {
	for txHash := range s.SpentIn {
		if !isConflicted(txHash) {
			return true
		}
	}
	return false
}

func (s *Spend) encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarString(&buf, s.Category); err != nil {
		return nil, err
	}
	if err := wire.WriteElement(&buf, s.Amount); err != nil {
		return nil, err
	}
	if _, err := buf.Write(s.Prevout.Hash[:]); err != nil {
		return nil, err
	}
	if err := wire.WriteElement(&buf, s.Prevout.Index); err != nil {
		return nil, err
	}
	if err := wire.WriteVarBytes(&buf, s.Script); err != nil {
		return nil, err
	}
	if err := s.AddressInfo.Encode(&buf); err != nil {
		return nil, err
	}
	if err := wire.WriteVarInt(&buf, uint64(len(s.SpentIn))); err != nil {
		return nil, err
	}
	for h := range s.SpentIn {
		if _, err := buf.Write(h[:]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeSpend(data []byte) (*Spend, error) {
	r := bytes.NewReader(data)

	category, err := wire.ReadVarString(r, wire.MaxMessagePayload)
	if err != nil {
		return nil, err
	}
	var amount int64
	if err := wire.ReadElement(r, &amount); err != nil {
		return nil, err
	}
	var prevout wire.OutPoint
	if _, err := r.Read(prevout.Hash[:]); err != nil {
		return nil, err
	}
	if err := wire.ReadElement(r, &prevout.Index); err != nil {
		return nil, err
	}
	script, err := wire.ReadVarBytes(r, wire.MaxMessagePayload, "spend.script")
	if err != nil {
		return nil, err
	}
	addressInfo, err := wire.DecodeTaggedObject(r)
	if err != nil {
		return nil, err
	}
	count, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	spend := NewSpend(category, amount, prevout, script, addressInfo)
	for i := uint64(0); i < count; i++ {
		var h chainhash.Hash
		if _, err := r.Read(h[:]); err != nil {
			return nil, err
		}
		spend.SpentIn[h] = struct{}{}
	}
	return spend, nil
}
