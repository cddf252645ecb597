// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"errors"
	"math/rand"

	"github.com/spvsuite/spvd/chaincfg"
	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/txscript"
	"github.com/spvsuite/spvd/wire"
)

// ErrTransactionTooExpensive is returned by Builder.Finish when the
// recommended fee exceeds the coin profile's MaxFeeRate, per spec §4.I
// step 4.
var ErrTransactionTooExpensive = errors.New("transaction too expensive")

// InputCreator returns the final signed TxIn for a given transaction and
// input index, per spec §4.I step 9's "closure/capability" description.
type InputCreator func(tx *wire.MsgTx, inputIdx int) (*wire.TxIn, error)

// OutputProducer appends zero or more outputs to tx, returning the total
// value it added.
type OutputProducer func(tx *wire.MsgTx) (int64, error)

// ChangeProducer appends a single zero-amount change output to tx and
// returns a setter the builder calls once the final change amount is
// known.
type ChangeProducer func(tx *wire.MsgTx) (setAmount func(int64), err error)

type processor struct {
	isChange bool
	output   OutputProducer
	change   ChangeProducer
}

// pendingInput pairs a spend with the capability that signs it.
type pendingInput struct {
	spend   *Spend
	creator InputCreator
}

// Builder assembles a transaction per spec §4.I: a list of output/change
// processors, an explicitly-included input set, and iterative fee-aware
// coin selection from the wallet.
type Builder struct {
	wallet     *Wallet
	params     *chaincfg.Params
	processors []processor
	included   []pendingInput
	categories map[string]bool

	isConflicted func(chainhash.Hash) bool
}

// NewBuilder creates a Builder drawing candidate spends from w, restricted
// to the given spendable categories.
func NewBuilder(w *Wallet, params *chaincfg.Params, categories []string, isConflicted func(chainhash.Hash) bool) *Builder {
	cats := make(map[string]bool, len(categories))
	for _, c := range categories {
		cats[c] = true
	}
	return &Builder{wallet: w, params: params, categories: cats, isConflicted: isConflicted}
}

// AddOutputProcessor registers a processor that appends fixed outputs.
func (b *Builder) AddOutputProcessor(p OutputProducer) {
	b.processors = append(b.processors, processor{output: p})
}

// AddChangeProcessor registers a processor that appends one change output.
func (b *Builder) AddChangeProcessor(p ChangeProducer) {
	b.processors = append(b.processors, processor{isChange: true, change: p})
}

// IncludeSpend forces spend into the input set regardless of coin
// selection, paired with the capability that will sign it.
func (b *Builder) IncludeSpend(spend *Spend, creator InputCreator) {
	b.included = append(b.included, pendingInput{spend: spend, creator: creator})
}

// Finish executes spec §4.I's algorithm and returns the finished
// transaction. Inputs added with IncludeSpend are signed by their creator;
// inputs added by coin selection carry no creator and are left with an
// empty signature script.
func (b *Builder) Finish(shuffleProcessors, shuffleInputs, shuffleOutputs bool) (*wire.MsgTx, error) {
	processors := b.processors
	if shuffleProcessors {
		processors = append([]processor(nil), processors...)
		rand.Shuffle(len(processors), func(i, j int) { processors[i], processors[j] = processors[j], processors[i] })
	}

	tx := wire.NewMsgTx(1)

	var totalOutput int64
	var changeSetters []func(int64)
	for _, p := range processors {
		if p.isChange {
			setAmount, err := p.change(tx)
			if err != nil {
				return nil, err
			}
			changeSetters = append(changeSetters, setAmount)
			continue
		}
		added, err := p.output(tx)
		if err != nil {
			return nil, err
		}
		totalOutput += added
	}

	inputs := append([]pendingInput(nil), b.included...)
	exclude := make(map[chainhash.Hash]struct{}, len(inputs))
	for _, in := range inputs {
		exclude[in.spend.Prevout.Hash] = struct{}{}
	}

	var totalInput int64
	for _, in := range inputs {
		totalInput += in.spend.Amount
	}

	for {
		size := estimateSize(len(inputs), tx)
		recommendedFee := recommendedFee(size, b.params)
		if hasOutputUnderDust(tx, b.params.DustLimit) && recommendedFee < b.params.RelayFee {
			recommendedFee = b.params.RelayFee
		}
		if recommendedFee > b.params.MaxFeeRate {
			return nil, ErrTransactionTooExpensive
		}

		need := totalOutput + recommendedFee
		switch {
		case totalInput == need:
			dropChangeOutputs(tx, len(changeSetters))
			return b.signAll(tx, inputs, shuffleInputs, shuffleOutputs)
		case totalInput > need:
			// Surplus goes to the first change output; any further
			// change processors keep their zero amount.
			surplus := totalInput - need
			if len(changeSetters) > 0 {
				changeSetters[0](surplus)
			}
			return b.signAll(tx, inputs, shuffleInputs, shuffleOutputs)
		default:
			shortfall := need - totalInput
			more, err := SelectSpends(b.wallet.SpendableSpends(), b.categories, shortfall, b.params.DustLimit, exclude, b.isConflicted)
			if err != nil {
				return nil, err
			}
			if len(more) == 0 {
				return nil, ErrInsufficientSpends
			}
			for _, s := range more {
				exclude[s.Prevout.Hash] = struct{}{}
				totalInput += s.Amount
				inputs = append(inputs, pendingInput{spend: s})
			}
		}
	}
}

func dropChangeOutputs(tx *wire.MsgTx, n int) {
	if n == 0 || len(tx.TxOut) < n {
		return
	}
	tx.TxOut = tx.TxOut[:len(tx.TxOut)-n]
}

func hasOutputUnderDust(tx *wire.MsgTx, dustLimit int64) bool {
	for _, out := range tx.TxOut {
		if out.Value < dustLimit {
			return true
		}
	}
	return false
}

// recommendedFee implements spec §4.I step 4's fee formula.
func recommendedFee(size int, params *chaincfg.Params) int64 {
	units := int64(size+999) / 1000
	byMinFee := units * params.MinFeeRate
	byRelayFee := units * params.RelayFee
	if byMinFee > byRelayFee {
		return byMinFee
	}
	return byRelayFee
}

// estimateSize approximates the serialized transaction size including the
// inputs not yet attached, using a fixed per-input script-sig estimate
// typical of a single P2PKH signature push.
func estimateSize(inputCount int, tx *wire.MsgTx) int {
	const estimatedSigScriptLen = 1 + 72 + 1 + 33 // push-len + DER sig + push-len + pubkey
	base := 8 // version + locktime
	base += wire.VarIntSerializeSize(uint64(inputCount))
	base += inputCount * (32 + 4 + estimatedSigScriptLen + 4)
	base += wire.VarIntSerializeSize(uint64(len(tx.TxOut)))
	for _, out := range tx.TxOut {
		base += 8 + wire.VarIntSerializeSize(uint64(len(out.PkScript))) + len(out.PkScript)
	}
	return base
}

// signAll attaches every pending input to tx, optionally shuffles the
// input and output order first, then invokes each input's creator
// capability to produce its final signed form, per spec §4.I step 9.
func (b *Builder) signAll(tx *wire.MsgTx, inputs []pendingInput, shuffleInputs, shuffleOutputs bool) (*wire.MsgTx, error) {
	if shuffleOutputs {
		rand.Shuffle(len(tx.TxOut), func(i, j int) { tx.TxOut[i], tx.TxOut[j] = tx.TxOut[j], tx.TxOut[i] })
	}
	if shuffleInputs {
		rand.Shuffle(len(inputs), func(i, j int) { inputs[i], inputs[j] = inputs[j], inputs[i] })
	}

	for _, in := range inputs {
		tx.AddTxIn(wire.NewTxIn(&in.spend.Prevout, nil))
	}

	for i, in := range inputs {
		if in.creator == nil {
			continue
		}
		signed, err := in.creator(tx, i)
		if err != nil {
			return nil, err
		}
		tx.TxIn[i] = signed
	}
	return tx, nil
}

// DefaultInputCreator returns an InputCreator that signs a standard P2PKH
// input with priv for the given hashType, the common case payment
// monitors set up for their recognized spends.
func DefaultInputCreator(priv SignerKey, prevScript []byte, amount int64, hashType txscript.SigHashType, compressed bool) InputCreator {
	return func(tx *wire.MsgTx, inputIdx int) (*wire.TxIn, error) {
		sigHash, err := txscript.CalcSignatureHash(prevScript, hashType, tx, inputIdx)
		if err != nil {
			return nil, err
		}
		sig, err := priv.SignHash(sigHash)
		if err != nil {
			return nil, err
		}
		sig = append(sig, byte(hashType))

		builder := txscript.NewScriptBuilder()
		builder.AddData(sig)
		builder.AddData(priv.PubKeyBytes(compressed))
		sigScript, err := builder.Script()
		if err != nil {
			return nil, err
		}

		in := tx.TxIn[inputIdx]
		return wire.NewTxIn(&in.PreviousOutPoint, sigScript), nil
	}
}

// SignerKey abstracts the ECDSA capability used when signing inputs,
// matching spec §1's "abstract capability" framing for the curve
// primitive.
type SignerKey interface {
	SignHash(hash []byte) (derSignature []byte, err error)
	PubKeyBytes(compressed bool) []byte
}
