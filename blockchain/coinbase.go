// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"

	"github.com/spvsuite/spvd/txscript"
	"github.com/spvsuite/spvd/wire"
)

// checkCoinbaseHeight enforces spec §4.E's coinbase-height rule: once the
// v2 gate is enforced for a link, its block's coinbase signature script
// must begin with the link's height as a minimally-encoded scriptNum push.
// This only applies to full blocks fetched for wallet-relevant transactions
// (spec §4.F); a pure header-only link has nothing to check.
func checkCoinbaseHeight(link *BlockLink, block *wire.MsgBlock) error {
	if len(block.Transactions) == 0 {
		return ruleError(ErrBadCoinbaseHeight, "link %s: block has no coinbase", link.Hash)
	}

	coinbase := block.Transactions[0]
	if len(coinbase.TxIn) == 0 {
		return ruleError(ErrBadCoinbaseHeight, "link %s: coinbase has no input", link.Hash)
	}

	sigScript := coinbase.TxIn[0].SignatureScript
	expected := txscript.EncodeScriptNum(int64(link.Height))

	serialized, err := serializedHeightPush(expected)
	if err != nil {
		return ruleError(ErrBadCoinbaseHeight, "link %s: %v", link.Hash, err)
	}

	if len(sigScript) < len(serialized) || !bytes.Equal(sigScript[:len(serialized)], serialized) {
		return ruleError(ErrBadCoinbaseHeight, "link %s: coinbase script does not begin with the serialized block height %d", link.Hash, link.Height)
	}

	return nil
}

// serializedHeightPush returns the canonical script push opcode(s) that
// place heightBytes on the stack, mirroring the minimal-push encoding rule
// txscript.ScriptBuilder.AddData applies to ordinary data pushes.
func serializedHeightPush(heightBytes []byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddData(heightBytes)
	return builder.Script()
}
