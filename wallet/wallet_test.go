// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

type recordingMonitor struct {
	items  int
	spends int
}

func (m *recordingMonitor) OnNewItem(CollectionKind, chainhash.Hash, wire.TaggedObject) { m.items++ }
func (m *recordingMonitor) OnNewSpend(*Spend)                                            { m.spends++ }
func (m *recordingMonitor) OnTx(*wire.MsgTx)                                              {}

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := Open(t.TempDir(), noneConflicted)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestAddItemRejectsDuplicate(t *testing.T) {
	w := newTestWallet(t)
	var id chainhash.Hash
	id[0] = 1

	require.NoError(t, w.AddItem(CollectionPrivateKeys, id, wire.NewTaggedInt(1)))
	err := w.AddItem(CollectionPrivateKeys, id, wire.NewTaggedInt(2))
	require.ErrorIs(t, err, ErrDuplicateWalletItem)
	require.Equal(t, 1, w.CollectionLen(CollectionPrivateKeys))
}

func TestMonitorDispatchOnAddAndRegister(t *testing.T) {
	w := newTestWallet(t)
	var id chainhash.Hash
	id[0] = 1
	require.NoError(t, w.AddItem(CollectionPrivateKeys, id, wire.NewTaggedInt(1)))

	spend := makeSpend(t, 0, 500)
	require.NoError(t, w.AddSpend(spend))

	m := &recordingMonitor{}
	w.RegisterMonitor(m)
	require.Equal(t, 1, m.items)
	require.Equal(t, 1, m.spends)

	// Subsequent mutations dispatch live.
	var id2 chainhash.Hash
	id2[0] = 2
	require.NoError(t, w.AddItem(CollectionPrivateKeys, id2, wire.NewTaggedInt(2)))
	require.Equal(t, 2, m.items)
}

func TestAddSpendIsIdempotentAndUpdatesBalance(t *testing.T) {
	w := newTestWallet(t)
	spend := makeSpend(t, 0, 500)

	require.NoError(t, w.AddSpend(spend))
	require.NoError(t, w.AddSpend(spend))
	require.Equal(t, int64(500), w.Balance("default"))
	require.Len(t, w.Spends(), 1)
}

func TestUpdateSpendMarksBalanceSpentWhenConfirmedSpendingTxExists(t *testing.T) {
	w := newTestWallet(t)
	spend := makeSpend(t, 0, 500)
	require.NoError(t, w.AddSpend(spend))
	require.Equal(t, int64(500), w.Balance("default"))

	updated := makeSpend(t, 0, 500)
	var spendingTx chainhash.Hash
	spendingTx[0] = 0xaa
	updated.SpentIn[spendingTx] = struct{}{}

	require.NoError(t, w.UpdateSpend(updated))
	require.Equal(t, int64(0), w.Balance("default"))
	require.Empty(t, w.SpendableSpends())
}
