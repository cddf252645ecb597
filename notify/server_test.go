// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package notify

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/websocket"
	"github.com/stretchr/testify/require"

	"github.com/spvsuite/spvd/chainhash"
)

func startTestServer(t *testing.T) (*Server, string, chan struct{}) {
	t.Helper()
	s := NewServer()
	stop := make(chan struct{})
	go s.Run(stop)

	httpSrv := httptest.NewServer(s)
	t.Cleanup(httpSrv.Close)

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http")
	return s, url, stop
}

func TestServerDeliversBlockAddedEvent(t *testing.T) {
	s, url, stop := startTestServer(t)
	defer close(stop)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a moment to register the client before publishing;
	// registration happens asynchronously through Server.register.
	time.Sleep(50 * time.Millisecond)

	var hash chainhash.Hash
	hash[0] = 7
	s.Publish(Event{Type: EventBlockAdded, Block: &BlockInfo{Hash: hash, Height: 100}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(payload, &got))
	require.Equal(t, EventBlockAdded, got.Type)
	require.Equal(t, int32(100), got.Block.Height)
	require.Equal(t, hash, got.Block.Hash)
}

func TestServerDropsSlowClientRatherThanBlock(t *testing.T) {
	s, url, stop := startTestServer(t)
	defer close(stop)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	// Flood past the client's send buffer without reading; Publish must
	// never block regardless of how far behind the client falls.
	for i := 0; i < clientSendBuffer*4; i++ {
		s.Publish(Event{Type: EventNewSpend, Spend: &SpendInfo{Category: "test", Amount: int64(i)}})
	}
}
