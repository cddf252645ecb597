// Copyright (c) 2026 The spvd developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package notify is a best-effort, read-only websocket event stream: block
// added/removed and new-spend notifications for an external CLI/RPC
// front-end to consume. It accepts no commands from clients, so it does
// not reintroduce the RPC command surface spec §6 calls out of scope; a
// connected client is purely a listener.
package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/btcsuite/websocket"

	"github.com/spvsuite/spvd/chainhash"
	"github.com/spvsuite/spvd/wire"
)

const (
	clientSendBuffer = 64
	writeTimeout     = 5 * time.Second
	pongTimeout      = 60 * time.Second
	pingInterval     = (pongTimeout * 9) / 10
)

// EventType names the kind of payload carried by an Event.
type EventType string

const (
	EventBlockAdded   EventType = "block_added"
	EventBlockRemoved EventType = "block_removed"
	EventNewSpend     EventType = "new_spend"
)

// Event is one notification pushed to every connected client. Exactly one
// of the payload fields is populated, matching Type.
type Event struct {
	Type  EventType  `json:"type"`
	Block *BlockInfo `json:"block,omitempty"`
	Spend *SpendInfo `json:"spend,omitempty"`
}

// BlockInfo describes one link entering or leaving the main chain.
type BlockInfo struct {
	Hash   chainhash.Hash `json:"hash"`
	Height int32          `json:"height"`
}

// SpendInfo describes a wallet spend becoming known, regardless of
// whether it has confirmed yet.
type SpendInfo struct {
	Category string        `json:"category"`
	Amount   int64         `json:"amount"`
	Prevout  wire.OutPoint `json:"prevout"`
}

// Server is the websocket notification endpoint. The zero value is not
// usable; construct with NewServer.
type Server struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	broadcast  chan Event
	register   chan *client
	unregister chan *client
}

// NewServer constructs a Server ready to be registered as an http.Handler
// and driven by Run.
func NewServer() *Server {
	return &Server{
		upgrader:   websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Publish queues ev for best-effort delivery to every connected client. A
// slow or stalled client drops messages rather than block the publisher;
// spec §4.K's manager thread must never wait on a notification consumer.
func (s *Server) Publish(ev Event) {
	select {
	case s.broadcast <- ev:
	default:
		log.Warnf("notify: broadcast queue full, dropping %s event", ev.Type)
	}
}

// Run is the server's own goroutine: all register/unregister/broadcast
// traffic is serialized through it, and each change to or walk of the
// client set is made under s.mu.
func (s *Server) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			s.mu.Lock()
			for c := range s.clients {
				close(c.send)
			}
			s.clients = make(map[*client]struct{})
			s.mu.Unlock()
			return

		case c := <-s.register:
			s.mu.Lock()
			s.clients[c] = struct{}{}
			s.mu.Unlock()

		case c := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
			}
			s.mu.Unlock()

		case ev := <-s.broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Errorf("notify: marshal %s event: %v", ev.Type, err)
				continue
			}
			s.mu.Lock()
			for c := range s.clients {
				select {
				case c.send <- payload:
				default:
					log.Debugf("notify: client send buffer full, disconnecting")
					delete(s.clients, c)
					close(c.send)
				}
			}
			s.mu.Unlock()
		}
	}
}

// ServeHTTP upgrades the request to a websocket and registers the
// resulting connection as a listener until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debugf("notify: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}
	s.register <- c

	go c.writePump()
	c.readPump(s.unregister)
}

// client is one connected listener. It accepts no inbound commands: the
// read pump exists only to notice the connection closing, per gorilla's
// standard websocket idiom of pairing a write pump with a read pump.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) readPump(unregister chan<- *client) {
	defer func() {
		unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
