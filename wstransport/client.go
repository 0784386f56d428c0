/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See state.go for the license text.
 */

package wstransport

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	utls "gitlab.com/yawning/utls.git"

	"github.com/x0tta6bl4/shapedmesh/internal/drbg"
	"github.com/x0tta6bl4/shapedmesh/obfuscation"
	"github.com/x0tta6bl4/shapedmesh/shaping"
)

// wsConn is the subset of *websocket.Conn the client depends on, so tests
// can substitute a fake in place of a real network dial.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// dialFunc opens a new wsConn to url. The default implementation dials a
// real WebSocket, optionally through a utls-fingerprinted TLS layer when
// the faketls obfuscation identifier is configured.
type dialFunc func(ctx context.Context, url string) (wsConn, error)

// Config is the immutable configuration a Client is constructed from.
type Config struct {
	URL string

	Profile        string
	ObfuscationID  string
	ObfuscationKey string

	AutoReconnect        bool
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// ErrReconnectExhausted is returned once the client has given up
// reconnecting after MaxReconnectAttempts consecutive failures; the
// client transitions to Closed and stays there.
var ErrReconnectExhausted = errors.New("wstransport: reconnect attempts exhausted")

// Stats is the read-only snapshot returned by Client.GetStats.
type Stats struct {
	State           State
	PacketsSent     uint64
	PacketsReceived uint64
	ReconnectCount  int
}

// Client is a stream-oriented transport carrying application messages over
// a single WebSocket connection, reusing the obfuscation and shaping
// contracts from the UDP side. It is safe for concurrent Send/Receive/
// Close calls.
type Client struct {
	cfg Config
	dial dialFunc

	obf    obfuscation.Obfuscator
	shaper shaping.Shaper

	mu             sync.Mutex
	state          State
	conn           wsConn
	reconnectCount int
	sent, received uint64
}

// New constructs a Client from cfg.
func New(cfg Config) (*Client, error) {
	obf, err := obfuscation.New(cfg.ObfuscationID, cfg.ObfuscationKey, false)
	if err != nil {
		return nil, err
	}

	seed, err := drbg.NewSeed()
	if err != nil {
		return nil, err
	}
	shaper, err := shaping.New(shaping.Profile(cfg.Profile), seed)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		obf:    obf,
		shaper: shaper,
		state:  Disconnected,
	}
	c.dial = c.defaultDial
	return c, nil
}

func (c *Client) defaultDial(ctx context.Context, url string) (wsConn, error) {
	dialer := websocket.DefaultDialer
	if c.cfg.ObfuscationID == obfuscation.FakeTLS {
		d := *websocket.DefaultDialer
		d.NetDialTLSContext = fingerprintedDialTLS(utls.HelloChrome_Auto)
		dialer = &d
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// State returns the client's current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect performs the initial Disconnected -> Connecting -> Connected
// transition (or back to Disconnected on failure).
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.state = Connecting
	c.mu.Unlock()

	conn, err := c.dial(ctx, c.cfg.URL)
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.state = Connected
	c.mu.Unlock()
	return nil
}

// reconnect drives Disconnected -> Reconnecting -> Connected, sleeping
// reconnectDelay*2^(attempt-1) before the attempt'th dial (attempt >= 1).
// After MaxReconnectAttempts consecutive failures it transitions to Closed
// and returns ErrReconnectExhausted.
func (c *Client) reconnect(ctx context.Context) error {
	c.mu.Lock()
	c.state = Reconnecting
	c.mu.Unlock()

	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		delay := c.cfg.ReconnectDelay * time.Duration(1<<uint(attempt-1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		conn, err := c.dial(ctx, c.cfg.URL)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.state = Connected
			c.reconnectCount++
			c.mu.Unlock()
			return nil
		}
		log.Printf("[WARN] wstransport: reconnect attempt %d failed: %v", attempt, err)
	}

	c.mu.Lock()
	c.state = Closed
	c.mu.Unlock()
	return ErrReconnectExhausted
}

// Send obfuscates and shapes data, then writes it as a single WebSocket
// message. If the client isn't Connected, it attempts a reconnect first
// (when AutoReconnect is set); Send returns false if that fails, or if
// AutoReconnect is off and the client is not already connected. A Closed
// client is never reconnected; Send on it returns false.
func (c *Client) Send(ctx context.Context, data []byte) bool {
	state := c.State()
	if state == Closed {
		return false
	}
	if state != Connected {
		if !c.cfg.AutoReconnect {
			return false
		}
		if err := c.reconnect(ctx); err != nil {
			return false
		}
	}

	wire := data
	if c.obf != nil {
		wire = c.obf.Obfuscate(wire)
	}
	if c.shaper != nil {
		wire = c.shaper.ShapePacket(wire)
		if delay := c.shaper.GetSendDelay(); delay > 0 {
			time.Sleep(delay)
		}
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return false
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, wire); err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()

		// A mid-flight close reconnects and retries once.
		if !c.cfg.AutoReconnect {
			return false
		}
		if err := c.reconnect(ctx); err != nil {
			return false
		}
		c.mu.Lock()
		conn = c.conn
		c.mu.Unlock()
		if conn == nil || conn.WriteMessage(websocket.BinaryMessage, wire) != nil {
			return false
		}
	}

	c.mu.Lock()
	c.sent++
	c.mu.Unlock()
	return true
}

// Receive blocks for the next incoming WebSocket message, reverses the
// shaping and obfuscation transforms, and returns the original bytes.
func (c *Client) Receive() ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil, errors.New("wstransport: not connected")
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		c.mu.Lock()
		c.state = Disconnected
		c.mu.Unlock()
		return nil, err
	}

	payload := raw
	if c.shaper != nil {
		if unshaped, err := c.shaper.UnshapePacket(payload); err == nil {
			payload = unshaped
		}
	}
	if c.obf != nil {
		payload = c.obf.Deobfuscate(payload)
	}

	c.mu.Lock()
	c.received++
	c.mu.Unlock()
	return payload, nil
}

// Close transitions the client to the terminal Closed state and closes the
// underlying connection, if any.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = Closed
}

// GetStats returns a read-only statistics snapshot.
func (c *Client) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		State:           c.state,
		PacketsSent:     c.sent,
		PacketsReceived: c.received,
		ReconnectCount:  c.reconnectCount,
	}
}

/* vim :set ts=4 sw=4 sts=4 noet : */
