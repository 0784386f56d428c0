package wstransport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeConn is a minimal in-memory wsConn for tests that don't need a real
// network round-trip.
type fakeConn struct {
	mu            sync.Mutex
	written       [][]byte
	toRead        chan []byte
	closed        bool
	failNextWrite bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{toRead: make(chan []byte, 16)}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("fakeConn: closed")
	}
	if f.failNextWrite {
		f.failNextWrite = false
		return errors.New("fakeConn: simulated write failure")
	}
	cp := append([]byte(nil), data...)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-f.toRead
	if !ok {
		return 0, nil, errors.New("fakeConn: closed")
	}
	return 2, msg, nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func baseWSConfig() Config {
	return Config{
		URL:                  "ws://example.invalid/",
		AutoReconnect:        true,
		ReconnectDelay:       5 * time.Millisecond,
		MaxReconnectAttempts: 3,
	}
}

func TestConnectTransitionsToConnectedOnSuccess(t *testing.T) {
	c, err := New(baseWSConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fc := newFakeConn()
	c.dial = func(ctx context.Context, url string) (wsConn, error) { return fc, nil }

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("State() = %v, want Connected", c.State())
	}
}

func TestConnectFailureLeavesDisconnected(t *testing.T) {
	c, err := New(baseWSConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.dial = func(ctx context.Context, url string) (wsConn, error) { return nil, errors.New("boom") }

	if err := c.Connect(context.Background()); err == nil {
		t.Fatalf("expected Connect to fail")
	}
	if c.State() != Disconnected {
		t.Fatalf("State() = %v, want Disconnected", c.State())
	}
}

func TestReconnectBackoffTimingAndOutcome(t *testing.T) {
	cfg := baseWSConfig()
	cfg.ReconnectDelay = 20 * time.Millisecond
	cfg.MaxReconnectAttempts = 3

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var mu sync.Mutex
	var gaps []time.Duration
	last := time.Now()
	attempts := 0

	c.dial = func(ctx context.Context, url string) (wsConn, error) {
		mu.Lock()
		now := time.Now()
		gaps = append(gaps, now.Sub(last))
		last = now
		attempts++
		n := attempts
		mu.Unlock()

		if n < 3 {
			return nil, errors.New("simulated failure")
		}
		return newFakeConn(), nil
	}

	start := time.Now()
	if err := c.reconnect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("State() = %v, want Connected", c.State())
	}

	// attempt 1 preceded by ~delay, attempt 2 by ~2*delay.
	if len(gaps) != 3 {
		t.Fatalf("expected 3 dial attempts, got %d", len(gaps))
	}
	if gaps[0] < cfg.ReconnectDelay {
		t.Fatalf("gap before attempt 1 = %v, want >= %v", gaps[0], cfg.ReconnectDelay)
	}
	if gaps[1] < 2*cfg.ReconnectDelay {
		t.Fatalf("gap before attempt 2 = %v, want >= %v", gaps[1], 2*cfg.ReconnectDelay)
	}

	total := time.Since(start)
	if total < 3*cfg.ReconnectDelay {
		t.Fatalf("reconnect returned too quickly: %v", total)
	}
}

func TestReconnectExhaustionTransitionsToClosed(t *testing.T) {
	cfg := baseWSConfig()
	cfg.ReconnectDelay = time.Millisecond
	cfg.MaxReconnectAttempts = 2

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.dial = func(ctx context.Context, url string) (wsConn, error) {
		return nil, errors.New("always fails")
	}

	if err := c.reconnect(context.Background()); err != ErrReconnectExhausted {
		t.Fatalf("reconnect error = %v, want ErrReconnectExhausted", err)
	}
	if c.State() != Closed {
		t.Fatalf("State() = %v, want Closed", c.State())
	}

	if c.Send(context.Background(), []byte("x")) {
		t.Fatalf("Send on a Closed client should return false")
	}
}

func TestSendReceiveRoundtripWithObfuscationAndShaping(t *testing.T) {
	cfg := baseWSConfig()
	cfg.ObfuscationID = "xor"
	cfg.ObfuscationKey = "k"
	cfg.Profile = "gaming"

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fc := newFakeConn()
	c.dial = func(ctx context.Context, url string) (wsConn, error) { return fc, nil }
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if !c.Send(context.Background(), []byte("hello ws")) {
		t.Fatalf("Send returned false")
	}
	if len(fc.written) != 1 {
		t.Fatalf("expected exactly one WebSocket message written, got %d", len(fc.written))
	}

	fc.toRead <- fc.written[0]
	got, err := c.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(got) != "hello ws" {
		t.Fatalf("Receive() = %q, want %q", got, "hello ws")
	}
}

func TestSendReconnectsOnMidFlightClose(t *testing.T) {
	cfg := baseWSConfig()
	cfg.ReconnectDelay = time.Millisecond

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first := newFakeConn()
	first.failNextWrite = true
	second := newFakeConn()

	dialCount := 0
	c.dial = func(ctx context.Context, url string) (wsConn, error) {
		dialCount++
		if dialCount == 1 {
			return first, nil
		}
		return second, nil
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if !c.Send(context.Background(), []byte("retry me")) {
		t.Fatalf("Send should succeed after reconnecting past the failed write")
	}
	if len(second.written) != 1 {
		t.Fatalf("expected the retried write to land on the reconnected conn")
	}
}
