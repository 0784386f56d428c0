/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See socket.go for the license text.
 */

package udptransport

import (
	"log"
	"net"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/x0tta6bl4/shapedmesh/internal/drbg"
	"github.com/x0tta6bl4/shapedmesh/obfuscation"
	"github.com/x0tta6bl4/shapedmesh/packet"
	"github.com/x0tta6bl4/shapedmesh/peer"
	"github.com/x0tta6bl4/shapedmesh/shaping"
)

// DataHandler receives a delivered payload and the address it arrived from.
type DataHandler func(payload []byte, from peer.Addr)

// PeerTimeoutHandler is invoked once per evicted peer address.
type PeerTimeoutHandler func(addr peer.Addr)

// Transport owns a UDP socket, a peer table, and the pending-ACK map for
// one local endpoint. It is safe to call SendTo/SendPing concurrently from
// multiple goroutines; the receive and maintenance loops run on their own
// goroutines started by Start.
type Transport struct {
	cfg Config

	obf    obfuscation.Obfuscator
	shaper shaping.Shaper

	sock      packetSocket
	startedAt time.Time

	peers       *peer.Table
	pendingAcks *pendingAckTable
	sequence    uint32 // accessed only via atomic ops
	sizeStats   packetSizeTracker

	handlerMu      sync.Mutex
	dataHandler    DataHandler
	timeoutHandler PeerTimeoutHandler

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New constructs a Transport from cfg. The obfuscator and shaper are
// resolved from cfg's identifiers; an unrecognized identifier disables
// that layer with a logged warning rather than failing construction.
func New(cfg Config) (*Transport, error) {
	obf, err := obfuscation.New(cfg.ObfuscationID, cfg.ObfuscationKey, true)
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

	return &Transport{
		cfg:         cfg,
		obf:         obf,
		shaper:      shaper,
		peers:       peer.NewTable(),
		pendingAcks: newPendingAckTable(),
	}, nil
}

// Start binds the configured socket and spawns the receive and maintenance
// loops. It is an error to call Start twice without an intervening Stop.
// If a packetSocket has already been assigned to the sock field, that
// socket is used instead of binding a real one, the way the loopback
// socket tests substitute a mockable transport in place of an OS socket.
func (t *Transport) Start() error {
	if t.sock == nil {
		sock, err := bindUDPSocket(t.cfg.Host, t.cfg.Port)
		if err != nil {
			return err
		}
		t.sock = sock
	}

	t.startedAt = time.Now()
	t.stopCh = make(chan struct{})
	t.running.Store(true)

	t.wg.Add(2)
	go t.receiveLoop()
	go t.maintenanceLoop()

	return nil
}

// Stop marks the transport not-running, waits for both background loops to
// exit, then closes the socket. Stop is idempotent.
func (t *Transport) Stop() {
	if !t.running.CompareAndSwap(true, false) {
		return
	}
	close(t.stopCh)
	t.wg.Wait()
	if t.sock != nil {
		t.sock.Close()
	}
}

// OnReceive registers the handler invoked for every delivered DATA
// payload. A later call replaces an earlier one.
func (t *Transport) OnReceive(h DataHandler) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.dataHandler = h
}

// OnPeerTimeout registers the handler invoked once per peer evicted by the
// maintenance loop. A later call replaces an earlier one.
func (t *Transport) OnPeerTimeout(h PeerTimeoutHandler) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.timeoutHandler = h
}

func (t *Transport) nextSequence() uint32 {
	return atomic.AddUint32(&t.sequence, 1)
}

func addrOf(a peer.Addr) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(a.Host), Port: a.Port}
}

func peerAddrOf(a net.Addr) peer.Addr {
	udp, ok := a.(*net.UDPAddr)
	if !ok {
		host, portStr, err := net.SplitHostPort(a.String())
		if err != nil {
			return peer.Addr{Host: a.String()}
		}
		port, _ := strconv.Atoi(portStr)
		return peer.Addr{Host: host, Port: port}
	}
	return peer.Addr{Host: udp.IP.String(), Port: udp.Port}
}

// SendTo builds and transmits a DATA packet carrying payload. It returns
// false without side effects if the transport isn't running; any socket
// error is logged and also surfaced as false, never propagated.
func (t *Transport) SendTo(payload []byte, addr peer.Addr, reliable bool) bool {
	if !t.running.Load() || t.sock == nil {
		return false
	}

	seq := t.nextSequence()
	p := &packet.Packet{
		Type:        packet.Data,
		Sequence:    seq,
		TimestampMs: nowMs(),
		RequiresAck: reliable || t.cfg.Reliable,
		Payload:     payload,
	}

	wire, delay := txPipeline(p, t.obf, t.shaper)
	if len(wire) > t.cfg.MaxPacketSize {
		log.Printf("[WARN] udptransport: dropping oversized packet to %s (%d > %d)", addr, len(wire), t.cfg.MaxPacketSize)
		return false
	}

	if p.RequiresAck {
		t.pendingAcks.insert(seq, p, addrOf(addr))
	}

	if delay > 0 {
		time.Sleep(delay)
	} else {
		// The send path must yield at least once between the TX
		// pipeline and the socket write so the receive loop stays
		// responsive under a tight send burst.
		runtime.Gosched()
	}

	if _, err := t.sock.WriteTo(wire, addrOf(addr)); err != nil {
		log.Printf("[ERROR] udptransport: write to %s: %v", addr, err)
		return false
	}

	t.peers.TouchSend(addr, time.Now())
	t.sizeStats.record(len(wire))
	return true
}

// SendPing builds and sends a PING carrying the current timestamp,
// bypassing the shaper. Errors are swallowed per the wire contract.
func (t *Transport) SendPing(addr peer.Addr) {
	if !t.running.Load() || t.sock == nil {
		return
	}
	p := &packet.Packet{
		Type:        packet.Ping,
		Sequence:    t.nextSequence(),
		TimestampMs: nowMs(),
	}
	wire, _ := txPipeline(p, t.obf, t.shaper)
	if _, err := t.sock.WriteTo(wire, addrOf(addr)); err != nil {
		log.Printf("[DEBUG] udptransport: ping to %s: %v", addr, err)
	}
}

// SendHolePunch emits a liveness-only HOLE_PUNCH probe, bypassing the
// shaper. Errors are swallowed per the wire contract.
func (t *Transport) SendHolePunch(addr peer.Addr) {
	if !t.running.Load() || t.sock == nil {
		return
	}
	p := &packet.Packet{
		Type:     packet.HolePunch,
		Sequence: t.nextSequence(),
	}
	wire, _ := txPipeline(p, t.obf, t.shaper)
	if _, err := t.sock.WriteTo(wire, addrOf(addr)); err != nil {
		log.Printf("[DEBUG] udptransport: hole punch to %s: %v", addr, err)
	}
}

func (t *Transport) sendControl(pktType packet.Type, addr net.Addr, timestampMs uint64) {
	p := &packet.Packet{
		Type:        pktType,
		Sequence:    t.nextSequence(),
		TimestampMs: timestampMs,
	}
	wire, _ := txPipeline(p, t.obf, t.shaper)
	if _, err := t.sock.WriteTo(wire, addr); err != nil {
		log.Printf("[DEBUG] udptransport: control send to %s: %v", addr, err)
	}
}

// GetPeerInfo returns a copy of addr's peer record.
func (t *Transport) GetPeerInfo(addr peer.Addr) (peer.Record, bool) {
	return t.peers.Get(addr)
}

// GetAllPeers returns a snapshot of every known peer record.
func (t *Transport) GetAllPeers() map[peer.Addr]peer.Record {
	return t.peers.All()
}

// GetStats returns a read-only statistics snapshot.
func (t *Transport) GetStats() Stats {
	return t.snapshotStats()
}

func nowMs() uint64 {
	return uint64(time.Now().UnixMilli())
}

/* vim :set ts=4 sw=4 sts=4 noet : */
