/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See socket.go for the license text.
 */

package udptransport

import (
	"errors"
	"log"
	"net"
	"time"

	"github.com/x0tta6bl4/shapedmesh/packet"
	"github.com/x0tta6bl4/shapedmesh/peer"
)

// receiveLoop runs until Stop closes stopCh: a non-blocking-ish read (via a
// short read deadline) followed by the RX pipeline and dispatch by packet
// type.
func (t *Transport) receiveLoop() {
	defer t.wg.Done()

	buf := make([]byte, 65536)
	for {
		select {
		case <-t.stopCh:
			return
		default:
		}

		t.sock.SetReadDeadline(time.Now().Add(time.Millisecond))
		n, from, err := t.sock.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			log.Printf("[DEBUG] udptransport: receive: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		t.handleDatagram(append([]byte(nil), buf[:n]...), from)
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (t *Transport) handleDatagram(raw []byte, from net.Addr) {
	p, err := rxPipeline(raw, t.obf, t.shaper)
	if err != nil {
		log.Printf("[DEBUG] udptransport: decode from %s: %v", from, err)
		return
	}

	fromAddr := peerAddrOf(from)
	t.peers.TouchRecv(fromAddr, time.Now())

	switch p.Type {
	case packet.Data:
		t.handleData(p, from, fromAddr)
	case packet.Ping:
		t.sendControl(packet.Pong, from, p.TimestampMs)
	case packet.Pong:
		rtt := int64(nowMs()) - int64(p.TimestampMs)
		if rtt < 0 {
			rtt = 0
		}
		t.peers.RecordRTT(fromAddr, rtt)
	case packet.Ack:
		t.pendingAcks.ack(p.Sequence)
	case packet.HolePunch:
		// Liveness only; TouchRecv above already covers it.
	case packet.Handshake, packet.Close:
		// Reserved, decoded but ignored by the core.
	}
}

func (t *Transport) handleData(p *packet.Packet, from net.Addr, fromAddr peer.Addr) {
	if p.RequiresAck {
		t.sendAckFor(p.Sequence, from)
	}

	t.handlerMu.Lock()
	h := t.dataHandler
	t.handlerMu.Unlock()

	if h == nil {
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[ERROR] udptransport: data handler panicked: %v", r)
			}
		}()
		h(p.Payload, fromAddr)
	}()
}

// sendAckFor emits an ACK carrying the sequence of the DATA packet it
// acknowledges, not a fresh one: the sender matches ACKs against its
// pending-ACK map by that sequence number.
func (t *Transport) sendAckFor(seq uint32, to net.Addr) {
	ack := &packet.Packet{Type: packet.Ack, Sequence: seq}
	wire, _ := txPipeline(ack, t.obf, t.shaper)
	if _, err := t.sock.WriteTo(wire, to); err != nil {
		log.Printf("[DEBUG] udptransport: ack to %s: %v", to, err)
	}
}

// maintenanceLoop runs once per second until Stop closes stopCh: evicts
// timed-out peers, pings idle ones, and ages out exhausted pending ACKs.
func (t *Transport) maintenanceLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.runMaintenanceTick(time.Now())
		}
	}
}

func (t *Transport) runMaintenanceTick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] udptransport: maintenance tick panicked: %v", r)
		}
	}()

	snapshot := t.peers.All()

	for _, addr := range t.peers.Expire(now, t.cfg.PeerTimeout) {
		t.handlerMu.Lock()
		h := t.timeoutHandler
		t.handlerMu.Unlock()
		if h != nil {
			h(addr)
		}
	}

	for addr, rec := range snapshot {
		idle := now.Sub(rec.LastSeen)
		if idle > t.cfg.PeerTimeout {
			continue // already handled above
		}
		if idle > t.cfg.PingInterval {
			t.SendPing(addr)
		}
	}

	for _, dest := range t.pendingAcks.tickRetries(t.cfg.MaxRetries) {
		t.peers.RecordLoss(peerAddrOf(dest))
	}
}

/* vim :set ts=4 sw=4 sts=4 noet : */
