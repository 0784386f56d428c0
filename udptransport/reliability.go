/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See socket.go for the license text.
 */

package udptransport

import (
	"net"
	"sync"

	"github.com/x0tta6bl4/shapedmesh/packet"
)

// pendingAck tracks a reliable outbound DATA packet until it is ACKed or
// its retry budget is exhausted.
type pendingAck struct {
	packet      *packet.Packet
	destination net.Addr
	retries     int
}

// pendingAckTable is the sequence-keyed map of in-flight reliable sends.
// It is consulted and mutated by both the receive loop (on ACK) and the
// maintenance loop (on retry), so it carries its own lock; see DESIGN.md
// for why this is a second lock rather than reusing peer.Table's.
type pendingAckTable struct {
	mu    sync.Mutex
	byseq map[uint32]*pendingAck
}

func newPendingAckTable() *pendingAckTable {
	return &pendingAckTable{byseq: make(map[uint32]*pendingAck)}
}

func (t *pendingAckTable) insert(seq uint32, p *packet.Packet, dest net.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byseq[seq] = &pendingAck{packet: p, destination: dest}
}

// ack removes the entry for seq, reporting whether one existed.
func (t *pendingAckTable) ack(seq uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byseq[seq]; !ok {
		return false
	}
	delete(t.byseq, seq)
	return true
}

// tickRetries increments the retry counter on every pending entry and
// removes those whose retries now exceed maxRetries, returning their
// destinations so the caller can record a loss against each.
func (t *pendingAckTable) tickRetries(maxRetries int) []net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()

	var exhausted []net.Addr
	for seq, p := range t.byseq {
		p.retries++
		if p.retries > maxRetries {
			exhausted = append(exhausted, p.destination)
			delete(t.byseq, seq)
		}
	}
	return exhausted
}

/* vim :set ts=4 sw=4 sts=4 noet : */
