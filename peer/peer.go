/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions are met:
 *
 *  * Redistributions of source code must retain the above copyright notice,
 *    this list of conditions and the following disclaimer.
 *
 *  * Redistributions in binary form must reproduce the above copyright notice,
 *    this list of conditions and the following disclaimer in the documentation
 *    and/or other materials provided with the distribution.
 *
 * THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
 * AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
 * IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
 * ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
 * LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
 * CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
 * SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
 * INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
 * CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
 * ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

// Package peer implements the per-address liveness and statistics table
// shared by the UDP transport's receive and maintenance loops.
package peer

import (
	"fmt"
	"sync"
	"time"
)

// Addr identifies a peer by its UDP endpoint.
type Addr struct {
	Host string
	Port int
}

// String renders the address the way log lines and metric labels expect.
func (a Addr) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Record holds the liveness and traffic counters for one peer address.
// All fields are read under the owning Table's lock; callers outside this
// package only ever see a copy returned by Table.Get/Table.All.
type Record struct {
	LastSeen        time.Time
	RTTMillis       int64
	PacketsSent     uint64
	PacketsReceived uint64
	PacketsLost     uint64
}

// LossPct is the percentage of sent packets counted as lost. It is 0, not
// NaN, when no packets have been sent yet.
func (r Record) LossPct() float64 {
	if r.PacketsSent == 0 {
		return 0
	}
	return float64(r.PacketsLost) / float64(r.PacketsSent) * 100
}

// Table is the single-owner store of peer records, guarded by one mutex so
// that the receive loop, the maintenance loop, and caller goroutines
// calling SendTo can all touch it safely without a more elaborate locking
// scheme.
type Table struct {
	mu      sync.Mutex
	records map[Addr]*Record
}

// NewTable returns an empty peer table.
func NewTable() *Table {
	return &Table{records: make(map[Addr]*Record)}
}

func (t *Table) ensureLocked(addr Addr) *Record {
	r, ok := t.records[addr]
	if !ok {
		r = &Record{}
		t.records[addr] = r
	}
	return r
}

// TouchRecv ensures a record exists for addr, stamps LastSeen to now, and
// increments PacketsReceived.
func (t *Table) TouchRecv(addr Addr, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.ensureLocked(addr)
	r.LastSeen = now
	r.PacketsReceived++
}

// TouchSend ensures a record exists for addr, stamps LastSeen to now, and
// increments PacketsSent.
func (t *Table) TouchSend(addr Addr, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.ensureLocked(addr)
	r.LastSeen = now
	r.PacketsSent++
}

// RecordRTT overwrites the last observed round-trip time for addr. No
// smoothing or averaging is performed; the most recent PONG wins.
func (t *Table) RecordRTT(addr Addr, rttMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.ensureLocked(addr)
	r.RTTMillis = rttMs
}

// RecordLoss increments the loss counter for addr.
func (t *Table) RecordLoss(addr Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.ensureLocked(addr)
	r.PacketsLost++
}

// Expire removes and returns the addresses of every entry whose LastSeen
// is older than ttl relative to now.
func (t *Table) Expire(now time.Time, ttl time.Duration) []Addr {
	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []Addr
	for addr, r := range t.records {
		if now.Sub(r.LastSeen) > ttl {
			evicted = append(evicted, addr)
			delete(t.records, addr)
		}
	}
	return evicted
}

// Get returns a copy of addr's record and whether it exists.
func (t *Table) Get(addr Addr) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[addr]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// All returns a snapshot copy of every known peer record, keyed by
// address. Mutating the returned map does not affect the table.
func (t *Table) All() map[Addr]Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Addr]Record, len(t.records))
	for addr, r := range t.records {
		out[addr] = *r
	}
	return out
}

/* vim :set ts=4 sw=4 sts=4 noet : */
