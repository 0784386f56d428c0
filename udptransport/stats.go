/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See socket.go for the license text.
 */

package udptransport

import (
	"sync"
	"time"
)

// PacketSizeStats is the aggregated wire-size analysis of every DATA packet
// this transport has sent, tracked the way the reference transport's
// traffic analyzer records one sample per outbound packet.
type PacketSizeStats struct {
	Count   uint64
	MinSize int
	MaxSize int
	AvgSize float64
}

// packetSizeTracker accumulates PacketSizeStats incrementally so GetStats
// never has to re-walk every packet ever sent.
type packetSizeTracker struct {
	mu    sync.Mutex
	count uint64
	min   int
	max   int
	sum   uint64
}

func (s *packetSizeTracker) record(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 || n < s.min {
		s.min = n
	}
	if n > s.max {
		s.max = n
	}
	s.sum += uint64(n)
	s.count++
}

func (s *packetSizeTracker) snapshot() PacketSizeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	avg := 0.0
	if s.count > 0 {
		avg = float64(s.sum) / float64(s.count)
	}
	return PacketSizeStats{Count: s.count, MinSize: s.min, MaxSize: s.max, AvgSize: avg}
}

// Stats is the read-only snapshot returned by Transport.GetStats.
type Stats struct {
	LocalAddr        string
	UptimeSeconds    float64
	PeerCount        int
	PacketsSent      uint64
	PacketsReceived  uint64
	PacketsPerSecond float64
	Profile          string
	ObfuscationID    string
	PacketSizes      PacketSizeStats
}

func (t *Transport) snapshotStats() Stats {
	peers := t.peers.All()

	var sent, recv uint64
	for _, r := range peers {
		sent += r.PacketsSent
		recv += r.PacketsReceived
	}

	uptime := time.Since(t.startedAt).Seconds()
	var pps float64
	if uptime > 0 {
		// Matches the reference transport's get_stats(): packets-per-second
		// is sent throughput, not combined send+receive traffic.
		pps = float64(sent) / uptime
	}

	local := ""
	if t.sock != nil {
		local = t.sock.LocalAddr().String()
	}

	return Stats{
		LocalAddr:        local,
		UptimeSeconds:    uptime,
		PeerCount:        len(peers),
		PacketsSent:      sent,
		PacketsReceived:  recv,
		PacketsPerSecond: pps,
		Profile:          t.cfg.Profile,
		ObfuscationID:    t.cfg.ObfuscationID,
		PacketSizes:      t.sizeStats.snapshot(),
	}
}

/* vim :set ts=4 sw=4 sts=4 noet : */
