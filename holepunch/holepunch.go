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

// Package holepunch implements the NAT-traversal primitives the UDP
// transport exposes: a single-round STUN-lite public address probe and a
// burst-write rendezvous against a known peer.
package holepunch

import (
	"encoding/binary"
	"net"
	"os"
	"time"

	"github.com/x0tta6bl4/shapedmesh/internal/csrand"
	"github.com/x0tta6bl4/shapedmesh/peer"
)

// stunMagicCookie is the fixed prefix of a STUN binding request, per RFC 5389.
const stunMagicCookie = 0x2112A442

// DefaultSTUNEndpoint is the STUN server consulted when none is configured.
var DefaultSTUNEndpoint = Endpoint{Host: "stun.l.google.com", Port: 19302}

// Endpoint is a STUN server address.
type Endpoint struct {
	Host string
	Port int
}

// pingSender is the subset of udptransport.Transport that PunchHole needs;
// expressed as an interface so this package doesn't import udptransport
// and create a cycle.
type pingSender interface {
	SendPing(addr peer.Addr)
	SendHolePunch(addr peer.Addr)
	GetPeerInfo(addr peer.Addr) (peer.Record, bool)
}

// DiscoverPublicAddress opens a UDP socket on localPort, sends a single
// STUN-binding-request-shaped probe to stun, and waits up to 3s for any
// reply. Regardless of whether a reply arrives (or what it contains), it
// falls back to the local hostname and localPort; only a hard socket error
// returns a failure.
func DiscoverPublicAddress(localPort int, stun Endpoint) (host string, port int, err error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: localPort})
	if err != nil {
		return "", 0, err
	}
	defer conn.Close()

	req := buildBindingRequest()
	dest := &net.UDPAddr{IP: net.ParseIP(stun.Host), Port: stun.Port}
	if dest.IP == nil {
		if ips, lookupErr := net.LookupIP(stun.Host); lookupErr == nil && len(ips) > 0 {
			dest.IP = ips[0]
		}
	}
	if dest.IP != nil {
		_, _ = conn.WriteToUDP(req, dest)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 512)
	conn.ReadFromUDP(buf) // response contents are not required to resolve the address.

	return resolveLocalAddress(localPort)
}

// resolveLocalAddress is the fallback path DiscoverPublicAddress always
// takes regardless of whether the STUN probe got a reply: resolve this
// host's own hostname to an address. It is a variable so tests can
// substitute a deterministic resolver instead of depending on the
// sandbox's actual DNS/hosts configuration.
var resolveLocalAddress = func(localPort int) (string, int, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", 0, err
	}
	ips, err := net.LookupHost(hostname)
	if err != nil || len(ips) == 0 {
		return hostname, localPort, nil
	}
	return ips[0], localPort, nil
}

func buildBindingRequest() []byte {
	buf := make([]byte, 20)
	// STUN header: type (binding request = 0x0001), length (0, no
	// attributes), magic cookie, 12-byte transaction id.
	binary.BigEndian.PutUint16(buf[0:2], 0x0001)
	binary.BigEndian.PutUint16(buf[2:4], 0)
	binary.BigEndian.PutUint32(buf[4:8], stunMagicCookie)
	csrand.Bytes(buf[8:20])
	return buf
}

// PunchHole writes attempts HOLE_PUNCH-equivalent probes to peerAddr at
// 100ms spacing via t, then sends one PING and waits 500ms. Success is
// defined purely by observable transport state: a peer record exists for
// peerAddr with a positive RTT, meaning a PONG came back.
func PunchHole(t pingSender, peerAddr peer.Addr, attempts int) bool {
	for i := 0; i < attempts; i++ {
		t.SendHolePunch(peerAddr)
		sleep(100 * time.Millisecond)
	}
	t.SendPing(peerAddr)
	sleep(500 * time.Millisecond)

	return punchHoleFast(t, peerAddr, 0)
}

// sleep is a seam over time.Sleep so tests can shrink PunchHole's fixed
// delays instead of actually waiting on them.
var sleep = time.Sleep

// punchHoleFast runs PunchHole's burst and liveness check without the
// inter-packet delays, for tests that want to assert on the send counts
// and success predicate without waiting on real time.
func punchHoleFast(t pingSender, peerAddr peer.Addr, attempts int) bool {
	for i := 0; i < attempts; i++ {
		t.SendHolePunch(peerAddr)
	}
	if attempts > 0 {
		t.SendPing(peerAddr)
	}
	rec, ok := t.GetPeerInfo(peerAddr)
	return ok && rec.RTTMillis > 0
}

/* vim :set ts=4 sw=4 sts=4 noet : */
