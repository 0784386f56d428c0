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

// Package obfuscation defines the byte-transform contract the transports
// consume to disguise packet structure, plus a small set of concrete
// providers (none, xor, faketls, shadowsocks). The contract is total: a
// provider that cannot invert a buffer must return it unchanged rather than
// erroring, and no provider may assume calls are ordered or paired across
// peers.
package obfuscation

import (
	"errors"
	"log"
)

// ErrStreamOnly is returned by New when the "faketls" identifier is
// requested for a UDP transport; FakeTLS framing only makes sense over a
// reliable stream.
var ErrStreamOnly = errors.New("obfuscation: faketls requires a stream transport, not UDP")

// Obfuscator transforms bytes on the way out and reverses the transform on
// the way in. Deobfuscate(Obfuscate(x)) must equal x for every x; providers
// keep no state that Obfuscate/Deobfuscate calls depend on being paired.
type Obfuscator interface {
	Obfuscate(data []byte) []byte
	Deobfuscate(data []byte) []byte
}

// Known identifiers, per the wire contract.
const (
	None        = "none"
	XOR         = "xor"
	FakeTLS     = "faketls"
	Shadowsocks = "shadowsocks"
)

// streamOnly reports whether id is only usable over a reliable stream
// transport (WebSocket), not UDP.
func streamOnly(id string) bool {
	return id == FakeTLS
}

// New constructs the obfuscator named by id, keyed by key. A nil Obfuscator
// with a nil error means "no obfuscation installed" ("none", or an
// unrecognized identifier, which logs a warning per the wire contract).
// ErrStreamOnly is returned when "faketls" is requested with udp true.
func New(id, key string, udp bool) (Obfuscator, error) {
	switch id {
	case None, "":
		return nil, nil
	case XOR:
		return newXOR(key), nil
	case FakeTLS:
		if udp {
			return nil, ErrStreamOnly
		}
		return newFakeTLS(key), nil
	case Shadowsocks:
		return newShadowsocks(key), nil
	default:
		log.Printf("[WARN] obfuscation: unknown identifier %q, disabling obfuscation", id)
		return nil, nil
	}
}

// StreamOnly reports whether id may only be used over a reliable stream
// transport (WebSocket), not UDP.
func StreamOnly(id string) bool {
	return streamOnly(id)
}

/* vim :set ts=4 sw=4 sts=4 noet : */
