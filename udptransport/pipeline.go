/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See socket.go for the license text.
 */

package udptransport

import (
	"time"

	"github.com/x0tta6bl4/shapedmesh/obfuscation"
	"github.com/x0tta6bl4/shapedmesh/packet"
	"github.com/x0tta6bl4/shapedmesh/shaping"
)

// controlBypassesShaper reports whether a packet type is latency-sensitive
// enough that the shaper (padding and delay) is skipped entirely; only the
// obfuscator still applies.
func controlBypassesShaper(t packet.Type) bool {
	switch t {
	case packet.Ping, packet.Pong, packet.Ack, packet.HolePunch:
		return true
	default:
		return false
	}
}

// txPipeline runs framing -> obfuscate -> shape and returns the wire bytes
// plus the delay the caller should wait before writing them to the socket.
// Control packets bypass the shaper entirely, per the pipeline contract.
func txPipeline(p *packet.Packet, obf obfuscation.Obfuscator, shaper shaping.Shaper) ([]byte, time.Duration) {
	wire := packet.Encode(p)

	if obf != nil {
		wire = obf.Obfuscate(wire)
	}

	if shaper == nil || controlBypassesShaper(p.Type) {
		return wire, 0
	}

	return shaper.ShapePacket(wire), shaper.GetSendDelay()
}

// rxPipeline runs unshape -> deobfuscate -> decode. Control packets never
// pass through the shaper on the wire, so a receiver that doesn't yet know
// a datagram's type tries the cheap path first: decode it directly, and
// only fall back to stripping a shaper envelope if that fails. A shaped
// DATA packet's first bytes are a length prefix, which will essentially
// never happen to decode as a valid header, so this ordering resolves the
// ambiguity in practice without needing an out-of-band "was this shaped"
// flag on the wire.
func rxPipeline(buf []byte, obf obfuscation.Obfuscator, shaper shaping.Shaper) (*packet.Packet, error) {
	if p, err := decodeObfuscated(buf, obf); err == nil {
		return p, nil
	}

	if shaper == nil {
		return decodeObfuscated(buf, obf)
	}

	unshaped, err := shaper.UnshapePacket(buf)
	if err != nil {
		return nil, err
	}
	return decodeObfuscated(unshaped, obf)
}

func decodeObfuscated(buf []byte, obf obfuscation.Obfuscator) (*packet.Packet, error) {
	if obf != nil {
		buf = obf.Deobfuscate(buf)
	}
	return packet.Decode(buf)
}

/* vim :set ts=4 sw=4 sts=4 noet : */
