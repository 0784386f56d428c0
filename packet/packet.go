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

// Package packet implements the fixed-header datagram format shared by the
// UDP transport: a 16-byte big-endian header followed by an arbitrary-length
// payload.
package packet

import (
	"encoding/binary"
	"fmt"
)

// Type is the packet's wire type tag.
type Type uint8

const (
	// Data carries an application payload.
	Data Type = 0x01
	// Ack acknowledges receipt of a reliable Data packet.
	Ack Type = 0x02
	// Ping is a liveness/RTT probe.
	Ping Type = 0x03
	// Pong answers a Ping, echoing its timestamp.
	Pong Type = 0x04
	// HolePunch is a NAT traversal probe; liveness only.
	HolePunch Type = 0x05
	// Handshake is reserved; decoded but otherwise ignored by the core.
	Handshake Type = 0x06
	// Close is reserved; decoded but otherwise ignored by the core.
	Close Type = 0x07
)

func (t Type) String() string {
	switch t {
	case Data:
		return "DATA"
	case Ack:
		return "ACK"
	case Ping:
		return "PING"
	case Pong:
		return "PONG"
	case HolePunch:
		return "HOLE_PUNCH"
	case Handshake:
		return "HANDSHAKE"
	case Close:
		return "CLOSE"
	default:
		return fmt.Sprintf("Type(0x%02x)", uint8(t))
	}
}

func (t Type) valid() bool {
	switch t {
	case Data, Ack, Ping, Pong, HolePunch, Handshake, Close:
		return true
	default:
		return false
	}
}

const (
	// HeaderLength is the fixed size of the packet header in bytes.
	HeaderLength = 16

	flagRequiresAck = 0x01
)

// MalformedPacketError is returned by Decode when the buffer is too short
// to contain the declared header and payload.
type MalformedPacketError int

func (e MalformedPacketError) Error() string {
	return fmt.Sprintf("packet: malformed packet, have %d bytes", int(e))
}

// UnknownTypeError is returned by Decode when the type byte is not one of
// the enumerated packet types.
type UnknownTypeError uint8

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("packet: unknown packet type 0x%02x", uint8(e))
}

// Packet is a decoded datagram.
type Packet struct {
	Type        Type
	Sequence    uint32
	TimestampMs uint64
	RequiresAck bool
	Payload     []byte
}

// Encode serializes p into a freshly allocated byte slice: a 16-byte
// big-endian header followed by len(Payload) bytes of payload.
func Encode(p *Packet) []byte {
	buf := make([]byte, HeaderLength+len(p.Payload))

	buf[0] = byte(p.Type)
	binary.BigEndian.PutUint32(buf[1:5], p.Sequence)
	binary.BigEndian.PutUint64(buf[5:13], p.TimestampMs)

	var flags byte
	if p.RequiresAck {
		flags |= flagRequiresAck
	}
	buf[13] = flags

	binary.BigEndian.PutUint16(buf[14:16], uint16(len(p.Payload)))
	copy(buf[HeaderLength:], p.Payload)

	return buf
}

// Decode parses buf into a Packet. Trailing bytes beyond the declared
// payload length are ignored, so that shaper padding can be stripped either
// before or after Decode runs. Decode never mutates buf; the returned
// Packet's Payload aliases buf's backing array.
func Decode(buf []byte) (*Packet, error) {
	if len(buf) < HeaderLength {
		return nil, MalformedPacketError(len(buf))
	}

	typ := Type(buf[0])
	if !typ.valid() {
		return nil, UnknownTypeError(buf[0])
	}

	seq := binary.BigEndian.Uint32(buf[1:5])
	ts := binary.BigEndian.Uint64(buf[5:13])
	flags := buf[13]
	payloadLen := int(binary.BigEndian.Uint16(buf[14:16]))

	if len(buf) < HeaderLength+payloadLen {
		return nil, MalformedPacketError(len(buf))
	}

	return &Packet{
		Type:        typ,
		Sequence:    seq,
		TimestampMs: ts,
		RequiresAck: flags&flagRequiresAck != 0,
		Payload:     buf[HeaderLength : HeaderLength+payloadLen],
	}, nil
}

/* vim :set ts=4 sw=4 sts=4 noet : */
