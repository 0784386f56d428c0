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

// Package udptransport implements the UDP data-plane transport: socket
// ownership, the receive and maintenance loops, the pending-ACK reliability
// layer, and the public send/receive API layered on top of the packet
// codec, the obfuscation contract, and the shaping contract.
package udptransport

import (
	"net"
	"time"
)

// packetSocket is the subset of net.PacketConn the transport depends on.
// Tests substitute an in-memory fake behind this interface instead of
// binding a real OS socket, the way a sandboxed CI run must.
type packetSocket interface {
	ReadFrom(b []byte) (n int, addr net.Addr, err error)
	WriteTo(b []byte, addr net.Addr) (n int, err error)
	SetReadDeadline(t time.Time) error
	LocalAddr() net.Addr
	Close() error
}

// udpSocket wraps *net.UDPConn so it satisfies packetSocket without any
// adaptation; it exists purely so the field type in Transport stays the
// narrow interface rather than *net.UDPConn.
type udpSocket struct {
	*net.UDPConn
}

func bindUDPSocket(host string, port int) (packetSocket, error) {
	addr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, BindError{Host: host, Port: port, Err: err}
	}
	return udpSocket{conn}, nil
}

// BindError is returned by Start when opening or binding the transport's
// socket fails.
type BindError struct {
	Host string
	Port int
	Err  error
}

func (e BindError) Error() string {
	return "udptransport: bind " + e.Host + ":" + itoa(e.Port) + ": " + e.Err.Error()
}

func (e BindError) Unwrap() error { return e.Err }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

/* vim :set ts=4 sw=4 sts=4 noet : */
