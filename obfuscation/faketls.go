/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See obfuscation.go for the license text.
 */

package obfuscation

import "encoding/binary"

// fakeTLSHeaderLength is the size of the fake TLS record header prepended
// to every obfuscated buffer: 1 byte ContentType, 2 bytes legacy version,
// 2 bytes big-endian length.
const fakeTLSHeaderLength = 5

const (
	tlsContentTypeApplicationData = 0x17
	tlsLegacyVersion              = 0x0303
)

// fakeTLSObfuscator wraps payloads in a header shaped like a TLS 1.2
// application-data record, so the on-wire pattern mimics an ordinary HTTPS
// connection. The key is stored as an SNI-like name; it does not affect the
// per-record framing, and wstransport's outer TLS dial does not read it.
type fakeTLSObfuscator struct {
	sni string
}

func newFakeTLS(sni string) *fakeTLSObfuscator {
	if sni == "" {
		sni = "www.google.com"
	}
	return &fakeTLSObfuscator{sni: sni}
}

func (f *fakeTLSObfuscator) Obfuscate(data []byte) []byte {
	out := make([]byte, fakeTLSHeaderLength+len(data))
	out[0] = tlsContentTypeApplicationData
	binary.BigEndian.PutUint16(out[1:3], tlsLegacyVersion)
	binary.BigEndian.PutUint16(out[3:5], uint16(len(data)))
	copy(out[fakeTLSHeaderLength:], data)
	return out
}

// Deobfuscate validates and strips the fake record header. Per the
// contract, an input that doesn't parse as one of our own records is
// returned unchanged rather than raising.
func (f *fakeTLSObfuscator) Deobfuscate(data []byte) []byte {
	if len(data) < fakeTLSHeaderLength {
		return data
	}
	if data[0] != tlsContentTypeApplicationData {
		return data
	}
	if binary.BigEndian.Uint16(data[1:3]) != tlsLegacyVersion {
		return data
	}
	n := int(binary.BigEndian.Uint16(data[3:5]))
	if fakeTLSHeaderLength+n != len(data) {
		return data
	}
	return data[fakeTLSHeaderLength:]
}
